package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// MCPEndpoint is the path of the streamable HTTP MCP endpoint.
const MCPEndpoint = "/mcp"

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	Addr       string
	RateLimit  float64 // Requests per second per client IP, 0 disables
	RateBurst  int
	TrustProxy bool
	Version    string
}

// HTTPServer serves the MCP streamable HTTP transport alongside the
// health endpoints.
type HTTPServer struct {
	config     HTTPServerConfig
	mcpServer  *mcpserver.MCPServer
	sc         *ServerContext
	health     *HealthChecker
	limiter    *RateLimiter
	httpServer *http.Server
	listenAddr net.Addr
}

// NewHTTPServer wires mcpServer behind rate limiting and request metrics.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext, config HTTPServerConfig) *HTTPServer {
	s := &HTTPServer{
		config:    config,
		mcpServer: mcpServer,
		sc:        sc,
		health:    NewHealthChecker(sc, config.Version),
	}
	if config.RateLimit > 0 {
		s.limiter = NewRateLimiter(config.RateLimit, config.RateBurst, config.TrustProxy)
	}
	return s
}

// Health returns the health checker, e.g. to flip readiness during shutdown.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Handler returns the complete HTTP handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.health.RegisterHealthEndpoints(mux)

	var mcpHandler http.Handler = mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpoint),
	)
	if s.limiter != nil {
		mcpHandler = s.limiter.Middleware(mcpHandler)
	}
	mux.Handle(MCPEndpoint, mcpHandler)

	return s.instrument(mux)
}

// instrument records http_requests_total and request durations.
func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics := s.sc.Metrics()
		if metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, routeLabel(r.URL.Path), rec.status, time.Since(start))
	})
}

// routeLabel bounds the path label to known routes.
func routeLabel(path string) string {
	switch path {
	case MCPEndpoint, LivenessPath, ReadinessPath, DetailedHealthPath:
		return path
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Start listens on the configured address and serves until Shutdown.
// ready, when non-nil, is closed once the listener is bound.
func (s *HTTPServer) Start(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listenAddr = ln.Addr()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if s.limiter != nil {
		go s.pruneLimiters(s.sc.Context())
	}

	slog.Info("starting MCP HTTP server", "addr", s.listenAddr.String(), "endpoint", MCPEndpoint)
	if ready != nil {
		close(ready)
	}
	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *HTTPServer) pruneLimiters(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Prune()
		}
	}
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ListenAddr returns the bound address once the server has started.
func (s *HTTPServer) ListenAddr() string {
	if s.listenAddr == nil {
		return ""
	}
	return s.listenAddr.String()
}
