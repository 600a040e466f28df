package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/teemow/inboxbrief/internal/instrumentation"
)

// DefaultMetricsAddr is used when no metrics address is configured.
const DefaultMetricsAddr = ":9090"

// MetricsServer exposes the Prometheus scrape endpoint on its own port so
// that metrics never share a listener with the MCP endpoint.
type MetricsServer struct {
	addr       string
	handler    http.Handler
	httpServer *http.Server
	listenAddr net.Addr
}

// NewMetricsServer requires an enabled provider that exports to Prometheus.
func NewMetricsServer(addr string, provider *instrumentation.Provider) (*MetricsServer, error) {
	switch {
	case provider == nil:
		return nil, errors.New("instrumentation provider is required for metrics server")
	case !provider.Enabled():
		return nil, errors.New("instrumentation provider is not enabled")
	case provider.PrometheusHandler() == nil:
		return nil, errors.New("instrumentation provider has no prometheus exporter")
	}
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	return &MetricsServer{addr: addr, handler: provider.PrometheusHandler()}, nil
}

func (s *MetricsServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.handler)
	mux.HandleFunc(LivenessPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start serves until Shutdown, like HTTPServer.Start. ready, when non-nil,
// is closed once the listener is bound.
func (s *MetricsServer) Start(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listenAddr = ln.Addr()
	s.httpServer = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	slog.Info("starting metrics server", "addr", s.listenAddr.String())
	if ready != nil {
		close(ready)
	}
	if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown is a no-op before Start.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	slog.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

func (s *MetricsServer) Addr() string {
	return s.addr
}

// ListenAddr returns the bound address once the server has started.
func (s *MetricsServer) ListenAddr() string {
	if s.listenAddr == nil {
		return ""
	}
	return s.listenAddr.String()
}
