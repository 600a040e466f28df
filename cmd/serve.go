package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxbrief/internal/config"
	"github.com/teemow/inboxbrief/internal/inbox"
	"github.com/teemow/inboxbrief/internal/instrumentation"
	"github.com/teemow/inboxbrief/internal/logging"
	"github.com/teemow/inboxbrief/internal/mailbox"
	"github.com/teemow/inboxbrief/internal/nlp"
	"github.com/teemow/inboxbrief/internal/resources"
	"github.com/teemow/inboxbrief/internal/server"
	"github.com/teemow/inboxbrief/internal/summarize"
	"github.com/teemow/inboxbrief/internal/tools/mail_tools"
	"github.com/teemow/inboxbrief/internal/tools/text_tools"
)

// serveFlags holds the serve command's flag values. They are applied on top
// of the loaded configuration only when set explicitly.
type serveFlags struct {
	transport      string
	httpAddr       string
	rateLimit      float64
	trustProxy     bool
	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide mailbox
retrieval and summarization tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp

Tools:
  - get_last_email_text: plain-text bodies of the newest messages
  - summarize_text: extractive summary of a text
  - summarize_last_emails: fetch and summarize in one call

Mailbox credentials are passed per call and never stored or logged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appConfig
			applyServeFlags(cmd, flags, &cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cfg)
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVar(&flags.transport, "transport", defaults.Server.Transport, "Transport type: stdio or streamable-http. Can also use INBOXBRIEF_TRANSPORT env var.")
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", defaults.Server.HTTPAddr, "HTTP server address (for streamable-http transport). Can also use INBOXBRIEF_HTTP_ADDR env var.")
	cmd.Flags().Float64Var(&flags.rateLimit, "rate-limit", defaults.Server.RateLimit, "Requests per second allowed per client IP on /mcp, 0 disables. Can also use INBOXBRIEF_RATE_LIMIT env var.")
	cmd.Flags().BoolVar(&flags.trustProxy, "trust-proxy", false, "Use X-Forwarded-For to identify clients (only behind a trusted proxy). Can also use INBOXBRIEF_TRUST_PROXY env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&flags.metricsEnabled, "metrics-enabled", defaults.Metrics.Enabled, "Enable the metrics server on a dedicated port. Can also use INBOXBRIEF_METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", defaults.Metrics.Addr, "Metrics server address. Can also use INBOXBRIEF_METRICS_ADDR env var.")

	return cmd
}

// applyServeFlags overrides cfg with flags the user set explicitly.
func applyServeFlags(cmd *cobra.Command, flags serveFlags, cfg *config.Config) {
	if cmd.Flags().Changed("transport") {
		cfg.Server.Transport = flags.transport
	}
	if cmd.Flags().Changed("http-addr") {
		cfg.Server.HTTPAddr = flags.httpAddr
	}
	if cmd.Flags().Changed("rate-limit") {
		cfg.Server.RateLimit = flags.rateLimit
	}
	if cmd.Flags().Changed("trust-proxy") {
		cfg.Server.TrustProxy = flags.trustProxy
	}
	if cmd.Flags().Changed("metrics-enabled") {
		cfg.Metrics.Enabled = flags.metricsEnabled
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.Addr = flags.metricsAddr
	}
}

func runServe(cfg config.Config) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stdio := cfg.Server.Transport == config.TransportStdio

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			slog.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if !stdio && cfg.Metrics.Enabled && provider.Enabled() && provider.PrometheusHandler() != nil {
		metricsServer, err = startMetricsServer(cfg.Metrics.Addr, provider)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				slog.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	serverContext, err := newServerContext(shutdownCtx, cfg, provider, instrConfig.AuditLogging)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			slog.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxbrief", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch cfg.Server.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Server.Transport)
	}
}

func startMetricsServer(addr string, provider *instrumentation.Provider) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(addr, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	ready := make(chan struct{})
	startErr := make(chan error, 1)
	go func() {
		startErr <- metricsServer.Start(ready)
	}()

	select {
	case <-ready:
		return metricsServer, nil
	case err := <-startErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, errors.New("metrics server startup timed out")
	}
}

// newServerContext assembles the segmenter, summarizer and IMAP-backed inbox
// service shared by all tools.
func newServerContext(ctx context.Context, cfg config.Config, provider *instrumentation.Provider, audit instrumentation.AuditLoggingConfig) (*server.ServerContext, error) {
	seg, err := nlp.NewEnglishSegmenter()
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence segmenter: %w", err)
	}

	var metrics *instrumentation.Metrics
	if provider != nil && provider.Enabled() {
		metrics = provider.Metrics()
	}

	svc := newInboxService(cfg, metrics)
	return server.NewServerContext(ctx, cfg, svc, summarize.New(seg),
		server.WithMetrics(metrics),
		server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(nil, audit)),
		server.WithLogger(slog.Default()),
	)
}

func newInboxService(cfg config.Config, metrics *instrumentation.Metrics) *inbox.Service {
	providers := cfg.ProviderTable()
	fetcher := mailbox.NewIMAPFetcher(mailbox.IMAPOptions{
		Providers:          providers,
		DialTimeout:        cfg.IMAP.DialTimeout,
		MaxRetries:         cfg.IMAP.MaxRetries,
		InitialBackoff:     cfg.IMAP.InitialBackoff,
		InsecureSkipVerify: cfg.IMAP.InsecureSkipVerify,
		Logger:             logging.NewSlogAdapter(slog.Default()),
	})
	return inbox.NewService(inbox.Options{
		Fetcher:        fetcher,
		Providers:      providers,
		AllowedDomains: cfg.AllowedDomains,
		MaxCount:       cfg.IMAP.MaxCount,
		Metrics:        metrics,
		Logger:         slog.Default(),
	})
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("stdio server stopped with error: %w", err)
	}
	return nil
}

// registrations lists everything the server exposes, in registration order.
var registrations = []struct {
	name     string
	register func(*mcpserver.MCPServer, *server.ServerContext) error
}{
	{"mail tools", mail_tools.RegisterMailTools},
	{"text tools", text_tools.RegisterTextTools},
	{"server resources", resources.RegisterServerResources},
}

func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	for _, r := range registrations {
		if err := r.register(mcpSrv, sc); err != nil {
			return fmt.Errorf("failed to register %s: %w", r.name, err)
		}
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg config.Config) error {
	httpServer := server.NewHTTPServer(mcpSrv, sc, server.HTTPServerConfig{
		Addr:       cfg.Server.HTTPAddr,
		RateLimit:  cfg.Server.RateLimit,
		RateBurst:  cfg.Server.RateBurst,
		TrustProxy: cfg.Server.TrustProxy,
		Version:    version,
	})

	slog.Info("starting inboxbrief MCP server",
		"transport", cfg.Server.Transport,
		"addr", cfg.Server.HTTPAddr,
		"endpoint", server.MCPEndpoint,
		"probes", []string{server.LivenessPath, server.ReadinessPath, server.DetailedHealthPath},
		"metrics_enabled", cfg.Metrics.Enabled)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(nil); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		slog.Info("HTTP server stopped normally")
	}

	slog.Info("HTTP server gracefully stopped")
	return nil
}
