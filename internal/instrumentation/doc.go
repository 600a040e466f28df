// Package instrumentation provides OpenTelemetry instrumentation for the
// inboxbrief MCP server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Mailbox Metrics:
//   - mailbox_operations_total: Counter of mailbox operations by provider, operation, status, error kind
//   - mailbox_operation_duration_seconds: Histogram of mailbox operation durations
//   - mail_bodies_extracted_total: Counter of fetched messages by extracted/skipped
//
// Summarizer Metrics:
//   - summary_sentences_selected: Histogram of sentences per summary
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and mailbox
// operations (mailbox.<operation>).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: inboxbrief)
//
// The stdout exporters write to stderr, since stdout carries the stdio
// transport.
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordMailboxOperation(ctx, "gmail.com", instrumentation.OperationFetch,
//		instrumentation.StatusSuccess, "", time.Since(start))
package instrumentation
