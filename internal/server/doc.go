// Package server provides the MCP server context and the HTTP surfaces of
// the inboxbrief application.
//
// # Key Components
//
// ServerContext carries the dependencies every tool handler needs: the
// inbox retrieval service, the summarizer, and the optional metrics and
// audit logger.
//
// HTTPServer exposes the streamable HTTP transport at /mcp together with
// Kubernetes-style probes:
//   - /healthz: liveness
//   - /readyz: readiness, failing once shutdown begins
//   - /healthz/detailed: version, uptime and configured providers
//
// Requests to /mcp are rate limited per client IP with a token bucket.
//
// MetricsServer serves Prometheus metrics on a dedicated port.
package server
