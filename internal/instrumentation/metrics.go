package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrProvider  = "provider"
	attrTool      = "tool"
	attrKind      = "error_kind"
	attrDomain    = "user_domain"
)

// Metrics records the server's counters and histograms. A nil or zero
// Metrics drops every observation.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	mailboxOperationsTotal   metric.Int64Counter
	mailboxOperationDuration metric.Float64Histogram
	bodiesExtractedTotal     metric.Int64Counter

	summarySentences metric.Int64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels adds the identity's domain to tool metrics.
	detailedLabels bool
}

// instruments creates instruments on a meter and collects every failure.
type instruments struct {
	meter metric.Meter
	errs  []error
}

func (in *instruments) counter(name, description, unit string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("counter %s: %w", name, err))
	}
	return c
}

func (in *instruments) seconds(name, description string, bounds ...float64) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name,
		metric.WithDescription(description),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(bounds...),
	)
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("histogram %s: %w", name, err))
	}
	return h
}

func (in *instruments) sizes(name, description, unit string, bounds ...float64) metric.Int64Histogram {
	h, err := in.meter.Int64Histogram(name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(bounds...),
	)
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("histogram %s: %w", name, err))
	}
	return h
}

// NewMetrics registers all instruments on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	in := &instruments{meter: meter}

	m := &Metrics{
		httpRequestsTotal: in.counter("http_requests_total",
			"Total number of HTTP requests", "{request}"),
		httpRequestDuration: in.seconds("http_request_duration_seconds",
			"HTTP request duration in seconds",
			0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10),

		// IMAP round trips dominate, so the buckets reach a minute.
		mailboxOperationsTotal: in.counter("mailbox_operations_total",
			"Total number of mailbox operations", "{operation}"),
		mailboxOperationDuration: in.seconds("mailbox_operation_duration_seconds",
			"Mailbox operation duration in seconds",
			0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
		bodiesExtractedTotal: in.counter("mail_bodies_extracted_total",
			"Total number of messages processed by the body extractor", "{message}"),

		summarySentences: in.sizes("summary_sentences_selected",
			"Number of sentences selected per summary", "{sentence}",
			0, 1, 2, 3, 5, 10, 20),

		toolInvocationsTotal: in.counter("mcp_tool_invocations_total",
			"Total number of MCP tool invocations", "{invocation}"),
		toolDuration: in.seconds("mcp_tool_duration_seconds",
			"MCP tool execution duration in seconds",
			0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),

		detailedLabels: detailedLabels,
	}

	if err := errors.Join(in.errs...); err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	return m, nil
}

// RecordHTTPRequest counts a request on the streamable HTTP transport.
// path must already be normalized to a bounded set of routes.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordMailboxOperation counts one fetch or extract against a provider
// domain, or ProviderMbox for local files. kind is empty on success.
func (m *Metrics) RecordMailboxOperation(ctx context.Context, provider, operation, status, kind string, duration time.Duration) {
	if m == nil || m.mailboxOperationsTotal == nil || m.mailboxOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrProvider, provider),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}
	if kind != "" {
		attrs = append(attrs, attribute.String(attrKind, kind))
	}

	m.mailboxOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.mailboxOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordBodiesExtracted records how many fetched messages yielded a body
// and how many were skipped.
func (m *Metrics) RecordBodiesExtracted(ctx context.Context, extracted, skipped int) {
	if m == nil || m.bodiesExtractedTotal == nil {
		return
	}

	if extracted > 0 {
		m.bodiesExtractedTotal.Add(ctx, int64(extracted), metric.WithAttributes(attribute.String(attrStatus, "extracted")))
	}
	if skipped > 0 {
		m.bodiesExtractedTotal.Add(ctx, int64(skipped), metric.WithAttributes(attribute.String(attrStatus, "skipped")))
	}
}

// RecordSummary records the number of sentences a summary selected.
func (m *Metrics) RecordSummary(ctx context.Context, sentences int) {
	if m == nil || m.summarySentences == nil {
		return
	}

	m.summarySentences.Record(ctx, int64(sentences))
}

// RecordToolInvocation is RecordToolInvocationWithIdentity without an
// identity.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	m.RecordToolInvocationWithIdentity(ctx, toolName, status, "", duration)
}

// RecordToolInvocationWithIdentity records an MCP tool invocation. The
// identity's domain is only attached when detailed labels are enabled.
func (m *Metrics) RecordToolInvocationWithIdentity(ctx context.Context, toolName, status, identity string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	if m.detailedLabels && identity != "" {
		attrs = append(attrs, attribute.String(attrDomain, ExtractUserDomain(identity)))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
