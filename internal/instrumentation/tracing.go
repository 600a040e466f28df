package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer for every span started by this package.
const TracerName = "github.com/teemow/inboxbrief"

// Span attribute keys.
const (
	SpanAttrTool      = "mcp.tool"
	SpanAttrUserHash  = "mcp.user_hash"
	SpanAttrErrorKind = "mcp.error_kind"

	// Requested and returned count messages for mail tools and sentences
	// for summaries.
	SpanAttrRequested = "mcp.requested"
	SpanAttrReturned  = "mcp.returned"

	SpanAttrProvider  = "mailbox.provider"
	SpanAttrOperation = "mailbox.operation"
	SpanAttrMailbox   = "mailbox.name"
)

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// withOptional appends key=value unless value is empty.
func withOptional(attrs []attribute.KeyValue, key, value string) []attribute.KeyValue {
	if value == "" {
		return attrs
	}
	return append(attrs, attribute.String(key, value))
}

// StartToolSpan starts the server span "tool.<name>" for one MCP call.
// userHash is the anonymized identity and may be empty.
func StartToolSpan(ctx context.Context, toolName, userHash string) (context.Context, trace.Span) {
	attrs := withOptional([]attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}, SpanAttrUserHash, userHash)
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
}

// StartMailboxSpan starts the client span "mailbox.<operation>" against a
// provider.
func StartMailboxSpan(ctx context.Context, provider, operation, mailbox, userHash string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String(SpanAttrProvider, provider),
		attribute.String(SpanAttrOperation, operation),
	}
	attrs = withOptional(attrs, SpanAttrMailbox, mailbox)
	attrs = withOptional(attrs, SpanAttrUserHash, userHash)
	return tracer().Start(ctx, "mailbox."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// FailSpan marks span as failed with an error kind. err is nil when the
// failure was reported as a tool result rather than a Go error.
func FailSpan(span trace.Span, kind string, err error) {
	span.SetAttributes(withOptional(nil, SpanAttrErrorKind, kind)...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Error, kind)
}

// SucceedSpan marks span as completed successfully.
func SucceedSpan(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// SetSpanCounts records how many items were asked for and delivered.
func SetSpanCounts(span trace.Span, requested, returned int) {
	span.SetAttributes(
		attribute.Int(SpanAttrRequested, requested),
		attribute.Int(SpanAttrReturned, returned),
	)
}

// SpanIDs returns the hex trace and span IDs of the span in ctx, or empty
// strings when there is none.
func SpanIDs(ctx context.Context) (traceID, spanID string) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}
