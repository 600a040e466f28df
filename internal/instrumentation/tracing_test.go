package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// useSpanRecorder installs a recording tracer provider for the duration of t.
func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		m[string(attr.Key)] = attr.Value.AsInterface()
	}
	return m
}

func TestStartToolSpan(t *testing.T) {
	recorder := useSpanRecorder(t)

	_, span := StartToolSpan(context.Background(), "get_last_email_text", "user:0123456789abcdef")
	SetSpanCounts(span, 5, 3)
	SucceedSpan(span)
	span.End()

	_, anonymous := StartToolSpan(context.Background(), "summarize_text", "")
	anonymous.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	mail := ended[0]
	assert.Equal(t, "tool.get_last_email_text", mail.Name())
	assert.Equal(t, trace.SpanKindServer, mail.SpanKind())
	assert.Equal(t, codes.Ok, mail.Status().Code)
	assert.Equal(t, map[string]any{
		SpanAttrTool:      "get_last_email_text",
		SpanAttrUserHash:  "user:0123456789abcdef",
		SpanAttrRequested: int64(5),
		SpanAttrReturned:  int64(3),
	}, attrMap(mail.Attributes()))

	assert.NotContains(t, attrMap(ended[1].Attributes()), SpanAttrUserHash)
}

func TestStartMailboxSpan_ChildOfToolSpan(t *testing.T) {
	recorder := useSpanRecorder(t)

	ctx, parent := StartToolSpan(context.Background(), "get_last_email_text", "")
	_, child := StartMailboxSpan(ctx, "gmail.com", OperationFetch, "INBOX", "")
	child.End()
	parent.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	span := ended[0]

	assert.Equal(t, "mailbox.fetch", span.Name())
	assert.Equal(t, trace.SpanKindClient, span.SpanKind())
	assert.Equal(t, ended[1].SpanContext().SpanID(), span.Parent().SpanID())

	attrs := attrMap(span.Attributes())
	assert.Equal(t, "gmail.com", attrs[SpanAttrProvider])
	assert.Equal(t, OperationFetch, attrs[SpanAttrOperation])
	assert.Equal(t, "INBOX", attrs[SpanAttrMailbox])
	assert.NotContains(t, attrs, SpanAttrUserHash)
}

func TestFailSpan(t *testing.T) {
	recorder := useSpanRecorder(t)

	_, withErr := StartToolSpan(context.Background(), "get_last_email_text", "")
	FailSpan(withErr, "auth_error", errors.New("login rejected"))
	withErr.End()

	_, asResult := StartToolSpan(context.Background(), "summarize_text", "")
	FailSpan(asResult, "internal_error", nil)
	asResult.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "login rejected", ended[0].Status().Description)
	assert.Equal(t, "auth_error", attrMap(ended[0].Attributes())[SpanAttrErrorKind])
	require.Len(t, ended[0].Events(), 1, "the error is recorded as an event")

	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "internal_error", ended[1].Status().Description)
	assert.Empty(t, ended[1].Events())
}

func TestSpanIDs(t *testing.T) {
	useSpanRecorder(t)

	traceID, spanID := SpanIDs(context.Background())
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)

	ctx, span := StartToolSpan(context.Background(), "summarize_text", "")
	defer span.End()

	traceID, spanID = SpanIDs(ctx)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Len(t, traceID, 32)
	assert.Len(t, spanID, 16)
}
