package instrumentation

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, cfg Config) *Provider {
	t.Helper()
	cfg.ServiceName = "inboxbrief-test"
	cfg.ServiceVersion = "0.0.0"

	p, err := NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p
}

func TestNewProvider_Disabled(t *testing.T) {
	p := newTestProvider(t, Config{Enabled: false})

	assert.False(t, p.Enabled())
	assert.Nil(t, p.PrometheusHandler())
	assert.NotNil(t, p.Tracer("inboxbrief"))

	// The no-op recorder must accept calls.
	require.NotNil(t, p.Metrics())
	p.Metrics().RecordToolInvocation(context.Background(), "summarize_text", StatusSuccess, time.Millisecond)

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_EmptyExportersUseDefaults(t *testing.T) {
	p := newTestProvider(t, Config{Enabled: true})

	assert.True(t, p.Enabled())
	assert.NotNil(t, p.PrometheusHandler(), "prometheus is the default metrics exporter")
}

func TestProvider_PrometheusScrape(t *testing.T) {
	p := newTestProvider(t, Config{
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	ctx := context.Background()

	p.Metrics().RecordMailboxOperation(ctx, "gmail.com", OperationFetch, StatusSuccess, "", time.Second)
	p.Metrics().RecordToolInvocation(ctx, "get_last_email_text", StatusError, 2*time.Millisecond)

	handler := p.PrometheusHandler()
	require.NotNil(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "mailbox_operations_total")
	assert.Contains(t, body, "mcp_tool_invocations_total")
	assert.Contains(t, body, `tool="get_last_email_text"`)
}

func TestProvider_SeparateRegistries(t *testing.T) {
	cfg := Config{Enabled: true, MetricsExporter: ExporterPrometheus}
	first := newTestProvider(t, cfg)
	second := newTestProvider(t, cfg)

	first.Metrics().RecordToolInvocation(context.Background(), "summarize_text", StatusSuccess, time.Millisecond)

	rec := httptest.NewRecorder()
	second.PrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotContains(t, rec.Body.String(), `tool="summarize_text"`)
}

func TestNewProvider_StdoutWritesToDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	orig := diagnosticsOutput
	diagnosticsOutput = &buf
	t.Cleanup(func() { diagnosticsOutput = orig })

	p, err := NewProvider(context.Background(), Config{
		ServiceName:     "inboxbrief-test",
		Enabled:         true,
		MetricsExporter: ExporterStdout,
		TracingExporter: ExporterStdout,
	})
	require.NoError(t, err)
	assert.True(t, p.Enabled())
	assert.Nil(t, p.PrometheusHandler())

	p.Metrics().RecordToolInvocation(context.Background(), "summarize_text", StatusSuccess, time.Millisecond)

	// Shutdown flushes the periodic reader.
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "mcp_tool_invocations_total")
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "unknown metrics exporter",
			cfg:     Config{Enabled: true, MetricsExporter: "statsd"},
			wantErr: "invalid metrics exporter",
		},
		{
			name:    "unknown tracing exporter",
			cfg:     Config{Enabled: true, TracingExporter: "jaeger"},
			wantErr: "invalid tracing exporter",
		},
		{
			name:    "otlp tracing without endpoint",
			cfg:     Config{Enabled: true, TracingExporter: ExporterOTLP},
			wantErr: "OTLP endpoint is required",
		},
		{
			name:    "sampling rate out of range",
			cfg:     Config{Enabled: true, TraceSamplingRate: 2},
			wantErr: "sampling rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResourceAttributes(t *testing.T) {
	attrs := resourceAttributes(Config{
		ServiceName:       "inboxbrief",
		ServiceVersion:    "1.2.3",
		ServiceInstanceID: "pod-7",
		K8sNamespace:      "mail",
	})

	got := map[string]string{}
	for _, kv := range attrs {
		got[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, "inboxbrief", got["service.name"])
	assert.Equal(t, "1.2.3", got["service.version"])
	assert.Equal(t, "pod-7", got["service.instance.id"])
	assert.Equal(t, "mail", got["k8s.namespace.name"])
	assert.NotContains(t, got, "k8s.pod.name")
}
