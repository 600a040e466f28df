package instrumentation

import (
	"fmt"
	"os"
	"slices"
	"strconv"
)

// Config selects the telemetry exporters and the resource identity reported
// with every metric and span.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID falls back to the hostname when empty.
	ServiceInstanceID string
	K8sNamespace      string
	K8sPodName        string

	// Enabled turns metrics and tracing on. A disabled provider hands out
	// no-op instruments.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string
	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme, e.g. "localhost:4318".
	OTLPEndpoint string
	// OTLPInsecure disables TLS towards the collector. Spans carry hashed
	// identities and mailbox hosts, so keep this off outside development.
	OTLPInsecure bool

	TraceSamplingRate float64

	// DetailedLabels adds the identity's domain to tool metrics.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the audit trail of tool calls.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII logs full mailbox identities instead of their hash.
	IncludePII bool
}

// Exporter names accepted in Config.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Label values shared by the metrics and audit records.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// ProviderMbox labels operations against a local mbox file.
	ProviderMbox = "mbox"
)

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// DefaultConfig reads the configuration from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.LookupEnv)
}

// ConfigFromEnv builds a Config from the given variable lookup. Unset or
// unparsable variables keep their defaults.
func ConfigFromEnv(lookup func(string) (string, bool)) Config {
	env := envReader{lookup: lookup}

	return Config{
		ServiceName:       env.str("inboxbrief", "OTEL_SERVICE_NAME"),
		ServiceVersion:    "unknown",
		ServiceInstanceID: env.str("", "OTEL_SERVICE_INSTANCE_ID"),
		K8sNamespace:      env.str("", "K8S_NAMESPACE", "POD_NAMESPACE"),
		K8sPodName:        env.str("", "K8S_POD_NAME", "HOSTNAME"),
		Enabled:           env.boolean(true, "INSTRUMENTATION_ENABLED"),
		MetricsExporter:   env.str(ExporterPrometheus, "METRICS_EXPORTER"),
		TracingExporter:   env.str(ExporterNone, "TRACING_EXPORTER"),
		OTLPEndpoint:      env.str("", "OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:      env.boolean(false, "OTEL_EXPORTER_OTLP_INSECURE"),
		TraceSamplingRate: env.float(0.1, "OTEL_TRACES_SAMPLER_ARG"),
		DetailedLabels:    env.boolean(false, "METRICS_DETAILED_LABELS"),
		AuditLogging: AuditLoggingConfig{
			Enabled:    env.boolean(true, "AUDIT_LOGGING_ENABLED"),
			IncludePII: env.boolean(false, "AUDIT_LOGGING_INCLUDE_PII"),
		},
	}
}

// Validate reports the first problem found in the configuration. Empty
// exporter names are accepted and resolved by NewProvider.
func (c Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of %v", c.MetricsExporter, metricsExporters)
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of %v", c.TracingExporter, tracingExporters)
	}
	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required when an OTLP exporter is selected")
	}
	return nil
}

// envReader resolves the first set variable among a list of keys.
type envReader struct {
	lookup func(string) (string, bool)
}

func (e envReader) first(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := e.lookup(key); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func (e envReader) str(def string, keys ...string) string {
	if v, ok := e.first(keys...); ok {
		return v
	}
	return def
}

func (e envReader) boolean(def bool, keys ...string) bool {
	v, ok := e.first(keys...)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

func (e envReader) float(def float64, keys ...string) float64 {
	v, ok := e.first(keys...)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return parsed
}
