package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/teemow/inboxbrief/internal/mailbox"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "INBOXBRIEF_"

// Transport names accepted by Server.Transport.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Log formats accepted by Log.Format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the full runtime configuration.
type Config struct {
	IMAP           IMAPConfig         `yaml:"imap"`
	Providers      []mailbox.Provider `yaml:"providers"`
	AllowedDomains []string           `yaml:"allowedDomains"`
	Summarizer     SummarizerConfig   `yaml:"summarizer"`
	Server         ServerConfig       `yaml:"server"`
	Metrics        MetricsConfig      `yaml:"metrics"`
	Log            LogConfig          `yaml:"log"`
}

// IMAPConfig controls mailbox sessions.
type IMAPConfig struct {
	DialTimeout        time.Duration `yaml:"dialTimeout"`
	MaxRetries         uint          `yaml:"maxRetries"`
	InitialBackoff     time.Duration `yaml:"initialBackoff"`
	MaxCount           int           `yaml:"maxCount"`
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify"`
}

// SummarizerConfig holds summarizer defaults.
type SummarizerConfig struct {
	DefaultSentences int `yaml:"defaultSentences"`
}

// ServerConfig configures the MCP transport.
type ServerConfig struct {
	Transport       string        `yaml:"transport"`
	HTTPAddr        string        `yaml:"httpAddr"`
	RateLimit       float64       `yaml:"rateLimit"` // Requests per second per client IP, 0 disables
	RateBurst       int           `yaml:"rateBurst"`
	TrustProxy      bool          `yaml:"trustProxy"` // Take client IPs from X-Forwarded-For
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// MetricsConfig holds configuration for the metrics server.
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server
	Enabled bool `yaml:"enabled"`

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string `yaml:"addr"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Debug  bool   `yaml:"debug"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		IMAP: IMAPConfig{
			DialTimeout:    mailbox.DefaultDialTimeout,
			MaxRetries:     mailbox.DefaultMaxRetries,
			InitialBackoff: mailbox.DefaultInitialBackoff,
			MaxCount:       50,
		},
		Providers:      mailbox.DefaultProviders(),
		AllowedDomains: append([]string(nil), mailbox.DefaultAllowedDomains...),
		Summarizer:     SummarizerConfig{DefaultSentences: 3},
		Server: ServerConfig{
			Transport:       TransportStdio,
			HTTPAddr:        ":8080",
			RateLimit:       10,
			RateBurst:       20,
			ShutdownTimeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9090"},
		Log:     LogConfig{Format: LogFormatText},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// empty), the given .env files and the process environment. Variables already
// present in the environment win over .env files. Missing .env files are
// ignored.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}

	dotenv, err := readEnvFiles(envFiles)
	if err != nil {
		return cfg, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return c.Decode(bytes.NewReader(b))
}

// Decode overlays YAML from r onto c. Unknown keys are rejected.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	merged := map[string]string{}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		vals, err := godotenv.Read(f)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", f, err)
		}
		for k, v := range vals {
			if _, seen := merged[k]; !seen {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

// ApplyEnv overlays INBOXBRIEF_* variables returned by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}
	setDuration := func(name string, dst *time.Duration) {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	setInt := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setBool := func(name string, dst *bool) {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	setString := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	setDuration("IMAP_DIAL_TIMEOUT", &c.IMAP.DialTimeout)
	setDuration("IMAP_INITIAL_BACKOFF", &c.IMAP.InitialBackoff)
	if v, ok := get("IMAP_MAX_RETRIES"); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sIMAP_MAX_RETRIES: %w", EnvPrefix, err))
		} else {
			c.IMAP.MaxRetries = uint(n)
		}
	}
	setInt("IMAP_MAX_COUNT", &c.IMAP.MaxCount)
	setBool("IMAP_INSECURE_SKIP_VERIFY", &c.IMAP.InsecureSkipVerify)
	if v, ok := get("ALLOWED_DOMAINS"); ok {
		c.AllowedDomains = SplitList(v)
	}
	setInt("SUMMARY_SENTENCES", &c.Summarizer.DefaultSentences)
	setString("TRANSPORT", &c.Server.Transport)
	setString("HTTP_ADDR", &c.Server.HTTPAddr)
	if v, ok := get("RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRATE_LIMIT: %w", EnvPrefix, err))
		} else {
			c.Server.RateLimit = f
		}
	}
	setInt("RATE_BURST", &c.Server.RateBurst)
	setBool("TRUST_PROXY", &c.Server.TrustProxy)
	setDuration("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)
	setBool("METRICS_ENABLED", &c.Metrics.Enabled)
	setString("METRICS_ADDR", &c.Metrics.Addr)
	setBool("DEBUG", &c.Log.Debug)
	setString("LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.IMAP.DialTimeout <= 0 {
		errs = append(errs, errors.New("imap.dialTimeout must be positive"))
	}
	if c.IMAP.MaxCount < 1 {
		errs = append(errs, fmt.Errorf("imap.maxCount must be at least 1, got %d", c.IMAP.MaxCount))
	}
	if len(c.Providers) == 0 {
		errs = append(errs, errors.New("at least one provider is required"))
	}
	for i, p := range c.Providers {
		if p.Domain == "" || p.Host == "" {
			errs = append(errs, fmt.Errorf("providers[%d]: domain and host are required", i))
		}
		if p.Port < 0 || p.Port > 65535 {
			errs = append(errs, fmt.Errorf("providers[%d]: invalid port %d", i, p.Port))
		}
	}
	if c.Summarizer.DefaultSentences < 1 {
		errs = append(errs, fmt.Errorf("summarizer.defaultSentences must be at least 1, got %d", c.Summarizer.DefaultSentences))
	}
	switch c.Server.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		errs = append(errs, fmt.Errorf("unsupported transport %q (supported: %s, %s)",
			c.Server.Transport, TransportStdio, TransportStreamableHTTP))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rateLimit must not be negative"))
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		errs = append(errs, errors.New("server.rateBurst must be at least 1 when rate limiting is enabled"))
	}
	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ProviderTable indexes the configured providers.
func (c Config) ProviderTable() mailbox.Providers {
	return mailbox.NewProviders(c.Providers)
}

// SplitList parses a comma-separated list, trimming whitespace and dropping
// empty elements. Returns nil when nothing remains.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
