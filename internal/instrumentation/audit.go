package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/inboxbrief/internal/logging"
	"github.com/teemow/inboxbrief/internal/toolerr"
)

// ToolInvocation is the audit record of one MCP tool call.
//
// Identity is the mailbox address the caller asked for. Unless the audit
// logger includes PII, only its hash and domain are written.
type ToolInvocation struct {
	Tool     string
	Identity string // empty for text-only tools
	Provider string

	// Messages for mail tools, texts or sentences for summaries.
	Requested int
	Returned  int

	StartTime time.Time
	Duration  time.Duration
	ErrorKind string
	Error     string

	TraceID string
	SpanID  string

	finished bool
}

// StartInvocation opens a record for tool, picking up the trace context of
// ctx.
func StartInvocation(ctx context.Context, tool, identity string) *ToolInvocation {
	ti := &ToolInvocation{Tool: tool, Identity: identity, StartTime: time.Now()}
	ti.TraceID, ti.SpanID = SpanIDs(ctx)
	return ti
}

func (ti *ToolInvocation) SetProvider(provider string) {
	ti.Provider = provider
}

func (ti *ToolInvocation) SetCounts(requested, returned int) {
	ti.Requested = requested
	ti.Returned = returned
}

// Finish stamps the duration. An empty kind with a nil error is a success.
func (ti *ToolInvocation) Finish(kind string, err error) {
	ti.Duration = time.Since(ti.StartTime)
	ti.ErrorKind = kind
	if err != nil {
		ti.Error = err.Error()
		if kind == "" {
			ti.ErrorKind = string(toolerr.KindInternal)
		}
	}
	ti.finished = true
}

// Success reports whether the call finished without an error.
func (ti *ToolInvocation) Success() bool {
	return ti.finished && ti.ErrorKind == ""
}

func (ti *ToolInvocation) Status() string {
	if ti.Success() {
		return StatusSuccess
	}
	return StatusError
}

// UserDomain is the identity's domain, or "unknown".
func (ti *ToolInvocation) UserDomain() string {
	return ExtractUserDomain(ti.Identity)
}

// attrs renders the record. With includePII the identity is written in
// full together with the span ID; otherwise it is hashed.
func (ti *ToolInvocation) attrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		logging.Tool(ti.Tool),
		slog.Duration(logging.KeyDuration, ti.Duration),
		slog.Bool("success", ti.Success()),
	}
	if ti.Provider != "" {
		attrs = append(attrs, slog.String("provider", ti.Provider))
	}
	if ti.Requested > 0 {
		attrs = append(attrs, slog.Int("requested", ti.Requested), slog.Int("returned", ti.Returned))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}

	switch {
	case ti.Identity == "":
	case includePII:
		attrs = append(attrs, slog.String("identity", ti.Identity))
	default:
		attrs = append(attrs, logging.UserHash(ti.Identity), slog.String(logging.KeyDomain, ti.UserDomain()))
	}
	if includePII && ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}

	if ti.ErrorKind != "" {
		attrs = append(attrs, logging.Kind(ti.ErrorKind))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}
	return attrs
}

// AuditLogger writes one structured record per tool invocation.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger returns an enabled audit logger that hashes identities.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation writes ti at INFO on success and WARN on failure. A nil
// or disabled logger discards the record.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}
	level, msg := slog.LevelInfo, "tool_executed"
	if !ti.Success() {
		level, msg = slog.LevelWarn, "tool_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, ti.attrs(al.includePII)...)
}
