package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxbrief/internal/instrumentation"
	"github.com/teemow/inboxbrief/internal/logging"
	"github.com/teemow/inboxbrief/internal/server"
	"github.com/teemow/inboxbrief/internal/toolerr"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

type invocationKey struct{}

func invocationFrom(ctx context.Context) (*instrumentation.ToolInvocation, bool) {
	inv, ok := ctx.Value(invocationKey{}).(*instrumentation.ToolInvocation)
	return inv, ok
}

// RecordCounts attaches requested and returned item counts to the
// invocation in flight, if any.
func RecordCounts(ctx context.Context, requested, returned int) {
	if inv, ok := invocationFrom(ctx); ok {
		inv.SetCounts(requested, returned)
	}
}

// RecordProvider attaches the resolved mailbox provider to the invocation
// in flight, if any.
func RecordProvider(ctx context.Context, provider string) {
	if inv, ok := invocationFrom(ctx); ok {
		inv.SetProvider(provider)
	}
}

// InstrumentedToolHandler wraps a tool handler with tracing, metrics and
// audit logging.
//
// Errors returned by handler are turned into MCP error results tagged with
// their kind, so a failed call is always distinguishable from an empty
// successful one and never surfaces as a protocol error.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		identity, _ := request.GetArguments()["identity"].(string)

		var userHash string
		if identity != "" {
			userHash = logging.AnonymizeEmail(identity)
		}
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, userHash)
		defer span.End()

		invocation := instrumentation.StartInvocation(ctx, toolName, identity)
		ctx = context.WithValue(ctx, invocationKey{}, invocation)

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		switch {
		case err != nil:
			kind := string(toolerr.KindOf(err))
			invocation.Finish(kind, err)
			instrumentation.FailSpan(span, kind, err)
			sc.Logger().Debug("tool failed", logging.Tool(toolName), logging.Kind(kind), logging.Err(err))
			result, err = ErrorResult(err), nil
		case result != nil && result.IsError:
			kind := string(toolerr.KindInternal)
			invocation.Finish(kind, nil)
			instrumentation.FailSpan(span, kind, nil)
		default:
			invocation.Finish("", nil)
			instrumentation.SucceedSpan(span)
		}
		instrumentation.SetSpanCounts(span, invocation.Requested, invocation.Returned)

		if metrics := sc.Metrics(); metrics != nil {
			metrics.RecordToolInvocationWithIdentity(ctx, toolName, invocation.Status(), identity, duration)
		}
		sc.AuditLogger().LogToolInvocation(invocation)

		return result, err
	}
}
