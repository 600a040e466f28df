package common

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxbrief/internal/toolerr"
)

// ErrorText renders err as "<kind>: <message>".
func ErrorText(err error) string {
	return fmt.Sprintf("%s: %s", toolerr.KindOf(err), toolerr.Message(err))
}

// ErrorResult converts err into an MCP error result.
func ErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(ErrorText(err))
}

// JSONResult marshals v into an indented text result.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, toolerr.Wrap(toolerr.KindInternal, "failed to encode result", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
