package text_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxbrief/internal/server"
	"github.com/teemow/inboxbrief/internal/tools/batch"
	"github.com/teemow/inboxbrief/internal/tools/common"
)

// SummarizeTextTool is the name of the summarization tool.
const SummarizeTextTool = "summarize_text"

// RegisterTextTools registers text processing tools with the MCP server
func RegisterTextTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	summarizeTool := mcp.NewTool(SummarizeTextTool,
		mcp.WithDescription("Summarize text by extracting its most salient sentences, kept in their original order"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to summarize. An array of texts (or a JSON array string) summarizes each independently."),
		),
		mcp.WithNumber("num_sentences",
			mcp.Description(fmt.Sprintf("Maximum number of sentences in the summary (default: %d)", sc.DefaultSentences())),
		),
	)

	s.AddTool(summarizeTool, common.InstrumentedToolHandler(SummarizeTextTool, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSummarizeText(ctx, request, sc)
		}))

	return nil
}

func handleSummarizeText(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	k, err := common.OptionalInt(args, "num_sentences", sc.DefaultSentences())
	if err != nil {
		return nil, err
	}

	if text, ok := args["text"].(string); ok && !isJSONStringArray(text) {
		sentences, err := sc.Summarizer().Select(text, k)
		if err != nil {
			return nil, err
		}
		sc.Metrics().RecordSummary(ctx, len(sentences))
		common.RecordCounts(ctx, k, len(sentences))
		return mcp.NewToolResultText(strings.Join(sentences, " ")), nil
	}

	texts, err := batch.ParseStringOrArray(args["text"], "text")
	if err != nil {
		return nil, err
	}
	results := batch.ProcessIndexed("text", texts, func(text string) (string, error) {
		sentences, err := sc.Summarizer().Select(text, k)
		if err != nil {
			return "", err
		}
		sc.Metrics().RecordSummary(ctx, len(sentences))
		return strings.Join(sentences, " "), nil
	})
	br := batch.Summarize(results)
	common.RecordCounts(ctx, br.Total, br.Successful)
	return common.JSONResult(br)
}

func isJSONStringArray(s string) bool {
	if !strings.HasPrefix(strings.TrimSpace(s), "[") {
		return false
	}
	var arr []string
	return json.Unmarshal([]byte(s), &arr) == nil
}
