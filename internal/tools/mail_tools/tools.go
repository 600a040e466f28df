package mail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxbrief/internal/server"
	"github.com/teemow/inboxbrief/internal/toolerr"
	"github.com/teemow/inboxbrief/internal/tools/batch"
	"github.com/teemow/inboxbrief/internal/tools/common"
)

// Tool names.
const (
	GetLastEmailTextTool    = "get_last_email_text"
	SummarizeLastEmailsTool = "summarize_last_emails"
)

// EmailTexts is the JSON payload of get_last_email_text.
type EmailTexts struct {
	Count     int      `json:"count"`
	Requested int      `json:"requested"`
	Skipped   int      `json:"skipped"`
	Bodies    []string `json:"bodies"`
}

// RegisterMailTools registers all mailbox tools with the MCP server
func RegisterMailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	maxCount := sc.Inbox().MaxCount()

	getTextTool := mcp.NewTool(GetLastEmailTextTool,
		mcp.WithDescription("Fetch the plain-text bodies of the most recent emails in a mailbox, oldest first. Messages without a plain-text body are skipped."),
		identityOption(),
		secretOption(),
		countOption(maxCount),
	)
	s.AddTool(getTextTool, common.InstrumentedToolHandler(GetLastEmailTextTool, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetLastEmailText(ctx, request, sc)
		}))

	summarizeTool := mcp.NewTool(SummarizeLastEmailsTool,
		mcp.WithDescription("Fetch the most recent emails in a mailbox and summarize each plain-text body independently"),
		identityOption(),
		secretOption(),
		countOption(maxCount),
		mcp.WithNumber("num_sentences",
			mcp.Description(fmt.Sprintf("Maximum number of sentences per summary (default: %d)", sc.DefaultSentences())),
		),
	)
	s.AddTool(summarizeTool, common.InstrumentedToolHandler(SummarizeLastEmailsTool, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSummarizeLastEmails(ctx, request, sc)
		}))

	return nil
}

func identityOption() mcp.ToolOption {
	return mcp.WithString("identity",
		mcp.Required(),
		mcp.Description("Mailbox email address, e.g. someone@gmail.com"),
	)
}

func secretOption() mcp.ToolOption {
	return mcp.WithString("secret",
		mcp.Required(),
		mcp.Description("App password for the mailbox"),
	)
}

func countOption(maxCount int) mcp.ToolOption {
	return mcp.WithNumber("count",
		mcp.Description(fmt.Sprintf("Number of most recent messages to fetch, 1 to %d (default: 1)", maxCount)),
	)
}

type fetchArgs struct {
	identity string
	secret   string
	count    int
}

func parseFetchArgs(args map[string]any) (fetchArgs, error) {
	var fa fetchArgs
	var err error
	// Presence and format are checked by the inbox service, identity first.
	if fa.identity, err = common.OptionalString(args, "identity", ""); err != nil {
		return fa, err
	}
	if fa.secret, err = common.OptionalString(args, "secret", ""); err != nil {
		return fa, err
	}
	if fa.count, err = common.OptionalInt(args, "count", 1); err != nil {
		return fa, err
	}
	return fa, nil
}

func handleGetLastEmailText(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	fa, err := parseFetchArgs(request.GetArguments())
	if err != nil {
		return nil, err
	}

	res, err := sc.Inbox().LastEmailTexts(ctx, fa.identity, fa.secret, fa.count)
	if err != nil {
		return nil, err
	}
	common.RecordProvider(ctx, domainOf(fa.identity))
	common.RecordCounts(ctx, res.Requested, len(res.Bodies))

	return common.JSONResult(EmailTexts{
		Count:     len(res.Bodies),
		Requested: res.Requested,
		Skipped:   res.Skipped,
		Bodies:    res.Bodies,
	})
}

func handleSummarizeLastEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	fa, err := parseFetchArgs(args)
	if err != nil {
		return nil, err
	}
	k, err := common.OptionalInt(args, "num_sentences", sc.DefaultSentences())
	if err != nil {
		return nil, err
	}
	// Reject a bad sentence count before opening a mailbox session.
	if k <= 0 {
		return nil, toolerr.Newf(toolerr.KindInvalidArgument, "num_sentences must be positive, got %d", k)
	}

	res, err := sc.Inbox().LastEmailTexts(ctx, fa.identity, fa.secret, fa.count)
	if err != nil {
		return nil, err
	}
	common.RecordProvider(ctx, domainOf(fa.identity))

	results := batch.ProcessIndexed("body", res.Bodies, func(body string) (string, error) {
		sentences, err := sc.Summarizer().Select(body, k)
		if err != nil {
			return "", err
		}
		sc.Metrics().RecordSummary(ctx, len(sentences))
		return strings.Join(sentences, " "), nil
	})
	br := batch.Summarize(results)
	common.RecordCounts(ctx, res.Requested, br.Successful)

	return common.JSONResult(br)
}

func domainOf(identity string) string {
	_, domain, _ := strings.Cut(identity, "@")
	return strings.ToLower(domain)
}
