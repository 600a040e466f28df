package mail_tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxbrief/internal/config"
	"github.com/teemow/inboxbrief/internal/inbox"
	"github.com/teemow/inboxbrief/internal/mailbox"
	"github.com/teemow/inboxbrief/internal/nlp"
	"github.com/teemow/inboxbrief/internal/server"
	"github.com/teemow/inboxbrief/internal/summarize"
	"github.com/teemow/inboxbrief/internal/toolerr"
	"github.com/teemow/inboxbrief/internal/tools/batch"
)

type fakeMailbox struct {
	calls int
	raws  [][]byte
	err   error
}

func (f *fakeMailbox) FetchLatest(_ context.Context, _ mailbox.Credentials, count int) ([][]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if count < len(f.raws) {
		return f.raws[len(f.raws)-count:], nil
	}
	return f.raws, nil
}

func plain(body string) []byte {
	return []byte("Subject: test\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" + body)
}

func multipartWithAttachment(body string) []byte {
	return []byte(strings.ReplaceAll(`Subject: mixed
Content-Type: multipart/mixed; boundary="XYZ"

--XYZ
Content-Type: text/html; charset=utf-8

<p>html version</p>
--XYZ
Content-Type: text/plain; charset=utf-8

`+body+`
--XYZ
Content-Type: application/octet-stream
Content-Disposition: attachment; filename="blob.bin"

AAAA
--XYZ--
`, "\n", "\r\n"))
}

func setup(t *testing.T, fetcher mailbox.Fetcher) map[string]*mcpserver.ServerTool {
	t.Helper()
	seg, err := nlp.NewEnglishSegmenter()
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(), config.Default(),
		inbox.NewService(inbox.Options{Fetcher: fetcher}), summarize.New(seg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterMailTools(s, sc))
	return s.ListTools()
}

func call(t *testing.T, tools map[string]*mcpserver.ServerTool, name string, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	tool, ok := tools[name]
	require.True(t, ok, "tool %s not registered", name)

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return result, text.Text
}

func TestRegisterMailTools(t *testing.T) {
	tools := setup(t, &fakeMailbox{})

	require.Contains(t, tools, GetLastEmailTextTool)
	require.Contains(t, tools, SummarizeLastEmailsTool)
	assert.ElementsMatch(t, []string{"identity", "secret"}, tools[GetLastEmailTextTool].Tool.InputSchema.Required)
}

func TestGetLastEmailText(t *testing.T) {
	fetcher := &fakeMailbox{raws: [][]byte{
		plain("oldest"),
		multipartWithAttachment("the plain part"),
		[]byte("Subject: html\r\nContent-Type: text/html\r\n\r\n<p>only html</p>"),
	}}
	tools := setup(t, fetcher)

	result, text := call(t, tools, GetLastEmailTextTool, map[string]any{
		"identity": "someone@gmail.com",
		"secret":   "app-password",
		"count":    3.0,
	})
	require.False(t, result.IsError, text)

	var payload EmailTexts
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Equal(t, 2, payload.Count)
	assert.Equal(t, 3, payload.Requested)
	assert.Equal(t, 1, payload.Skipped)
	require.Len(t, payload.Bodies, 2)
	assert.Equal(t, "oldest", payload.Bodies[0])
	assert.Equal(t, "the plain part", strings.TrimSpace(payload.Bodies[1]))
}

func TestGetLastEmailText_DefaultCount(t *testing.T) {
	fetcher := &fakeMailbox{raws: [][]byte{plain("one"), plain("two")}}
	tools := setup(t, fetcher)

	_, text := call(t, tools, GetLastEmailTextTool, map[string]any{
		"identity": "someone@gmail.com",
		"secret":   "pw",
	})

	var payload EmailTexts
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Equal(t, []string{"two"}, payload.Bodies)
}

func TestGetLastEmailText_EmptyIsNotAnError(t *testing.T) {
	tools := setup(t, &fakeMailbox{})

	result, text := call(t, tools, GetLastEmailTextTool, map[string]any{
		"identity": "someone@gmail.com",
		"secret":   "pw",
	})
	assert.False(t, result.IsError)

	var payload EmailTexts
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Equal(t, 0, payload.Count)
	assert.NotNil(t, payload.Bodies)
}

func TestGetLastEmailText_Failures(t *testing.T) {
	tests := []struct {
		name       string
		args       map[string]any
		fetchErr   error
		wantPrefix string
		wantFetch  bool
	}{
		{
			name:       "malformed identity",
			args:       map[string]any{"identity": "not-an-email", "secret": "pw"},
			wantPrefix: "validation_error: ",
		},
		{
			name:       "missing identity",
			args:       map[string]any{"secret": "pw"},
			wantPrefix: "validation_error: ",
		},
		{
			name:       "unsupported provider",
			args:       map[string]any{"identity": "someone@example.com", "secret": "pw"},
			wantPrefix: "validation_error: ",
		},
		{
			name:       "missing secret",
			args:       map[string]any{"identity": "someone@gmail.com"},
			wantPrefix: "invalid_argument: ",
		},
		{
			name:       "zero count",
			args:       map[string]any{"identity": "someone@gmail.com", "secret": "pw", "count": 0.0},
			wantPrefix: "invalid_argument: ",
		},
		{
			name:       "fractional count",
			args:       map[string]any{"identity": "someone@gmail.com", "secret": "pw", "count": 1.5},
			wantPrefix: "invalid_argument: ",
		},
		{
			name:       "login rejected",
			args:       map[string]any{"identity": "someone@gmail.com", "secret": "wrong"},
			fetchErr:   toolerr.New(toolerr.KindAuth, "login rejected"),
			wantPrefix: "auth_error: ",
			wantFetch:  true,
		},
		{
			name:       "connection lost",
			args:       map[string]any{"identity": "someone@gmail.com", "secret": "pw"},
			fetchErr:   toolerr.New(toolerr.KindTransport, "connection reset"),
			wantPrefix: "transport_error: ",
			wantFetch:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeMailbox{err: tt.fetchErr}
			tools := setup(t, fetcher)

			result, text := call(t, tools, GetLastEmailTextTool, tt.args)
			assert.True(t, result.IsError)
			assert.True(t, strings.HasPrefix(text, tt.wantPrefix), "got %q", text)
			assert.Equal(t, tt.wantFetch, fetcher.calls > 0)
		})
	}
}

func TestSummarizeLastEmails(t *testing.T) {
	fetcher := &fakeMailbox{raws: [][]byte{
		plain("The quarterly report is attached. Revenue grew in every region. Please review the report before Friday."),
		plain("!!! ???"),
	}}
	tools := setup(t, fetcher)

	result, text := call(t, tools, SummarizeLastEmailsTool, map[string]any{
		"identity":      "someone@gmail.com",
		"secret":        "pw",
		"count":         2.0,
		"num_sentences": 1.0,
	})
	require.False(t, result.IsError, text)

	var br batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(text), &br))
	assert.Equal(t, 2, br.Total)
	assert.Equal(t, 1, br.Successful)
	assert.Equal(t, 1, br.Failed)

	assert.Equal(t, "body-1", br.Results[0].ID)
	assert.Equal(t, batch.StatusSuccess, br.Results[0].Status)
	assert.Equal(t, 1, strings.Count(br.Results[0].Result, "."), "one sentence only: %q", br.Results[0].Result)

	assert.Equal(t, "body-2", br.Results[1].ID)
	assert.Equal(t, string(toolerr.KindEmptyInput), br.Results[1].Kind)
}

func TestSummarizeLastEmails_InvalidSentenceCountSkipsFetch(t *testing.T) {
	fetcher := &fakeMailbox{raws: [][]byte{plain("hello there")}}
	tools := setup(t, fetcher)

	result, text := call(t, tools, SummarizeLastEmailsTool, map[string]any{
		"identity":      "someone@gmail.com",
		"secret":        "pw",
		"num_sentences": 0.0,
	})
	assert.True(t, result.IsError)
	assert.True(t, strings.HasPrefix(text, "invalid_argument: "), text)
	assert.Zero(t, fetcher.calls)
}
