package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxbrief/internal/mailbox"
	"github.com/teemow/inboxbrief/internal/server"
)

// Resource URIs.
const (
	ProvidersURI = "inboxbrief://providers"
	LimitsURI    = "inboxbrief://limits"
)

// ProviderInfo describes one mailbox provider. Allowed reports whether
// identities on the domain pass validation.
type ProviderInfo struct {
	Domain  string `json:"domain"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Mailbox string `json:"mailbox"`
	Allowed bool   `json:"allowed"`
}

// Limits are the bounds applied to tool arguments.
type Limits struct {
	MaxCount         int `json:"maxCount"`
	DefaultCount     int `json:"defaultCount"`
	DefaultSentences int `json:"defaultSentences"`
}

// RegisterServerResources registers resources describing the server configuration
func RegisterServerResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	providersResource := mcp.NewResource(
		ProvidersURI,
		"Mailbox Providers",
		mcp.WithResourceDescription("Email domains the mail tools can read from, with their IMAP endpoints"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(providersResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleProviders(ctx, request, sc)
	})

	limitsResource := mcp.NewResource(
		LimitsURI,
		"Tool Limits",
		mcp.WithResourceDescription("Maximum message count and default summary length"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(limitsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleLimits(ctx, request, sc)
	})

	return nil
}

func handleProviders(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	cfg := sc.Config()
	allowed := cfg.AllowedDomains
	if len(allowed) == 0 {
		allowed = mailbox.DefaultAllowedDomains
	}

	table := cfg.ProviderTable()
	infos := make([]ProviderInfo, 0, len(table))
	for _, domain := range table.Domains() {
		p := table[domain]
		infos = append(infos, ProviderInfo{
			Domain:  p.Domain,
			Host:    p.Host,
			Port:    p.Port,
			Mailbox: p.Mailbox,
			Allowed: slices.ContainsFunc(allowed, func(d string) bool { return strings.EqualFold(d, domain) }),
		})
	}

	return jsonContents(request.Params.URI, infos)
}

func handleLimits(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, Limits{
		MaxCount:         sc.Inbox().MaxCount(),
		DefaultCount:     1,
		DefaultSentences: sc.DefaultSentences(),
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
