package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"
	"text/template"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxbrief/internal/instrumentation"
	"github.com/teemow/inboxbrief/internal/tools/mail_tools"
	"github.com/teemow/inboxbrief/internal/tools/text_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, so the reference always matches the tool definitions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, err := renderToolDocs()
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), markdown)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// renderToolDocs registers every tool against a throwaway server and renders
// the resulting definitions. No mailbox is contacted.
func renderToolDocs() (string, error) {
	serverContext, err := newServerContext(context.Background(), appConfig, nil, instrumentation.AuditLoggingConfig{})
	if err != nil {
		return "", fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxbrief", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return "", err
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}

	return generateToolsMarkdown(tools)
}

var toolDocsTemplate = template.Must(template.New("tools").Parse(`# MCP Tools Reference

This document provides a complete reference of all tools available when running inboxbrief as an MCP server.

**Note:** This documentation is automatically generated from the tool definitions.

## Table of Contents

{{range .}}- [{{.Name}}](#{{.Anchor}})
{{end}}
## Credentials and Errors

Mail tools take the mailbox address (` + "`identity`" + `) and an app password (` + "`secret`" + `) on every call:

- **No storage:** credentials are used for a single read-only IMAP session and never logged
- **Supported providers:** only addresses on configured provider domains are accepted
- **Errors:** failures are error results whose text starts with a kind, e.g. ` + "`validation_error: ...`" + `
{{range .}}
## {{.Name}}
{{range .Tools}}
### {{.Name}}
{{if .Description}}
{{.Description}}
{{end}}{{if .Args}}
**Arguments:**
{{range .Args}}- ` + "`{{.Name}}`" + ` ({{.Type}}, {{if .Required}}required{{else}}optional{{end}}): {{.Description}}
{{end}}{{end}}{{end}}{{end}}`))

type docCategory struct {
	Name   string
	Anchor string
	Tools  []docTool
}

type docTool struct {
	Name        string
	Description string
	Args        []docArg
}

type docArg struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

func generateToolsMarkdown(tools []mcp.Tool) (string, error) {
	byCategory := map[string][]docTool{}
	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		byCategory[category] = append(byCategory[category], newDocTool(tool))
	}

	categories := make([]docCategory, 0, len(byCategory))
	for name, docs := range byCategory {
		sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
		categories = append(categories, docCategory{
			Name:   name,
			Anchor: strings.ToLower(strings.ReplaceAll(name, " ", "-")),
			Tools:  docs,
		})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })

	var sb strings.Builder
	if err := toolDocsTemplate.Execute(&sb, categories); err != nil {
		return "", fmt.Errorf("failed to render tool docs: %w", err)
	}
	return sb.String(), nil
}

func newDocTool(tool mcp.Tool) docTool {
	doc := docTool{Name: tool.Name, Description: tool.Description}
	for name, raw := range tool.InputSchema.Properties {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := prop["type"].(string)
		if typ == "" {
			typ = "any"
		}
		desc, _ := prop["description"].(string)
		if desc == "" {
			desc = typ + " parameter"
		}
		doc.Args = append(doc.Args, docArg{
			Name:        name,
			Type:        typ,
			Required:    slices.Contains(tool.InputSchema.Required, name),
			Description: desc,
		})
	}
	sort.Slice(doc.Args, func(i, j int) bool { return doc.Args[i].Name < doc.Args[j].Name })
	return doc
}

func getCategoryFromToolName(name string) string {
	switch name {
	case mail_tools.GetLastEmailTextTool, mail_tools.SummarizeLastEmailsTool:
		return "Mail Tools"
	case text_tools.SummarizeTextTool:
		return "Text Tools"
	default:
		return "Other"
	}
}
