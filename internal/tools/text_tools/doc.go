// Package text_tools registers the summarize_text MCP tool.
package text_tools
