// Package cmd implements the command-line interface for inboxbrief.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide tools for AI assistants
//   - fetch: Print (or summarize) the newest plain-text bodies of a mailbox
//   - summarize: Summarize a text file or standard input
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Configuration is layered: defaults, an optional YAML file (--config),
// a .env file, INBOXBRIEF_* environment variables and finally flags.
package cmd
