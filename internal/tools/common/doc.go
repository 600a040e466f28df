// Package common provides shared utilities for MCP tool implementations:
// argument parsing, error results tagged with their failure kind, and the
// instrumentation wrapper every tool handler is registered through.
package common
