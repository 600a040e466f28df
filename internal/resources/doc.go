// Package resources provides MCP resources describing the server itself.
// Resources are read-only data sources that MCP clients can fetch before
// calling a tool, such as the mailbox providers an identity may belong to
// and the limits applied to tool arguments.
package resources
