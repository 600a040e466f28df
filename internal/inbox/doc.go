// Package inbox combines a mailbox.Fetcher with body extraction into the
// retrieval operation exposed by the get_last_email_text tool.
package inbox
