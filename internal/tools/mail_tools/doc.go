// Package mail_tools registers the mailbox MCP tools: get_last_email_text,
// which returns the plain-text bodies of the newest messages, and
// summarize_last_emails, which summarizes each of those bodies.
//
// Both tools take the mailbox address and an app password per call. The
// password is used for a single read-only IMAP session and is never logged.
package mail_tools
