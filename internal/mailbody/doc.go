// Package mailbody extracts readable plain-text bodies from raw MIME messages.
//
// Extraction walks every part of a message in document order, nested
// multiparts included, and returns the first text/plain part that is not
// marked with a Content-Disposition. Transfer encodings are undone by the
// MIME parser and the payload is converted from its declared charset to
// UTF-8. HTML-only messages and messages whose only plain text is an
// attachment yield an empty body rather than an error.
package mailbody
