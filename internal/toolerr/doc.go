// Package toolerr classifies failures returned by the mail and summarization
// components.
//
// Every error that crosses a package boundary is either an *Error carrying a
// Kind, or an unclassified error reported as KindInternal. Tool handlers turn
// the kind into a stable prefix on the MCP error result, so clients never have
// to guess whether a returned string is content or a failure:
//
//	body, err := mailbody.Extract(raw)
//	if toolerr.KindOf(err) == toolerr.KindParse {
//	    // structural failure, report it
//	}
//
// Empty results (no plain-text body, an empty mailbox) are not errors.
package toolerr
