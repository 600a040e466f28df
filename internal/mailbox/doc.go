// Package mailbox validates mailbox identities and retrieves raw messages.
//
// A Fetcher returns the most recent messages of a mailbox, oldest first.
// IMAPFetcher talks to the identity's provider over IMAPS with a read-only
// session; MboxSource reads a local mbox file for offline use.
//
// Failures are classified with toolerr kinds. Malformed or unsupported
// identities are validation errors and never reach the network. Rejected
// logins are auth errors and are not retried. Connection and protocol
// failures are transport errors and are retried with exponential backoff.
package mailbox
