// Package logging provides structured logging utilities for inboxbrief.
//
// All packages log through log/slog. This package keeps attribute names
// consistent and makes sure identities and secrets never reach the logs in
// clear text.
//
// # Usage Patterns
//
// Install the process-wide handler once, on stderr so that stdout stays
// free for the stdio transport:
//
//	slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, debug, "text")))
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "mailbox.fetch")
//	logger.Info("fetched messages",
//	    logging.Count(n),
//	    logging.Mailbox("INBOX"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("login",
//	    logging.UserHash(identity),
//	    slog.String("secret", logging.SanitizeSecret(secret)))
//
// # Security Considerations
//
//   - Identities are hashed to prevent PII leakage while allowing correlation
//   - Secrets are never logged, only their length
package logging
