package instrumentation

import "strings"

// ExtractUserDomain returns the lowercased domain of an email address for
// use as a metric label. Anything without exactly one "@" and a non-empty
// domain maps to "unknown".
func ExtractUserDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "unknown"
	}
	return strings.ToLower(domain)
}

// Mailbox operation types.
const (
	OperationFetch   = "fetch"
	OperationExtract = "extract"
)
