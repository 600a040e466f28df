package mailbox

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/teemow/inboxbrief/internal/logging"
	"github.com/teemow/inboxbrief/internal/toolerr"
)

var identityPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// DefaultAllowedDomains is used when no allow list is configured.
var DefaultAllowedDomains = []string{"gmail.com"}

// ValidateIdentity checks that identity is a well-formed email address on
// one of allowedDomains. Domain comparison ignores case. An empty allow list
// means DefaultAllowedDomains.
func ValidateIdentity(identity string, allowedDomains []string) error {
	if identity == "" {
		return toolerr.New(toolerr.KindValidation, "identity is required")
	}
	if !identityPattern.MatchString(identity) {
		return toolerr.Newf(toolerr.KindValidation, "invalid email address format: %q", identity)
	}

	if len(allowedDomains) == 0 {
		allowedDomains = DefaultAllowedDomains
	}
	domain := logging.ExtractDomain(identity)
	for _, allowed := range allowedDomains {
		if strings.EqualFold(domain, allowed) {
			return nil
		}
	}
	return toolerr.Newf(toolerr.KindValidation, "unsupported email provider %q, allowed: %s",
		domain, strings.Join(allowedDomains, ", "))
}

// Credentials authenticate a mailbox session.
type Credentials struct {
	Identity string
	Secret   string
}

// LogValue keeps credentials out of logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		logging.UserHash(c.Identity),
		slog.String("secret", logging.SanitizeSecret(c.Secret)),
	)
}
