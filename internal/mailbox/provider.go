package mailbox

import (
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/teemow/inboxbrief/internal/toolerr"
)

// Provider describes where the mailbox for an email domain lives.
type Provider struct {
	Domain  string `yaml:"domain"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Mailbox string `yaml:"mailbox"`
}

// Address returns host:port.
func (p Provider) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// DefaultProviders lists the built-in provider table.
func DefaultProviders() []Provider {
	return []Provider{
		{Domain: "gmail.com", Host: "imap.gmail.com", Port: 993, Mailbox: "INBOX"},
	}
}

// Providers maps lower-cased domains to their provider.
type Providers map[string]Provider

// NewProviders indexes list by domain. Later entries override earlier ones,
// and an empty Mailbox defaults to INBOX and a zero Port to 993.
func NewProviders(list []Provider) Providers {
	p := make(Providers, len(list))
	for _, prov := range list {
		if prov.Mailbox == "" {
			prov.Mailbox = "INBOX"
		}
		if prov.Port == 0 {
			prov.Port = 993
		}
		prov.Domain = strings.ToLower(prov.Domain)
		p[prov.Domain] = prov
	}
	return p
}

// Lookup returns the provider for identity's domain.
func (p Providers) Lookup(identity string) (Provider, error) {
	_, domain, ok := strings.Cut(identity, "@")
	if !ok {
		return Provider{}, toolerr.Newf(toolerr.KindValidation, "invalid email address format: %q", identity)
	}
	prov, ok := p[strings.ToLower(domain)]
	if !ok {
		return Provider{}, toolerr.Newf(toolerr.KindValidation, "no mailbox provider configured for %q", domain)
	}
	return prov, nil
}

// Domains returns the configured domains in sorted order.
func (p Providers) Domains() []string {
	domains := make([]string, 0, len(p))
	for d := range p {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
