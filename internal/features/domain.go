package features

import (
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/publicsuffix"
)

// DomainInfo is descriptive context about an analyzed name. It is not fed to
// the model.
type DomainInfo struct {
	Name         string
	PublicSuffix string
	Registered   string
	Labels       int
	ICANN        bool
	Valid        bool
}

// Describe derives DomainInfo from a domain string.
func Describe(domain string) DomainInfo {
	name := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))
	info := DomainInfo{Name: name}
	if name == "" {
		return info
	}

	info.Labels, info.Valid = dns.IsDomainName(name)
	info.PublicSuffix, info.ICANN = publicsuffix.PublicSuffix(name)
	if registered, err := publicsuffix.EffectiveTLDPlusOne(name); err == nil {
		info.Registered = registered
	}

	return info
}
