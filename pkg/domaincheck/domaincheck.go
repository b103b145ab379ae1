package domaincheck

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

// Status is the availability verdict for one domain.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusTaken     Status = "TAKEN"
	// StatusLikelyAvailable is the neutral verdict when the lookup itself
	// fails; callers treat it as a soft positive, never as an error.
	StatusLikelyAvailable Status = "LIKELY_AVAILABLE"
)

// DefaultTLDs are the extensions checked for every brand candidate.
var DefaultTLDs = []string{".com", ".net", ".org"}

// Checker resolves domain availability.
type Checker interface {
	Check(ctx context.Context, domain string) Status
}

type Config struct {
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
}

// WhoisChecker answers availability via live WHOIS lookups.
type WhoisChecker struct {
	client *whois.Client
}

func NewWhoisChecker(cfg Config) *WhoisChecker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := whois.NewClient()
	client.SetTimeout(timeout)
	return &WhoisChecker{client: client}
}

func (c *WhoisChecker) Check(ctx context.Context, domain string) Status {
	if err := ctx.Err(); err != nil {
		return StatusLikelyAvailable
	}

	raw, err := c.client.Whois(domain)
	if err != nil {
		return StatusLikelyAvailable
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		if errors.Is(err, whoisparser.ErrNotFoundDomain) {
			return StatusAvailable
		}
		return StatusLikelyAvailable
	}

	// Registered domains always carry a creation date; its absence in an
	// otherwise parseable record means the registry has no registration.
	if parsed.Domain == nil || strings.TrimSpace(parsed.Domain.CreatedDate) == "" {
		return StatusAvailable
	}
	return StatusTaken
}

// Slug reduces a brand name to the label used for domain lookups.
func Slug(brand string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(brand)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CheckTLDs checks a brand slug across the given extensions.
func CheckTLDs(ctx context.Context, checker Checker, brand string, tlds []string) map[string]Status {
	if len(tlds) == 0 {
		tlds = DefaultTLDs
	}
	slug := Slug(brand)
	out := make(map[string]Status, len(tlds))
	for _, tld := range tlds {
		out[slug+tld] = checker.Check(ctx, slug+tld)
	}
	return out
}
