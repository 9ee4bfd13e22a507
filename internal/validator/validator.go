// Package validator normalizes and validates subscriber email
// addresses. An address is accepted only when it parses as a single
// RFC 5322 address and its domain publishes at least one MX record;
// resolver failures count as validation failures (fail closed).
package validator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"strings"
)

// ErrInvalidEmail rejects an address that cannot be parsed, has an
// empty domain, or has no MX records.
var ErrInvalidEmail = errors.New("invalid email address")

// MXResolver looks up MX records for a domain. *net.Resolver
// satisfies it; tests substitute a stub.
type MXResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// Validator checks and normalizes email addresses. It is stateless
// and safe for concurrent use.
type Validator struct {
	resolver MXResolver
}

// New returns a Validator backed by the given resolver, or by
// net.DefaultResolver when resolver is nil.
func New(resolver MXResolver) *Validator {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Validator{resolver: resolver}
}

// Validate parses raw as exactly one email address, lowercases it,
// and confirms the domain can receive mail. It returns the
// normalized address, which is the form the store persists.
func (v *Validator) Validate(ctx context.Context, raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}

	normalized := strings.ToLower(addr.Address)
	at := strings.LastIndex(normalized, "@")
	if at < 0 || at == len(normalized)-1 {
		return "", fmt.Errorf("%w: missing domain", ErrInvalidEmail)
	}
	domain := normalized[at+1:]

	records, err := v.resolver.LookupMX(ctx, domain)
	if err != nil {
		return "", fmt.Errorf("%w: mx lookup for %s failed: %v", ErrInvalidEmail, domain, err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: no mx records for %s", ErrInvalidEmail, domain)
	}

	return normalized, nil
}
