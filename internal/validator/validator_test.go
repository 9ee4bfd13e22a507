package validator

import (
	"context"
	"errors"
	"net"
	"testing"
)

type stubResolver struct {
	records map[string][]*net.MX
	err     error
}

func (s *stubResolver) LookupMX(_ context.Context, domain string) ([]*net.MX, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records[domain], nil
}

func mxFor(domains ...string) *stubResolver {
	records := make(map[string][]*net.MX)
	for _, d := range domains {
		records[d] = []*net.MX{{Host: "mx." + d, Pref: 10}}
	}
	return &stubResolver{records: records}
}

func TestValidateNormalizes(t *testing.T) {
	v := New(mxFor("example.com", "mail.example.org"))

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already normalized", "user@example.com", "user@example.com"},
		{"uppercase local and domain", "User@EXAMPLE.COM", "user@example.com"},
		{"display name stripped", "Jane Doe <jane@example.com>", "jane@example.com"},
		{"surrounding whitespace", "  user@example.com  ", "user@example.com"},
		{"subdomain", "a@mail.example.org", "a@mail.example.org"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(context.Background(), tt.raw)
			if err != nil {
				t.Fatalf("Validate(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Validate(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	v := New(mxFor("example.com"))
	first, err := v.Validate(context.Background(), "MiXeD@Example.Com")
	if err != nil {
		t.Fatal(err)
	}
	second, err := v.Validate(context.Background(), first)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("re-validating normalized form changed it: %q -> %q", first, second)
	}
}

func TestValidateRejects(t *testing.T) {
	v := New(mxFor("example.com"))

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no at sign", "userexample.com"},
		{"address list", "a@example.com, b@example.com"},
		{"bare domain", "@example.com"},
		{"no mx records", "user@no-mail.example.net"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), tt.raw)
			if !errors.Is(err, ErrInvalidEmail) {
				t.Errorf("Validate(%q) error = %v, want ErrInvalidEmail", tt.raw, err)
			}
		})
	}
}

func TestValidateFailsClosedOnResolverError(t *testing.T) {
	v := New(&stubResolver{err: errors.New("dns timeout")})
	_, err := v.Validate(context.Background(), "user@example.com")
	if !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("resolver failure should surface as ErrInvalidEmail, got %v", err)
	}
}
