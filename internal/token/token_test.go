package token

import (
	"regexp"
	"testing"
)

var hexCode = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestGenerateFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := Generate()
		if !hexCode.MatchString(code) {
			t.Fatalf("Generate() = %q, want 32 lowercase hex characters", code)
		}
	}
}

func TestGenerateNoCollisions(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		code := Generate()
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code after %d generations: %s", i, code)
		}
		seen[code] = struct{}{}
	}
}
