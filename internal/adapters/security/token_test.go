package security

import (
	"regexp"
	"testing"
)

func TestTokenGeneratorToken(t *testing.T) {
	t.Parallel()

	gen := RandomTokenGenerator{}
	token := gen.Token(32)
	if len(token) != 64 {
		t.Fatalf("32-byte token should be 64 hex chars, got %d", len(token))
	}
	if !regexp.MustCompile(`^[0-9a-f]+$`).MatchString(token) {
		t.Fatalf("token should be lowercase hex: %s", token)
	}
	if gen.Token(0) == "" {
		t.Fatalf("zero length should fall back to the default, not return empty")
	}
	if gen.Token(32) == token {
		t.Fatalf("consecutive tokens should differ")
	}
}

func TestTokenGeneratorBackupCodes(t *testing.T) {
	t.Parallel()

	gen := RandomTokenGenerator{}
	codes := gen.BackupCodes(10)
	if len(codes) != 10 {
		t.Fatalf("expected 10 codes, got %d", len(codes))
	}

	format := regexp.MustCompile(`^[0-9A-F]{8}$`)
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		if !format.MatchString(code) {
			t.Fatalf("code %q should be 8 uppercase hex chars", code)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatalf("codes in a batch should not all collide")
	}
}
