package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

const testSigningSecret = "0123456789abcdef0123456789abcdef"

func testClaims() ports.SessionClaims {
	now := time.Now().UTC().Truncate(time.Second)
	return ports.SessionClaims{
		IdentityID: uuid.New(),
		Email:      "user@example.com",
		Role:       "user",
		JTI:        uuid.New(),
		IssuedAt:   now,
		ExpiresAt:  now.Add(7 * 24 * time.Hour),
	}
}

func TestJWTSignParseRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewJWTSigner(testSigningSecret)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	want := testClaims()
	token, err := signer.Sign(want)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := signer.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.IdentityID != want.IdentityID || got.Email != want.Email || got.Role != want.Role || got.JTI != want.JTI {
		t.Fatalf("claims mismatch: got %+v want %+v", got, want)
	}
	if !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Fatalf("expiry mismatch: got %v want %v", got.ExpiresAt, want.ExpiresAt)
	}
}

func TestJWTRejectsShortSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewJWTSigner("short"); !errors.Is(err, domain.ErrSigningSecretTooShort) {
		t.Fatalf("expected ErrSigningSecretTooShort, got %v", err)
	}
}

func TestJWTRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	signer, err := NewJWTSigner(testSigningSecret)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	token, err := signer.Sign(testClaims())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected jwt structure")
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("x", len(parts[2]))
	if _, err := signer.ParseAndValidate(tampered); err == nil {
		t.Fatalf("tampered token must not validate")
	}
}

func TestJWTRejectsWrongKey(t *testing.T) {
	t.Parallel()

	signer, err := NewJWTSigner(testSigningSecret)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	other, err := NewJWTSigner("fedcba9876543210fedcba9876543210")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	token, err := signer.Sign(testClaims())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := other.ParseAndValidate(token); err == nil {
		t.Fatalf("token signed under a different key must not validate")
	}
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := NewJWTSigner(testSigningSecret)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	claims := testClaims()
	claims.IssuedAt = time.Now().UTC().Add(-2 * time.Hour)
	claims.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	token, err := signer.Sign(claims)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := signer.ParseAndValidate(token); err == nil {
		t.Fatalf("expired token must not validate")
	}
}
