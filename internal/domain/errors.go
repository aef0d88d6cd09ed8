package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthenticated covers missing, malformed, or expired credentials.
	// It deliberately carries no detail about which check failed.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden signals a valid session whose role is not allowed here.
	ErrForbidden      = errors.New("insufficient role")
	ErrInvalidInput   = errors.New("invalid input")
	ErrSessionExpired = errors.New("session expired")
	ErrSessionRevoked = errors.New("session revoked")
	// ErrTokenExpired and ErrTokenConsumed cover single-use credentials
	// (magic-link tokens); both map to a 400 so callers cannot distinguish
	// a guessed token from a replayed one.
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenConsumed = errors.New("token already consumed")
	// ErrInvalidCode is the generic wrong-TOTP/wrong-backup-code failure.
	ErrInvalidCode = errors.New("invalid code")
	ErrRateLimited = errors.New("rate limited")
	ErrConflict    = errors.New("conflict")

	// ErrInvalidCiphertext means the stored blob does not parse into
	// nonce, ciphertext, and tag. Distinct from an integrity failure so
	// corruption and tampering are observable separately in logs.
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	// ErrCryptoIntegrity means an authentication-tag mismatch: tampering or
	// key misconfiguration. Never surfaced to callers as anything more
	// specific than a generic internal error.
	ErrCryptoIntegrity = errors.New("ciphertext integrity check failed")

	// Configuration errors surfaced at construction time, never per request.
	ErrEncryptionKeyTooShort = errors.New("encryption key must be at least 32 bytes")
	ErrSigningSecretTooShort = errors.New("session signing secret must be at least 32 bytes")

	ErrTOTPNotEnrolled    = errors.New("totp enrollment not started")
	ErrTOTPAlreadyEnabled = errors.New("totp already enabled")
)

// RateLimitError carries the retry-after hint the limiter computed from its
// window state. It unwraps to ErrRateLimited so call sites can match with
// errors.Is without losing the duration.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
