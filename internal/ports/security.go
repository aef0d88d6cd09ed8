package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionClaims is the decoded payload of a session token. JTI is minted
// independently of the signature and exists solely for revocation lookups.
type SessionClaims struct {
	IdentityID uuid.UUID
	Email      string
	Role       string
	JTI        uuid.UUID
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// TokenSigner mints and verifies self-contained session tokens.
// ParseAndValidate checks signature and expiry only; revocation is a
// separate, stateful step the access gate performs.
type TokenSigner interface {
	Sign(claims SessionClaims) (string, error)
	ParseAndValidate(token string) (SessionClaims, error)
}

// SecretCipher provides authenticated encryption for secrets at rest. The
// blob a call to Encrypt returns is self-contained: nonce, ciphertext, and
// tag travel together.
type SecretCipher interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(blob string) ([]byte, error)
}

// CodeHasher is adaptive one-way hashing for single-use codes. Two hashes
// of the same input differ (randomized salt) but both verify.
type CodeHasher interface {
	Hash(value string) (string, error)
	Verify(value, digest string) bool
}

// TOTPEnrollment is what a fresh enrollment hands back to the client.
type TOTPEnrollment struct {
	Secret          string
	ProvisioningURI string
	QRCodeDataURI   string
}

// TOTPEngine generates enrollment secrets and verifies codes within a
// bounded, symmetric window around the current time step.
type TOTPEngine interface {
	GenerateSecret(accountLabel string) (TOTPEnrollment, error)
	Verify(code, secret string, at time.Time) bool
}

// TokenGenerator draws opaque tokens and backup codes from a
// cryptographically secure source.
type TokenGenerator interface {
	Token(byteLen int) string
	BackupCodes(count int) []string
}

// OAuthProfile is the provider-neutral result of an authorization-code
// exchange. Provider quirks stay behind the exchanger.
type OAuthProfile struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
}

// OAuthExchanger exchanges an authorization code for a user profile.
type OAuthExchanger interface {
	Exchange(ctx context.Context, code string) (OAuthProfile, error)
}

// MagicLinkMailer is the delivery boundary for sign-in links. Delivery
// failures are the caller's to handle; implementations must never log the
// link itself.
type MagicLinkMailer interface {
	SendMagicLink(ctx context.Context, email, link string, expiresAt time.Time) error
}
