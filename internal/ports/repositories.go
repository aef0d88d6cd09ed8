package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/venuescout/auth-service/internal/domain"
)

// IdentityRepository defines persistence for authentication identities.
// GetOrCreate exists because a magic-link request is also the registration
// path: the first request for an unknown email provisions the identity.
type IdentityRepository interface {
	GetOrCreateByEmail(ctx context.Context, email, defaultRole string, now time.Time) (domain.Identity, error)
	GetByID(ctx context.Context, identityID uuid.UUID) (domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (domain.Identity, error)
	// RecordLogin sets last_login_at and flips first_login_completed.
	RecordLogin(ctx context.Context, identityID uuid.UUID, at time.Time) error
	// SetTOTPSecret stores the encrypted secret and clears totp_enabled,
	// moving the identity into the enrolling state.
	SetTOTPSecret(ctx context.Context, identityID uuid.UUID, encryptedSecret string, at time.Time) error
	EnableTOTP(ctx context.Context, identityID uuid.UUID, at time.Time) error
}

// MagicLinkCreateParams captures one issued sign-in link.
type MagicLinkCreateParams struct {
	TokenHash  string
	Email      string
	IdentityID *uuid.UUID
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// MagicLinkRepository owns single-use token lifecycle. Consume must be a
// single conditional update on consumed_at so that of two concurrent
// attempts exactly one observes rows-affected > 0.
type MagicLinkRepository interface {
	Create(ctx context.Context, params MagicLinkCreateParams) (domain.MagicLinkToken, error)
	// ListActive returns unconsumed, unexpired tokens. The set is bounded by
	// the 15-minute TTL; the adaptive hash has no deterministic lookup key.
	ListActive(ctx context.Context, now time.Time) ([]domain.MagicLinkToken, error)
	Consume(ctx context.Context, tokenID uuid.UUID, at time.Time) (bool, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// BackupCodeRepository manages recovery-code batches. Replace supersedes the
// whole previous batch; Consume is the same conditional-update contract as
// magic links.
type BackupCodeRepository interface {
	Replace(ctx context.Context, identityID uuid.UUID, codeHashes []string, createdAt time.Time) error
	ListUnused(ctx context.Context, identityID uuid.UUID) ([]domain.BackupCode, error)
	Consume(ctx context.Context, backupCodeID uuid.UUID, usedAt time.Time) (bool, error)
}

// SessionCreateParams captures metadata stored with every issued session.
type SessionCreateParams struct {
	JTI        uuid.UUID
	IdentityID uuid.UUID
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// SessionRepository is the revocation side of the dual session design:
// tokens verify statelessly, these rows are the kill switch.
type SessionRepository interface {
	Create(ctx context.Context, params SessionCreateParams) (domain.Session, error)
	GetByJTI(ctx context.Context, jti uuid.UUID) (domain.Session, error)
	RevokeByJTI(ctx context.Context, jti uuid.UUID, revokedAt time.Time) error
	RevokeAllByIdentity(ctx context.Context, identityID uuid.UUID, revokedAt time.Time) (int64, error)
	// RevokeAllExcept invalidates every other outstanding session for the
	// identity, used when enabling TOTP.
	RevokeAllExcept(ctx context.Context, identityID uuid.UUID, keepJTI uuid.UUID, revokedAt time.Time) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateLimitRecordRepository persists limiter rejections for audit only.
type RateLimitRecordRepository interface {
	Insert(ctx context.Context, rec domain.RateLimitRecord) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRepository appends audit events. There is deliberately no update or
// delete surface.
type AuditRepository interface {
	Insert(ctx context.Context, event domain.AuditEvent) error
}

// OAuthConnectionRepository persists provider links so a returning OAuth
// sign-in resolves to the same local identity.
type OAuthConnectionRepository interface {
	FindIdentityByProviderSubject(ctx context.Context, provider, subject string) (uuid.UUID, error)
	Upsert(ctx context.Context, identityID uuid.UUID, provider, subject, email string, now time.Time) error
}
