package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the canonical authentication aggregate. It keeps only
// auth-relevant state; profile data belongs to the rest of the application.
type Identity struct {
	IdentityID          uuid.UUID
	Email               string
	Role                string
	TOTPSecret          *string // encrypted blob, never plaintext
	TOTPEnabled         bool
	FirstLoginCompleted bool
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TOTPEnrolling reports whether a secret has been provisioned but not yet
// confirmed by a first successful verify.
func (i Identity) TOTPEnrolling() bool {
	return i.TOTPSecret != nil && !i.TOTPEnabled
}

// MagicLinkToken is a single-use sign-in credential. Only the adaptive hash
// of the token is stored; consumption is a conditional update on ConsumedAt.
type MagicLinkToken struct {
	TokenID    uuid.UUID
	TokenHash  string
	Email      string
	IdentityID *uuid.UUID
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// BackupCode is a single-use recovery credential. A regeneration replaces
// the whole batch for an identity.
type BackupCode struct {
	BackupCodeID uuid.UUID
	IdentityID   uuid.UUID
	CodeHash     string
	CreatedAt    time.Time
	UsedAt       *time.Time
}

// Session mirrors every issued token so it can be revoked server-side even
// though the signed token stays cryptographically valid until expiry.
type Session struct {
	JTI        uuid.UUID
	IdentityID uuid.UUID
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
}

// RateLimitRecord documents a limiter rejection for audit. The live counters
// live in Redis; these rows enforce nothing.
type RateLimitRecord struct {
	ID            int64
	Key           string
	EndpointClass string
	WindowStart   time.Time
	BlockedUntil  time.Time
	CreatedAt     time.Time
}

// AuditEvent is one append-only record of a security-relevant decision.
type AuditEvent struct {
	ID         int64
	Action     string
	TargetType string
	TargetID   string
	ActorID    *uuid.UUID
	Meta       map[string]any
	IPAddress  string
	UserAgent  string
	OccurredAt time.Time
}
