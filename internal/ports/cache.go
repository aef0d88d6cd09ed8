package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RateCounterStore holds the limiter's live counters. Centralizing them in
// a shared store keeps the limiter correct when the service runs as more
// than one replica.
type RateCounterStore interface {
	// Incr bumps the counter for key, starting a fresh window when the key
	// is new. It returns the post-increment count and the time remaining in
	// the current window.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, remaining time.Duration, err error)
	Count(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// SessionRevocationStore keeps revocation markers with token-aligned TTL so
// a revoked jti is rejected on the very next request without decoding cost.
type SessionRevocationStore interface {
	MarkRevoked(ctx context.Context, jti uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti uuid.UUID) (bool, error)
}

// OAuthState is the anti-CSRF envelope stored between the start of an OAuth
// flow and its callback.
type OAuthState struct {
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OAuthStateStore manages short-lived OAuth state nonces. Get returns nil
// when the state is unknown or expired out of the store.
type OAuthStateStore interface {
	Put(ctx context.Context, state string, value OAuthState, ttl time.Duration) error
	Get(ctx context.Context, state string) (*OAuthState, error)
	Delete(ctx context.Context, state string) error
}
