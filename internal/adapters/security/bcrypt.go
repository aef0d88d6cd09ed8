package security

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher implements adaptive one-way hashing for backup codes and
// magic-link tokens. Cost is configurable so security/performance can be
// tuned by environment.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a bcrypt-based hasher with default fallback cost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(value string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(value), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(value, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(value)) == nil
}
