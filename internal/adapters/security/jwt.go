package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

// JWTSigner implements HS256 session-token signing and parsing. The key is
// held at adapter level so the application layer stays crypto-library
// agnostic.
type JWTSigner struct {
	secret []byte
}

// NewJWTSigner builds a signer from the configured signing secret. Short
// secrets are rejected at construction, never per request.
func NewJWTSigner(secret string) (*JWTSigner, error) {
	if len(secret) < 32 {
		return nil, domain.ErrSigningSecretTooShort
	}
	return &JWTSigner{secret: []byte(secret)}, nil
}

type sessionJWTClaims struct {
	IdentityID string `json:"identity_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) Sign(claims ports.SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionJWTClaims{
		IdentityID: claims.IdentityID.String(),
		Email:      claims.Email,
		Role:       claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.JTI.String(),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	return token.SignedString(s.secret)
}

// ParseAndValidate checks structure, signature, and expiry. It does not
// consult the revocation store; that round trip belongs to the access gate.
func (s *JWTSigner) ParseAndValidate(raw string) (ports.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &sessionJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return ports.SessionClaims{}, err
	}
	claims, ok := parsed.Claims.(*sessionJWTClaims)
	if !ok || !parsed.Valid {
		return ports.SessionClaims{}, errors.New("invalid token claims")
	}

	identityID, err := uuid.Parse(claims.IdentityID)
	if err != nil {
		return ports.SessionClaims{}, fmt.Errorf("parse identity_id: %w", err)
	}
	jti, err := uuid.Parse(claims.ID)
	if err != nil {
		return ports.SessionClaims{}, fmt.Errorf("parse jti: %w", err)
	}

	return ports.SessionClaims{
		IdentityID: identityID,
		Email:      claims.Email,
		Role:       claims.Role,
		JTI:        jti,
		IssuedAt:   claims.IssuedAt.Time.UTC(),
		ExpiresAt:  claims.ExpiresAt.Time.UTC(),
	}, nil
}
