package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

// CurrentSession validates a raw token end to end: signature and expiry
// first, then the revocation check the stateless verify cannot do. This is
// one of the two entry points collaborating modules call.
func (s *Service) CurrentSession(ctx context.Context, rawToken string) (*ports.SessionClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	revoked, err := s.isRevoked(ctx, claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrSessionRevoked
	}
	return &claims, nil
}

// Authorize is the access gate: session validity, then revocation, then
// role. Checks are strictly ordered and short-circuit; every denial is
// audited with its reason.
func (s *Service) Authorize(ctx context.Context, rawToken string, meta RequestMeta, roles ...string) (*ports.SessionClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(rawToken)
	if err != nil {
		s.auditAccessDenied(nil, "invalid_session", meta)
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	revoked, err := s.isRevoked(ctx, claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		actor := claims.IdentityID
		s.auditAccessDenied(&actor, "session_revoked", meta)
		return nil, domain.ErrSessionRevoked
	}

	if len(roles) > 0 && !roleAllowed(claims.Role, roles) {
		actor := claims.IdentityID
		s.audit.Record(ports.AuditEntry{
			Action:     "rbac.denied",
			TargetType: "identity",
			TargetID:   claims.IdentityID.String(),
			ActorID:    &actor,
			Meta:       map[string]any{"role": claims.Role, "required": roles},
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		})
		return nil, domain.ErrForbidden
	}

	if len(roles) > 0 {
		actor := claims.IdentityID
		s.audit.Record(ports.AuditEntry{
			Action:     "rbac.allowed",
			TargetType: "identity",
			TargetID:   claims.IdentityID.String(),
			ActorID:    &actor,
			Meta:       map[string]any{"role": claims.Role},
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		})
	}
	return &claims, nil
}

// isRevoked consults the Redis marker first and falls back to the session
// row, which stays the source of truth.
func (s *Service) isRevoked(ctx context.Context, claims ports.SessionClaims) (bool, error) {
	marked, err := s.revocations.IsRevoked(ctx, claims.JTI)
	if err != nil {
		slog.Default().WarnContext(ctx, "revocation store unavailable",
			"module", "application",
			"layer", "application",
			"operation", "is_revoked",
			"outcome", "warning",
			"error", err,
		)
	} else if marked {
		return true, nil
	}

	session, err := s.sessions.GetByJTI(ctx, claims.JTI)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// No backing row means the session was never issued by this
			// service or has already been pruned.
			return true, nil
		}
		return false, fmt.Errorf("load session: %w", err)
	}
	if session.RevokedAt != nil {
		return true, nil
	}
	if !session.ExpiresAt.After(s.nowFn()) {
		return true, nil
	}
	return false, nil
}

// AuditMissingSession records the gate's first denial: no cookie at all.
// The HTTP adapter owns cookie extraction, so it reports this case itself.
func (s *Service) AuditMissingSession(meta RequestMeta) {
	s.auditAccessDenied(nil, "no_session", meta)
}

func (s *Service) auditAccessDenied(actor *uuid.UUID, reason string, meta RequestMeta) {
	s.audit.Record(ports.AuditEntry{
		Action:     "access.denied",
		TargetType: "session",
		TargetID:   reason,
		ActorID:    actor,
		Meta:       map[string]any{"reason": reason},
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	})
}

func roleAllowed(role string, allowed []string) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}
