package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

// issueSession mints a signed token and mirrors it into a sessions row so it
// can be revoked server-side later. The jti is minted here, independently of
// the signature.
func (s *Service) issueSession(ctx context.Context, identity domain.Identity, meta RequestMeta) (SessionResult, error) {
	now := s.nowFn()
	expiresAt := now.Add(s.cfg.SessionTTL)
	jti := uuid.New()

	token, err := s.tokenSigner.Sign(ports.SessionClaims{
		IdentityID: identity.IdentityID,
		Email:      identity.Email,
		Role:       identity.Role,
		JTI:        jti,
		IssuedAt:   now,
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		return SessionResult{}, fmt.Errorf("sign session token: %w", err)
	}

	if _, err := s.sessions.Create(ctx, ports.SessionCreateParams{
		JTI:        jti,
		IdentityID: identity.IdentityID,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}); err != nil {
		return SessionResult{}, fmt.Errorf("persist session: %w", err)
	}

	return SessionResult{
		Token:      token,
		JTI:        jti,
		IdentityID: identity.IdentityID,
		Email:      identity.Email,
		Role:       identity.Role,
		ExpiresAt:  expiresAt,
	}, nil
}

// revokeJTI marks the session row revoked and mirrors the decision into the
// revocation store so the next request sees it without a DB round trip.
func (s *Service) revokeJTI(ctx context.Context, session domain.Session) error {
	now := s.nowFn()
	if err := s.sessions.RevokeByJTI(ctx, session.JTI, now); err != nil {
		return err
	}
	if err := s.revocations.MarkRevoked(ctx, session.JTI, session.ExpiresAt); err != nil {
		slog.Default().WarnContext(ctx, "revocation marker write failed",
			"module", "application",
			"layer", "application",
			"operation", "revoke_session",
			"outcome", "warning",
			"error", err,
		)
	}
	return nil
}

// Logout revokes the caller's own session and audits it.
func (s *Service) Logout(ctx context.Context, claims ports.SessionClaims, meta RequestMeta) error {
	session, err := s.sessions.GetByJTI(ctx, claims.JTI)
	if err != nil {
		return err
	}
	if err := s.revokeJTI(ctx, session); err != nil {
		return err
	}
	actor := claims.IdentityID
	s.audit.Record(ports.AuditEntry{
		Action:     "session.logout",
		TargetType: "session",
		TargetID:   claims.JTI.String(),
		ActorID:    &actor,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

// RevokeIdentitySessions is the admin kill switch: every outstanding session
// for the identity is revoked at once.
func (s *Service) RevokeIdentitySessions(ctx context.Context, actor ports.SessionClaims, identityID uuid.UUID, meta RequestMeta) (RevokeSessionsResponse, error) {
	if _, err := s.identities.GetByID(ctx, identityID); err != nil {
		return RevokeSessionsResponse{}, err
	}

	now := s.nowFn()
	// Bulk revocation skips per-jti Redis markers: the gate falls through to
	// the session row whenever the marker is absent, so the revoked rows are
	// already effective on the next request.
	count, err := s.sessions.RevokeAllByIdentity(ctx, identityID, now)
	if err != nil {
		return RevokeSessionsResponse{}, err
	}

	actorID := actor.IdentityID
	s.audit.Record(ports.AuditEntry{
		Action:     "session.revoke_all",
		TargetType: "identity",
		TargetID:   identityID.String(),
		ActorID:    &actorID,
		Meta:       map[string]any{"revoked_count": count},
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	})
	return RevokeSessionsResponse{RevokedCount: count}, nil
}
