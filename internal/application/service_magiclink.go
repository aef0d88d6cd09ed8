package application

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

// RequestMagicLink issues a single-use sign-in link for the email, creating
// the identity when it does not exist yet. The raw token leaves the process
// only through the mailer; only its adaptive hash is stored.
func (s *Service) RequestMagicLink(ctx context.Context, req MagicLinkRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	if err := s.consumeRateLimit(ctx, ClassMagicLinkRequest, email, req.RequestMeta); err != nil {
		return err
	}

	now := s.nowFn()
	identity, err := s.identities.GetOrCreateByEmail(ctx, email, s.cfg.DefaultRole, now)
	if err != nil {
		return fmt.Errorf("resolve identity: %w", err)
	}

	token := s.tokens.Token(32)
	tokenHash, err := s.hasher.Hash(token)
	if err != nil {
		return fmt.Errorf("hash magic link token: %w", err)
	}

	expiresAt := now.Add(s.cfg.MagicLinkTTL)
	identityID := identity.IdentityID
	if _, err := s.magicLinks.Create(ctx, ports.MagicLinkCreateParams{
		TokenHash:  tokenHash,
		Email:      email,
		IdentityID: &identityID,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}); err != nil {
		return fmt.Errorf("persist magic link: %w", err)
	}

	link := fmt.Sprintf("%s/auth/magic-link/verify?token=%s",
		strings.TrimRight(s.cfg.AppBaseURL, "/"), url.QueryEscape(token))
	if err := s.mailer.SendMagicLink(ctx, email, link, expiresAt); err != nil {
		return fmt.Errorf("send magic link: %w", err)
	}

	s.audit.Record(ports.AuditEntry{
		Action:     "magic_link.requested",
		TargetType: "identity",
		TargetID:   identity.IdentityID.String(),
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	})
	return nil
}

// VerifyMagicLink redeems a sign-in link and issues a session. The stored
// hashes are salted, so the submission is verified against every active
// candidate; consumption is a single conditional update, so of two
// concurrent redeems exactly one wins.
func (s *Service) VerifyMagicLink(ctx context.Context, req MagicLinkVerifyRequest) (SessionResult, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return SessionResult{}, fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}
	if err := s.consumeRateLimit(ctx, ClassMagicLinkVerify, req.IPAddress, req.RequestMeta); err != nil {
		return SessionResult{}, err
	}

	now := s.nowFn()
	candidates, err := s.magicLinks.ListActive(ctx, now)
	if err != nil {
		return SessionResult{}, fmt.Errorf("list active magic links: %w", err)
	}

	var match *domain.MagicLinkToken
	for i := range candidates {
		if s.hasher.Verify(token, candidates[i].TokenHash) {
			match = &candidates[i]
			break
		}
	}
	if match == nil {
		s.audit.Record(ports.AuditEntry{
			Action:     "magic_link.rejected",
			TargetType: "magic_link",
			TargetID:   "unknown",
			IPAddress:  req.IPAddress,
			UserAgent:  req.UserAgent,
		})
		return SessionResult{}, fmt.Errorf("%w: unknown or expired link", domain.ErrInvalidCode)
	}

	consumed, err := s.magicLinks.Consume(ctx, match.TokenID, now)
	if err != nil {
		return SessionResult{}, fmt.Errorf("consume magic link: %w", err)
	}
	if !consumed {
		return SessionResult{}, domain.ErrTokenConsumed
	}

	var identity domain.Identity
	if match.IdentityID != nil {
		identity, err = s.identities.GetByID(ctx, *match.IdentityID)
	} else {
		identity, err = s.identities.GetOrCreateByEmail(ctx, match.Email, s.cfg.DefaultRole, now)
	}
	if err != nil {
		return SessionResult{}, fmt.Errorf("resolve identity: %w", err)
	}

	if err := s.identities.RecordLogin(ctx, identity.IdentityID, now); err != nil {
		return SessionResult{}, fmt.Errorf("record login: %w", err)
	}

	session, err := s.issueSession(ctx, identity, req.RequestMeta)
	if err != nil {
		return SessionResult{}, err
	}

	s.resetRateLimit(ctx, ClassMagicLinkVerify, req.IPAddress)
	actor := identity.IdentityID
	s.audit.Record(ports.AuditEntry{
		Action:     "magic_link.verified",
		TargetType: "identity",
		TargetID:   identity.IdentityID.String(),
		ActorID:    &actor,
		Meta:       map[string]any{"jti": session.JTI.String()},
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	})
	return session, nil
}
