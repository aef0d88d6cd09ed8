package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

const oauthStateTTL = 10 * time.Minute

// OAuthStart issues the anti-CSRF state nonce the callback must echo back.
func (s *Service) OAuthStart(ctx context.Context, provider string) (OAuthStartResponse, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return OAuthStartResponse{}, fmt.Errorf("%w: provider is required", domain.ErrInvalidInput)
	}

	now := s.nowFn()
	state := s.tokens.Token(16)
	value := ports.OAuthState{
		Provider:  provider,
		CreatedAt: now,
		ExpiresAt: now.Add(oauthStateTTL),
	}
	if err := s.oauthState.Put(ctx, state, value, oauthStateTTL); err != nil {
		return OAuthStartResponse{}, fmt.Errorf("store oauth state: %w", err)
	}
	return OAuthStartResponse{State: state, ExpiresAt: value.ExpiresAt}, nil
}

// OAuthCallback consumes the state nonce, exchanges the authorization code,
// and signs the caller in: an existing (provider, subject) link resolves to
// its identity, anything else links or creates by verified email.
func (s *Service) OAuthCallback(ctx context.Context, req OAuthCallbackRequest) (SessionResult, error) {
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.State) == "" {
		return SessionResult{}, fmt.Errorf("%w: code and state are required", domain.ErrInvalidInput)
	}
	if err := s.consumeRateLimit(ctx, ClassOAuthExchange, req.IPAddress, req.RequestMeta); err != nil {
		return SessionResult{}, err
	}

	state, err := s.oauthState.Get(ctx, req.State)
	if err != nil {
		return SessionResult{}, fmt.Errorf("load oauth state: %w", err)
	}
	if state == nil {
		return SessionResult{}, fmt.Errorf("%w: unknown or expired oauth state", domain.ErrUnauthenticated)
	}
	// Single-use regardless of outcome.
	_ = s.oauthState.Delete(ctx, req.State)

	profile, err := s.exchanger.Exchange(ctx, req.Code)
	if err != nil {
		return SessionResult{}, fmt.Errorf("%w: code exchange failed", domain.ErrUnauthenticated)
	}
	if !profile.EmailVerified {
		return SessionResult{}, fmt.Errorf("%w: provider email not verified", domain.ErrUnauthenticated)
	}

	now := s.nowFn()
	var identity domain.Identity
	identityID, err := s.oauthConns.FindIdentityByProviderSubject(ctx, state.Provider, profile.Subject)
	switch {
	case err == nil:
		identity, err = s.identities.GetByID(ctx, identityID)
		if err != nil {
			return SessionResult{}, fmt.Errorf("resolve linked identity: %w", err)
		}
	case errors.Is(err, domain.ErrNotFound):
		email, normErr := normalizeEmail(profile.Email)
		if normErr != nil {
			return SessionResult{}, normErr
		}
		identity, err = s.identities.GetOrCreateByEmail(ctx, email, s.cfg.DefaultRole, now)
		if err != nil {
			return SessionResult{}, fmt.Errorf("resolve identity: %w", err)
		}
	default:
		return SessionResult{}, fmt.Errorf("find oauth connection: %w", err)
	}

	if err := s.oauthConns.Upsert(ctx, identity.IdentityID, state.Provider, profile.Subject, profile.Email, now); err != nil {
		return SessionResult{}, fmt.Errorf("link oauth connection: %w", err)
	}
	if err := s.identities.RecordLogin(ctx, identity.IdentityID, now); err != nil {
		return SessionResult{}, fmt.Errorf("record login: %w", err)
	}

	session, err := s.issueSession(ctx, identity, req.RequestMeta)
	if err != nil {
		return SessionResult{}, err
	}

	actor := identity.IdentityID
	s.audit.Record(ports.AuditEntry{
		Action:     "oauth.signed_in",
		TargetType: "identity",
		TargetID:   identity.IdentityID.String(),
		ActorID:    &actor,
		Meta:       map[string]any{"provider": state.Provider},
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	})
	return session, nil
}
