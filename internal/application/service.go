package application

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

type Service struct {
	cfg         Config
	identities  ports.IdentityRepository
	magicLinks  ports.MagicLinkRepository
	backupCodes ports.BackupCodeRepository
	sessions    ports.SessionRepository
	rateRecords ports.RateLimitRecordRepository
	oauthConns  ports.OAuthConnectionRepository
	counters    ports.RateCounterStore
	revocations ports.SessionRevocationStore
	oauthState  ports.OAuthStateStore
	exchanger   ports.OAuthExchanger
	cipher      ports.SecretCipher
	hasher      ports.CodeHasher
	tokenSigner ports.TokenSigner
	totp        ports.TOTPEngine
	tokens      ports.TokenGenerator
	mailer      ports.MagicLinkMailer
	audit       ports.AuditRecorder
	nowFn       func() time.Time
}

type Dependencies struct {
	Config           Config
	Identities       ports.IdentityRepository
	MagicLinks       ports.MagicLinkRepository
	BackupCodes      ports.BackupCodeRepository
	Sessions         ports.SessionRepository
	RateLimitRecords ports.RateLimitRecordRepository
	OAuthConnections ports.OAuthConnectionRepository
	RateCounters     ports.RateCounterStore
	Revocations      ports.SessionRevocationStore
	OAuthState       ports.OAuthStateStore
	OAuthExchanger   ports.OAuthExchanger
	Cipher           ports.SecretCipher
	Hasher           ports.CodeHasher
	TokenSigner      ports.TokenSigner
	TOTP             ports.TOTPEngine
	Tokens           ports.TokenGenerator
	Mailer           ports.MagicLinkMailer
	Audit            ports.AuditRecorder
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:         deps.Config,
		identities:  deps.Identities,
		magicLinks:  deps.MagicLinks,
		backupCodes: deps.BackupCodes,
		sessions:    deps.Sessions,
		rateRecords: deps.RateLimitRecords,
		oauthConns:  deps.OAuthConnections,
		counters:    deps.RateCounters,
		revocations: deps.Revocations,
		oauthState:  deps.OAuthState,
		exchanger:   deps.OAuthExchanger,
		cipher:      deps.Cipher,
		hasher:      deps.Hasher,
		tokenSigner: deps.TokenSigner,
		totp:        deps.TOTP,
		tokens:      deps.Tokens,
		mailer:      deps.Mailer,
		audit:       deps.Audit,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// AppBaseURL exposes the configured application origin for post-auth
// redirects.
func (s *Service) AppBaseURL() string {
	return strings.TrimRight(s.cfg.AppBaseURL, "/")
}

// normalizeEmail canonicalizes and validates email format before persistence/comparison.
func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return trimmed, nil
}
