package application

import (
	"time"

	"github.com/google/uuid"
)

// Endpoint classes key the limiter's per-class budgets.
const (
	ClassMagicLinkRequest = "magic_link_request"
	ClassMagicLinkVerify  = "magic_link_verify"
	ClassTOTPVerify       = "totp_verify"
	ClassTOTPEnroll       = "totp_enroll"
	ClassOAuthExchange    = "oauth_exchange"
)

// RateLimitPolicy is one endpoint class's fixed-window budget.
type RateLimitPolicy struct {
	Limit  int64
	Window time.Duration
}

type Config struct {
	DefaultRole     string
	Issuer          string
	AppBaseURL      string
	SessionTTL      time.Duration
	MagicLinkTTL    time.Duration
	BackupCodeCount int
	RateLimits      map[string]RateLimitPolicy
}

// RequestMeta carries caller context every sensitive operation audits.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type MagicLinkRequest struct {
	Email string `json:"email"`
	RequestMeta
}

type MagicLinkVerifyRequest struct {
	Token string `json:"token"`
	RequestMeta
}

type SessionResult struct {
	Token      string    `json:"-"`
	JTI        uuid.UUID `json:"-"`
	IdentityID uuid.UUID `json:"identity_id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type TOTPEnrollResponse struct {
	Secret        string   `json:"secret"`
	QRCodeDataURI string   `json:"qr_code_data_uri"`
	BackupCodes   []string `json:"backup_codes"`
}

type TOTPVerifyRequest struct {
	Code         string `json:"token"`
	IsBackupCode bool   `json:"is_backup_code"`
	RequestMeta
}

type TOTPVerifyResponse struct {
	Verified       bool           `json:"verified"`
	SessionRotated bool           `json:"session_rotated"`
	Session        *SessionResult `json:"-"`
}

type BackupCodesResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

type OAuthStartResponse struct {
	State     string    `json:"state"`
	ExpiresAt time.Time `json:"expires_at"`
}

type OAuthCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
	RequestMeta
}

type RevokeSessionsResponse struct {
	RevokedCount int64 `json:"revoked_count"`
}
