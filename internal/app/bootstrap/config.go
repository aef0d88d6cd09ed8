package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// RateLimitSetting is one endpoint class's budget as configured.
type RateLimitSetting struct {
	Limit  int
	Window time.Duration
}

// Config is the resolved runtime configuration for the auth service.
// It merges file defaults and environment overrides to support both local
// and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	SigningSecret    string
	EncryptionKeyHex string

	BcryptCost int

	Issuer          string
	AppBaseURL      string
	DefaultRole     string
	SessionTTL      time.Duration
	MagicLinkTTL    time.Duration
	TOTPSkew        int
	BackupCodeCount int
	SecureCookies   bool

	OAuthProvider     string
	OAuthTokenURL     string
	OAuthUserInfoURL  string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURI  string
	OAuthHTTPTimeout  time.Duration

	RateLimits map[string]RateLimitSetting

	MaxDBConns        int32
	RetentionInterval time.Duration
	AuditBufferSize   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Auth struct {
		Issuer          string `yaml:"issuer"`
		AppBaseURL      string `yaml:"app_base_url"`
		DefaultRole     string `yaml:"default_role"`
		SessionTTLDays  int    `yaml:"session_ttl_days"`
		MagicLinkTTLMin int    `yaml:"magic_link_ttl_minutes"`
		TOTPSkew        int    `yaml:"totp_skew"`
		BackupCodeCount int    `yaml:"backup_code_count"`
		SecureCookies   bool   `yaml:"secure_cookies"`
	} `yaml:"auth"`
	OAuth struct {
		Provider     string `yaml:"provider"`
		TokenURL     string `yaml:"token_url"`
		UserInfoURL  string `yaml:"userinfo_url"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RedirectURI  string `yaml:"redirect_uri"`
	} `yaml:"oauth"`
	RateLimits map[string]struct {
		Limit         int `yaml:"limit"`
		WindowSeconds int `yaml:"window_seconds"`
	} `yaml:"rate_limits"`
}

const maxTOTPSkew = 2

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:        "auth-service",
		HTTPPort:         8080,
		GRPCPort:         9090,
		BcryptCost:       12,
		Issuer:           "VenueScout",
		AppBaseURL:       "http://localhost:3000",
		DefaultRole:      "user",
		SessionTTL:       7 * 24 * time.Hour,
		MagicLinkTTL:     15 * time.Minute,
		TOTPSkew:         1,
		BackupCodeCount:  10,
		OAuthHTTPTimeout: 8 * time.Second,
		RateLimits: map[string]RateLimitSetting{
			"magic_link_request": {Limit: 3, Window: 15 * time.Minute},
			"magic_link_verify":  {Limit: 10, Window: 15 * time.Minute},
			"totp_verify":        {Limit: 5, Window: 5 * time.Minute},
			"totp_enroll":        {Limit: 5, Window: time.Hour},
			"oauth_exchange":     {Limit: 10, Window: 15 * time.Minute},
		},
		MaxDBConns:        20,
		RetentionInterval: time.Hour,
		AuditBufferSize:   256,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Auth.Issuer != "" {
			cfg.Issuer = f.Auth.Issuer
		}
		if f.Auth.AppBaseURL != "" {
			cfg.AppBaseURL = f.Auth.AppBaseURL
		}
		if f.Auth.DefaultRole != "" {
			cfg.DefaultRole = f.Auth.DefaultRole
		}
		if f.Auth.SessionTTLDays > 0 {
			cfg.SessionTTL = time.Duration(f.Auth.SessionTTLDays) * 24 * time.Hour
		}
		if f.Auth.MagicLinkTTLMin > 0 {
			cfg.MagicLinkTTL = time.Duration(f.Auth.MagicLinkTTLMin) * time.Minute
		}
		if f.Auth.TOTPSkew > 0 {
			cfg.TOTPSkew = f.Auth.TOTPSkew
		}
		if f.Auth.BackupCodeCount > 0 {
			cfg.BackupCodeCount = f.Auth.BackupCodeCount
		}
		cfg.SecureCookies = f.Auth.SecureCookies
		if f.OAuth.Provider != "" {
			cfg.OAuthProvider = f.OAuth.Provider
		}
		if f.OAuth.TokenURL != "" {
			cfg.OAuthTokenURL = f.OAuth.TokenURL
		}
		if f.OAuth.UserInfoURL != "" {
			cfg.OAuthUserInfoURL = f.OAuth.UserInfoURL
		}
		if f.OAuth.ClientID != "" {
			cfg.OAuthClientID = f.OAuth.ClientID
		}
		if f.OAuth.ClientSecret != "" {
			cfg.OAuthClientSecret = f.OAuth.ClientSecret
		}
		if f.OAuth.RedirectURI != "" {
			cfg.OAuthRedirectURI = f.OAuth.RedirectURI
		}
		for class, setting := range f.RateLimits {
			if setting.Limit > 0 && setting.WindowSeconds > 0 {
				cfg.RateLimits[class] = RateLimitSetting{
					Limit:  setting.Limit,
					Window: time.Duration(setting.WindowSeconds) * time.Second,
				}
			}
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.SigningSecret = envOrDefault("SESSION_SIGNING_SECRET", cfg.SigningSecret)
	cfg.EncryptionKeyHex = envOrDefault("SECRET_ENCRYPTION_KEY", cfg.EncryptionKeyHex)
	cfg.Issuer = envOrDefault("TOTP_ISSUER", cfg.Issuer)
	cfg.AppBaseURL = envOrDefault("APP_BASE_URL", cfg.AppBaseURL)
	cfg.DefaultRole = envOrDefault("DEFAULT_ROLE", cfg.DefaultRole)
	cfg.OAuthClientID = envOrDefault("OAUTH_CLIENT_ID", cfg.OAuthClientID)
	cfg.OAuthClientSecret = envOrDefault("OAUTH_CLIENT_SECRET", cfg.OAuthClientSecret)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.TOTPSkew = envInt("TOTP_SKEW", cfg.TOTPSkew)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.SecureCookies = envBool("SECURE_COOKIES", cfg.SecureCookies)

	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_DAYS", int(cfg.SessionTTL.Hours()/24))) * 24 * time.Hour
	cfg.MagicLinkTTL = time.Duration(envInt("MAGIC_LINK_TTL_MINUTES", int(cfg.MagicLinkTTL.Minutes()))) * time.Minute
	cfg.RetentionInterval = time.Duration(envInt("RETENTION_INTERVAL_MINUTES", int(cfg.RetentionInterval.Minutes()))) * time.Minute
	cfg.AuditBufferSize = envInt("AUDIT_BUFFER_SIZE", cfg.AuditBufferSize)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if len(cfg.SigningSecret) < 32 {
		return Config{}, fmt.Errorf("SESSION_SIGNING_SECRET must be at least 32 bytes")
	}
	if cfg.EncryptionKeyHex == "" {
		return Config{}, fmt.Errorf("missing SECRET_ENCRYPTION_KEY")
	}
	if cfg.TOTPSkew > maxTOTPSkew {
		cfg.TOTPSkew = maxTOTPSkew
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}
