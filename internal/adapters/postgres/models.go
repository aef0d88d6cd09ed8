package postgres

import (
	"time"

	"github.com/google/uuid"
)

type identityModel struct {
	IdentityID          uuid.UUID  `gorm:"column:identity_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email               string     `gorm:"column:email"`
	Role                string     `gorm:"column:role"`
	TOTPSecret          *string    `gorm:"column:totp_secret"`
	TOTPEnabled         bool       `gorm:"column:totp_enabled"`
	FirstLoginCompleted bool       `gorm:"column:first_login_completed"`
	LastLoginAt         *time.Time `gorm:"column:last_login_at"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (identityModel) TableName() string { return "identities" }

type magicLinkTokenModel struct {
	TokenID    uuid.UUID  `gorm:"column:token_id;type:uuid;default:gen_random_uuid();primaryKey"`
	TokenHash  string     `gorm:"column:token_hash"`
	Email      string     `gorm:"column:email"`
	IdentityID *uuid.UUID `gorm:"column:identity_id"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	ExpiresAt  time.Time  `gorm:"column:expires_at"`
	ConsumedAt *time.Time `gorm:"column:consumed_at"`
}

func (magicLinkTokenModel) TableName() string { return "magic_link_tokens" }

type backupCodeModel struct {
	BackupCodeID uuid.UUID  `gorm:"column:backup_code_id;type:uuid;default:gen_random_uuid();primaryKey"`
	IdentityID   uuid.UUID  `gorm:"column:identity_id"`
	CodeHash     string     `gorm:"column:code_hash"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UsedAt       *time.Time `gorm:"column:used_at"`
}

func (backupCodeModel) TableName() string { return "backup_codes" }

type sessionModel struct {
	JTI        uuid.UUID  `gorm:"column:jti;type:uuid;primaryKey"`
	IdentityID uuid.UUID  `gorm:"column:identity_id"`
	IPAddress  *string    `gorm:"column:ip_address"`
	UserAgent  string     `gorm:"column:user_agent"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	ExpiresAt  time.Time  `gorm:"column:expires_at"`
	RevokedAt  *time.Time `gorm:"column:revoked_at"`
}

func (sessionModel) TableName() string { return "sessions" }

type rateLimitRecordModel struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	Key           string    `gorm:"column:key"`
	EndpointClass string    `gorm:"column:endpoint_class"`
	WindowStart   time.Time `gorm:"column:window_start"`
	BlockedUntil  time.Time `gorm:"column:blocked_until"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (rateLimitRecordModel) TableName() string { return "rate_limit_records" }

type auditEventModel struct {
	ID         int64      `gorm:"column:id;primaryKey"`
	Action     string     `gorm:"column:action"`
	TargetType string     `gorm:"column:target_type"`
	TargetID   string     `gorm:"column:target_id"`
	ActorID    *uuid.UUID `gorm:"column:actor_id"`
	Meta       string     `gorm:"column:meta;type:jsonb"`
	IPAddress  *string    `gorm:"column:ip_address"`
	UserAgent  string     `gorm:"column:user_agent"`
	OccurredAt time.Time  `gorm:"column:occurred_at"`
}

func (auditEventModel) TableName() string { return "audit_events" }

type oauthConnectionModel struct {
	ConnectionID uuid.UUID `gorm:"column:connection_id;type:uuid;default:gen_random_uuid();primaryKey"`
	IdentityID   uuid.UUID `gorm:"column:identity_id"`
	Provider     string    `gorm:"column:provider"`
	Subject      string    `gorm:"column:subject"`
	Email        string    `gorm:"column:email"`
	LinkedAt     time.Time `gorm:"column:linked_at"`
	LastLoginAt  time.Time `gorm:"column:last_login_at"`
}

func (oauthConnectionModel) TableName() string { return "oauth_connections" }
