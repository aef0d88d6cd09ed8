package postgres

import (
	"gorm.io/gorm"

	"github.com/venuescout/auth-service/internal/ports"
)

// Repositories bundles every Postgres-backed port implementation behind one
// constructor so the bootstrap wires a single value.
type Repositories struct {
	Identities       ports.IdentityRepository
	MagicLinks       ports.MagicLinkRepository
	BackupCodes      ports.BackupCodeRepository
	Sessions         ports.SessionRepository
	RateLimitRecords ports.RateLimitRecordRepository
	Audit            ports.AuditRepository
	OAuthConnections ports.OAuthConnectionRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Identities:       &identityRepository{db: db},
		MagicLinks:       &magicLinkRepository{db: db},
		BackupCodes:      &backupCodeRepository{db: db},
		Sessions:         &sessionRepository{db: db},
		RateLimitRecords: &rateLimitRecordRepository{db: db},
		Audit:            &auditRepository{db: db},
		OAuthConnections: &oauthConnectionRepository{db: db},
	}
}
