package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/venuescout/auth-service/internal/domain"
)

type auditRepository struct {
	db *gorm.DB
}

func (r *auditRepository) Insert(ctx context.Context, event domain.AuditEvent) error {
	rec, err := toAuditRecord(event)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}
