package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venuescout/auth-service/internal/domain"
)

type backupCodeRepository struct {
	db *gorm.DB
}

// Replace supersedes the previous batch in one transaction so there is never
// a moment with a mixed old-and-new code set.
func (r *backupCodeRepository) Replace(ctx context.Context, identityID uuid.UUID, codeHashes []string, createdAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("identity_id = ?", identityID).Delete(&backupCodeModel{}).Error; err != nil {
			return err
		}
		rows := make([]backupCodeModel, 0, len(codeHashes))
		for _, hash := range codeHashes {
			rows = append(rows, backupCodeModel{
				IdentityID: identityID,
				CodeHash:   hash,
				CreatedAt:  createdAt,
			})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *backupCodeRepository) ListUnused(ctx context.Context, identityID uuid.UUID) ([]domain.BackupCode, error) {
	var rows []backupCodeModel
	query := r.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Where("used_at IS NULL").
		Order("created_at ASC")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.BackupCode, 0, len(rows))
	for _, item := range rows {
		result = append(result, toDomainBackupCode(item))
	}
	return result, nil
}

func (r *backupCodeRepository) Consume(ctx context.Context, backupCodeID uuid.UUID, usedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&backupCodeModel{}).
		Where("backup_code_id = ?", backupCodeID).
		Where("used_at IS NULL").
		Update("used_at", usedAt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
