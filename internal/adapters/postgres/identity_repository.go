package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/venuescout/auth-service/internal/domain"
)

type identityRepository struct {
	db *gorm.DB
}

// GetOrCreateByEmail resolves an identity for a sign-in email, provisioning
// one when it does not exist yet. The insert uses ON CONFLICT DO NOTHING so
// two concurrent first requests for the same email converge on one row.
func (r *identityRepository) GetOrCreateByEmail(ctx context.Context, email, defaultRole string, now time.Time) (domain.Identity, error) {
	rec := identityModel{
		Email:     email,
		Role:      defaultRole,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(&rec)
	if res.Error != nil {
		return domain.Identity{}, res.Error
	}
	if res.RowsAffected == 0 {
		return r.GetByEmail(ctx, email)
	}
	return toDomainIdentity(rec), nil
}

func (r *identityRepository) GetByID(ctx context.Context, identityID uuid.UUID) (domain.Identity, error) {
	var rec identityModel
	if err := r.db.WithContext(ctx).Where("identity_id = ?", identityID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Identity{}, domain.ErrNotFound
		}
		return domain.Identity{}, err
	}
	return toDomainIdentity(rec), nil
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (domain.Identity, error) {
	var rec identityModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Identity{}, domain.ErrNotFound
		}
		return domain.Identity{}, err
	}
	return toDomainIdentity(rec), nil
}

func (r *identityRepository) RecordLogin(ctx context.Context, identityID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&identityModel{}).
		Where("identity_id = ?", identityID).
		Updates(map[string]any{
			"last_login_at":         at,
			"first_login_completed": true,
			"updated_at":            at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *identityRepository) SetTOTPSecret(ctx context.Context, identityID uuid.UUID, encryptedSecret string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&identityModel{}).
		Where("identity_id = ?", identityID).
		Updates(map[string]any{
			"totp_secret":  encryptedSecret,
			"totp_enabled": false,
			"updated_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *identityRepository) EnableTOTP(ctx context.Context, identityID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&identityModel{}).
		Where("identity_id = ?", identityID).
		Where("totp_secret IS NOT NULL").
		Updates(map[string]any{
			"totp_enabled": true,
			"updated_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTOTPNotEnrolled
	}
	return nil
}
