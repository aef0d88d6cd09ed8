package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

type sessionRepository struct {
	db *gorm.DB
}

func (r *sessionRepository) Create(ctx context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	rec := sessionModel{
		JTI:        params.JTI,
		IdentityID: params.IdentityID,
		IPAddress:  nullableString(params.IPAddress),
		UserAgent:  params.UserAgent,
		CreatedAt:  params.CreatedAt,
		ExpiresAt:  params.ExpiresAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Session{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) GetByJTI(ctx context.Context, jti uuid.UUID) (domain.Session, error) {
	var rec sessionModel
	if err := r.db.WithContext(ctx).Where("jti = ?", jti).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) RevokeByJTI(ctx context.Context, jti uuid.UUID, revokedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("jti = ?", jti).
		Where("revoked_at IS NULL").
		Update("revoked_at", revokedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&sessionModel{}).Where("jti = ?", jti).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (r *sessionRepository) RevokeAllByIdentity(ctx context.Context, identityID uuid.UUID, revokedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("identity_id = ?", identityID).
		Where("revoked_at IS NULL").
		Update("revoked_at", revokedAt)
	return res.RowsAffected, res.Error
}

func (r *sessionRepository) RevokeAllExcept(ctx context.Context, identityID uuid.UUID, keepJTI uuid.UUID, revokedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("identity_id = ?", identityID).
		Where("jti <> ?", keepJTI).
		Where("revoked_at IS NULL").
		Update("revoked_at", revokedAt)
	return res.RowsAffected, res.Error
}

func (r *sessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&sessionModel{})
	return res.RowsAffected, res.Error
}
