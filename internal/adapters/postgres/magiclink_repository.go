package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

type magicLinkRepository struct {
	db *gorm.DB
}

func (r *magicLinkRepository) Create(ctx context.Context, params ports.MagicLinkCreateParams) (domain.MagicLinkToken, error) {
	rec := magicLinkTokenModel{
		TokenHash:  params.TokenHash,
		Email:      params.Email,
		IdentityID: params.IdentityID,
		CreatedAt:  params.CreatedAt,
		ExpiresAt:  params.ExpiresAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.MagicLinkToken{}, err
	}
	return toDomainMagicLink(rec), nil
}

func (r *magicLinkRepository) ListActive(ctx context.Context, now time.Time) ([]domain.MagicLinkToken, error) {
	var rows []magicLinkTokenModel
	query := r.db.WithContext(ctx).
		Where("consumed_at IS NULL").
		Where("expires_at > ?", now).
		Order("created_at DESC")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.MagicLinkToken, 0, len(rows))
	for _, item := range rows {
		result = append(result, toDomainMagicLink(item))
	}
	return result, nil
}

// Consume marks a token used with a single conditional update. Exactly one
// of any number of concurrent callers observes true.
func (r *magicLinkRepository) Consume(ctx context.Context, tokenID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&magicLinkTokenModel{}).
		Where("token_id = ?", tokenID).
		Where("consumed_at IS NULL").
		Update("consumed_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *magicLinkRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&magicLinkTokenModel{})
	return res.RowsAffected, res.Error
}
