package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/venuescout/auth-service/internal/domain"
)

type rateLimitRecordRepository struct {
	db *gorm.DB
}

func (r *rateLimitRecordRepository) Insert(ctx context.Context, rec domain.RateLimitRecord) error {
	row := rateLimitRecordModel{
		Key:           rec.Key,
		EndpointClass: rec.EndpointClass,
		WindowStart:   rec.WindowStart,
		BlockedUntil:  rec.BlockedUntil,
		CreatedAt:     rec.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *rateLimitRecordRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&rateLimitRecordModel{})
	return res.RowsAffected, res.Error
}
