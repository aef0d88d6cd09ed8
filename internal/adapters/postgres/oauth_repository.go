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

type oauthConnectionRepository struct {
	db *gorm.DB
}

func (r *oauthConnectionRepository) FindIdentityByProviderSubject(ctx context.Context, provider, subject string) (uuid.UUID, error) {
	var rec oauthConnectionModel
	err := r.db.WithContext(ctx).
		Where("provider = ?", provider).
		Where("subject = ?", subject).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, domain.ErrNotFound
		}
		return uuid.Nil, err
	}
	return rec.IdentityID, nil
}

func (r *oauthConnectionRepository) Upsert(ctx context.Context, identityID uuid.UUID, provider, subject, email string, now time.Time) error {
	rec := oauthConnectionModel{
		IdentityID:  identityID,
		Provider:    provider,
		Subject:     subject,
		Email:       email,
		LinkedAt:    now,
		LastLoginAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "subject"}},
			DoUpdates: clause.Assignments(map[string]any{"email": email, "last_login_at": now}),
		}).
		Create(&rec).Error
}
