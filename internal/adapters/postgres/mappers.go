package postgres

import (
	"encoding/json"

	"github.com/venuescout/auth-service/internal/domain"
)

func toDomainIdentity(rec identityModel) domain.Identity {
	return domain.Identity{
		IdentityID:          rec.IdentityID,
		Email:               rec.Email,
		Role:                rec.Role,
		TOTPSecret:          rec.TOTPSecret,
		TOTPEnabled:         rec.TOTPEnabled,
		FirstLoginCompleted: rec.FirstLoginCompleted,
		LastLoginAt:         rec.LastLoginAt,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}
}

func toDomainMagicLink(rec magicLinkTokenModel) domain.MagicLinkToken {
	return domain.MagicLinkToken{
		TokenID:    rec.TokenID,
		TokenHash:  rec.TokenHash,
		Email:      rec.Email,
		IdentityID: rec.IdentityID,
		CreatedAt:  rec.CreatedAt,
		ExpiresAt:  rec.ExpiresAt,
		ConsumedAt: rec.ConsumedAt,
	}
}

func toDomainBackupCode(rec backupCodeModel) domain.BackupCode {
	return domain.BackupCode{
		BackupCodeID: rec.BackupCodeID,
		IdentityID:   rec.IdentityID,
		CodeHash:     rec.CodeHash,
		CreatedAt:    rec.CreatedAt,
		UsedAt:       rec.UsedAt,
	}
}

func toDomainSession(rec sessionModel) domain.Session {
	s := domain.Session{
		JTI:        rec.JTI,
		IdentityID: rec.IdentityID,
		UserAgent:  rec.UserAgent,
		CreatedAt:  rec.CreatedAt,
		ExpiresAt:  rec.ExpiresAt,
		RevokedAt:  rec.RevokedAt,
	}
	if rec.IPAddress != nil {
		s.IPAddress = *rec.IPAddress
	}
	return s
}

func toAuditRecord(event domain.AuditEvent) (auditEventModel, error) {
	meta := "{}"
	if len(event.Meta) > 0 {
		raw, err := json.Marshal(event.Meta)
		if err != nil {
			return auditEventModel{}, err
		}
		meta = string(raw)
	}
	return auditEventModel{
		Action:     event.Action,
		TargetType: event.TargetType,
		TargetID:   event.TargetID,
		ActorID:    event.ActorID,
		Meta:       meta,
		IPAddress:  nullableString(event.IPAddress),
		UserAgent:  event.UserAgent,
		OccurredAt: event.OccurredAt,
	}, nil
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
