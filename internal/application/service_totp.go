package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

// EnrollTOTP generates a fresh authenticator secret for the caller, stores
// it encrypted, and replaces any previous backup-code batch. The identity
// stays in the enrolling state until the first successful verify.
func (s *Service) EnrollTOTP(ctx context.Context, claims ports.SessionClaims, meta RequestMeta) (TOTPEnrollResponse, error) {
	if err := s.consumeRateLimit(ctx, ClassTOTPEnroll, claims.IdentityID.String(), meta); err != nil {
		return TOTPEnrollResponse{}, err
	}

	identity, err := s.identities.GetByID(ctx, claims.IdentityID)
	if err != nil {
		return TOTPEnrollResponse{}, err
	}
	if identity.TOTPEnabled {
		return TOTPEnrollResponse{}, domain.ErrTOTPAlreadyEnabled
	}

	enrollment, err := s.totp.GenerateSecret(identity.Email)
	if err != nil {
		return TOTPEnrollResponse{}, fmt.Errorf("generate totp secret: %w", err)
	}

	encrypted, err := s.cipher.Encrypt([]byte(enrollment.Secret))
	if err != nil {
		return TOTPEnrollResponse{}, fmt.Errorf("encrypt totp secret: %w", err)
	}

	now := s.nowFn()
	if err := s.identities.SetTOTPSecret(ctx, identity.IdentityID, encrypted, now); err != nil {
		return TOTPEnrollResponse{}, fmt.Errorf("store totp secret: %w", err)
	}

	codes, err := s.replaceBackupCodes(ctx, identity.IdentityID)
	if err != nil {
		return TOTPEnrollResponse{}, err
	}

	actor := identity.IdentityID
	s.audit.Record(ports.AuditEntry{
		Action:     "totp.enrolled",
		TargetType: "identity",
		TargetID:   identity.IdentityID.String(),
		ActorID:    &actor,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	})
	return TOTPEnrollResponse{
		Secret:        enrollment.Secret,
		QRCodeDataURI: enrollment.QRCodeDataURI,
		BackupCodes:   codes,
	}, nil
}

// VerifyTOTP checks an authenticator code or a backup code. The first
// successful authenticator verify flips the identity to enabled and rotates
// sessions: a replacement session is issued and every other one is revoked.
func (s *Service) VerifyTOTP(ctx context.Context, claims ports.SessionClaims, req TOTPVerifyRequest) (TOTPVerifyResponse, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return TOTPVerifyResponse{}, fmt.Errorf("%w: code is required", domain.ErrInvalidInput)
	}
	if err := s.consumeRateLimit(ctx, ClassTOTPVerify, claims.IdentityID.String(), req.RequestMeta); err != nil {
		return TOTPVerifyResponse{}, err
	}

	identity, err := s.identities.GetByID(ctx, claims.IdentityID)
	if err != nil {
		return TOTPVerifyResponse{}, err
	}

	if req.IsBackupCode {
		return s.verifyBackupCode(ctx, identity, claims, code, req.RequestMeta)
	}

	if identity.TOTPSecret == nil {
		return TOTPVerifyResponse{}, domain.ErrTOTPNotEnrolled
	}

	secret, err := s.cipher.Decrypt(*identity.TOTPSecret)
	if err != nil {
		// A secret that no longer decrypts is treated as a failed attempt;
		// the crypto detail stays out of the response.
		slog.Default().ErrorContext(ctx, "stored totp secret unreadable",
			"module", "application",
			"layer", "application",
			"operation", "verify_totp",
			"outcome", "failure",
			"identity_id", identity.IdentityID.String(),
			"error", err,
		)
		return TOTPVerifyResponse{}, domain.ErrInvalidCode
	}

	if !s.totp.Verify(code, string(secret), s.nowFn()) {
		s.recordDeniedAttempt(ctx, identity, "totp.rejected", req.RequestMeta)
		return TOTPVerifyResponse{}, domain.ErrInvalidCode
	}

	if !identity.TOTPEnabled {
		return s.enableTOTP(ctx, identity, claims, req.RequestMeta)
	}

	s.resetRateLimit(ctx, ClassTOTPVerify, claims.IdentityID.String())
	actor := identity.IdentityID
	s.audit.Record(ports.AuditEntry{
		Action:     "totp.verified",
		TargetType: "identity",
		TargetID:   identity.IdentityID.String(),
		ActorID:    &actor,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	})
	return TOTPVerifyResponse{Verified: true}, nil
}

// enableTOTP is the two-phase enable: flip the flag, issue the replacement
// session, then revoke everything else. A crash between the steps leaves the
// identity enabled and able to sign back in via magic link.
func (s *Service) enableTOTP(ctx context.Context, identity domain.Identity, claims ports.SessionClaims, meta RequestMeta) (TOTPVerifyResponse, error) {
	now := s.nowFn()
	if err := s.identities.EnableTOTP(ctx, identity.IdentityID, now); err != nil {
		return TOTPVerifyResponse{}, fmt.Errorf("enable totp: %w", err)
	}

	replacement, err := s.issueSession(ctx, identity, meta)
	if err != nil {
		return TOTPVerifyResponse{}, err
	}

	if _, err := s.sessions.RevokeAllExcept(ctx, identity.IdentityID, replacement.JTI, s.nowFn()); err != nil {
		return TOTPVerifyResponse{}, fmt.Errorf("rotate sessions: %w", err)
	}
	if err := s.revocations.MarkRevoked(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		slog.Default().WarnContext(ctx, "revocation marker write failed",
			"module", "application",
			"layer", "application",
			"operation", "enable_totp",
			"outcome", "warning",
			"error", err,
		)
	}

	s.resetRateLimit(ctx, ClassTOTPVerify, identity.IdentityID.String())
	actor := identity.IdentityID
	s.audit.Record(ports.AuditEntry{
		Action:     "totp.enabled",
		TargetType: "identity",
		TargetID:   identity.IdentityID.String(),
		ActorID:    &actor,
		Meta:       map[string]any{"replacement_jti": replacement.JTI.String()},
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	})
	return TOTPVerifyResponse{Verified: true, SessionRotated: true, Session: &replacement}, nil
}

// verifyBackupCode checks the submission against every unused code for the
// identity and consumes the match at most once.
func (s *Service) verifyBackupCode(ctx context.Context, identity domain.Identity, claims ports.SessionClaims, code string, meta RequestMeta) (TOTPVerifyResponse, error) {
	if !identity.TOTPEnabled {
		return TOTPVerifyResponse{}, domain.ErrTOTPNotEnrolled
	}

	unused, err := s.backupCodes.ListUnused(ctx, identity.IdentityID)
	if err != nil {
		return TOTPVerifyResponse{}, fmt.Errorf("list backup codes: %w", err)
	}

	normalized := strings.ToUpper(code)
	for _, candidate := range unused {
		if !s.hasher.Verify(normalized, candidate.CodeHash) {
			continue
		}
		consumed, err := s.backupCodes.Consume(ctx, candidate.BackupCodeID, s.nowFn())
		if err != nil {
			return TOTPVerifyResponse{}, fmt.Errorf("consume backup code: %w", err)
		}
		if !consumed {
			break
		}
		s.resetRateLimit(ctx, ClassTOTPVerify, identity.IdentityID.String())
		actor := identity.IdentityID
		s.audit.Record(ports.AuditEntry{
			Action:     "backup_code.used",
			TargetType: "identity",
			TargetID:   identity.IdentityID.String(),
			ActorID:    &actor,
			Meta:       map[string]any{"remaining": len(unused) - 1},
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		})
		return TOTPVerifyResponse{Verified: true}, nil
	}

	s.recordDeniedAttempt(ctx, identity, "backup_code.rejected", meta)
	return TOTPVerifyResponse{}, domain.ErrInvalidCode
}

// RegenerateBackupCodes replaces the caller's batch wholesale. Requires TOTP
// to be fully enabled, not merely enrolling.
func (s *Service) RegenerateBackupCodes(ctx context.Context, claims ports.SessionClaims, meta RequestMeta) (BackupCodesResponse, error) {
	identity, err := s.identities.GetByID(ctx, claims.IdentityID)
	if err != nil {
		return BackupCodesResponse{}, err
	}
	if !identity.TOTPEnabled {
		return BackupCodesResponse{}, domain.ErrTOTPNotEnrolled
	}

	codes, err := s.replaceBackupCodes(ctx, identity.IdentityID)
	if err != nil {
		return BackupCodesResponse{}, err
	}

	actor := identity.IdentityID
	s.audit.Record(ports.AuditEntry{
		Action:     "backup_codes.regenerated",
		TargetType: "identity",
		TargetID:   identity.IdentityID.String(),
		ActorID:    &actor,
		Meta:       map[string]any{"count": len(codes)},
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	})
	return BackupCodesResponse{BackupCodes: codes}, nil
}

func (s *Service) replaceBackupCodes(ctx context.Context, identityID uuid.UUID) ([]string, error) {
	codes := s.tokens.BackupCodes(s.cfg.BackupCodeCount)
	hashes := make([]string, 0, len(codes))
	for _, c := range codes {
		h, err := s.hasher.Hash(c)
		if err != nil {
			return nil, fmt.Errorf("hash backup code: %w", err)
		}
		hashes = append(hashes, h)
	}
	if err := s.backupCodes.Replace(ctx, identityID, hashes, s.nowFn()); err != nil {
		return nil, fmt.Errorf("store backup codes: %w", err)
	}
	return codes, nil
}

func (s *Service) recordDeniedAttempt(ctx context.Context, identity domain.Identity, action string, meta RequestMeta) {
	actor := identity.IdentityID
	s.audit.Record(ports.AuditEntry{
		Action:     action,
		TargetType: "identity",
		TargetID:   identity.IdentityID.String(),
		ActorID:    &actor,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	})
}
