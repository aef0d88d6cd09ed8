package http

import (
	"fmt"
	"net/http"

	"github.com/venuescout/auth-service/internal/application"
	"github.com/venuescout/auth-service/internal/domain"
)

func (h *Handler) enrollTOTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	resp, err := h.service.EnrollTOTP(r.Context(), claims, requestMeta(r))
	if err != nil {
		writeMappedError(r.Context(), w, "totp_enroll", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) verifyTOTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req application.TOTPVerifyRequest
	if err := decodeBody(r, &req); err != nil {
		writeMappedError(r.Context(), w, "totp_verify",
			fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	req.RequestMeta = requestMeta(r)

	resp, err := h.service.VerifyTOTP(r.Context(), claims, req)
	if err != nil {
		writeMappedError(r.Context(), w, "totp_verify", err)
		return
	}

	// Enabling rotates sessions; hand the replacement token to the caller.
	if resp.SessionRotated && resp.Session != nil {
		h.setSessionCookie(w, resp.Session.Token, resp.Session.ExpiresAt)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) regenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	resp, err := h.service.RegenerateBackupCodes(r.Context(), claims, requestMeta(r))
	if err != nil {
		writeMappedError(r.Context(), w, "backup_codes_regenerate", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
