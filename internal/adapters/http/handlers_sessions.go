package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/venuescout/auth-service/internal/domain"
)

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), claims, requestMeta(r)); err != nil {
		writeMappedError(r.Context(), w, "logout", err)
		return
	}
	h.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "signed out")
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"identity_id": claims.IdentityID,
		"email":       claims.Email,
		"role":        claims.Role,
		"expires_at":  claims.ExpiresAt,
	})
}

func (h *Handler) revokeIdentitySessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	identityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMappedError(r.Context(), w, "revoke_identity_sessions",
			fmt.Errorf("%w: invalid identity id", domain.ErrInvalidInput))
		return
	}

	resp, err := h.service.RevokeIdentitySessions(r.Context(), claims, identityID, requestMeta(r))
	if err != nil {
		writeMappedError(r.Context(), w, "revoke_identity_sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
