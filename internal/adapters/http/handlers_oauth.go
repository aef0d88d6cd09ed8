package http

import (
	"net/http"

	"github.com/venuescout/auth-service/internal/application"
)

func (h *Handler) oauthStart(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.OAuthStart(r.Context(), r.URL.Query().Get("provider"))
	if err != nil {
		writeMappedError(r.Context(), w, "oauth_start", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// oauthCallback finishes the provider round trip: the session cookie is set
// and the browser is sent back into the application.
func (h *Handler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	req := application.OAuthCallbackRequest{
		Code:        r.URL.Query().Get("code"),
		State:       r.URL.Query().Get("state"),
		RequestMeta: requestMeta(r),
	}

	session, err := h.service.OAuthCallback(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "oauth_callback", err)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	http.Redirect(w, r, h.service.AppBaseURL(), http.StatusFound)
}
