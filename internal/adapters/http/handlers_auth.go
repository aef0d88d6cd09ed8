package http

import (
	"fmt"
	"net/http"

	"github.com/venuescout/auth-service/internal/application"
	"github.com/venuescout/auth-service/internal/domain"
)

// requestMagicLink always answers 202 on accepted input so responses do not
// reveal whether an email is registered.
func (h *Handler) requestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req application.MagicLinkRequest
	if err := decodeBody(r, &req); err != nil {
		writeMappedError(r.Context(), w, "magic_link_request",
			fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	req.RequestMeta = requestMeta(r)

	if err := h.service.RequestMagicLink(r.Context(), req); err != nil {
		writeMappedError(r.Context(), w, "magic_link_request", err)
		return
	}
	writeMessage(w, http.StatusAccepted, "if the address is valid, a sign-in link is on its way")
}

func (h *Handler) verifyMagicLink(w http.ResponseWriter, r *http.Request) {
	req := application.MagicLinkVerifyRequest{
		Token:       r.URL.Query().Get("token"),
		RequestMeta: requestMeta(r),
	}

	session, err := h.service.VerifyMagicLink(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "magic_link_verify", err)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	writeJSON(w, http.StatusOK, session)
}
