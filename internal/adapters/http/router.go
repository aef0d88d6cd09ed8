package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/venuescout/auth-service/internal/domain"
)

// NewRouter registers the auth HTTP surface and middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/magic-link/request", handler.requestMagicLink)
		r.Get("/magic-link/verify", handler.verifyMagicLink)
		r.Get("/oauth/start", handler.oauthStart)
		r.Get("/oauth/callback", handler.oauthCallback)

		r.Group(func(r chi.Router) {
			r.Use(handler.RequireSession)
			r.Post("/totp/enroll", handler.enrollTOTP)
			r.Post("/totp/verify", handler.verifyTOTP)
			r.Post("/backup-codes/regenerate", handler.regenerateBackupCodes)
			r.Post("/logout", handler.logout)
			r.Get("/session", handler.currentSession)
		})

		r.Group(func(r chi.Router) {
			r.Use(handler.RequireRole(domain.RoleAdmin))
			r.Post("/admin/identities/{id}/revoke-sessions", handler.revokeIdentitySessions)
		})
	})

	return r
}
