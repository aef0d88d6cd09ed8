package http

import (
	"context"
	"net/http"

	"github.com/venuescout/auth-service/internal/application"
)

// Handler is the HTTP adapter entrypoint for auth use-cases.
type Handler struct {
	service       *application.Service
	secureCookies bool
	readyCheck    func(ctx context.Context) error
}

// NewHandler constructs an HTTP handler bound to the application service.
// readyCheck probes downstream dependencies for /readyz; nil means always
// ready.
func NewHandler(service *application.Service, secureCookies bool, readyCheck func(ctx context.Context) error) *Handler {
	return &Handler{
		service:       service,
		secureCookies: secureCookies,
		readyCheck:    readyCheck,
	}
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.readyCheck != nil {
		if err := h.readyCheck(r.Context()); err != nil {
			logHTTPOperationError(r.Context(), "readyz", http.StatusServiceUnavailable, "not ready", err)
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeMessage(w, http.StatusOK, "ready")
}
