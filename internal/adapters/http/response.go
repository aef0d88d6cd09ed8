package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/venuescout/auth-service/internal/domain"
)

type apiError struct {
	Error      string `json:"error"`
	RetryAfter *int64 `json:"retryAfter,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{"message": message})
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, apiError{Error: message})
}

func writeRateLimited(w http.ResponseWriter, retryAfterSeconds int64) {
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}
	writeJSON(w, http.StatusTooManyRequests, apiError{
		Error:      "too many requests",
		RetryAfter: &retryAfterSeconds,
	})
}

// mapDomainError translates domain sentinels into status codes and safe
// messages. Anything unmapped is a generic 500; internal detail never
// reaches the body.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrTokenConsumed):
		return http.StatusBadRequest, "link already used"
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusBadRequest, "link expired"
	case errors.Is(err, domain.ErrInvalidCode):
		return http.StatusBadRequest, "invalid or expired code"
	case errors.Is(err, domain.ErrTOTPNotEnrolled):
		return http.StatusBadRequest, "two-factor authentication is not set up"
	case errors.Is(err, domain.ErrTOTPAlreadyEnabled):
		return http.StatusConflict, "two-factor authentication is already enabled"
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, "session expired"
	case errors.Is(err, domain.ErrSessionRevoked):
		return http.StatusUnauthorized, "session revoked"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "invalid or missing credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "insufficient role"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "too many requests"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
