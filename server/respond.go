package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/opencircle/auth-server/internal/errors"
)

// envelope is the response wrapper used by every JSON endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) writeData(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data, Message: message}); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps the shared error taxonomy onto HTTP statuses.
// Conflicts come back as 400 so registration failures look like any
// other bad request.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, apperrors.ErrConflict):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = apperrors.ErrInvalidCredentials.Error()
	case errors.Is(err, apperrors.ErrInvalidToken):
		status = http.StatusUnauthorized
		message = "invalid or expired token"
	case errors.Is(err, apperrors.ErrTokenRevoked):
		status = http.StatusUnauthorized
		message = "token has been revoked"
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, apperrors.ErrUnavailable):
		status = http.StatusServiceUnavailable
		message = "service unavailable"
	default:
		s.log.Error().Err(err).Msg("request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}
