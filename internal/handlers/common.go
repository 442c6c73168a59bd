package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"the-arch-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, payload interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondServiceError translates service sentinel errors into HTTP status
// codes. Unknown errors are logged and masked as a generic 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, services.ErrNotMember):
		respondError(w, "You are not a member of this arch", http.StatusForbidden)
	case errors.Is(err, services.ErrAdminRequired):
		respondError(w, "Admin role required", http.StatusForbidden)
	case errors.Is(err, services.ErrNotAuthorized):
		respondError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrNotInvited):
		respondError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrDeadlinePassed),
		errors.Is(err, services.ErrAlreadyShared),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrSelfMessage),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrPasswordTooShort):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrBadCredentials):
		respondError(w, err.Error(), http.StatusUnauthorized)
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		respondError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// decodeJSON decodes a request body, responding 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
