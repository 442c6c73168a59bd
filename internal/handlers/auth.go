package handlers

import (
	"net/http"

	"the-arch-backend/internal/middleware"
	"the-arch-backend/internal/services"
)

// AuthHandler handles registration, login and token-bound endpoints
type AuthHandler struct {
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Timezone string `json:"timezone"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.userService.Register(r.Context(), req.Name, req.Email, req.Password, req.Timezone)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, result, http.StatusCreated)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, result, http.StatusOK)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, user, http.StatusOK)
}

// SetPushToken handles POST /api/auth/push-token
func (h *AuthHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.SetPushToken(r.Context(), userID, req.Token); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Push token saved"}, http.StatusOK)
}

// ClearPushToken handles DELETE /api/auth/push-token
func (h *AuthHandler) ClearPushToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.userService.ClearPushToken(r.Context(), userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Push token removed"}, http.StatusOK)
}
