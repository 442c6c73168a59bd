package handlers

import (
	"net/http"

	"the-arch-backend/internal/middleware"
	"the-arch-backend/internal/models"
	"the-arch-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// UserHandler handles user profile and account endpoints
type UserHandler struct {
	userService *services.UserService
	archService *services.ArchService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, archService *services.ArchService) *UserHandler {
	return &UserHandler{userService: userService, archService: archService}
}

// GetProfile handles GET /api/users/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, user, http.StatusOK)
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, user, http.StatusOK)
}

// UpdateNotificationSettings handles PUT /api/users/notification-settings
func (h *UserHandler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.NotificationSettings
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.UpdateNotificationSettings(r.Context(), userID, req); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, req, http.StatusOK)
}

// ChangePassword handles PUT /api/users/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Password updated"}, http.StatusOK)
}

// Search handles GET /api/users/search?arch_id=...&q=...
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := r.URL.Query().Get("arch_id")
	query := r.URL.Query().Get("q")

	if archID == "" {
		respondError(w, "arch_id is required", http.StatusBadRequest)
		return
	}

	users, err := h.userService.Search(r.Context(), userID, archID, query)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, users, http.StatusOK)
}

// Dashboard handles GET /api/users/dashboard
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	dash, err := h.userService.GetDashboard(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, dash, http.StatusOK)
}

// LeaveArch handles POST /api/users/leave-arch/{archID}
func (h *UserHandler) LeaveArch(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")

	if err := h.archService.Leave(r.Context(), archID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Left arch"}, http.StatusOK)
}

// DeleteAccount handles DELETE /api/users/account
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.userService.DeleteAccount(r.Context(), userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Account deleted"}, http.StatusOK)
}
