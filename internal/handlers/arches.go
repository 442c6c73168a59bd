package handlers

import (
	"net/http"
	"strconv"

	"the-arch-backend/internal/middleware"
	"the-arch-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ArchHandler handles arch endpoints
type ArchHandler struct {
	archService *services.ArchService
}

// NewArchHandler creates a new arch handler
func NewArchHandler(archService *services.ArchService) *ArchHandler {
	return &ArchHandler{archService: archService}
}

// Create handles POST /api/arches
func (h *ArchHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	arch, err := h.archService.Create(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, arch, http.StatusCreated)
}

// Join handles POST /api/arches/join
func (h *ArchHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	arch, err := h.archService.Join(r.Context(), userID, req.InviteCode)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, arch, http.StatusOK)
}

// List handles GET /api/arches
func (h *ArchHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	arches, err := h.archService.ListForUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, arches, http.StatusOK)
}

// Get handles GET /api/arches/{archID}
func (h *ArchHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")

	detail, err := h.archService.Get(r.Context(), archID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, detail, http.StatusOK)
}

// Update handles PUT /api/arches/{archID}
func (h *ArchHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")

	var req services.SettingsUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	arch, err := h.archService.Update(r.Context(), archID, userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, arch, http.StatusOK)
}

// ChangeMemberRole handles PUT /api/arches/{archID}/members/{userID}/role
func (h *ArchHandler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")
	memberID := chi.URLParam(r, "userID")

	var req struct {
		Role string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.archService.ChangeMemberRole(r.Context(), archID, adminID, memberID, req.Role); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Role updated"}, http.StatusOK)
}

// RemoveMember handles DELETE /api/arches/{archID}/members/{userID}
func (h *ArchHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")
	memberID := chi.URLParam(r, "userID")

	if err := h.archService.RemoveMember(r.Context(), archID, adminID, memberID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Member removed"}, http.StatusOK)
}

// RegenerateInvite handles POST /api/arches/{archID}/regenerate-invite
func (h *ArchHandler) RegenerateInvite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")

	code, err := h.archService.RegenerateInviteCode(r.Context(), archID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"invite_code": code}, http.StatusOK)
}

// Delete handles DELETE /api/arches/{archID}
func (h *ArchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")

	if err := h.archService.Delete(r.Context(), archID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Arch deleted"}, http.StatusOK)
}

// Activity handles GET /api/arches/{archID}/activity
func (h *ArchHandler) Activity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.archService.Activity(r.Context(), archID, userID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, items, http.StatusOK)
}

// Stats handles GET /api/arches/{archID}/stats
func (h *ArchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")

	detail, err := h.archService.Get(r.Context(), archID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, detail.Stats, http.StatusOK)
}
