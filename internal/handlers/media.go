package handlers

import (
	"net/http"

	"the-arch-backend/internal/middleware"
	"the-arch-backend/internal/services"
)

// MediaHandler handles attachment upload endpoints
type MediaHandler struct {
	mediaService *services.MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(mediaService *services.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// GetUploadURL handles POST /api/media/upload-url
func (h *MediaHandler) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		ArchID      string `json:"arch_id"`
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ArchID == "" {
		respondError(w, "arch_id is required", http.StatusBadRequest)
		return
	}

	resp, err := h.mediaService.GetUploadURL(r.Context(), userID, req.ArchID, req.Filename, req.ContentType)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, resp, http.StatusOK)
}
