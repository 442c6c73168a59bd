package handlers

import (
	"net/http"

	"the-arch-backend/internal/middleware"
	"the-arch-backend/internal/models"
	"the-arch-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// GetTogetherHandler handles get-together endpoints
type GetTogetherHandler struct {
	eventService *services.GetTogetherService
}

// NewGetTogetherHandler creates a new get-together handler
func NewGetTogetherHandler(eventService *services.GetTogetherService) *GetTogetherHandler {
	return &GetTogetherHandler{eventService: eventService}
}

// List handles GET /api/gettogethers?arch_id=...&status=...&upcoming=true
func (h *GetTogetherHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := r.URL.Query().Get("arch_id")
	status := r.URL.Query().Get("status")
	upcoming := r.URL.Query().Get("upcoming") == "true"

	events, err := h.eventService.List(r.Context(), userID, archID, status, upcoming)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, events, http.StatusOK)
}

// Create handles POST /api/gettogethers
func (h *GetTogetherHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.CreateEventInput
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.eventService.Create(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, event, http.StatusCreated)
}

// Get handles GET /api/gettogethers/{id}
func (h *GetTogetherHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	eventID := chi.URLParam(r, "id")

	event, err := h.eventService.Get(r.Context(), eventID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, event, http.StatusOK)
}

// Update handles PUT /api/gettogethers/{id}
func (h *GetTogetherHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	eventID := chi.URLParam(r, "id")

	var req services.UpdateEventInput
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.eventService.Update(r.Context(), eventID, userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, event, http.StatusOK)
}

// Delete handles DELETE /api/gettogethers/{id}
func (h *GetTogetherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	eventID := chi.URLParam(r, "id")

	if err := h.eventService.Delete(r.Context(), eventID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Get-together deleted"}, http.StatusOK)
}

// RSVP handles POST /api/gettogethers/{id}/rsvp
func (h *GetTogetherHandler) RSVP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	eventID := chi.URLParam(r, "id")

	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.eventService.RSVP(r.Context(), eventID, userID, req.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, event, http.StatusOK)
}

// AddTimelineEntry handles POST /api/gettogethers/{id}/timeline
func (h *GetTogetherHandler) AddTimelineEntry(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	eventID := chi.URLParam(r, "id")

	var req struct {
		Type    string         `json:"type"`
		Content string         `json:"content"`
		Media   []models.Media `json:"media"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.eventService.AddTimelineEntry(r.Context(), eventID, userID, req.Type, req.Content, req.Media)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, entry, http.StatusCreated)
}

// Stats handles GET /api/gettogethers/{id}/stats
func (h *GetTogetherHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	eventID := chi.URLParam(r, "id")

	stats, err := h.eventService.Stats(r.Context(), eventID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, stats, http.StatusOK)
}
