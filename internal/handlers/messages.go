package handlers

import (
	"net/http"
	"strconv"

	"the-arch-backend/internal/middleware"
	"the-arch-backend/internal/models"
	"the-arch-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// MessageHandler handles direct message endpoints
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Send handles POST /api/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		ArchID      string         `json:"arch_id"`
		RecipientID string         `json:"recipient_id"`
		Content     string         `json:"content"`
		Media       []models.Media `json:"media"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.Send(r.Context(), req.ArchID, userID, req.RecipientID, req.Content, req.Media)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, msg, http.StatusCreated)
}

// Conversation handles GET /api/messages/conversation/{archID}/{userID}?page=...&limit=...
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")
	otherID := chi.URLParam(r, "userID")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.messageService.Conversation(r.Context(), archID, userID, otherID, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, messages, http.StatusOK)
}

// Search handles GET /api/messages/search/{archID}/{userID}?query=...&limit=...
func (h *MessageHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")
	otherID := chi.URLParam(r, "userID")
	query := r.URL.Query().Get("query")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.messageService.Search(r.Context(), archID, userID, otherID, query, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]any{"query": query, "results": messages, "count": len(messages)}, http.StatusOK)
}

// Conversations handles GET /api/messages/conversations/{archID}
func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")

	conversations, err := h.messageService.Conversations(r.Context(), archID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, conversations, http.StatusOK)
}

// MarkRead handles PUT /api/messages/{messageID}/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID := chi.URLParam(r, "messageID")

	if err := h.messageService.MarkRead(r.Context(), messageID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Marked read"}, http.StatusOK)
}

// MarkAllRead handles PUT /api/messages/read-all/{archID}/{senderID}
func (h *MessageHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")
	senderID := chi.URLParam(r, "senderID")

	if err := h.messageService.MarkAllRead(r.Context(), archID, senderID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Conversation marked read"}, http.StatusOK)
}

// Delete handles DELETE /api/messages/{messageID}
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID := chi.URLParam(r, "messageID")

	if err := h.messageService.Delete(r.Context(), messageID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Message deleted"}, http.StatusOK)
}

// Stats handles GET /api/messages/stats/{archID}
func (h *MessageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")

	stats, err := h.messageService.Stats(r.Context(), archID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, stats, http.StatusOK)
}
