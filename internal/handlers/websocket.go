package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"the-arch-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Mobile clients connect from app schemes
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub         *services.WSHub
	userService *services.UserService
	archService *services.ArchService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, userService *services.UserService, archService *services.ArchService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
		archService: archService,
	}
}

// wsClientMessage is the inbound message envelope
type wsClientMessage struct {
	Type   string `json:"type"`
	ArchID string `json:"arch_id"`
}

// HandleWebSocket handles GET /ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}
	userID, err := h.userService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg wsClientMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.sendError(userID, "Invalid message format")
			continue
		}
		h.handleMessage(r.Context(), userID, msg)
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg wsClientMessage) {
	switch msg.Type {
	case "join-arch":
		if msg.ArchID == "" {
			h.sendError(userID, "arch_id is required")
			return
		}
		if _, err := h.archService.RequireMember(ctx, msg.ArchID, userID); err != nil {
			h.sendError(userID, "You are not a member of this arch")
			return
		}
		h.hub.JoinArch(userID, msg.ArchID)
	case "leave-arch":
		h.hub.LeaveArch(userID, msg.ArchID)
	case "ping":
		_ = h.hub.SendToUser(userID, services.WSMessage{Type: "pong"})
	default:
		h.sendError(userID, "Unknown message type")
	}
}

// sendError sends an error envelope to a connected user
func (h *WebSocketHandler) sendError(userID, message string) {
	err := h.hub.SendToUser(userID, services.WSMessage{
		Type: "error",
		Data: map[string]string{"message": message},
	})
	if err != nil {
		log.Debug().Str("user_id", userID).Msg("Failed to deliver WebSocket error")
	}
}
