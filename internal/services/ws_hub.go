package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type   string      `json:"type"`
	ArchID string      `json:"arch_id,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// wsClient wraps a connection with a write lock. gorilla/websocket allows
// only one concurrent writer per connection.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections and per-arch subscriptions.
// The hub is fan-out only: clients re-fetch over REST for authoritative state.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
	archSubs    map[string]map[string]bool
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
		archSubs:    make(map[string]map[string]bool),
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	}
	h.connections[userID] = &wsClient{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a user's connection and all arch subscriptions
func (h *WSHub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.connections[userID]; exists {
		client.conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
	for _, subs := range h.archSubs {
		delete(subs, userID)
	}
}

// JoinArch subscribes a connected user to an arch channel
func (h *WSHub) JoinArch(userID, archID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, connected := h.connections[userID]; !connected {
		return
	}
	if h.archSubs[archID] == nil {
		h.archSubs[archID] = make(map[string]bool)
	}
	h.archSubs[archID][userID] = true

	log.Debug().Str("user_id", userID).Str("arch_id", archID).Msg("Joined arch channel")
}

// LeaveArch removes a user from an arch channel
func (h *WSHub) LeaveArch(userID, archID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.archSubs[archID], userID)
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// BroadcastToArch sends a message to every subscriber of an arch channel,
// optionally skipping one user. Delivery failures are logged per user.
func (h *WSHub) BroadcastToArch(archID string, message WSMessage, excludeUserID string) {
	message.ArchID = archID

	h.mu.RLock()
	userIDs := make([]string, 0, len(h.archSubs[archID]))
	for userID := range h.archSubs[archID] {
		if userID != excludeUserID {
			userIDs = append(userIDs, userID)
		}
	}
	h.mu.RUnlock()

	for _, userID := range userIDs {
		if err := h.SendToUser(userID, message); err != nil {
			log.Debug().Err(err).Str("user_id", userID).Str("arch_id", archID).Msg("Failed to deliver broadcast")
		}
	}
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}
