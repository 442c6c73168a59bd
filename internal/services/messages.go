package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"the-arch-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MessageService handles direct messages between arch members
type MessageService struct {
	messageStore MessageStore
	archStore    ArchStore
	userStore    UserStore
	notifier     *NotificationService
	hub          *WSHub
}

// NewMessageService creates a new message service
func NewMessageService(messageStore MessageStore, archStore ArchStore, userStore UserStore, notifier *NotificationService, hub *WSHub) *MessageService {
	return &MessageService{
		messageStore: messageStore,
		archStore:    archStore,
		userStore:    userStore,
		notifier:     notifier,
		hub:          hub,
	}
}

// Send delivers a message to another member of the same arch
func (s *MessageService) Send(ctx context.Context, archID, senderID, recipientID, content string, media []models.Media) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(media) == 0 {
		return nil, fmt.Errorf("%w: message needs content or media", ErrInvalidInput)
	}
	if senderID == recipientID {
		return nil, ErrSelfMessage
	}
	if _, err := membership(ctx, s.archStore, archID, senderID); err != nil {
		return nil, err
	}
	if _, err := membership(ctx, s.archStore, archID, recipientID); err != nil {
		if errors.Is(err, ErrNotMember) {
			return nil, fmt.Errorf("%w: recipient is not an arch member", ErrInvalidInput)
		}
		return nil, err
	}

	msg := &models.Message{
		ID:          uuid.New().String(),
		ArchID:      archID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Media:       media,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	if err := s.messageStore.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if sender, err := s.userStore.GetByID(ctx, senderID); err == nil {
		msg.SenderName = sender.Name
		s.notifier.NotifyUser(ctx, recipientID, Notification{
			Type:  NotifyNewMessage,
			Title: sender.Name,
			Body:  truncate(content, 100),
			Data:  map[string]string{"message_id": msg.ID, "arch_id": archID, "sender_id": senderID},
		})
	}
	if err := s.hub.SendToUser(recipientID, WSMessage{Type: "new-message", ArchID: archID, Data: msg}); err != nil {
		log.Debug().Str("recipient_id", recipientID).Msg("Recipient not connected for realtime delivery")
	}

	return msg, nil
}

// Conversation pages through the thread with another member, oldest first
// within the page, and marks the incoming messages read.
func (s *MessageService) Conversation(ctx context.Context, archID, userID, otherID string, page, limit int) ([]models.Message, error) {
	if _, err := membership(ctx, s.archStore, archID, userID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	messages, err := s.messageStore.Conversation(ctx, archID, userID, otherID, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	if err := s.messageStore.MarkConversationRead(ctx, archID, otherID, userID, time.Now()); err != nil {
		log.Error().Err(err).Str("arch_id", archID).Msg("Failed to mark conversation read")
	}

	// Stored newest first for paging, returned oldest first for display
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// Search finds messages in the caller's thread with another member whose
// content matches the query, newest first
func (s *MessageService) Search(ctx context.Context, archID, userID, otherID, query string, limit int) ([]models.Message, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, fmt.Errorf("%w: search query must be at least 2 characters", ErrInvalidInput)
	}
	if _, err := membership(ctx, s.archStore, archID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	messages, err := s.messageStore.SearchBetween(ctx, archID, userID, otherID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// Conversations lists every other active member with the latest message and
// unread count, most recent activity first
func (s *MessageService) Conversations(ctx context.Context, archID, userID string) ([]models.Conversation, error) {
	if _, err := membership(ctx, s.archStore, archID, userID); err != nil {
		return nil, err
	}
	arch, err := s.archStore.GetByID(ctx, archID)
	if err != nil {
		return nil, fmt.Errorf("failed to load arch: %w", err)
	}

	conversations := make([]models.Conversation, 0)
	for _, m := range arch.ActiveMembers() {
		if m.UserID == userID {
			continue
		}
		latest, err := s.messageStore.LatestBetween(ctx, archID, userID, m.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load latest message: %w", err)
		}
		unread, err := s.messageStore.UnreadCount(ctx, archID, m.UserID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count unread: %w", err)
		}

		conv := models.Conversation{User: m, LatestMessage: latest, UnreadCount: unread}
		if latest != nil {
			conv.LastActivity = &latest.CreatedAt
		}
		conversations = append(conversations, conv)
	}

	// Members with recent messages first, the rest keep member order
	sort.SliceStable(conversations, func(i, j int) bool {
		a, b := conversations[i].LastActivity, conversations[j].LastActivity
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.After(*b)
	})
	return conversations, nil
}

// MarkRead marks one received message read
func (s *MessageService) MarkRead(ctx context.Context, messageID, userID string) error {
	err := s.messageStore.MarkRead(ctx, messageID, userID, time.Now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// MarkAllRead marks every message from one sender read
func (s *MessageService) MarkAllRead(ctx context.Context, archID, senderID, userID string) error {
	if _, err := membership(ctx, s.archStore, archID, userID); err != nil {
		return err
	}
	if err := s.messageStore.MarkConversationRead(ctx, archID, senderID, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}

// Delete soft-deletes a message, sender only
func (s *MessageService) Delete(ctx context.Context, messageID, userID string) error {
	err := s.messageStore.SoftDelete(ctx, messageID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// Stats summarizes the caller's message volume within an arch
func (s *MessageService) Stats(ctx context.Context, archID, userID string) (*models.MessageStats, error) {
	if _, err := membership(ctx, s.archStore, archID, userID); err != nil {
		return nil, err
	}
	stats, err := s.messageStore.Stats(ctx, archID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load message stats: %w", err)
	}
	return &stats, nil
}
