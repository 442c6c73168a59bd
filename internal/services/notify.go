package services

import (
	"context"
	"errors"
	"fmt"

	"the-arch-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Notification types
const (
	NotifyDailyQuestion    = "daily_question"
	NotifyQuestionReminder = "question_reminder"
	NotifyResponseShared   = "response_shared"
	NotifyNewPost          = "new_post"
	NotifyNewComment       = "new_comment"
	NotifyNewLike          = "new_like"
	NotifyEventCreated     = "event_created"
	NotifyEventRSVP        = "event_rsvp"
	NotifyNewMessage       = "new_message"
	NotifyMemberJoined     = "member_joined"
	NotifyArchDeleted      = "arch_deleted"
)

// Notification is a push payload addressed by type
type Notification struct {
	Type  string            `json:"type"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// PushProvider delivers a notification to a device token.
// Implementations return ErrTokenInvalid when the token should be discarded.
type PushProvider interface {
	Send(ctx context.Context, token string, n Notification) error
}

// NotificationService dispatches push notifications, honoring per-user settings
type NotificationService struct {
	userStore UserStore
	archStore ArchStore
	provider  PushProvider
}

// NewNotificationService creates a new notification service
func NewNotificationService(userStore UserStore, archStore ArchStore, provider PushProvider) *NotificationService {
	return &NotificationService{
		userStore: userStore,
		archStore: archStore,
		provider:  provider,
	}
}

// enabled reports whether the user's settings allow this notification type.
// Types without a category (member_joined, arch_deleted) always go through.
func enabled(ns models.NotificationSettings, notifType string) bool {
	switch notifType {
	case NotifyDailyQuestion, NotifyQuestionReminder:
		return ns.DailyQuestions
	case NotifyResponseShared:
		return ns.Responses
	case NotifyNewPost, NotifyNewComment, NotifyNewLike:
		return ns.Posts
	case NotifyEventCreated, NotifyEventRSVP:
		return ns.GetTogethers
	case NotifyNewMessage:
		return ns.Messages
	default:
		return true
	}
}

// NotifyUser sends one notification to one user. Never fatal to callers:
// missing tokens and delivery failures are logged and swallowed.
func (s *NotificationService) NotifyUser(ctx context.Context, userID string, n Notification) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for notification")
		return
	}
	if user.PushToken == nil || *user.PushToken == "" {
		return
	}
	if !enabled(user.Notifications, n.Type) {
		return
	}

	if err := s.provider.Send(ctx, *user.PushToken, n); err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			// Token rejected by the push service, drop it so we stop retrying
			if clearErr := s.userStore.UpdatePushToken(ctx, userID, nil); clearErr != nil {
				log.Error().Err(clearErr).Str("user_id", userID).Msg("Failed to clear invalid push token")
			} else {
				log.Info().Str("user_id", userID).Msg("Cleared invalid push token")
			}
			return
		}
		log.Error().Err(err).Str("user_id", userID).Str("type", n.Type).Msg("Failed to send notification")
	}
}

// NotifyArch sends a notification to every active member of an arch except one.
// Each member is attempted independently.
func (s *NotificationService) NotifyArch(ctx context.Context, archID string, n Notification, excludeUserID string) {
	arch, err := s.archStore.GetByID(ctx, archID)
	if err != nil {
		log.Error().Err(err).Str("arch_id", archID).Msg("Failed to load arch for notification")
		return
	}

	for _, m := range arch.ActiveMembers() {
		if m.UserID == excludeUserID {
			continue
		}
		s.NotifyUser(ctx, m.UserID, n)
	}
}

// NopProvider discards notifications. Used when push delivery is not configured.
type NopProvider struct{}

// Send implements PushProvider
func (NopProvider) Send(ctx context.Context, token string, n Notification) error {
	log.Debug().Str("type", n.Type).Msg("Push delivery disabled, dropping notification")
	return nil
}

var _ PushProvider = NopProvider{}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return fmt.Sprintf("%s...", s[:max])
}
