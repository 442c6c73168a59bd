package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"the-arch-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	inviteCodeLength = 6
	inviteCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ArchService handles arch-related business logic and membership checks
type ArchService struct {
	archStore     ArchStore
	userStore     UserStore
	questionStore QuestionStore
	postStore     PostStore
	eventStore    EventStore
	notifier      *NotificationService
	hub           *WSHub
}

// NewArchService creates a new arch service
func NewArchService(
	archStore ArchStore,
	userStore UserStore,
	questionStore QuestionStore,
	postStore PostStore,
	eventStore EventStore,
	notifier *NotificationService,
	hub *WSHub,
) *ArchService {
	return &ArchService{
		archStore:     archStore,
		userStore:     userStore,
		questionStore: questionStore,
		postStore:     postStore,
		eventStore:    eventStore,
		notifier:      notifier,
		hub:           hub,
	}
}

// membership resolves a user's role in an active arch, mapping absence to ErrNotMember
func membership(ctx context.Context, store ArchStore, archID, userID string) (string, error) {
	role, err := store.Membership(ctx, archID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotMember
		}
		return "", fmt.Errorf("failed to check membership: %w", err)
	}
	return role, nil
}

// RequireMember verifies the user belongs to an active arch and returns their role
func (s *ArchService) RequireMember(ctx context.Context, archID, userID string) (string, error) {
	return membership(ctx, s.archStore, archID, userID)
}

// RequireAdmin verifies the user is an admin of the arch
func (s *ArchService) RequireAdmin(ctx context.Context, archID, userID string) error {
	role, err := s.RequireMember(ctx, archID, userID)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin {
		return ErrAdminRequired
	}
	return nil
}

// generateInviteCode generates a random 6-character code
func generateInviteCode() string {
	code := make([]byte, inviteCodeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(inviteCodeChars))))
		code[i] = inviteCodeChars[n.Int64()]
	}
	return string(code)
}

// uniqueInviteCode generates an invite code not already in use
func (s *ArchService) uniqueInviteCode(ctx context.Context) (string, error) {
	maxAttempts := 10
	for i := 0; i < maxAttempts; i++ {
		code := generateInviteCode()
		exists, err := s.archStore.InviteCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code existence: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique invite code after %d attempts", maxAttempts)
}

// Create creates an arch with the caller as admin
func (s *ArchService) Create(ctx context.Context, creatorID, name, description string) (*models.Arch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	code, err := s.uniqueInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	arch := &models.Arch{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatorID:   creatorID,
		InviteCode:  code,
		Settings:    models.DefaultArchSettings(),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.archStore.Create(ctx, arch); err != nil {
		return nil, fmt.Errorf("failed to create arch: %w", err)
	}

	return s.archStore.GetByID(ctx, arch.ID)
}

// Join adds the caller to the arch matching an invite code
func (s *ArchService) Join(ctx context.Context, userID, inviteCode string) (*models.Arch, error) {
	inviteCode = strings.ToUpper(strings.TrimSpace(inviteCode))
	if inviteCode == "" {
		return nil, fmt.Errorf("%w: invite code is required", ErrInvalidInput)
	}

	arch, err := s.archStore.GetByInviteCode(ctx, inviteCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up invite code: %w", err)
	}

	if arch.Member(userID) != nil {
		return nil, ErrAlreadyMember
	}

	if err := s.archStore.AddMember(ctx, arch.ID, userID, models.RoleMember, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	user, err := s.userStore.GetByID(ctx, userID)
	if err == nil {
		s.notifier.NotifyArch(ctx, arch.ID, Notification{
			Type:  NotifyMemberJoined,
			Title: arch.Name,
			Body:  fmt.Sprintf("%s joined your arch", user.Name),
			Data:  map[string]string{"arch_id": arch.ID},
		}, userID)
		s.hub.BroadcastToArch(arch.ID, WSMessage{
			Type: "member-joined",
			Data: map[string]string{"user_id": userID, "user_name": user.Name},
		}, userID)
	}

	return s.archStore.GetByID(ctx, arch.ID)
}

// ArchSummary is an arch entry in the caller's list
type ArchSummary struct {
	Arch           models.Arch         `json:"arch"`
	Role           string              `json:"role"`
	JoinedAt       time.Time           `json:"joined_at"`
	RecentActivity models.ArchActivity `json:"recent_activity"`
}

// ListForUser returns the caller's arches with role and recent activity
func (s *ArchService) ListForUser(ctx context.Context, userID string) ([]ArchSummary, error) {
	arches, err := s.archStore.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list arches: %w", err)
	}

	since := time.Now().AddDate(0, 0, -7)
	summaries := make([]ArchSummary, 0, len(arches))
	for _, arch := range arches {
		member := arch.Member(userID)
		if member == nil {
			continue
		}
		activity, err := s.archStore.ActivityCounts(ctx, arch.ID, since)
		if err != nil {
			log.Error().Err(err).Str("arch_id", arch.ID).Msg("Failed to load activity counts")
		}
		summaries = append(summaries, ArchSummary{
			Arch:           arch,
			Role:           member.Role,
			JoinedAt:       member.JoinedAt,
			RecentActivity: activity,
		})
	}
	return summaries, nil
}

// ArchDetail is an arch with aggregate stats
type ArchDetail struct {
	Arch  models.Arch      `json:"arch"`
	Role  string           `json:"role"`
	Stats models.ArchStats `json:"stats"`
}

// Get returns one arch with stats, member-gated
func (s *ArchService) Get(ctx context.Context, archID, userID string) (*ArchDetail, error) {
	role, err := s.RequireMember(ctx, archID, userID)
	if err != nil {
		return nil, err
	}

	arch, err := s.archStore.GetByID(ctx, archID)
	if err != nil {
		return nil, fmt.Errorf("failed to load arch: %w", err)
	}
	stats, err := s.archStore.Stats(ctx, archID)
	if err != nil {
		return nil, fmt.Errorf("failed to load arch stats: %w", err)
	}

	return &ArchDetail{Arch: *arch, Role: role, Stats: stats}, nil
}

// SettingsUpdate carries optional arch setting changes
type SettingsUpdate struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	QuestionTime     *string `json:"question_time"`
	ResponseDeadline *string `json:"response_deadline"`
	Timezone         *string `json:"timezone"`
}

// Update applies setting changes, admin-gated
func (s *ArchService) Update(ctx context.Context, archID, userID string, upd SettingsUpdate) (*models.Arch, error) {
	if err := s.RequireAdmin(ctx, archID, userID); err != nil {
		return nil, err
	}

	arch, err := s.archStore.GetByID(ctx, archID)
	if err != nil {
		return nil, fmt.Errorf("failed to load arch: %w", err)
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		arch.Name = name
	}
	if upd.Description != nil {
		arch.Description = *upd.Description
	}
	if upd.QuestionTime != nil {
		if _, err := time.Parse("15:04", *upd.QuestionTime); err != nil {
			return nil, fmt.Errorf("%w: question_time must be HH:MM", ErrInvalidInput)
		}
		arch.Settings.QuestionTime = *upd.QuestionTime
	}
	if upd.ResponseDeadline != nil {
		if _, err := time.Parse("15:04", *upd.ResponseDeadline); err != nil {
			return nil, fmt.Errorf("%w: response_deadline must be HH:MM", ErrInvalidInput)
		}
		arch.Settings.ResponseDeadline = *upd.ResponseDeadline
	}
	if upd.Timezone != nil {
		if _, err := time.LoadLocation(*upd.Timezone); err != nil {
			return nil, fmt.Errorf("%w: unknown timezone", ErrInvalidInput)
		}
		arch.Settings.Timezone = *upd.Timezone
	}
	arch.UpdatedAt = time.Now()

	if err := s.archStore.Update(ctx, arch); err != nil {
		return nil, fmt.Errorf("failed to update arch: %w", err)
	}
	return arch, nil
}

// ChangeMemberRole promotes or demotes a member, admin-gated. The creator's
// role cannot be changed.
func (s *ArchService) ChangeMemberRole(ctx context.Context, archID, adminID, memberID, role string) error {
	if role != models.RoleAdmin && role != models.RoleMember {
		return fmt.Errorf("%w: role must be admin or member", ErrInvalidInput)
	}
	if err := s.RequireAdmin(ctx, archID, adminID); err != nil {
		return err
	}

	arch, err := s.archStore.GetByID(ctx, archID)
	if err != nil {
		return fmt.Errorf("failed to load arch: %w", err)
	}
	if memberID == arch.CreatorID {
		return fmt.Errorf("%w: cannot change the creator's role", ErrNotAuthorized)
	}
	if arch.Member(memberID) == nil {
		return ErrNotFound
	}

	return s.archStore.UpdateMemberRole(ctx, archID, memberID, role)
}

// RemoveMember removes a member from the arch, admin-gated. Admins cannot
// remove the creator or themselves.
func (s *ArchService) RemoveMember(ctx context.Context, archID, adminID, memberID string) error {
	if err := s.RequireAdmin(ctx, archID, adminID); err != nil {
		return err
	}
	if memberID == adminID {
		return fmt.Errorf("%w: use leave-arch to remove yourself", ErrInvalidInput)
	}

	arch, err := s.archStore.GetByID(ctx, archID)
	if err != nil {
		return fmt.Errorf("failed to load arch: %w", err)
	}
	if memberID == arch.CreatorID {
		return fmt.Errorf("%w: cannot remove the creator", ErrNotAuthorized)
	}

	return s.archStore.RemoveMember(ctx, archID, memberID)
}

// Leave removes the caller from an arch. The creator cannot leave their own arch.
func (s *ArchService) Leave(ctx context.Context, archID, userID string) error {
	if _, err := s.RequireMember(ctx, archID, userID); err != nil {
		return err
	}

	arch, err := s.archStore.GetByID(ctx, archID)
	if err != nil {
		return fmt.Errorf("failed to load arch: %w", err)
	}
	if userID == arch.CreatorID {
		return fmt.Errorf("%w: the creator cannot leave, delete the arch instead", ErrInvalidInput)
	}

	return s.archStore.RemoveMember(ctx, archID, userID)
}

// RegenerateInviteCode replaces the invite code, admin-gated
func (s *ArchService) RegenerateInviteCode(ctx context.Context, archID, userID string) (string, error) {
	if err := s.RequireAdmin(ctx, archID, userID); err != nil {
		return "", err
	}

	code, err := s.uniqueInviteCode(ctx)
	if err != nil {
		return "", err
	}
	if err := s.archStore.SetInviteCode(ctx, archID, code); err != nil {
		return "", fmt.Errorf("failed to set invite code: %w", err)
	}
	return code, nil
}

// Delete soft-deletes an arch, creator only. Members are notified first.
func (s *ArchService) Delete(ctx context.Context, archID, userID string) error {
	if _, err := s.RequireMember(ctx, archID, userID); err != nil {
		return err
	}

	arch, err := s.archStore.GetByID(ctx, archID)
	if err != nil {
		return fmt.Errorf("failed to load arch: %w", err)
	}
	if arch.CreatorID != userID {
		return ErrNotAuthorized
	}

	s.notifier.NotifyArch(ctx, archID, Notification{
		Type:  NotifyArchDeleted,
		Title: arch.Name,
		Body:  "This arch has been deleted",
	}, userID)

	if err := s.archStore.Deactivate(ctx, archID); err != nil {
		return fmt.Errorf("failed to delete arch: %w", err)
	}

	log.Info().Str("arch_id", archID).Str("user_id", userID).Msg("Arch deleted")
	return nil
}

// ActivityItem is one entry in an arch's merged activity feed
type ActivityItem struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	ActorID   string    `json:"actor_id,omitempty"`
	ActorName string    `json:"actor_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity merges recent posts, questions, and get-togethers, newest first
func (s *ArchService) Activity(ctx context.Context, archID, userID string, limit int) ([]ActivityItem, error) {
	if _, err := s.RequireMember(ctx, archID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	since := time.Now().AddDate(0, 0, -30)

	var items []ActivityItem

	posts, err := s.postStore.ListRecent(ctx, archID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent posts: %w", err)
	}
	for _, p := range posts {
		items = append(items, ActivityItem{
			Type:      "post",
			ID:        p.ID,
			Summary:   truncate(p.Content, 80),
			ActorID:   p.AuthorID,
			ActorName: p.AuthorName,
			CreatedAt: p.CreatedAt,
		})
	}

	questions, err := s.questionStore.ListForArch(ctx, archID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	for _, q := range questions {
		if q.CreatedAt.Before(since) {
			continue
		}
		items = append(items, ActivityItem{
			Type:      "question",
			ID:        q.ID,
			Summary:   q.Question,
			ActorID:   q.AskerID,
			ActorName: q.AskerName,
			CreatedAt: q.CreatedAt,
		})
	}

	events, err := s.eventStore.ListRecent(ctx, archID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent events: %w", err)
	}
	for _, g := range events {
		items = append(items, ActivityItem{
			Type:      "get_together",
			ID:        g.ID,
			Summary:   g.Title,
			ActorID:   g.CreatorID,
			CreatedAt: g.CreatedAt,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
