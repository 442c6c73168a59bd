package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"the-arch-backend/internal/models"

	"github.com/google/uuid"
)

// GetTogetherService handles family events and RSVPs
type GetTogetherService struct {
	eventStore EventStore
	archStore  ArchStore
	userStore  UserStore
	notifier   *NotificationService
	hub        *WSHub
}

// NewGetTogetherService creates a new get-together service
func NewGetTogetherService(eventStore EventStore, archStore ArchStore, userStore UserStore, notifier *NotificationService, hub *WSHub) *GetTogetherService {
	return &GetTogetherService{
		eventStore: eventStore,
		archStore:  archStore,
		userStore:  userStore,
		notifier:   notifier,
		hub:        hub,
	}
}

// CreateEventInput carries the fields for a new get-together
type CreateEventInput struct {
	ArchID       string    `json:"arch_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Type         string    `json:"type"`
	ScheduledFor time.Time `json:"scheduled_for"`
	Location     string    `json:"location"`
	VirtualLink  string    `json:"virtual_link"`
	InviteeIDs   []string  `json:"invitee_ids"`
}

// Create schedules a get-together. With no explicit invitee list, every other
// active member of the arch is invited. All invitations start pending.
func (s *GetTogetherService) Create(ctx context.Context, creatorID string, in CreateEventInput) (*models.GetTogether, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.ScheduledFor.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_for is required", ErrInvalidInput)
	}
	switch in.Type {
	case models.EventInPerson:
		if strings.TrimSpace(in.Location) == "" {
			return nil, fmt.Errorf("%w: in-person events need a location", ErrInvalidInput)
		}
	case models.EventVirtual:
		if strings.TrimSpace(in.VirtualLink) == "" {
			return nil, fmt.Errorf("%w: virtual events need a link", ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: type must be in-person or virtual", ErrInvalidInput)
	}

	if _, err := s.requireMember(ctx, in.ArchID, creatorID); err != nil {
		return nil, err
	}
	arch, err := s.archStore.GetByID(ctx, in.ArchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load arch: %w", err)
	}

	inviteeIDs := in.InviteeIDs
	if len(inviteeIDs) == 0 {
		for _, m := range arch.ActiveMembers() {
			if m.UserID != creatorID {
				inviteeIDs = append(inviteeIDs, m.UserID)
			}
		}
	} else {
		for _, id := range inviteeIDs {
			if arch.Member(id) == nil {
				return nil, fmt.Errorf("%w: invitee is not an arch member", ErrInvalidInput)
			}
		}
	}

	eventID := uuid.New().String()
	invitees := make([]models.Invitee, 0, len(inviteeIDs))
	for _, id := range inviteeIDs {
		invitees = append(invitees, models.Invitee{
			EventID: eventID,
			UserID:  id,
			Status:  models.RSVPPending,
		})
	}

	event := &models.GetTogether{
		ID:           eventID,
		ArchID:       in.ArchID,
		CreatorID:    creatorID,
		Title:        in.Title,
		Description:  in.Description,
		Type:         in.Type,
		ScheduledFor: in.ScheduledFor,
		Location:     in.Location,
		VirtualLink:  in.VirtualLink,
		Status:       models.EventPlanning,
		Invitees:     invitees,
		CreatedAt:    time.Now(),
	}
	if err := s.eventStore.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create get-together: %w", err)
	}

	for _, inv := range invitees {
		s.notifier.NotifyUser(ctx, inv.UserID, Notification{
			Type:  NotifyEventCreated,
			Title: "New get-together",
			Body:  fmt.Sprintf("You're invited to %s", event.Title),
			Data:  map[string]string{"event_id": event.ID, "arch_id": event.ArchID},
		})
	}
	s.hub.BroadcastToArch(event.ArchID, WSMessage{Type: "event-created", Data: event}, creatorID)

	return s.eventStore.GetByID(ctx, eventID)
}

// List returns get-togethers across the caller's arches, optionally filtered
// by arch, status, or upcoming only
func (s *GetTogetherService) List(ctx context.Context, userID, archID, status string, upcomingOnly bool) ([]models.GetTogether, error) {
	var archIDs []string
	if archID != "" {
		if _, err := s.requireMember(ctx, archID, userID); err != nil {
			return nil, err
		}
		archIDs = []string{archID}
	} else {
		arches, err := s.archStore.ListForUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list arches: %w", err)
		}
		for _, a := range arches {
			archIDs = append(archIDs, a.ID)
		}
		if len(archIDs) == 0 {
			return []models.GetTogether{}, nil
		}
	}

	var after *time.Time
	if upcomingOnly {
		now := time.Now()
		after = &now
	}
	events, err := s.eventStore.List(ctx, archIDs, status, after)
	if err != nil {
		return nil, fmt.Errorf("failed to list get-togethers: %w", err)
	}
	return events, nil
}

// Get returns one get-together, member-gated
func (s *GetTogetherService) Get(ctx context.Context, eventID, userID string) (*models.GetTogether, error) {
	event, err := s.eventStore.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load get-together: %w", err)
	}
	if _, err := s.requireMember(ctx, event.ArchID, userID); err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEventInput carries optional get-together changes
type UpdateEventInput struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	Location     *string    `json:"location"`
	VirtualLink  *string    `json:"virtual_link"`
	Status       *string    `json:"status"`
}

// Update edits a get-together, creator only
func (s *GetTogetherService) Update(ctx context.Context, eventID, userID string, upd UpdateEventInput) (*models.GetTogether, error) {
	event, err := s.Get(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != userID {
		return nil, ErrNotAuthorized
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		event.Title = title
	}
	if upd.Description != nil {
		event.Description = *upd.Description
	}
	if upd.ScheduledFor != nil {
		event.ScheduledFor = *upd.ScheduledFor
	}
	if upd.Location != nil {
		event.Location = *upd.Location
	}
	if upd.VirtualLink != nil {
		event.VirtualLink = *upd.VirtualLink
	}
	if upd.Status != nil {
		switch *upd.Status {
		case models.EventPlanning, models.EventActive, models.EventCompleted:
			event.Status = *upd.Status
		default:
			return nil, fmt.Errorf("%w: unknown status", ErrInvalidInput)
		}
	}

	if err := s.eventStore.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update get-together: %w", err)
	}
	return event, nil
}

// Delete removes a get-together entirely. Allowed for the creator or an arch admin.
func (s *GetTogetherService) Delete(ctx context.Context, eventID, userID string) error {
	event, err := s.eventStore.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load get-together: %w", err)
	}

	role, err := s.requireMember(ctx, event.ArchID, userID)
	if err != nil {
		return err
	}
	if event.CreatorID != userID && role != models.RoleAdmin {
		return ErrNotAuthorized
	}

	return s.eventStore.Delete(ctx, eventID)
}

// RSVP records an invitee's answer. Invitees may change their answer,
// including back to pending.
func (s *GetTogetherService) RSVP(ctx context.Context, eventID, userID, status string) (*models.GetTogether, error) {
	switch status {
	case models.RSVPAccepted, models.RSVPDeclined, models.RSVPPending:
	default:
		return nil, fmt.Errorf("%w: status must be accepted, declined or pending", ErrInvalidInput)
	}

	event, err := s.Get(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if event.Invitee(userID) == nil {
		return nil, ErrNotInvited
	}

	if err := s.eventStore.UpdateRSVP(ctx, eventID, userID, status, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to record RSVP: %w", err)
	}

	if user, err := s.userStore.GetByID(ctx, userID); err == nil && event.CreatorID != userID {
		s.notifier.NotifyUser(ctx, event.CreatorID, Notification{
			Type:  NotifyEventRSVP,
			Title: event.Title,
			Body:  fmt.Sprintf("%s %s the invitation", user.Name, status),
			Data:  map[string]string{"event_id": eventID},
		})
	}
	s.hub.BroadcastToArch(event.ArchID, WSMessage{
		Type: "event-rsvp",
		Data: map[string]string{"event_id": eventID, "user_id": userID, "status": status},
	}, userID)

	return s.eventStore.GetByID(ctx, eventID)
}

// AddTimelineEntry appends a note, photo or video to the event timeline.
// Allowed for the creator and accepted invitees.
func (s *GetTogetherService) AddTimelineEntry(ctx context.Context, eventID, userID, entryType, content string, media []models.Media) (*models.TimelineEntry, error) {
	switch entryType {
	case "note", "photo", "video":
	default:
		return nil, fmt.Errorf("%w: entry type must be note, photo or video", ErrInvalidInput)
	}
	if entryType == "note" && strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: note content is required", ErrInvalidInput)
	}

	event, err := s.Get(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != userID {
		inv := event.Invitee(userID)
		if inv == nil || inv.Status != models.RSVPAccepted {
			return nil, ErrNotAuthorized
		}
	}

	entry := &models.TimelineEntry{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		Type:      entryType,
		Content:   strings.TrimSpace(content),
		Media:     media,
		CreatedAt: time.Now(),
	}
	if err := s.eventStore.AddTimelineEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to add timeline entry: %w", err)
	}
	return entry, nil
}

// Stats returns RSVP stats, creator only
func (s *GetTogetherService) Stats(ctx context.Context, eventID, userID string) (*models.EventStats, error) {
	event, err := s.Get(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != userID {
		return nil, ErrNotAuthorized
	}
	stats := event.Stats()
	return &stats, nil
}

func (s *GetTogetherService) requireMember(ctx context.Context, archID, userID string) (string, error) {
	return membership(ctx, s.archStore, archID, userID)
}
