package services

import (
	"context"
	"testing"
	"time"

	"the-arch-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventFixture struct {
	*archFixture
	events *fakeEventStore
	svc    *GetTogetherService
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()

	af := newArchFixture(t)
	events := newFakeEventStore()
	notifier := NewNotificationService(af.users, af.arches, af.push)
	svc := NewGetTogetherService(events, af.arches, af.users, notifier, NewWSHub())
	return &eventFixture{archFixture: af, events: events, svc: svc}
}

func (f *eventFixture) createEvent(t *testing.T) *models.GetTogether {
	t.Helper()
	event, err := f.svc.Create(context.Background(), f.creator.ID, CreateEventInput{
		ArchID:       f.arch.ID,
		Title:        "Sunday dinner",
		Type:         models.EventInPerson,
		ScheduledFor: time.Now().Add(48 * time.Hour),
		Location:     "Grandma's house",
	})
	require.NoError(t, err)
	return event
}

func TestEventCreateInvitesAllOtherMembers(t *testing.T) {
	f := newEventFixture(t)

	event := f.createEvent(t)

	require.Len(t, event.Invitees, 1)
	assert.Equal(t, f.member.ID, event.Invitees[0].UserID)
	assert.Equal(t, models.RSVPPending, event.Invitees[0].Status)
	assert.Equal(t, models.EventPlanning, event.Status)
}

func TestEventCreateValidation(t *testing.T) {
	f := newEventFixture(t)
	scheduled := time.Now().Add(time.Hour)

	cases := []struct {
		name string
		in   CreateEventInput
	}{
		{"missing title", CreateEventInput{ArchID: f.arch.ID, Type: models.EventInPerson, ScheduledFor: scheduled, Location: "here"}},
		{"missing time", CreateEventInput{ArchID: f.arch.ID, Title: "Dinner", Type: models.EventInPerson, Location: "here"}},
		{"in-person without location", CreateEventInput{ArchID: f.arch.ID, Title: "Dinner", Type: models.EventInPerson, ScheduledFor: scheduled}},
		{"virtual without link", CreateEventInput{ArchID: f.arch.ID, Title: "Call", Type: models.EventVirtual, ScheduledFor: scheduled}},
		{"unknown type", CreateEventInput{ArchID: f.arch.ID, Title: "Dinner", Type: "hybrid", ScheduledFor: scheduled, Location: "here"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.creator.ID, tc.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestEventCreateRejectsOutsideInvitee(t *testing.T) {
	f := newEventFixture(t)

	_, err := f.svc.Create(context.Background(), f.creator.ID, CreateEventInput{
		ArchID:       f.arch.ID,
		Title:        "Dinner",
		Type:         models.EventInPerson,
		ScheduledFor: time.Now().Add(time.Hour),
		Location:     "here",
		InviteeIDs:   []string{uuid.New().String()},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRSVPInviteeOnly(t *testing.T) {
	f := newEventFixture(t)
	event := f.createEvent(t)

	_, err := f.svc.RSVP(context.Background(), event.ID, f.creator.ID, models.RSVPAccepted)
	assert.ErrorIs(t, err, ErrNotInvited)

	updated, err := f.svc.RSVP(context.Background(), event.ID, f.member.ID, models.RSVPAccepted)
	require.NoError(t, err)
	inv := updated.Invitee(f.member.ID)
	require.NotNil(t, inv)
	assert.Equal(t, models.RSVPAccepted, inv.Status)
	assert.NotNil(t, inv.RespondedAt)
}

func TestRSVPRejectsUnknownStatus(t *testing.T) {
	f := newEventFixture(t)
	event := f.createEvent(t)

	_, err := f.svc.RSVP(context.Background(), event.ID, f.member.ID, "maybe")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEventUpdateCreatorOnly(t *testing.T) {
	f := newEventFixture(t)
	event := f.createEvent(t)

	title := "Moved dinner"
	_, err := f.svc.Update(context.Background(), event.ID, f.member.ID, UpdateEventInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	status := "cancelled"
	_, err = f.svc.Update(context.Background(), event.ID, f.creator.ID, UpdateEventInput{Status: &status})
	assert.ErrorIs(t, err, ErrInvalidInput)

	active := models.EventActive
	updated, err := f.svc.Update(context.Background(), event.ID, f.creator.ID, UpdateEventInput{Title: &title, Status: &active})
	require.NoError(t, err)
	assert.Equal(t, "Moved dinner", updated.Title)
	assert.Equal(t, models.EventActive, updated.Status)
}

func TestTimelineEntryRequiresAcceptedInvite(t *testing.T) {
	f := newEventFixture(t)
	event := f.createEvent(t)

	_, err := f.svc.AddTimelineEntry(context.Background(), event.ID, f.member.ID, "note", "Can't wait", nil)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.svc.RSVP(context.Background(), event.ID, f.member.ID, models.RSVPAccepted)
	require.NoError(t, err)

	entry, err := f.svc.AddTimelineEntry(context.Background(), event.ID, f.member.ID, "note", "Can't wait", nil)
	require.NoError(t, err)
	assert.Equal(t, "note", entry.Type)

	// The creator always can
	_, err = f.svc.AddTimelineEntry(context.Background(), event.ID, f.creator.ID, "photo", "", []models.Media{{Type: "image", URL: "https://cdn.example.com/p.jpg"}})
	assert.NoError(t, err)
}

func TestTimelineNoteNeedsContent(t *testing.T) {
	f := newEventFixture(t)
	event := f.createEvent(t)

	_, err := f.svc.AddTimelineEntry(context.Background(), event.ID, f.creator.ID, "note", "  ", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.AddTimelineEntry(context.Background(), event.ID, f.creator.ID, "sketch", "x", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEventStatsCreatorOnly(t *testing.T) {
	f := newEventFixture(t)
	event := f.createEvent(t)

	_, err := f.svc.RSVP(context.Background(), event.ID, f.member.ID, models.RSVPAccepted)
	require.NoError(t, err)

	_, err = f.svc.Stats(context.Background(), event.ID, f.member.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	stats, err := f.svc.Stats(context.Background(), event.ID, f.creator.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalInvited)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 100, stats.RSVPRate)
}

func TestEventListFilters(t *testing.T) {
	f := newEventFixture(t)
	f.createEvent(t)

	past, err := f.svc.Create(context.Background(), f.creator.ID, CreateEventInput{
		ArchID:       f.arch.ID,
		Title:        "Last month's picnic",
		Type:         models.EventInPerson,
		ScheduledFor: time.Now().Add(-30 * 24 * time.Hour),
		Location:     "The park",
	})
	require.NoError(t, err)

	completed := models.EventCompleted
	_, err = f.svc.Update(context.Background(), past.ID, f.creator.ID, UpdateEventInput{Status: &completed})
	require.NoError(t, err)

	all, err := f.svc.List(context.Background(), f.member.ID, f.arch.ID, "", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	upcoming, err := f.svc.List(context.Background(), f.member.ID, "", "", true)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Sunday dinner", upcoming[0].Title)

	done, err := f.svc.List(context.Background(), f.member.ID, f.arch.ID, models.EventCompleted, false)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, past.ID, done[0].ID)
}

func TestEventDeleteCreatorOrAdmin(t *testing.T) {
	f := newEventFixture(t)
	event := f.createEvent(t)

	err := f.svc.Delete(context.Background(), event.ID, f.member.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, f.svc.Delete(context.Background(), event.ID, f.creator.ID))
	_, err = f.svc.Get(context.Background(), event.ID, f.creator.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
