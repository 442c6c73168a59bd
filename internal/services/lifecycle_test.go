package services

import (
	"context"
	"testing"
	"time"

	"the-arch-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDailyQuestionDay walks one arch through a full day: morning creation,
// an answer shared to the feed, an evening reminder, deadline processing,
// and retention cleanup months later.
func TestDailyQuestionDay(t *testing.T) {
	f := newQuestionFixture(t, 3)
	ctx := context.Background()
	feed := NewFeedService(newFakePostStore(), f.questions, f.arches)
	feed.now = f.svc.now

	// Morning: one question per member
	require.NoError(t, f.svc.CreateDailyQuestions(ctx))
	require.Len(t, f.questions.questions, 3)
	assert.Len(t, f.push.sent, 3)

	// Alice answers hers and shares right away
	alice := f.userIDs[0]
	aliceQ := f.questionFor(t, alice)
	resp, err := f.svc.Respond(ctx, aliceQ.ID, alice, "She always checks in on everyone", true)
	require.NoError(t, err)
	assert.True(t, resp.SharedWithArch)

	// The shared answer is already visible in the feed
	page, err := feed.Feed(ctx, f.arch.ID, f.userIDs[1], 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "daily_response", page.Items[0].Type)
	assert.Equal(t, resp.Response, page.Items[0].Response)

	// Afternoon: reminders go to the two who have not answered
	f.push.sent = nil
	f.svc.now = func() time.Time { return aliceQ.Deadline.Add(-time.Hour) }
	require.NoError(t, f.svc.SendReminders(ctx, 3*time.Hour))
	assert.Len(t, f.push.sent, 2)

	// Bob answers after the nudge, Carol lets hers lapse
	bob := f.userIDs[1]
	bobQ := f.questionFor(t, bob)
	_, err = f.svc.Respond(ctx, bobQ.ID, bob, "He fixed my bike last weekend", false)
	require.NoError(t, err)

	// Evening: the deadline passes and everything is processed
	f.push.sent = nil
	f.svc.now = func() time.Time { return aliceQ.Deadline.Add(time.Minute) }
	require.NoError(t, f.svc.ProcessDailyQuestions(ctx))

	answered := 0
	for _, n := range f.push.sent {
		if n.Type == NotifyResponseShared {
			answered++
		}
	}
	assert.Equal(t, 2, answered)

	for _, q := range f.questions.questions {
		assert.True(t, q.Processed)
	}

	// Answering now is refused
	carol := f.userIDs[2]
	carolQ := f.questionFor(t, carol)
	_, err = f.svc.Respond(ctx, carolQ.ID, carol, "Too slow", false)
	assert.ErrorIs(t, err, ErrDeadlinePassed)

	// Months later the processed questions age out
	f.svc.now = func() time.Time { return aliceQ.Deadline.AddDate(0, 4, 0) }
	require.NoError(t, f.svc.CleanupOldQuestions(ctx))
	assert.Empty(t, f.questions.questions)
}

// TestGetTogetherPlanning plans an event end to end: invite everyone, collect
// mixed RSVPs, let an accepted guest post to the timeline, and read the summary.
func TestGetTogetherPlanning(t *testing.T) {
	f := newArchFixture(t)
	ctx := context.Background()
	carol := seedNotifyUser(t, f.users, "Carol", nil, models.DefaultNotificationSettings())
	require.NoError(t, f.arches.AddMember(ctx, f.arch.ID, carol.ID, models.RoleMember, f.arch.CreatedAt))

	events := newFakeEventStore()
	notifier := NewNotificationService(f.users, f.arches, f.push)
	svc := NewGetTogetherService(events, f.arches, f.users, notifier, NewWSHub())

	event, err := svc.Create(ctx, f.creator.ID, CreateEventInput{
		ArchID:       f.arch.ID,
		Title:        "Reunion barbecue",
		Type:         models.EventInPerson,
		ScheduledFor: time.Now().Add(7 * 24 * time.Hour),
		Location:     "The backyard",
	})
	require.NoError(t, err)
	require.Len(t, event.Invitees, 2)

	_, err = svc.RSVP(ctx, event.ID, f.member.ID, models.RSVPAccepted)
	require.NoError(t, err)
	_, err = svc.RSVP(ctx, event.ID, carol.ID, models.RSVPDeclined)
	require.NoError(t, err)

	_, err = svc.AddTimelineEntry(ctx, event.ID, f.member.ID, "note", "Bringing the grill", nil)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, event.ID, f.creator.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalInvited)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.Declined)
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 1, stats.TimelineEntries)
	assert.Equal(t, 100, stats.RSVPRate)
}
