package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuestionStatus(t *testing.T) {
	deadline := time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC)
	q := DailyQuestion{AskerID: "asker", Deadline: deadline}

	assert.Equal(t, QuestionPending, q.Status(deadline.Add(-time.Hour)))
	assert.Equal(t, QuestionExpired, q.Status(deadline.Add(time.Hour)))

	q.Responses = []Response{{UserID: "asker", Passed: true}}
	// A pass still counts as answered, even past the deadline
	assert.Equal(t, QuestionAnswered, q.Status(deadline.Add(time.Hour)))
}

func TestQuestionMinutesRemaining(t *testing.T) {
	deadline := time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC)
	q := DailyQuestion{Deadline: deadline}

	assert.Equal(t, 90, q.MinutesRemaining(deadline.Add(-90*time.Minute)))
	assert.Equal(t, 0, q.MinutesRemaining(deadline.Add(time.Minute)))
}

func TestArchActiveMembers(t *testing.T) {
	a := Arch{Members: []ArchMember{
		{UserID: "u1", UserActive: true},
		{UserID: "u2", UserActive: false},
		{UserID: "u3", UserActive: true},
	}}

	active := a.ActiveMembers()
	assert.Len(t, active, 2)
	assert.NotNil(t, a.Member("u2"))
	assert.Nil(t, a.Member("u4"))
}

func TestEventStats(t *testing.T) {
	g := GetTogether{
		Invitees: []Invitee{
			{UserID: "u1", Status: RSVPAccepted},
			{UserID: "u2", Status: RSVPDeclined},
			{UserID: "u3", Status: RSVPPending},
			{UserID: "u4", Status: RSVPAccepted},
		},
		Timeline: []TimelineEntry{{ID: "t1"}},
	}

	s := g.Stats()
	assert.Equal(t, 4, s.TotalInvited)
	assert.Equal(t, 2, s.Accepted)
	assert.Equal(t, 1, s.Declined)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 1, s.TimelineEntries)
	assert.Equal(t, 75, s.RSVPRate)
}
