package models

import "time"

// Get-together event types
const (
	EventInPerson = "in-person"
	EventVirtual  = "virtual"
)

// Get-together statuses
const (
	EventPlanning  = "planning"
	EventActive    = "active"
	EventCompleted = "completed"
)

// RSVP statuses
const (
	RSVPPending  = "pending"
	RSVPAccepted = "accepted"
	RSVPDeclined = "declined"
)

// Invitee tracks one member's RSVP for a get-together
type Invitee struct {
	EventID     string     `json:"event_id"`
	UserID      string     `json:"user_id"`
	UserName    string     `json:"user_name,omitempty"`
	Status      string     `json:"status"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// TimelineEntry is a note, photo or video attached to a get-together
type TimelineEntry struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Type      string    `json:"type"` // note, photo, video
	Content   string    `json:"content"`
	Media     []Media   `json:"media,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GetTogether represents a schedulable event with RSVP tracking
type GetTogether struct {
	ID           string          `json:"id"`
	ArchID       string          `json:"arch_id"`
	CreatorID    string          `json:"creator_id"`
	CreatorName  string          `json:"creator_name,omitempty"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Type         string          `json:"type"`
	ScheduledFor time.Time       `json:"scheduled_for"`
	Location     string          `json:"location,omitempty"`
	VirtualLink  string          `json:"virtual_link,omitempty"`
	Status       string          `json:"status"`
	Invitees     []Invitee       `json:"invitees"`
	Timeline     []TimelineEntry `json:"timeline"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Invitee returns the invitation entry for a user, or nil
func (g *GetTogether) Invitee(userID string) *Invitee {
	for i := range g.Invitees {
		if g.Invitees[i].UserID == userID {
			return &g.Invitees[i]
		}
	}
	return nil
}

// EventStats summarizes RSVP state for a get-together
type EventStats struct {
	TotalInvited    int `json:"total_invited"`
	Accepted        int `json:"accepted"`
	Declined        int `json:"declined"`
	Pending         int `json:"pending"`
	TimelineEntries int `json:"timeline_entries"`
	RSVPRate        int `json:"rsvp_rate"`
}

// Stats counts invitee RSVP states
func (g *GetTogether) Stats() EventStats {
	s := EventStats{
		TotalInvited:    len(g.Invitees),
		TimelineEntries: len(g.Timeline),
	}
	for _, inv := range g.Invitees {
		switch inv.Status {
		case RSVPAccepted:
			s.Accepted++
		case RSVPDeclined:
			s.Declined++
		default:
			s.Pending++
		}
	}
	if s.TotalInvited > 0 {
		s.RSVPRate = (s.Accepted + s.Declined) * 100 / s.TotalInvited
	}
	return s
}
