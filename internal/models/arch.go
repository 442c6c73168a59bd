package models

import "time"

// Member roles within an arch
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ArchSettings holds the per-arch daily question schedule
type ArchSettings struct {
	QuestionTime     string `json:"question_time"`     // "06:00"
	ResponseDeadline string `json:"response_deadline"` // "17:00"
	Timezone         string `json:"timezone"`
}

// DefaultArchSettings returns the settings a new arch starts with
func DefaultArchSettings() ArchSettings {
	return ArchSettings{
		QuestionTime:     "06:00",
		ResponseDeadline: "17:00",
		Timezone:         "America/New_York",
	}
}

// ArchMember represents a user's membership in an arch
type ArchMember struct {
	ArchID     string    `json:"arch_id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Avatar     *string   `json:"avatar,omitempty"`
	Role       string    `json:"role"`
	JoinedAt   time.Time `json:"joined_at"`
	UserActive bool      `json:"-"`
}

// Arch represents a private family group, the tenancy boundary for most data
type Arch struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatorID   string       `json:"creator_id"`
	InviteCode  string       `json:"invite_code"`
	Settings    ArchSettings `json:"settings"`
	IsActive    bool         `json:"is_active"`
	Members     []ArchMember `json:"members,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Member returns the membership entry for a user, or nil
func (a *Arch) Member(userID string) *ArchMember {
	for i := range a.Members {
		if a.Members[i].UserID == userID {
			return &a.Members[i]
		}
	}
	return nil
}

// ActiveMembers returns members whose user account is still active
func (a *Arch) ActiveMembers() []ArchMember {
	var out []ArchMember
	for _, m := range a.Members {
		if m.UserActive {
			out = append(out, m)
		}
	}
	return out
}

// ArchActivity holds recent per-arch content counts
type ArchActivity struct {
	Questions int `json:"questions"`
	Posts     int `json:"posts"`
	Messages  int `json:"messages"`
}

// ArchStats holds lifetime per-arch content counts
type ArchStats struct {
	TotalQuestions int `json:"total_questions"`
	TotalPosts     int `json:"total_posts"`
	TotalMessages  int `json:"total_messages"`
	TotalEvents    int `json:"total_events"`
	MemberCount    int `json:"member_count"`
}
