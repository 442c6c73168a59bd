package models

import "time"

// Derived status of a question from the asker's point of view
const (
	QuestionAnswered = "answered"
	QuestionExpired  = "expired"
	QuestionPending  = "pending"
)

// Response represents a member's answer (or explicit pass) to their daily question.
// At most one response exists per (question, user).
type Response struct {
	ID             string    `json:"id"`
	QuestionID     string    `json:"question_id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name,omitempty"`
	Response       string    `json:"response"`
	Passed         bool      `json:"passed"`
	SharedWithArch bool      `json:"shared_with_arch"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// DailyQuestion represents a once-per-day prompt directed at one member about another
type DailyQuestion struct {
	ID            string     `json:"id"`
	ArchID        string     `json:"arch_id"`
	ArchName      string     `json:"arch_name,omitempty"`
	Date          time.Time  `json:"date"`
	AskerID       string     `json:"asker_id"`
	AskerName     string     `json:"asker_name,omitempty"`
	AboutUserID   string     `json:"about_user_id"`
	AboutUserName string     `json:"about_user_name,omitempty"`
	Question      string     `json:"question"`
	Deadline      time.Time  `json:"deadline"`
	Processed     bool       `json:"processed"`
	ReminderSent  bool       `json:"-"`
	Responses     []Response `json:"responses"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ResponseFrom returns the response submitted by a user, or nil
func (q *DailyQuestion) ResponseFrom(userID string) *Response {
	for i := range q.Responses {
		if q.Responses[i].UserID == userID {
			return &q.Responses[i]
		}
	}
	return nil
}

// Status derives the question state as of now: answered once the asker has a
// response row, expired past the deadline, pending otherwise.
func (q *DailyQuestion) Status(now time.Time) string {
	if q.ResponseFrom(q.AskerID) != nil {
		return QuestionAnswered
	}
	if now.After(q.Deadline) {
		return QuestionExpired
	}
	return QuestionPending
}

// MinutesRemaining returns whole minutes until the deadline, never negative
func (q *DailyQuestion) MinutesRemaining(now time.Time) int {
	if now.After(q.Deadline) {
		return 0
	}
	return int(q.Deadline.Sub(now).Minutes())
}

// QuestionArchStats summarizes daily question engagement for one arch
type QuestionArchStats struct {
	TodayQuestions       int `json:"today_questions"`
	TodayResponses       int `json:"today_responses"`
	WeeklyCompletionRate int `json:"weekly_completion_rate"`
	ArchMemberCount      int `json:"arch_member_count"`
}

// ResponseHistoryItem is one entry of a user's past responses
type ResponseHistoryItem struct {
	QuestionID    string    `json:"question_id"`
	Question      string    `json:"question"`
	ArchID        string    `json:"arch_id"`
	ArchName      string    `json:"arch_name"`
	AboutUserName string    `json:"about_user_name"`
	Response      string    `json:"response"`
	Passed        bool      `json:"passed"`
	Shared        bool      `json:"shared_with_arch"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// ResponseUserStats summarizes a user's answer rate over a period
type ResponseUserStats struct {
	TotalQuestions    int `json:"total_questions"`
	QuestionsAnswered int `json:"questions_answered"`
	ResponseRate      int `json:"response_rate"`
}
