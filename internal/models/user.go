package models

import "time"

// NotificationSettings holds per-category push notification toggles
type NotificationSettings struct {
	DailyQuestions bool `json:"daily_questions"`
	Responses      bool `json:"responses"`
	Posts          bool `json:"posts"`
	GetTogethers   bool `json:"get_togethers"`
	Messages       bool `json:"messages"`
}

// DefaultNotificationSettings returns the settings a new account starts with
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		DailyQuestions: true,
		Responses:      true,
		Posts:          true,
		GetTogethers:   true,
		Messages:       true,
	}
}

// User represents a user in the system
type User struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	PasswordHash  string               `json:"-"`
	PushToken     *string              `json:"push_token,omitempty"`
	Avatar        *string              `json:"avatar,omitempty"`
	Timezone      string               `json:"timezone"`
	Notifications NotificationSettings `json:"notification_settings"`
	IsActive      bool                 `json:"is_active"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}
