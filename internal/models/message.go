package models

import "time"

// Message represents a direct message between two members of an arch
type Message struct {
	ID            string     `json:"id"`
	ArchID        string     `json:"arch_id"`
	SenderID      string     `json:"sender_id"`
	SenderName    string     `json:"sender_name,omitempty"`
	RecipientID   string     `json:"recipient_id"`
	RecipientName string     `json:"recipient_name,omitempty"`
	Content       string     `json:"content"`
	Media         []Media    `json:"media,omitempty"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Conversation summarizes the message thread with one arch member
type Conversation struct {
	User          ArchMember `json:"user"`
	LatestMessage *Message   `json:"latest_message,omitempty"`
	UnreadCount   int        `json:"unread_count"`
	LastActivity  *time.Time `json:"last_activity,omitempty"`
}

// MessageStats summarizes message volume within an arch for the caller
type MessageStats struct {
	TotalSent     int `json:"total_sent"`
	TotalReceived int `json:"total_received"`
	TotalUnread   int `json:"total_unread"`
}
