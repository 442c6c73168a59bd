package models

import "time"

// Post types
const (
	PostTypeRegular          = "post"
	PostTypeQuestionResponse = "question-response"
)

// Media is an image or video attachment
type Media struct {
	Type      string `json:"type"` // "image" or "video"
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// ResponseMeta links a question-response post back to its origin
type ResponseMeta struct {
	QuestionID  string `json:"question_id"`
	ResponseID  string `json:"response_id"`
	Question    string `json:"question"`
	AboutUserID string `json:"about_user_id"`
}

// Like records one user's like on a post, unique per user
type Like struct {
	PostID  string    `json:"post_id"`
	UserID  string    `json:"user_id"`
	LikedAt time.Time `json:"liked_at"`
}

// Comment is one user's comment on a post
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Post represents an entry in an arch's feed
type Post struct {
	ID         string        `json:"id"`
	ArchID     string        `json:"arch_id"`
	AuthorID   string        `json:"author_id"`
	AuthorName string        `json:"author_name,omitempty"`
	Content    string        `json:"content"`
	Type       string        `json:"type"`
	Meta       *ResponseMeta `json:"metadata,omitempty"`
	Media      []Media       `json:"media,omitempty"`
	Likes      []Like        `json:"likes"`
	Comments   []Comment     `json:"comments"`
	IsActive   bool          `json:"is_active"`
	CreatedAt  time.Time     `json:"created_at"`
}

// LikedBy reports whether a user has liked the post
func (p *Post) LikedBy(userID string) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// FeedItem is one entry of the merged arch feed: either a post or a shared
// daily-question response synthesized at read time.
type FeedItem struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"` // "post" or "daily_response"
	Content       string    `json:"content,omitempty"`
	AuthorID      string    `json:"author_id"`
	AuthorName    string    `json:"author_name,omitempty"`
	Question      string    `json:"question,omitempty"`
	Response      string    `json:"response,omitempty"`
	AskerID       string    `json:"asker_id,omitempty"`
	AboutUserID   string    `json:"about_user_id,omitempty"`
	AboutUserName string    `json:"about_user_name,omitempty"`
	Media         []Media   `json:"media,omitempty"`
	Likes         []Like    `json:"likes"`
	Comments      []Comment `json:"comments"`
	UserHasLiked  bool      `json:"user_has_liked"`
	CreatedAt     time.Time `json:"created_at"`
}
