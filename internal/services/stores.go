package services

import (
	"context"
	"time"

	"the-arch-backend/internal/models"
)

// Store interfaces mirror the repository layer. Services depend on these so
// scheduled jobs and business rules can be exercised against in-memory fakes.

// UserStore persists users
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateNotificationSettings(ctx context.Context, userID string, ns models.NotificationSettings) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	Deactivate(ctx context.Context, userID, rewrittenEmail string) error
	SearchInArch(ctx context.Context, archID, query string, limit int) ([]models.User, error)
}

// ArchStore persists arches and their memberships
type ArchStore interface {
	Create(ctx context.Context, arch *models.Arch) error
	GetByID(ctx context.Context, id string) (*models.Arch, error)
	GetByInviteCode(ctx context.Context, code string) (*models.Arch, error)
	ListForUser(ctx context.Context, userID string) ([]models.Arch, error)
	ListActive(ctx context.Context) ([]models.Arch, error)
	Membership(ctx context.Context, archID, userID string) (string, error)
	AddMember(ctx context.Context, archID, userID, role string, joinedAt time.Time) error
	RemoveMember(ctx context.Context, archID, userID string) error
	UpdateMemberRole(ctx context.Context, archID, userID, role string) error
	Update(ctx context.Context, arch *models.Arch) error
	SetInviteCode(ctx context.Context, archID, code string) error
	InviteCodeExists(ctx context.Context, code string) (bool, error)
	Deactivate(ctx context.Context, archID string) error
	ActivityCounts(ctx context.Context, archID string, since time.Time) (models.ArchActivity, error)
	Stats(ctx context.Context, archID string) (models.ArchStats, error)
}

// QuestionStore persists daily questions and responses
type QuestionStore interface {
	Create(ctx context.Context, q *models.DailyQuestion) error
	GetByID(ctx context.Context, id string) (*models.DailyQuestion, error)
	GetByResponseID(ctx context.Context, responseID string) (*models.DailyQuestion, error)
	ExistsForArchOn(ctx context.Context, archID string, date time.Time) (bool, error)
	UpsertResponse(ctx context.Context, resp *models.Response) error
	DeleteResponse(ctx context.Context, questionID, userID string) error
	MarkShared(ctx context.Context, responseID string) error
	ListDue(ctx context.Context, now time.Time) ([]models.DailyQuestion, error)
	MarkProcessed(ctx context.Context, questionID string) (bool, error)
	ListForAskerOn(ctx context.Context, userID string, date time.Time) ([]models.DailyQuestion, error)
	ListAboutUserOn(ctx context.Context, userID string, date time.Time) ([]models.DailyQuestion, error)
	ListForArch(ctx context.Context, archID string) ([]models.DailyQuestion, error)
	ListSharedOn(ctx context.Context, archID string, date time.Time) ([]models.DailyQuestion, error)
	ListNeedingReminder(ctx context.Context, now, until time.Time) ([]models.DailyQuestion, error)
	MarkReminderSent(ctx context.Context, questionID string) error
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ArchCountsOn(ctx context.Context, archID string, date time.Time) (questions, responses int, err error)
	WeekCompletion(ctx context.Context, archID string, weekStart time.Time) (asked, answered int, err error)
	History(ctx context.Context, userID, archID string, limit, offset int) ([]models.ResponseHistoryItem, error)
	UserStats(ctx context.Context, userID, archID string, since time.Time) (models.ResponseUserStats, error)
}

// PostStore persists feed posts
type PostStore interface {
	Create(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListForArch(ctx context.Context, archID string, offset, limit int) ([]models.Post, error)
	ListRecent(ctx context.Context, archID string, since time.Time, limit int) ([]models.Post, error)
	HasLike(ctx context.Context, postID, userID string) (bool, error)
	AddLike(ctx context.Context, like *models.Like) error
	RemoveLike(ctx context.Context, postID, userID string) error
	CountLikes(ctx context.Context, postID string) (int, error)
	AddComment(ctx context.Context, c *models.Comment) error
	SoftDelete(ctx context.Context, postID string) error
}

// EventStore persists get-togethers
type EventStore interface {
	Create(ctx context.Context, g *models.GetTogether) error
	GetByID(ctx context.Context, id string) (*models.GetTogether, error)
	List(ctx context.Context, archIDs []string, status string, upcomingAfter *time.Time) ([]models.GetTogether, error)
	ListRecent(ctx context.Context, archID string, since time.Time, limit int) ([]models.GetTogether, error)
	Update(ctx context.Context, g *models.GetTogether) error
	Delete(ctx context.Context, id string) error
	UpdateRSVP(ctx context.Context, eventID, userID, status string, respondedAt time.Time) error
	AddTimelineEntry(ctx context.Context, e *models.TimelineEntry) error
}

// MessageStore persists direct messages
type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	Conversation(ctx context.Context, archID, userA, userB string, offset, limit int) ([]models.Message, error)
	SearchBetween(ctx context.Context, archID, userA, userB, query string, limit int) ([]models.Message, error)
	LatestBetween(ctx context.Context, archID, userA, userB string) (*models.Message, error)
	UnreadCount(ctx context.Context, archID, senderID, recipientID string) (int, error)
	MarkRead(ctx context.Context, messageID, recipientID string, at time.Time) error
	MarkConversationRead(ctx context.Context, archID, senderID, recipientID string, at time.Time) error
	SoftDelete(ctx context.Context, messageID, senderID string) error
	Stats(ctx context.Context, archID, userID string) (models.MessageStats, error)
}
