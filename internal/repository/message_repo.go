package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"the-arch-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageColumns = `m.id, m.arch_id, m.sender_id, s.name, m.recipient_id, r.name,
	m.content, m.media_type, m.media_url, m.filename, m.read_at, m.is_active, m.created_at`

const messageJoins = `
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.recipient_id`

// MessageRepository handles database operations for direct messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	var mediaType, mediaURL, filename string
	err := row.Scan(
		&m.ID, &m.ArchID, &m.SenderID, &m.SenderName, &m.RecipientID, &m.RecipientName,
		&m.Content, &mediaType, &mediaURL, &filename, &m.ReadAt, &m.IsActive, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	if mediaURL != "" {
		m.Media = []models.Media{{Type: mediaType, URL: mediaURL, Thumbnail: filename}}
	}
	return &m, nil
}

// Create inserts a message
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	var mediaType, mediaURL, filename string
	if len(m.Media) > 0 {
		mediaType = m.Media[0].Type
		mediaURL = m.Media[0].URL
		filename = m.Media[0].Thumbnail
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO messages (id, arch_id, sender_id, recipient_id, content,
			media_type, media_url, filename, read_at, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.ArchID, m.SenderID, m.RecipientID, m.Content,
		mediaType, mediaURL, filename, m.ReadAt, m.IsActive, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByID retrieves an active message
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	return scanMessage(r.db.QueryRow(ctx,
		`SELECT `+messageColumns+messageJoins+` WHERE m.id = $1 AND m.is_active`, id))
}

func (r *MessageRepository) queryMessages(ctx context.Context, sql string, args ...any) ([]models.Message, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// Conversation pages through the thread between two users, newest first
func (r *MessageRepository) Conversation(ctx context.Context, archID, userA, userB string, offset, limit int) ([]models.Message, error) {
	return r.queryMessages(ctx, `
		SELECT `+messageColumns+messageJoins+`
		WHERE m.arch_id = $1 AND m.is_active
		  AND ((m.sender_id = $2 AND m.recipient_id = $3) OR (m.sender_id = $3 AND m.recipient_id = $2))
		ORDER BY m.created_at DESC
		OFFSET $4 LIMIT $5`, archID, userA, userB, offset, limit)
}

// SearchBetween finds messages in a thread whose content contains the query,
// case-insensitively, newest first
func (r *MessageRepository) SearchBetween(ctx context.Context, archID, userA, userB, query string, limit int) ([]models.Message, error) {
	return r.queryMessages(ctx, `
		SELECT `+messageColumns+messageJoins+`
		WHERE m.arch_id = $1 AND m.is_active
		  AND ((m.sender_id = $2 AND m.recipient_id = $3) OR (m.sender_id = $3 AND m.recipient_id = $2))
		  AND m.content ILIKE '%' || $4 || '%'
		ORDER BY m.created_at DESC
		LIMIT $5`, archID, userA, userB, query, limit)
}

// LatestBetween returns the most recent message between two users, or nil
func (r *MessageRepository) LatestBetween(ctx context.Context, archID, userA, userB string) (*models.Message, error) {
	m, err := scanMessage(r.db.QueryRow(ctx, `
		SELECT `+messageColumns+messageJoins+`
		WHERE m.arch_id = $1 AND m.is_active
		  AND ((m.sender_id = $2 AND m.recipient_id = $3) OR (m.sender_id = $3 AND m.recipient_id = $2))
		ORDER BY m.created_at DESC
		LIMIT 1`, archID, userA, userB))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return m, err
}

// UnreadCount counts unread messages from one sender to one recipient
func (r *MessageRepository) UnreadCount(ctx context.Context, archID, senderID, recipientID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM messages
		WHERE arch_id = $1 AND sender_id = $2 AND recipient_id = $3
		  AND read_at IS NULL AND is_active`,
		archID, senderID, recipientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return n, nil
}

// MarkRead marks one message read by its recipient. A message that is already
// read keeps its original read timestamp, so repeat calls succeed unchanged.
func (r *MessageRepository) MarkRead(ctx context.Context, messageID, recipientID string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages SET read_at = COALESCE(read_at, $1)
		WHERE id = $2 AND recipient_id = $3 AND is_active`,
		at, messageID, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkConversationRead marks everything from one sender read
func (r *MessageRepository) MarkConversationRead(ctx context.Context, archID, senderID, recipientID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages SET read_at = $1
		WHERE arch_id = $2 AND sender_id = $3 AND recipient_id = $4
		  AND read_at IS NULL AND is_active`,
		at, archID, senderID, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}

// SoftDelete marks a message inactive if the caller sent it
func (r *MessageRepository) SoftDelete(ctx context.Context, messageID, senderID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE messages SET is_active = FALSE WHERE id = $1 AND sender_id = $2`,
		messageID, senderID)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats summarizes the caller's message volume within an arch
func (r *MessageRepository) Stats(ctx context.Context, archID, userID string) (models.MessageStats, error) {
	var st models.MessageStats
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM messages WHERE arch_id = $1 AND sender_id = $2 AND is_active),
			(SELECT count(*) FROM messages WHERE arch_id = $1 AND recipient_id = $2 AND is_active),
			(SELECT count(*) FROM messages WHERE arch_id = $1 AND recipient_id = $2 AND read_at IS NULL AND is_active)`,
		archID, userID).Scan(&st.TotalSent, &st.TotalReceived, &st.TotalUnread)
	if err != nil {
		return st, fmt.Errorf("failed to count message stats: %w", err)
	}
	return st, nil
}
