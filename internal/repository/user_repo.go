package repository

import (
	"context"
	"errors"
	"fmt"

	"the-arch-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

const userColumns = `id, name, email, password_hash, push_token, avatar, timezone,
	notify_daily_questions, notify_responses, notify_posts, notify_get_togethers, notify_messages,
	is_active, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PushToken, &u.Avatar, &u.Timezone,
		&u.Notifications.DailyQuestions, &u.Notifications.Responses, &u.Notifications.Posts,
		&u.Notifications.GetTogethers, &u.Notifications.Messages,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.PushToken, user.Avatar, user.Timezone,
		user.Notifications.DailyQuestions, user.Notifications.Responses, user.Notifications.Posts,
		user.Notifications.GetTogethers, user.Notifications.Messages,
		user.IsActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByEmail retrieves an active user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// UpdateProfile updates name, email, avatar and timezone
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET name = $1, email = $2, avatar = $3, timezone = $4, updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.Exec(ctx, query, user.Name, user.Email, user.Avatar, user.Timezone, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
		passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateNotificationSettings replaces the per-category toggles
func (r *UserRepository) UpdateNotificationSettings(ctx context.Context, userID string, ns models.NotificationSettings) error {
	query := `
		UPDATE users SET notify_daily_questions = $1, notify_responses = $2, notify_posts = $3,
			notify_get_togethers = $4, notify_messages = $5, updated_at = now()
		WHERE id = $6
	`
	_, err := r.db.Exec(ctx, query, ns.DailyQuestions, ns.Responses, ns.Posts, ns.GetTogethers, ns.Messages, userID)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET push_token = $1, updated_at = now() WHERE id = $2`,
		pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// Deactivate soft-deletes an account. The email is rewritten so it can be
// registered again later.
func (r *UserRepository) Deactivate(ctx context.Context, userID, rewrittenEmail string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET is_active = FALSE, email = $1, push_token = NULL, updated_at = now() WHERE id = $2`,
		rewrittenEmail, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// SearchInArch finds active arch members whose name or email matches the query
func (r *UserRepository) SearchInArch(ctx context.Context, archID, query string, limit int) ([]models.User, error) {
	sql := `
		SELECT ` + userColumns + ` FROM users u
		JOIN arch_members am ON am.user_id = u.id
		WHERE am.arch_id = $1 AND u.is_active
		  AND (u.name ILIKE '%' || $2 || '%' OR u.email ILIKE '%' || $2 || '%')
		ORDER BY u.name
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, sql, archID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
