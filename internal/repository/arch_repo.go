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

const archColumns = `id, name, description, creator_id, invite_code,
	question_time, response_deadline, timezone, is_active, created_at, updated_at`

// ArchRepository handles database operations for arches and their memberships
type ArchRepository struct {
	db *pgxpool.Pool
}

// NewArchRepository creates a new arch repository
func NewArchRepository(db *pgxpool.Pool) *ArchRepository {
	return &ArchRepository{db: db}
}

func scanArch(row pgx.Row) (*models.Arch, error) {
	var a models.Arch
	err := row.Scan(
		&a.ID, &a.Name, &a.Description, &a.CreatorID, &a.InviteCode,
		&a.Settings.QuestionTime, &a.Settings.ResponseDeadline, &a.Settings.Timezone,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan arch: %w", err)
	}
	return &a, nil
}

// Create inserts the arch and its creator as the first admin member
func (r *ArchRepository) Create(ctx context.Context, arch *models.Arch) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO arches (`+archColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		arch.ID, arch.Name, arch.Description, arch.CreatorID, arch.InviteCode,
		arch.Settings.QuestionTime, arch.Settings.ResponseDeadline, arch.Settings.Timezone,
		arch.IsActive, arch.CreatedAt, arch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create arch: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO arch_members (arch_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)`,
		arch.ID, arch.CreatorID, models.RoleAdmin, arch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add creator membership: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *ArchRepository) loadMembers(ctx context.Context, archID string) ([]models.ArchMember, error) {
	rows, err := r.db.Query(ctx, `
		SELECT am.arch_id, am.user_id, u.name, u.avatar, am.role, am.joined_at, u.is_active
		FROM arch_members am
		JOIN users u ON u.id = am.user_id
		WHERE am.arch_id = $1
		ORDER BY am.joined_at`, archID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	defer rows.Close()

	var members []models.ArchMember
	for rows.Next() {
		var m models.ArchMember
		if err := rows.Scan(&m.ArchID, &m.UserID, &m.Name, &m.Avatar, &m.Role, &m.JoinedAt, &m.UserActive); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetByID retrieves an active arch with its member list
func (r *ArchRepository) GetByID(ctx context.Context, id string) (*models.Arch, error) {
	arch, err := scanArch(r.db.QueryRow(ctx,
		`SELECT `+archColumns+` FROM arches WHERE id = $1 AND is_active`, id))
	if err != nil {
		return nil, err
	}
	arch.Members, err = r.loadMembers(ctx, id)
	return arch, err
}

// GetByInviteCode retrieves an active arch by its invite code
func (r *ArchRepository) GetByInviteCode(ctx context.Context, code string) (*models.Arch, error) {
	arch, err := scanArch(r.db.QueryRow(ctx,
		`SELECT `+archColumns+` FROM arches WHERE invite_code = $1 AND is_active`, code))
	if err != nil {
		return nil, err
	}
	arch.Members, err = r.loadMembers(ctx, arch.ID)
	return arch, err
}

// ListForUser retrieves all active arches the user belongs to, members included
func (r *ArchRepository) ListForUser(ctx context.Context, userID string) ([]models.Arch, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+archColumns+` FROM arches a
		JOIN arch_members am ON am.arch_id = a.id
		WHERE am.user_id = $1 AND a.is_active
		ORDER BY a.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list arches: %w", err)
	}
	defer rows.Close()

	var arches []models.Arch
	for rows.Next() {
		a, err := scanArch(rows)
		if err != nil {
			return nil, err
		}
		arches = append(arches, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range arches {
		arches[i].Members, err = r.loadMembers(ctx, arches[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return arches, nil
}

// ListActive retrieves every active arch with members, for the scheduler
func (r *ArchRepository) ListActive(ctx context.Context) ([]models.Arch, error) {
	rows, err := r.db.Query(ctx, `SELECT `+archColumns+` FROM arches WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active arches: %w", err)
	}
	defer rows.Close()

	var arches []models.Arch
	for rows.Next() {
		a, err := scanArch(rows)
		if err != nil {
			return nil, err
		}
		arches = append(arches, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range arches {
		arches[i].Members, err = r.loadMembers(ctx, arches[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return arches, nil
}

// Membership returns the caller's role in an active arch, or ErrNotFound
func (r *ArchRepository) Membership(ctx context.Context, archID, userID string) (string, error) {
	var role string
	err := r.db.QueryRow(ctx, `
		SELECT am.role FROM arch_members am
		JOIN arches a ON a.id = am.arch_id
		WHERE am.arch_id = $1 AND am.user_id = $2 AND a.is_active`,
		archID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to look up membership: %w", err)
	}
	return role, nil
}

// AddMember adds a user to an arch
func (r *ArchRepository) AddMember(ctx context.Context, archID, userID, role string, joinedAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO arch_members (arch_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
		archID, userID, role, joinedAt)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from an arch
func (r *ArchRepository) RemoveMember(ctx context.Context, archID, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM arch_members WHERE arch_id = $1 AND user_id = $2`, archID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMemberRole changes a member's role
func (r *ArchRepository) UpdateMemberRole(ctx context.Context, archID, userID, role string) error {
	tag, err := r.db.Exec(ctx, `UPDATE arch_members SET role = $1 WHERE arch_id = $2 AND user_id = $3`,
		role, archID, userID)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Update persists name, description and settings changes
func (r *ArchRepository) Update(ctx context.Context, arch *models.Arch) error {
	_, err := r.db.Exec(ctx, `
		UPDATE arches SET name = $1, description = $2, question_time = $3,
			response_deadline = $4, timezone = $5, updated_at = $6
		WHERE id = $7`,
		arch.Name, arch.Description, arch.Settings.QuestionTime,
		arch.Settings.ResponseDeadline, arch.Settings.Timezone, arch.UpdatedAt, arch.ID)
	if err != nil {
		return fmt.Errorf("failed to update arch: %w", err)
	}
	return nil
}

// SetInviteCode replaces the arch's invite code
func (r *ArchRepository) SetInviteCode(ctx context.Context, archID, code string) error {
	_, err := r.db.Exec(ctx, `UPDATE arches SET invite_code = $1, updated_at = now() WHERE id = $2`, code, archID)
	if err != nil {
		return fmt.Errorf("failed to set invite code: %w", err)
	}
	return nil
}

// InviteCodeExists checks whether an invite code is already taken
func (r *ArchRepository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM arches WHERE invite_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check invite code: %w", err)
	}
	return exists, nil
}

// Deactivate soft-deletes an arch
func (r *ArchRepository) Deactivate(ctx context.Context, archID string) error {
	_, err := r.db.Exec(ctx, `UPDATE arches SET is_active = FALSE, updated_at = now() WHERE id = $1`, archID)
	if err != nil {
		return fmt.Errorf("failed to deactivate arch: %w", err)
	}
	return nil
}

// ActivityCounts returns content counts for an arch since a point in time
func (r *ArchRepository) ActivityCounts(ctx context.Context, archID string, since time.Time) (models.ArchActivity, error) {
	var act models.ArchActivity
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM daily_questions WHERE arch_id = $1 AND created_at >= $2),
			(SELECT count(*) FROM posts WHERE arch_id = $1 AND created_at >= $2 AND is_active),
			(SELECT count(*) FROM messages WHERE arch_id = $1 AND created_at >= $2 AND is_active)`,
		archID, since).Scan(&act.Questions, &act.Posts, &act.Messages)
	if err != nil {
		return act, fmt.Errorf("failed to count activity: %w", err)
	}
	return act, nil
}

// Stats returns lifetime content counts for an arch
func (r *ArchRepository) Stats(ctx context.Context, archID string) (models.ArchStats, error) {
	var st models.ArchStats
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM daily_questions WHERE arch_id = $1),
			(SELECT count(*) FROM posts WHERE arch_id = $1 AND is_active),
			(SELECT count(*) FROM messages WHERE arch_id = $1 AND is_active),
			(SELECT count(*) FROM get_togethers WHERE arch_id = $1),
			(SELECT count(*) FROM arch_members WHERE arch_id = $1)`,
		archID).Scan(&st.TotalQuestions, &st.TotalPosts, &st.TotalMessages, &st.TotalEvents, &st.MemberCount)
	if err != nil {
		return st, fmt.Errorf("failed to count arch stats: %w", err)
	}
	return st, nil
}
