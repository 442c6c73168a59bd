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

const eventColumns = `g.id, g.arch_id, g.creator_id, u.name, g.title, g.description,
	g.event_type, g.scheduled_for, g.location, g.virtual_link, g.status, g.created_at`

// GetTogetherRepository handles database operations for get-togethers
type GetTogetherRepository struct {
	db *pgxpool.Pool
}

// NewGetTogetherRepository creates a new get-together repository
func NewGetTogetherRepository(db *pgxpool.Pool) *GetTogetherRepository {
	return &GetTogetherRepository{db: db}
}

func scanEvent(row pgx.Row) (*models.GetTogether, error) {
	var g models.GetTogether
	err := row.Scan(
		&g.ID, &g.ArchID, &g.CreatorID, &g.CreatorName, &g.Title, &g.Description,
		&g.Type, &g.ScheduledFor, &g.Location, &g.VirtualLink, &g.Status, &g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan get-together: %w", err)
	}
	return &g, nil
}

func (r *GetTogetherRepository) loadChildren(ctx context.Context, g *models.GetTogether) error {
	invRows, err := r.db.Query(ctx, `
		SELECT i.event_id, i.user_id, u.name, i.status, i.responded_at
		FROM event_invitees i
		JOIN users u ON u.id = i.user_id
		WHERE i.event_id = $1`, g.ID)
	if err != nil {
		return fmt.Errorf("failed to load invitees: %w", err)
	}
	defer invRows.Close()
	g.Invitees = []models.Invitee{}
	for invRows.Next() {
		var inv models.Invitee
		if err := invRows.Scan(&inv.EventID, &inv.UserID, &inv.UserName, &inv.Status, &inv.RespondedAt); err != nil {
			return fmt.Errorf("failed to scan invitee: %w", err)
		}
		g.Invitees = append(g.Invitees, inv)
	}
	if err := invRows.Err(); err != nil {
		return err
	}

	tlRows, err := r.db.Query(ctx, `
		SELECT t.id, t.event_id, t.user_id, u.name, t.entry_type, t.content, t.media_url, t.thumbnail, t.created_at
		FROM event_timeline t
		JOIN users u ON u.id = t.user_id
		WHERE t.event_id = $1
		ORDER BY t.created_at`, g.ID)
	if err != nil {
		return fmt.Errorf("failed to load timeline: %w", err)
	}
	defer tlRows.Close()
	g.Timeline = []models.TimelineEntry{}
	for tlRows.Next() {
		var e models.TimelineEntry
		var mediaURL, thumbnail string
		if err := tlRows.Scan(&e.ID, &e.EventID, &e.UserID, &e.UserName, &e.Type, &e.Content,
			&mediaURL, &thumbnail, &e.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		if mediaURL != "" {
			e.Media = []models.Media{{Type: e.Type, URL: mediaURL, Thumbnail: thumbnail}}
		}
		g.Timeline = append(g.Timeline, e)
	}
	return tlRows.Err()
}

// Create inserts a get-together and its invitee list
func (r *GetTogetherRepository) Create(ctx context.Context, g *models.GetTogether) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO get_togethers (id, arch_id, creator_id, title, description,
			event_type, scheduled_for, location, virtual_link, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		g.ID, g.ArchID, g.CreatorID, g.Title, g.Description,
		g.Type, g.ScheduledFor, g.Location, g.VirtualLink, g.Status, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create get-together: %w", err)
	}

	for _, inv := range g.Invitees {
		_, err = tx.Exec(ctx, `
			INSERT INTO event_invitees (event_id, user_id, status) VALUES ($1, $2, $3)`,
			g.ID, inv.UserID, inv.Status)
		if err != nil {
			return fmt.Errorf("failed to add invitee: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a get-together with invitees and timeline
func (r *GetTogetherRepository) GetByID(ctx context.Context, id string) (*models.GetTogether, error) {
	g, err := scanEvent(r.db.QueryRow(ctx, `
		SELECT `+eventColumns+` FROM get_togethers g
		JOIN users u ON u.id = g.creator_id
		WHERE g.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// List retrieves get-togethers across a set of arches, optionally filtered,
// soonest first
func (r *GetTogetherRepository) List(ctx context.Context, archIDs []string, status string, upcomingAfter *time.Time) ([]models.GetTogether, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+eventColumns+` FROM get_togethers g
		JOIN users u ON u.id = g.creator_id
		WHERE g.arch_id = ANY($1)
		  AND ($2 = '' OR g.status = $2)
		  AND ($3::timestamptz IS NULL OR g.scheduled_for >= $3)
		ORDER BY g.scheduled_for`, archIDs, status, upcomingAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to list get-togethers: %w", err)
	}
	defer rows.Close()

	var events []models.GetTogether
	for rows.Next() {
		g, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range events {
		if err := r.loadChildren(ctx, &events[i]); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// ListRecent retrieves get-togethers created since a point in time
func (r *GetTogetherRepository) ListRecent(ctx context.Context, archID string, since time.Time, limit int) ([]models.GetTogether, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+eventColumns+` FROM get_togethers g
		JOIN users u ON u.id = g.creator_id
		WHERE g.arch_id = $1 AND g.created_at >= $2
		ORDER BY g.created_at DESC
		LIMIT $3`, archID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent get-togethers: %w", err)
	}
	defer rows.Close()

	var events []models.GetTogether
	for rows.Next() {
		g, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range events {
		if err := r.loadChildren(ctx, &events[i]); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// Update persists editable fields
func (r *GetTogetherRepository) Update(ctx context.Context, g *models.GetTogether) error {
	_, err := r.db.Exec(ctx, `
		UPDATE get_togethers SET title = $1, description = $2, event_type = $3,
			scheduled_for = $4, location = $5, virtual_link = $6, status = $7
		WHERE id = $8`,
		g.Title, g.Description, g.Type, g.ScheduledFor, g.Location, g.VirtualLink, g.Status, g.ID)
	if err != nil {
		return fmt.Errorf("failed to update get-together: %w", err)
	}
	return nil
}

// Delete hard-deletes a get-together; children cascade
func (r *GetTogetherRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM get_togethers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete get-together: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRSVP records an invitee's response; ErrNotFound when not invited
func (r *GetTogetherRepository) UpdateRSVP(ctx context.Context, eventID, userID, status string, respondedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE event_invitees SET status = $1, responded_at = $2
		WHERE event_id = $3 AND user_id = $4`,
		status, respondedAt, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to update rsvp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddTimelineEntry appends a note, photo or video to the event timeline
func (r *GetTogetherRepository) AddTimelineEntry(ctx context.Context, e *models.TimelineEntry) error {
	var mediaURL, thumbnail string
	if len(e.Media) > 0 {
		mediaURL = e.Media[0].URL
		thumbnail = e.Media[0].Thumbnail
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_timeline (id, event_id, user_id, entry_type, content, media_url, thumbnail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.EventID, e.UserID, e.Type, e.Content, mediaURL, thumbnail, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add timeline entry: %w", err)
	}
	return nil
}
