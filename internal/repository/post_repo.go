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

const postColumns = `p.id, p.arch_id, p.author_id, u.name, p.content, p.post_type,
	p.meta_question_id, p.meta_response_id, p.meta_question, p.meta_about_user_id,
	p.is_active, p.created_at`

// PostRepository handles database operations for feed posts
type PostRepository struct {
	db *pgxpool.Pool
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	var metaQuestionID, metaResponseID, metaQuestion, metaAboutUserID *string
	err := row.Scan(
		&p.ID, &p.ArchID, &p.AuthorID, &p.AuthorName, &p.Content, &p.Type,
		&metaQuestionID, &metaResponseID, &metaQuestion, &metaAboutUserID,
		&p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}
	if metaQuestionID != nil {
		p.Meta = &models.ResponseMeta{
			QuestionID: *metaQuestionID,
		}
		if metaResponseID != nil {
			p.Meta.ResponseID = *metaResponseID
		}
		if metaQuestion != nil {
			p.Meta.Question = *metaQuestion
		}
		if metaAboutUserID != nil {
			p.Meta.AboutUserID = *metaAboutUserID
		}
	}
	return &p, nil
}

func (r *PostRepository) loadChildren(ctx context.Context, p *models.Post) error {
	mediaRows, err := r.db.Query(ctx,
		`SELECT media_type, url, thumbnail FROM post_media WHERE post_id = $1`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load media: %w", err)
	}
	defer mediaRows.Close()
	for mediaRows.Next() {
		var m models.Media
		if err := mediaRows.Scan(&m.Type, &m.URL, &m.Thumbnail); err != nil {
			return fmt.Errorf("failed to scan media: %w", err)
		}
		p.Media = append(p.Media, m)
	}
	if err := mediaRows.Err(); err != nil {
		return err
	}

	likeRows, err := r.db.Query(ctx,
		`SELECT post_id, user_id, liked_at FROM post_likes WHERE post_id = $1 ORDER BY liked_at`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load likes: %w", err)
	}
	defer likeRows.Close()
	p.Likes = []models.Like{}
	for likeRows.Next() {
		var l models.Like
		if err := likeRows.Scan(&l.PostID, &l.UserID, &l.LikedAt); err != nil {
			return fmt.Errorf("failed to scan like: %w", err)
		}
		p.Likes = append(p.Likes, l)
	}
	if err := likeRows.Err(); err != nil {
		return err
	}

	commentRows, err := r.db.Query(ctx, `
		SELECT c.id, c.post_id, c.user_id, u.name, c.content, c.created_at
		FROM post_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1 ORDER BY c.created_at`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}
	defer commentRows.Close()
	p.Comments = []models.Comment{}
	for commentRows.Next() {
		var c models.Comment
		if err := commentRows.Scan(&c.ID, &c.PostID, &c.UserID, &c.UserName, &c.Content, &c.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan comment: %w", err)
		}
		p.Comments = append(p.Comments, c)
	}
	return commentRows.Err()
}

// Create inserts a post and its media attachments
func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var metaQuestionID, metaResponseID, metaQuestion, metaAboutUserID *string
	if p.Meta != nil {
		metaQuestionID = &p.Meta.QuestionID
		metaResponseID = &p.Meta.ResponseID
		metaQuestion = &p.Meta.Question
		metaAboutUserID = &p.Meta.AboutUserID
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO posts (id, arch_id, author_id, content, post_type,
			meta_question_id, meta_response_id, meta_question, meta_about_user_id,
			is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.ArchID, p.AuthorID, p.Content, p.Type,
		metaQuestionID, metaResponseID, metaQuestion, metaAboutUserID,
		p.IsActive, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	for _, m := range p.Media {
		_, err = tx.Exec(ctx,
			`INSERT INTO post_media (post_id, media_type, url, thumbnail) VALUES ($1, $2, $3, $4)`,
			p.ID, m.Type, m.URL, m.Thumbnail)
		if err != nil {
			return fmt.Errorf("failed to attach media: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves an active post with likes, comments and media
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	p, err := scanPost(r.db.QueryRow(ctx, `
		SELECT `+postColumns+` FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1 AND p.is_active`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListForArch pages through an arch's active posts, newest first
func (r *PostRepository) ListForArch(ctx context.Context, archID string, offset, limit int) ([]models.Post, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+postColumns+` FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.arch_id = $1 AND p.is_active
		ORDER BY p.created_at DESC
		OFFSET $2 LIMIT $3`, archID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range posts {
		if err := r.loadChildren(ctx, &posts[i]); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// ListRecent retrieves active posts created since a point in time
func (r *PostRepository) ListRecent(ctx context.Context, archID string, since time.Time, limit int) ([]models.Post, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+postColumns+` FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.arch_id = $1 AND p.is_active AND p.created_at >= $2
		ORDER BY p.created_at DESC
		LIMIT $3`, archID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range posts {
		if err := r.loadChildren(ctx, &posts[i]); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// HasLike reports whether a user has liked a post
func (r *PostRepository) HasLike(ctx context.Context, postID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`,
		postID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return exists, nil
}

// AddLike records a like; the composite key keeps it unique per user
func (r *PostRepository) AddLike(ctx context.Context, like *models.Like) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO post_likes (post_id, user_id, liked_at) VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO NOTHING`,
		like.PostID, like.UserID, like.LikedAt)
	if err != nil {
		return fmt.Errorf("failed to add like: %w", err)
	}
	return nil
}

// RemoveLike removes a user's like
func (r *PostRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove like: %w", err)
	}
	return nil
}

// CountLikes returns the number of likes on a post
func (r *PostRepository) CountLikes(ctx context.Context, postID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return n, nil
}

// AddComment appends a comment to a post
func (r *PostRepository) AddComment(ctx context.Context, c *models.Comment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO post_comments (id, post_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.PostID, c.UserID, c.Content, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

// SoftDelete marks a post inactive
func (r *PostRepository) SoftDelete(ctx context.Context, postID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE posts SET is_active = FALSE WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
