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

const questionColumns = `q.id, q.arch_id, a.name, q.question_date, q.asker_id, asker.name,
	q.about_user_id, about_u.name, q.question, q.deadline, q.processed, q.reminder_sent, q.created_at`

const questionJoins = `
	FROM daily_questions q
	JOIN arches a ON a.id = q.arch_id
	JOIN users asker ON asker.id = q.asker_id
	JOIN users about_u ON about_u.id = q.about_user_id`

// QuestionRepository handles database operations for daily questions and responses
type QuestionRepository struct {
	db *pgxpool.Pool
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func scanQuestion(row pgx.Row) (*models.DailyQuestion, error) {
	var q models.DailyQuestion
	err := row.Scan(
		&q.ID, &q.ArchID, &q.ArchName, &q.Date, &q.AskerID, &q.AskerName,
		&q.AboutUserID, &q.AboutUserName, &q.Question, &q.Deadline,
		&q.Processed, &q.ReminderSent, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan question: %w", err)
	}
	return &q, nil
}

func (r *QuestionRepository) loadResponses(ctx context.Context, questionID string) ([]models.Response, error) {
	rows, err := r.db.Query(ctx, `
		SELECT qr.id, qr.question_id, qr.user_id, u.name, qr.response, qr.passed,
			qr.shared_with_arch, qr.submitted_at
		FROM question_responses qr
		JOIN users u ON u.id = qr.user_id
		WHERE qr.question_id = $1
		ORDER BY qr.submitted_at`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	defer rows.Close()

	var responses []models.Response
	for rows.Next() {
		var resp models.Response
		if err := rows.Scan(&resp.ID, &resp.QuestionID, &resp.UserID, &resp.UserName,
			&resp.Response, &resp.Passed, &resp.SharedWithArch, &resp.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

func (r *QuestionRepository) queryQuestions(ctx context.Context, sql string, args ...any) ([]models.DailyQuestion, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []models.DailyQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].Responses, err = r.loadResponses(ctx, questions[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return questions, nil
}

// Create inserts a new daily question
func (r *QuestionRepository) Create(ctx context.Context, q *models.DailyQuestion) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO daily_questions (id, arch_id, question_date, asker_id, about_user_id,
			question, deadline, processed, reminder_sent, created_at)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10)`,
		q.ID, q.ArchID, q.Date, q.AskerID, q.AboutUserID,
		q.Question, q.Deadline, q.Processed, q.ReminderSent, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// GetByID retrieves a question with its responses
func (r *QuestionRepository) GetByID(ctx context.Context, id string) (*models.DailyQuestion, error) {
	q, err := scanQuestion(r.db.QueryRow(ctx,
		`SELECT `+questionColumns+questionJoins+` WHERE q.id = $1`, id))
	if err != nil {
		return nil, err
	}
	q.Responses, err = r.loadResponses(ctx, id)
	return q, err
}

// GetByResponseID retrieves the question owning a response, responses included
func (r *QuestionRepository) GetByResponseID(ctx context.Context, responseID string) (*models.DailyQuestion, error) {
	q, err := scanQuestion(r.db.QueryRow(ctx, `
		SELECT `+questionColumns+questionJoins+`
		JOIN question_responses qr ON qr.question_id = q.id
		WHERE qr.id = $1`, responseID))
	if err != nil {
		return nil, err
	}
	q.Responses, err = r.loadResponses(ctx, q.ID)
	return q, err
}

// ExistsForArchOn reports whether the arch already has questions for a date.
// This is the arch-granular idempotency guard for the creation job.
func (r *QuestionRepository) ExistsForArchOn(ctx context.Context, archID string, date time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM daily_questions WHERE arch_id = $1 AND question_date = $2::date)`,
		archID, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing questions: %w", err)
	}
	return exists, nil
}

// UpsertResponse inserts or overwrites the caller's response. The unique
// (question_id, user_id) constraint keeps one response per user; on overwrite
// the row keeps its original id, which is written back into resp.
func (r *QuestionRepository) UpsertResponse(ctx context.Context, resp *models.Response) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO question_responses (id, question_id, user_id, response, passed, shared_with_arch, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (question_id, user_id) DO UPDATE
		SET response = EXCLUDED.response, passed = EXCLUDED.passed,
			shared_with_arch = EXCLUDED.shared_with_arch, submitted_at = EXCLUDED.submitted_at
		RETURNING id`,
		resp.ID, resp.QuestionID, resp.UserID, resp.Response, resp.Passed, resp.SharedWithArch, resp.SubmittedAt).Scan(&resp.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert response: %w", err)
	}
	return nil
}

// DeleteResponse removes a user's response to a question
func (r *QuestionRepository) DeleteResponse(ctx context.Context, questionID, userID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM question_responses WHERE question_id = $1 AND user_id = $2`, questionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete response: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkShared flips a response's shared flag
func (r *QuestionRepository) MarkShared(ctx context.Context, responseID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE question_responses SET shared_with_arch = TRUE WHERE id = $1`, responseID)
	if err != nil {
		return fmt.Errorf("failed to mark response shared: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDue retrieves unprocessed questions whose deadline has passed
func (r *QuestionRepository) ListDue(ctx context.Context, now time.Time) ([]models.DailyQuestion, error) {
	return r.queryQuestions(ctx,
		`SELECT `+questionColumns+questionJoins+` WHERE NOT q.processed AND q.deadline <= $1`, now)
}

// MarkProcessed flips processed to true exactly once; reports whether this
// call did the flip.
func (r *QuestionRepository) MarkProcessed(ctx context.Context, questionID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE daily_questions SET processed = TRUE WHERE id = $1 AND NOT processed`, questionID)
	if err != nil {
		return false, fmt.Errorf("failed to mark processed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListForAskerOn retrieves a user's questions for one date
func (r *QuestionRepository) ListForAskerOn(ctx context.Context, userID string, date time.Time) ([]models.DailyQuestion, error) {
	return r.queryQuestions(ctx,
		`SELECT `+questionColumns+questionJoins+` WHERE q.asker_id = $1 AND q.question_date = $2::date`,
		userID, date)
}

// ListAboutUserOn retrieves questions about a user for one date
func (r *QuestionRepository) ListAboutUserOn(ctx context.Context, userID string, date time.Time) ([]models.DailyQuestion, error) {
	return r.queryQuestions(ctx,
		`SELECT `+questionColumns+questionJoins+` WHERE q.about_user_id = $1 AND q.question_date = $2::date`,
		userID, date)
}

// ListForArch retrieves all of an arch's questions, newest first
func (r *QuestionRepository) ListForArch(ctx context.Context, archID string) ([]models.DailyQuestion, error) {
	return r.queryQuestions(ctx,
		`SELECT `+questionColumns+questionJoins+` WHERE q.arch_id = $1 ORDER BY q.question_date DESC, q.created_at DESC`,
		archID)
}

// ListSharedOn retrieves questions for a date that have at least one shared,
// non-passed response. Used by the feed aggregator.
func (r *QuestionRepository) ListSharedOn(ctx context.Context, archID string, date time.Time) ([]models.DailyQuestion, error) {
	return r.queryQuestions(ctx, `
		SELECT `+questionColumns+questionJoins+`
		WHERE q.arch_id = $1 AND q.question_date = $2::date
		  AND EXISTS (
			SELECT 1 FROM question_responses qr
			WHERE qr.question_id = q.id AND qr.shared_with_arch AND NOT qr.passed
		  )`, archID, date)
}

// ListNeedingReminder retrieves unprocessed, unreminded questions due within
// the window whose asker has not submitted anything yet
func (r *QuestionRepository) ListNeedingReminder(ctx context.Context, now, until time.Time) ([]models.DailyQuestion, error) {
	return r.queryQuestions(ctx, `
		SELECT `+questionColumns+questionJoins+`
		WHERE NOT q.processed AND NOT q.reminder_sent
		  AND q.deadline > $1 AND q.deadline <= $2
		  AND NOT EXISTS (
			SELECT 1 FROM question_responses qr
			WHERE qr.question_id = q.id AND qr.user_id = q.asker_id
		  )`, now, until)
}

// MarkReminderSent records that the asker has been reminded
func (r *QuestionRepository) MarkReminderSent(ctx context.Context, questionID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE daily_questions SET reminder_sent = TRUE WHERE id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

// DeleteProcessedBefore removes processed questions older than the cutoff
func (r *QuestionRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM daily_questions WHERE processed AND question_date < $1::date`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old questions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ArchCountsOn returns question and non-passed response counts for one date
func (r *QuestionRepository) ArchCountsOn(ctx context.Context, archID string, date time.Time) (questions, responses int, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM daily_questions WHERE arch_id = $1 AND question_date = $2::date),
			(SELECT count(*) FROM question_responses qr
			 JOIN daily_questions q ON q.id = qr.question_id
			 WHERE q.arch_id = $1 AND q.question_date = $2::date AND NOT qr.passed)`,
		archID, date).Scan(&questions, &responses)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count arch questions: %w", err)
	}
	return questions, responses, nil
}

// WeekCompletion returns how many questions were asked since weekStart and how
// many of them the asker answered (non-passed)
func (r *QuestionRepository) WeekCompletion(ctx context.Context, archID string, weekStart time.Time) (asked, answered int, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE EXISTS (
				SELECT 1 FROM question_responses qr
				WHERE qr.question_id = q.id AND qr.user_id = q.asker_id AND NOT qr.passed
			))
		FROM daily_questions q
		WHERE q.arch_id = $1 AND q.question_date >= $2::date`,
		archID, weekStart).Scan(&asked, &answered)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute week completion: %w", err)
	}
	return asked, answered, nil
}

// History pages through a user's past responses, newest first
func (r *QuestionRepository) History(ctx context.Context, userID, archID string, limit, offset int) ([]models.ResponseHistoryItem, error) {
	sql := `
		SELECT q.id, q.question, q.arch_id, a.name, about_u.name,
			qr.response, qr.passed, qr.shared_with_arch, qr.submitted_at
		FROM question_responses qr
		JOIN daily_questions q ON q.id = qr.question_id
		JOIN arches a ON a.id = q.arch_id
		JOIN users about_u ON about_u.id = q.about_user_id
		WHERE qr.user_id = $1 AND ($2 = '' OR q.arch_id = $2)
		ORDER BY qr.submitted_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(ctx, sql, userID, archID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load response history: %w", err)
	}
	defer rows.Close()

	var items []models.ResponseHistoryItem
	for rows.Next() {
		var it models.ResponseHistoryItem
		if err := rows.Scan(&it.QuestionID, &it.Question, &it.ArchID, &it.ArchName,
			&it.AboutUserName, &it.Response, &it.Passed, &it.Shared, &it.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UserStats summarizes a user's answer rate since a date
func (r *QuestionRepository) UserStats(ctx context.Context, userID, archID string, since time.Time) (models.ResponseUserStats, error) {
	var st models.ResponseUserStats
	err := r.db.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE EXISTS (
				SELECT 1 FROM question_responses qr
				WHERE qr.question_id = q.id AND qr.user_id = q.asker_id
			))
		FROM daily_questions q
		WHERE q.asker_id = $1 AND ($2 = '' OR q.arch_id = $2) AND q.question_date >= $3::date`,
		userID, archID, since).Scan(&st.TotalQuestions, &st.QuestionsAnswered)
	if err != nil {
		return st, fmt.Errorf("failed to compute user stats: %w", err)
	}
	if st.TotalQuestions > 0 {
		st.ResponseRate = st.QuestionsAnswered * 100 / st.TotalQuestions
	}
	return st, nil
}
