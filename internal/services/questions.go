package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"the-arch-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// questionTemplates are substituted with the about-user's name
var questionTemplates = []string{
	"What's something you admire about {name} lately?",
	"How has {name} made you smile recently?",
	"What's one way {name} has supported you this week?",
	"What do you hope {name} knows about how much they mean to the family?",
	"What's a favorite memory you have with {name}?",
	"How has {name} grown or changed in a positive way recently?",
	"What's something {name} does that makes you proud?",
	"What would you like to thank {name} for?",
	"What's a quality of {name}'s that you really appreciate?",
	"How does {name} make family gatherings better?",
	"What's something you've learned from {name}?",
	"What's your favorite thing about {name}'s personality?",
}

// QuestionService handles the daily-question lifecycle
type QuestionService struct {
	questionStore QuestionStore
	archStore     ArchStore
	notifier      *NotificationService
	retention     time.Duration
	now           func() time.Time
	rng           *rand.Rand
}

// NewQuestionService creates a new question service
func NewQuestionService(questionStore QuestionStore, archStore ArchStore, notifier *NotificationService, retentionDays int) *QuestionService {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &QuestionService{
		questionStore: questionStore,
		archStore:     archStore,
		notifier:      notifier,
		retention:     time.Duration(retentionDays) * 24 * time.Hour,
		now:           time.Now,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// archLocation resolves an arch's timezone, falling back to UTC
func archLocation(arch *models.Arch) *time.Location {
	loc, err := time.LoadLocation(arch.Settings.Timezone)
	if err != nil {
		log.Warn().Str("arch_id", arch.ID).Str("tz", arch.Settings.Timezone).Msg("Unknown arch timezone, using UTC")
		return time.UTC
	}
	return loc
}

// dayStart truncates t to midnight in loc
func dayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// atClock returns day with the HH:MM clock value applied in day's location
func atClock(day time.Time, clock string) time.Time {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		parsed, _ = time.Parse("15:04", "17:00")
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location())
}

// CreateDailyQuestions generates today's questions for every active arch.
// Arches that already have a question for their local today are skipped, as
// are arches with fewer than two active members. Per-arch failures are logged
// and the loop continues.
func (s *QuestionService) CreateDailyQuestions(ctx context.Context) error {
	now := s.now()
	arches, err := s.archStore.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active arches: %w", err)
	}

	created := 0
	for i := range arches {
		n, err := s.createForArch(ctx, &arches[i], now)
		if err != nil {
			log.Error().Err(err).Str("arch_id", arches[i].ID).Msg("Failed to create daily questions for arch")
			continue
		}
		created += n
	}

	log.Info().Int("questions", created).Int("arches", len(arches)).Msg("Daily question creation finished")
	return nil
}

func (s *QuestionService) createForArch(ctx context.Context, arch *models.Arch, now time.Time) (int, error) {
	loc := archLocation(arch)
	today := dayStart(now, loc)

	exists, err := s.questionStore.ExistsForArchOn(ctx, arch.ID, today)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing questions: %w", err)
	}
	if exists {
		return 0, nil
	}

	members := arch.ActiveMembers()
	if len(members) < 2 {
		return 0, nil
	}

	deadline := atClock(today, arch.Settings.ResponseDeadline)

	created := 0
	for _, asker := range members {
		others := make([]models.ArchMember, 0, len(members)-1)
		for _, m := range members {
			if m.UserID != asker.UserID {
				others = append(others, m)
			}
		}
		about := others[s.rng.Intn(len(others))]
		template := questionTemplates[s.rng.Intn(len(questionTemplates))]

		q := &models.DailyQuestion{
			ID:          uuid.New().String(),
			ArchID:      arch.ID,
			Date:        today,
			AskerID:     asker.UserID,
			AboutUserID: about.UserID,
			Question:    strings.ReplaceAll(template, "{name}", about.Name),
			Deadline:    deadline,
			CreatedAt:   now,
		}
		if err := s.questionStore.Create(ctx, q); err != nil {
			return created, fmt.Errorf("failed to create question: %w", err)
		}
		created++

		s.notifier.NotifyUser(ctx, asker.UserID, Notification{
			Type:  NotifyDailyQuestion,
			Title: "Today's question",
			Body:  q.Question,
			Data:  map[string]string{"question_id": q.ID, "arch_id": arch.ID},
		})
	}
	return created, nil
}

// Respond records the asker's answer. Resubmitting before the deadline
// overwrites the previous answer.
func (s *QuestionService) Respond(ctx context.Context, questionID, userID, text string, shareWithArch bool) (*models.Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: response text is required", ErrInvalidInput)
	}
	return s.submit(ctx, questionID, userID, text, false, shareWithArch)
}

// Pass records that the asker declined to answer
func (s *QuestionService) Pass(ctx context.Context, questionID, userID string) (*models.Response, error) {
	return s.submit(ctx, questionID, userID, "", true, false)
}

func (s *QuestionService) submit(ctx context.Context, questionID, userID, text string, passed, shareWithArch bool) (*models.Response, error) {
	q, err := s.questionStore.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	if q.AskerID != userID {
		return nil, ErrNotAuthorized
	}
	if s.now().After(q.Deadline) {
		return nil, ErrDeadlinePassed
	}

	resp := &models.Response{
		ID:             uuid.New().String(),
		QuestionID:     q.ID,
		UserID:         userID,
		Response:       text,
		Passed:         passed,
		SharedWithArch: shareWithArch && !passed,
		SubmittedAt:    s.now(),
	}
	if err := s.questionStore.UpsertResponse(ctx, resp); err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}
	return resp, nil
}

// Retract withdraws the asker's response before the deadline
func (s *QuestionService) Retract(ctx context.Context, questionID, userID string) error {
	q, err := s.questionStore.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load question: %w", err)
	}
	if q.AskerID != userID {
		return ErrNotAuthorized
	}
	if s.now().After(q.Deadline) {
		return ErrDeadlinePassed
	}

	err = s.questionStore.DeleteResponse(ctx, questionID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete response: %w", err)
	}
	return nil
}

// ProcessDailyQuestions marks every question past its deadline processed and
// notifies the about-user when a real answer exists. The processed flag flips
// exactly once even if runs overlap.
func (s *QuestionService) ProcessDailyQuestions(ctx context.Context) error {
	now := s.now()
	due, err := s.questionStore.ListDue(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list due questions: %w", err)
	}

	processed := 0
	for _, q := range due {
		flipped, err := s.questionStore.MarkProcessed(ctx, q.ID)
		if err != nil {
			log.Error().Err(err).Str("question_id", q.ID).Msg("Failed to mark question processed")
			continue
		}
		if !flipped {
			continue
		}
		processed++

		resp := q.ResponseFrom(q.AskerID)
		if resp != nil && !resp.Passed && resp.Response != "" {
			s.notifier.NotifyUser(ctx, q.AboutUserID, Notification{
				Type:  NotifyResponseShared,
				Title: "Someone answered a question about you",
				Body:  fmt.Sprintf("%s shared thoughts about you today", q.AskerName),
				Data:  map[string]string{"question_id": q.ID, "arch_id": q.ArchID},
			})
		}
	}

	log.Info().Int("processed", processed).Int("due", len(due)).Msg("Daily question processing finished")
	return nil
}

// SendReminders nudges askers who have not answered a question due within the
// window. Each question reminds at most once.
func (s *QuestionService) SendReminders(ctx context.Context, window time.Duration) error {
	now := s.now()
	pending, err := s.questionStore.ListNeedingReminder(ctx, now, now.Add(window))
	if err != nil {
		return fmt.Errorf("failed to list questions needing reminders: %w", err)
	}

	for _, q := range pending {
		if err := s.questionStore.MarkReminderSent(ctx, q.ID); err != nil {
			log.Error().Err(err).Str("question_id", q.ID).Msg("Failed to mark reminder sent")
			continue
		}
		minutes := int(q.Deadline.Sub(now).Minutes())
		s.notifier.NotifyUser(ctx, q.AskerID, Notification{
			Type:  NotifyQuestionReminder,
			Title: "Don't forget today's question",
			Body:  fmt.Sprintf("%d minutes left to answer: %s", minutes, q.Question),
			Data:  map[string]string{"question_id": q.ID, "arch_id": q.ArchID},
		})
	}

	log.Info().Int("reminded", len(pending)).Msg("Question reminders finished")
	return nil
}

// CleanupOldQuestions deletes processed questions older than the retention period
func (s *QuestionService) CleanupOldQuestions(ctx context.Context) error {
	cutoff := s.now().Add(-s.retention)
	deleted, err := s.questionStore.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old questions: %w", err)
	}
	log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Question cleanup finished")
	return nil
}

// Share marks a response visible in the arch feed. Only the user the question
// is about may share, and only once.
func (s *QuestionService) Share(ctx context.Context, responseID, userID string) (*models.DailyQuestion, error) {
	q, err := s.questionStore.GetByResponseID(ctx, responseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load response: %w", err)
	}
	if q.AboutUserID != userID {
		return nil, ErrNotAuthorized
	}

	var resp *models.Response
	for i := range q.Responses {
		if q.Responses[i].ID == responseID {
			resp = &q.Responses[i]
			break
		}
	}
	if resp == nil {
		return nil, ErrNotFound
	}
	if resp.Passed {
		return nil, fmt.Errorf("%w: a passed question cannot be shared", ErrInvalidInput)
	}
	if resp.SharedWithArch {
		return nil, ErrAlreadyShared
	}

	if err := s.questionStore.MarkShared(ctx, responseID); err != nil {
		return nil, fmt.Errorf("failed to share response: %w", err)
	}
	resp.SharedWithArch = true
	return q, nil
}

// QuestionToday is a question annotated with its derived status
type QuestionToday struct {
	Question         models.DailyQuestion `json:"question"`
	Status           string               `json:"status"`
	MinutesRemaining int                  `json:"minutes_remaining"`
}

// TodayForAsker returns today's questions where the caller is the asker
func (s *QuestionService) TodayForAsker(ctx context.Context, userID string) ([]QuestionToday, error) {
	now := s.now()
	questions, err := s.questionStore.ListForAskerOn(ctx, userID, dayStart(now, time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to list today's questions: %w", err)
	}

	out := make([]QuestionToday, 0, len(questions))
	for _, q := range questions {
		out = append(out, QuestionToday{
			Question:         q,
			Status:           q.Status(now),
			MinutesRemaining: q.MinutesRemaining(now),
		})
	}
	return out, nil
}

// AboutMeToday returns today's questions the caller is the subject of
func (s *QuestionService) AboutMeToday(ctx context.Context, userID string) ([]models.DailyQuestion, error) {
	questions, err := s.questionStore.ListAboutUserOn(ctx, userID, dayStart(s.now(), time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to list questions about user: %w", err)
	}
	return questions, nil
}

// ForArch lists an arch's questions newest first, member-gated by the caller
func (s *QuestionService) ForArch(ctx context.Context, archID, userID string) ([]models.DailyQuestion, error) {
	if _, err := s.requireMember(ctx, archID, userID); err != nil {
		return nil, err
	}
	return s.questionStore.ListForArch(ctx, archID)
}

// Get returns one question, visible to arch members
func (s *QuestionService) Get(ctx context.Context, questionID, userID string) (*models.DailyQuestion, error) {
	q, err := s.questionStore.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	if q.AskerID != userID && q.AboutUserID != userID {
		if _, err := s.requireMember(ctx, q.ArchID, userID); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// ArchStats summarizes today's counts and the current week's completion rate
func (s *QuestionService) ArchStats(ctx context.Context, archID, userID string) (*models.QuestionArchStats, error) {
	if _, err := s.requireMember(ctx, archID, userID); err != nil {
		return nil, err
	}

	now := s.now()
	today := dayStart(now, time.UTC)
	questions, responses, err := s.questionStore.ArchCountsOn(ctx, archID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load today's counts: %w", err)
	}

	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	asked, answered, err := s.questionStore.WeekCompletion(ctx, archID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load week completion: %w", err)
	}

	arch, err := s.archStore.GetByID(ctx, archID)
	if err != nil {
		return nil, fmt.Errorf("failed to load arch: %w", err)
	}

	stats := &models.QuestionArchStats{
		TodayQuestions:  questions,
		TodayResponses:  responses,
		ArchMemberCount: len(arch.ActiveMembers()),
	}
	if asked > 0 {
		stats.WeeklyCompletionRate = answered * 100 / asked
	}
	return stats, nil
}

// History pages through the caller's past responses
func (s *QuestionService) History(ctx context.Context, userID, archID string, limit, offset int) ([]models.ResponseHistoryItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.questionStore.History(ctx, userID, archID, limit, offset)
}

// UserStats summarizes the caller's response behavior over the last 30 days
func (s *QuestionService) UserStats(ctx context.Context, userID, archID string) (models.ResponseUserStats, error) {
	since := s.now().AddDate(0, 0, -30)
	return s.questionStore.UserStats(ctx, userID, archID, since)
}

func (s *QuestionService) requireMember(ctx context.Context, archID, userID string) (string, error) {
	return membership(ctx, s.archStore, archID, userID)
}
