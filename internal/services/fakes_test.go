package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"the-arch-backend/internal/models"
	"the-arch-backend/internal/repository"
)

// In-memory store fakes used across the service tests. They mirror the SQL
// repositories' semantics closely enough for lifecycle and rule testing.

type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok || !u.IsActive {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.IsActive {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserStore) UpdateNotificationSettings(_ context.Context, userID string, ns models.NotificationSettings) error {
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Notifications = ns
	return nil
}

func (f *fakeUserStore) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PushToken = pushToken
	return nil
}

func (f *fakeUserStore) Deactivate(_ context.Context, userID, rewrittenEmail string) error {
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = false
	u.Email = rewrittenEmail
	u.PushToken = nil
	return nil
}

func (f *fakeUserStore) SearchInArch(_ context.Context, archID, query string, limit int) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if u.IsActive && strings.Contains(strings.ToLower(u.Name), strings.ToLower(query)) {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeArchStore struct {
	arches map[string]*models.Arch
}

func newFakeArchStore() *fakeArchStore {
	return &fakeArchStore{arches: make(map[string]*models.Arch)}
}

func (f *fakeArchStore) Create(_ context.Context, arch *models.Arch) error {
	cp := *arch
	if cp.Member(cp.CreatorID) == nil {
		cp.Members = append(cp.Members, models.ArchMember{
			ArchID:     cp.ID,
			UserID:     cp.CreatorID,
			Role:       models.RoleAdmin,
			JoinedAt:   cp.CreatedAt,
			UserActive: true,
		})
	}
	f.arches[arch.ID] = &cp
	return nil
}

func (f *fakeArchStore) GetByID(_ context.Context, id string) (*models.Arch, error) {
	a, ok := f.arches[id]
	if !ok || !a.IsActive {
		return nil, repository.ErrNotFound
	}
	cp := *a
	cp.Members = append([]models.ArchMember(nil), a.Members...)
	return &cp, nil
}

func (f *fakeArchStore) GetByInviteCode(_ context.Context, code string) (*models.Arch, error) {
	for _, a := range f.arches {
		if a.InviteCode == code && a.IsActive {
			cp := *a
			cp.Members = append([]models.ArchMember(nil), a.Members...)
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeArchStore) ListForUser(_ context.Context, userID string) ([]models.Arch, error) {
	var out []models.Arch
	for _, a := range f.arches {
		if a.IsActive && a.Member(userID) != nil {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeArchStore) ListActive(_ context.Context) ([]models.Arch, error) {
	var out []models.Arch
	for _, a := range f.arches {
		if a.IsActive {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeArchStore) Membership(_ context.Context, archID, userID string) (string, error) {
	a, ok := f.arches[archID]
	if !ok || !a.IsActive {
		return "", repository.ErrNotFound
	}
	m := a.Member(userID)
	if m == nil {
		return "", repository.ErrNotFound
	}
	return m.Role, nil
}

func (f *fakeArchStore) AddMember(_ context.Context, archID, userID, role string, joinedAt time.Time) error {
	a, ok := f.arches[archID]
	if !ok {
		return repository.ErrNotFound
	}
	a.Members = append(a.Members, models.ArchMember{
		ArchID:     archID,
		UserID:     userID,
		Role:       role,
		JoinedAt:   joinedAt,
		UserActive: true,
	})
	return nil
}

func (f *fakeArchStore) RemoveMember(_ context.Context, archID, userID string) error {
	a, ok := f.arches[archID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, m := range a.Members {
		if m.UserID == userID {
			a.Members = append(a.Members[:i], a.Members[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeArchStore) UpdateMemberRole(_ context.Context, archID, userID, role string) error {
	a, ok := f.arches[archID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range a.Members {
		if a.Members[i].UserID == userID {
			a.Members[i].Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeArchStore) Update(_ context.Context, arch *models.Arch) error {
	existing, ok := f.arches[arch.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *arch
	cp.Members = existing.Members
	f.arches[arch.ID] = &cp
	return nil
}

func (f *fakeArchStore) SetInviteCode(_ context.Context, archID, code string) error {
	a, ok := f.arches[archID]
	if !ok {
		return repository.ErrNotFound
	}
	a.InviteCode = code
	return nil
}

func (f *fakeArchStore) InviteCodeExists(_ context.Context, code string) (bool, error) {
	for _, a := range f.arches {
		if a.InviteCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeArchStore) Deactivate(_ context.Context, archID string) error {
	a, ok := f.arches[archID]
	if !ok {
		return repository.ErrNotFound
	}
	a.IsActive = false
	return nil
}

func (f *fakeArchStore) ActivityCounts(_ context.Context, archID string, since time.Time) (models.ArchActivity, error) {
	return models.ArchActivity{}, nil
}

func (f *fakeArchStore) Stats(_ context.Context, archID string) (models.ArchStats, error) {
	return models.ArchStats{}, nil
}

type fakeQuestionStore struct {
	questions map[string]*models.DailyQuestion
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{questions: make(map[string]*models.DailyQuestion)}
}

func copyQuestion(q *models.DailyQuestion) models.DailyQuestion {
	cp := *q
	cp.Responses = append([]models.Response(nil), q.Responses...)
	return cp
}

func (f *fakeQuestionStore) Create(_ context.Context, q *models.DailyQuestion) error {
	cp := copyQuestion(q)
	f.questions[q.ID] = &cp
	return nil
}

func (f *fakeQuestionStore) GetByID(_ context.Context, id string) (*models.DailyQuestion, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := copyQuestion(q)
	return &cp, nil
}

func (f *fakeQuestionStore) GetByResponseID(_ context.Context, responseID string) (*models.DailyQuestion, error) {
	for _, q := range f.questions {
		for _, r := range q.Responses {
			if r.ID == responseID {
				cp := copyQuestion(q)
				return &cp, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeQuestionStore) ExistsForArchOn(_ context.Context, archID string, date time.Time) (bool, error) {
	for _, q := range f.questions {
		if q.ArchID == archID && sameDay(q.Date, date) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeQuestionStore) UpsertResponse(_ context.Context, resp *models.Response) error {
	q, ok := f.questions[resp.QuestionID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range q.Responses {
		if q.Responses[i].UserID == resp.UserID {
			// Conflict keeps the original row id and reports it back
			resp.ID = q.Responses[i].ID
			q.Responses[i] = *resp
			return nil
		}
	}
	q.Responses = append(q.Responses, *resp)
	return nil
}

func (f *fakeQuestionStore) DeleteResponse(_ context.Context, questionID, userID string) error {
	q, ok := f.questions[questionID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range q.Responses {
		if q.Responses[i].UserID == userID {
			q.Responses = append(q.Responses[:i], q.Responses[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeQuestionStore) MarkShared(_ context.Context, responseID string) error {
	for _, q := range f.questions {
		for i := range q.Responses {
			if q.Responses[i].ID == responseID {
				q.Responses[i].SharedWithArch = true
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (f *fakeQuestionStore) ListDue(_ context.Context, now time.Time) ([]models.DailyQuestion, error) {
	var out []models.DailyQuestion
	for _, q := range f.questions {
		if !q.Processed && !q.Deadline.After(now) {
			out = append(out, copyQuestion(q))
		}
	}
	return out, nil
}

func (f *fakeQuestionStore) MarkProcessed(_ context.Context, questionID string) (bool, error) {
	q, ok := f.questions[questionID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if q.Processed {
		return false, nil
	}
	q.Processed = true
	return true, nil
}

func (f *fakeQuestionStore) ListForAskerOn(_ context.Context, userID string, date time.Time) ([]models.DailyQuestion, error) {
	var out []models.DailyQuestion
	for _, q := range f.questions {
		if q.AskerID == userID && sameDay(q.Date, date) {
			out = append(out, copyQuestion(q))
		}
	}
	return out, nil
}

func (f *fakeQuestionStore) ListAboutUserOn(_ context.Context, userID string, date time.Time) ([]models.DailyQuestion, error) {
	var out []models.DailyQuestion
	for _, q := range f.questions {
		if q.AboutUserID == userID && sameDay(q.Date, date) {
			out = append(out, copyQuestion(q))
		}
	}
	return out, nil
}

func (f *fakeQuestionStore) ListForArch(_ context.Context, archID string) ([]models.DailyQuestion, error) {
	var out []models.DailyQuestion
	for _, q := range f.questions {
		if q.ArchID == archID {
			out = append(out, copyQuestion(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeQuestionStore) ListSharedOn(_ context.Context, archID string, date time.Time) ([]models.DailyQuestion, error) {
	var out []models.DailyQuestion
	for _, q := range f.questions {
		if q.ArchID != archID || !sameDay(q.Date, date) {
			continue
		}
		for _, r := range q.Responses {
			if r.SharedWithArch && !r.Passed {
				out = append(out, copyQuestion(q))
				break
			}
		}
	}
	return out, nil
}

func (f *fakeQuestionStore) ListNeedingReminder(_ context.Context, now, until time.Time) ([]models.DailyQuestion, error) {
	var out []models.DailyQuestion
	for _, q := range f.questions {
		if q.Processed || q.ReminderSent {
			continue
		}
		if q.Deadline.Before(now) || q.Deadline.After(until) {
			continue
		}
		if q.ResponseFrom(q.AskerID) != nil {
			continue
		}
		out = append(out, copyQuestion(q))
	}
	return out, nil
}

func (f *fakeQuestionStore) MarkReminderSent(_ context.Context, questionID string) error {
	q, ok := f.questions[questionID]
	if !ok {
		return repository.ErrNotFound
	}
	q.ReminderSent = true
	return nil
}

func (f *fakeQuestionStore) DeleteProcessedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for id, q := range f.questions {
		if q.Processed && q.Date.Before(cutoff) {
			delete(f.questions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeQuestionStore) ArchCountsOn(_ context.Context, archID string, date time.Time) (int, int, error) {
	questions, responses := 0, 0
	for _, q := range f.questions {
		if q.ArchID == archID && sameDay(q.Date, date) {
			questions++
			responses += len(q.Responses)
		}
	}
	return questions, responses, nil
}

func (f *fakeQuestionStore) WeekCompletion(_ context.Context, archID string, weekStart time.Time) (int, int, error) {
	asked, answered := 0, 0
	for _, q := range f.questions {
		if q.ArchID != archID || q.Date.Before(weekStart) {
			continue
		}
		asked++
		if r := q.ResponseFrom(q.AskerID); r != nil && !r.Passed {
			answered++
		}
	}
	return asked, answered, nil
}

func (f *fakeQuestionStore) History(_ context.Context, userID, archID string, limit, offset int) ([]models.ResponseHistoryItem, error) {
	var out []models.ResponseHistoryItem
	for _, q := range f.questions {
		if archID != "" && q.ArchID != archID {
			continue
		}
		if r := q.ResponseFrom(userID); r != nil {
			out = append(out, models.ResponseHistoryItem{
				QuestionID:  q.ID,
				Question:    q.Question,
				ArchID:      q.ArchID,
				Response:    r.Response,
				Passed:      r.Passed,
				Shared:      r.SharedWithArch,
				SubmittedAt: r.SubmittedAt,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (f *fakeQuestionStore) UserStats(_ context.Context, userID, archID string, since time.Time) (models.ResponseUserStats, error) {
	var st models.ResponseUserStats
	for _, q := range f.questions {
		if q.AskerID != userID || q.Date.Before(since) {
			continue
		}
		if archID != "" && q.ArchID != archID {
			continue
		}
		st.TotalQuestions++
		if r := q.ResponseFrom(userID); r != nil && !r.Passed {
			st.QuestionsAnswered++
		}
	}
	if st.TotalQuestions > 0 {
		st.ResponseRate = st.QuestionsAnswered * 100 / st.TotalQuestions
	}
	return st, nil
}

type fakePostStore struct {
	posts map[string]*models.Post
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[string]*models.Post)}
}

func copyPost(p *models.Post) models.Post {
	cp := *p
	cp.Likes = append([]models.Like(nil), p.Likes...)
	cp.Comments = append([]models.Comment(nil), p.Comments...)
	return cp
}

func (f *fakePostStore) Create(_ context.Context, p *models.Post) error {
	cp := copyPost(p)
	if cp.Likes == nil {
		cp.Likes = []models.Like{}
	}
	if cp.Comments == nil {
		cp.Comments = []models.Comment{}
	}
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakePostStore) GetByID(_ context.Context, id string) (*models.Post, error) {
	p, ok := f.posts[id]
	if !ok || !p.IsActive {
		return nil, repository.ErrNotFound
	}
	cp := copyPost(p)
	return &cp, nil
}

func (f *fakePostStore) ListForArch(_ context.Context, archID string, offset, limit int) ([]models.Post, error) {
	var out []models.Post
	for _, p := range f.posts {
		if p.ArchID == archID && p.IsActive {
			out = append(out, copyPost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePostStore) ListRecent(_ context.Context, archID string, since time.Time, limit int) ([]models.Post, error) {
	var out []models.Post
	for _, p := range f.posts {
		if p.ArchID == archID && p.IsActive && p.CreatedAt.After(since) {
			out = append(out, copyPost(p))
		}
	}
	return out, nil
}

func (f *fakePostStore) HasLike(_ context.Context, postID, userID string) (bool, error) {
	p, ok := f.posts[postID]
	if !ok {
		return false, nil
	}
	return p.LikedBy(userID), nil
}

func (f *fakePostStore) AddLike(_ context.Context, like *models.Like) error {
	p, ok := f.posts[like.PostID]
	if !ok {
		return repository.ErrNotFound
	}
	if !p.LikedBy(like.UserID) {
		p.Likes = append(p.Likes, *like)
	}
	return nil
}

func (f *fakePostStore) RemoveLike(_ context.Context, postID, userID string) error {
	p, ok := f.posts[postID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, l := range p.Likes {
		if l.UserID == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakePostStore) CountLikes(_ context.Context, postID string) (int, error) {
	p, ok := f.posts[postID]
	if !ok {
		return 0, nil
	}
	return len(p.Likes), nil
}

func (f *fakePostStore) AddComment(_ context.Context, c *models.Comment) error {
	p, ok := f.posts[c.PostID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Comments = append(p.Comments, *c)
	return nil
}

func (f *fakePostStore) SoftDelete(_ context.Context, postID string) error {
	p, ok := f.posts[postID]
	if !ok || !p.IsActive {
		return repository.ErrNotFound
	}
	p.IsActive = false
	return nil
}

type fakeEventStore struct {
	events map[string]*models.GetTogether
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[string]*models.GetTogether)}
}

func copyEvent(g *models.GetTogether) models.GetTogether {
	cp := *g
	cp.Invitees = append([]models.Invitee(nil), g.Invitees...)
	cp.Timeline = append([]models.TimelineEntry(nil), g.Timeline...)
	return cp
}

func (f *fakeEventStore) Create(_ context.Context, g *models.GetTogether) error {
	cp := copyEvent(g)
	f.events[g.ID] = &cp
	return nil
}

func (f *fakeEventStore) GetByID(_ context.Context, id string) (*models.GetTogether, error) {
	g, ok := f.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := copyEvent(g)
	return &cp, nil
}

func (f *fakeEventStore) List(_ context.Context, archIDs []string, status string, upcomingAfter *time.Time) ([]models.GetTogether, error) {
	inArch := make(map[string]bool, len(archIDs))
	for _, id := range archIDs {
		inArch[id] = true
	}
	var out []models.GetTogether
	for _, g := range f.events {
		if !inArch[g.ArchID] {
			continue
		}
		if status != "" && g.Status != status {
			continue
		}
		if upcomingAfter != nil && !g.ScheduledFor.After(*upcomingAfter) {
			continue
		}
		out = append(out, copyEvent(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	return out, nil
}

func (f *fakeEventStore) ListRecent(_ context.Context, archID string, since time.Time, limit int) ([]models.GetTogether, error) {
	var out []models.GetTogether
	for _, g := range f.events {
		if g.ArchID == archID && g.CreatedAt.After(since) {
			out = append(out, copyEvent(g))
		}
	}
	return out, nil
}

func (f *fakeEventStore) Update(_ context.Context, g *models.GetTogether) error {
	if _, ok := f.events[g.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := copyEvent(g)
	f.events[g.ID] = &cp
	return nil
}

func (f *fakeEventStore) Delete(_ context.Context, id string) error {
	if _, ok := f.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventStore) UpdateRSVP(_ context.Context, eventID, userID, status string, respondedAt time.Time) error {
	g, ok := f.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range g.Invitees {
		if g.Invitees[i].UserID == userID {
			g.Invitees[i].Status = status
			at := respondedAt
			g.Invitees[i].RespondedAt = &at
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeEventStore) AddTimelineEntry(_ context.Context, e *models.TimelineEntry) error {
	g, ok := f.events[e.EventID]
	if !ok {
		return repository.ErrNotFound
	}
	g.Timeline = append(g.Timeline, *e)
	return nil
}

type fakeMessageStore struct {
	messages map[string]*models.Message
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: make(map[string]*models.Message)}
}

func (f *fakeMessageStore) Create(_ context.Context, m *models.Message) error {
	cp := *m
	f.messages[m.ID] = &cp
	return nil
}

func (f *fakeMessageStore) GetByID(_ context.Context, id string) (*models.Message, error) {
	m, ok := f.messages[id]
	if !ok || !m.IsActive {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMessageStore) between(archID, userA, userB string) []*models.Message {
	var out []*models.Message
	for _, m := range f.messages {
		if m.ArchID != archID || !m.IsActive {
			continue
		}
		if (m.SenderID == userA && m.RecipientID == userB) || (m.SenderID == userB && m.RecipientID == userA) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeMessageStore) Conversation(_ context.Context, archID, userA, userB string, offset, limit int) ([]models.Message, error) {
	msgs := f.between(archID, userA, userB)
	if offset >= len(msgs) {
		return nil, nil
	}
	msgs = msgs[offset:]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMessageStore) SearchBetween(_ context.Context, archID, userA, userB, query string, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.between(archID, userA, userB) {
		if strings.Contains(strings.ToLower(m.Content), strings.ToLower(query)) {
			out = append(out, *m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMessageStore) LatestBetween(_ context.Context, archID, userA, userB string) (*models.Message, error) {
	msgs := f.between(archID, userA, userB)
	if len(msgs) == 0 {
		return nil, nil
	}
	cp := *msgs[0]
	return &cp, nil
}

func (f *fakeMessageStore) UnreadCount(_ context.Context, archID, senderID, recipientID string) (int, error) {
	n := 0
	for _, m := range f.messages {
		if m.ArchID == archID && m.SenderID == senderID && m.RecipientID == recipientID && m.ReadAt == nil && m.IsActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageStore) MarkRead(_ context.Context, messageID, recipientID string, at time.Time) error {
	m, ok := f.messages[messageID]
	if !ok || !m.IsActive || m.RecipientID != recipientID {
		return repository.ErrNotFound
	}
	if m.ReadAt == nil {
		m.ReadAt = &at
	}
	return nil
}

func (f *fakeMessageStore) MarkConversationRead(_ context.Context, archID, senderID, recipientID string, at time.Time) error {
	for _, m := range f.messages {
		if m.ArchID == archID && m.SenderID == senderID && m.RecipientID == recipientID && m.ReadAt == nil && m.IsActive {
			t := at
			m.ReadAt = &t
		}
	}
	return nil
}

func (f *fakeMessageStore) SoftDelete(_ context.Context, messageID, senderID string) error {
	m, ok := f.messages[messageID]
	if !ok || m.SenderID != senderID {
		return repository.ErrNotFound
	}
	m.IsActive = false
	return nil
}

func (f *fakeMessageStore) Stats(_ context.Context, archID, userID string) (models.MessageStats, error) {
	var st models.MessageStats
	for _, m := range f.messages {
		if m.ArchID != archID || !m.IsActive {
			continue
		}
		if m.SenderID == userID {
			st.TotalSent++
		}
		if m.RecipientID == userID {
			st.TotalReceived++
			if m.ReadAt == nil {
				st.TotalUnread++
			}
		}
	}
	return st, nil
}

// fakePush records deliveries and can simulate token rejection
type fakePush struct {
	sent      []Notification
	sentTo    []string
	failWith  error
	failToken string
}

func (f *fakePush) Send(_ context.Context, token string, n Notification) error {
	if f.failWith != nil && (f.failToken == "" || f.failToken == token) {
		return f.failWith
	}
	f.sent = append(f.sent, n)
	f.sentTo = append(f.sentTo, token)
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
