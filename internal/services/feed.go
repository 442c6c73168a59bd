package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"the-arch-backend/internal/models"
)

// FeedService aggregates an arch's feed from posts and shared responses
type FeedService struct {
	postStore     PostStore
	questionStore QuestionStore
	archStore     ArchStore
	now           func() time.Time
}

// NewFeedService creates a new feed service
func NewFeedService(postStore PostStore, questionStore QuestionStore, archStore ArchStore) *FeedService {
	return &FeedService{
		postStore:     postStore,
		questionStore: questionStore,
		archStore:     archStore,
		now:           time.Now,
	}
}

// FeedPage is one page of an arch's merged feed
type FeedPage struct {
	Items   []models.FeedItem `json:"items"`
	Page    int               `json:"page"`
	HasMore bool              `json:"has_more"`
}

// Feed merges the arch's posts with today's shared responses, newest first.
// The result is computed fresh on every call.
func (s *FeedService) Feed(ctx context.Context, archID, userID string, page, limit int) (*FeedPage, error) {
	if _, err := membership(ctx, s.archStore, archID, userID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	posts, err := s.postStore.ListForArch(ctx, archID, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	items := make([]models.FeedItem, 0, len(posts))
	for i := range posts {
		items = append(items, postFeedItem(&posts[i], userID))
	}

	// Shared answers only surface on the first page, alongside the newest posts
	if page == 1 {
		now := s.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		shared, err := s.questionStore.ListSharedOn(ctx, archID, today)
		if err != nil {
			return nil, fmt.Errorf("failed to load shared responses: %w", err)
		}
		for i := range shared {
			items = append(items, responseFeedItems(&shared[i])...)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	hasMore := len(posts) == limit
	if len(items) > limit {
		items = items[:limit]
	}

	return &FeedPage{Items: items, Page: page, HasMore: hasMore}, nil
}

func postFeedItem(p *models.Post, viewerID string) models.FeedItem {
	item := models.FeedItem{
		ID:           p.ID,
		Type:         "post",
		Content:      p.Content,
		AuthorID:     p.AuthorID,
		AuthorName:   p.AuthorName,
		Media:        p.Media,
		Likes:        p.Likes,
		Comments:     p.Comments,
		UserHasLiked: p.LikedBy(viewerID),
		CreatedAt:    p.CreatedAt,
	}
	if p.Meta != nil {
		item.Question = p.Meta.Question
		item.AboutUserID = p.Meta.AboutUserID
	}
	return item
}

// responseFeedItems expands a question's shared non-passed responses, one feed
// item per response
func responseFeedItems(q *models.DailyQuestion) []models.FeedItem {
	var items []models.FeedItem
	for _, r := range q.Responses {
		if !r.SharedWithArch || r.Passed {
			continue
		}
		items = append(items, models.FeedItem{
			ID:            r.ID,
			Type:          "daily_response",
			AuthorID:      r.UserID,
			AuthorName:    r.UserName,
			Question:      q.Question,
			Response:      r.Response,
			AskerID:       q.AskerID,
			AboutUserID:   q.AboutUserID,
			AboutUserName: q.AboutUserName,
			Likes:         []models.Like{},
			Comments:      []models.Comment{},
			CreatedAt:     r.SubmittedAt,
		})
	}
	return items
}
