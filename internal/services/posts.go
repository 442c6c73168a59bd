package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"the-arch-backend/internal/models"

	"github.com/google/uuid"
)

// PostService handles feed posts
type PostService struct {
	postStore PostStore
	archStore ArchStore
	userStore UserStore
	notifier  *NotificationService
	hub       *WSHub
}

// NewPostService creates a new post service
func NewPostService(postStore PostStore, archStore ArchStore, userStore UserStore, notifier *NotificationService, hub *WSHub) *PostService {
	return &PostService{
		postStore: postStore,
		archStore: archStore,
		userStore: userStore,
		notifier:  notifier,
		hub:       hub,
	}
}

func (s *PostService) requireMember(ctx context.Context, archID, userID string) (string, error) {
	return membership(ctx, s.archStore, archID, userID)
}

// Create publishes a post in the arch feed and notifies the other members
func (s *PostService) Create(ctx context.Context, archID, authorID, content string, media []models.Media) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(media) == 0 {
		return nil, fmt.Errorf("%w: post needs content or media", ErrInvalidInput)
	}
	if _, err := s.requireMember(ctx, archID, authorID); err != nil {
		return nil, err
	}
	for _, m := range media {
		if m.Type != "image" && m.Type != "video" {
			return nil, fmt.Errorf("%w: media type must be image or video", ErrInvalidInput)
		}
	}

	post := &models.Post{
		ID:        uuid.New().String(),
		ArchID:    archID,
		AuthorID:  authorID,
		Content:   content,
		Type:      models.PostTypeRegular,
		Media:     media,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := s.postStore.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	author, err := s.userStore.GetByID(ctx, authorID)
	if err == nil {
		post.AuthorName = author.Name
		s.notifier.NotifyArch(ctx, archID, Notification{
			Type:  NotifyNewPost,
			Title: fmt.Sprintf("%s posted", author.Name),
			Body:  truncate(content, 100),
			Data:  map[string]string{"post_id": post.ID, "arch_id": archID},
		}, authorID)
	}
	s.hub.BroadcastToArch(archID, WSMessage{Type: "new-post", Data: post}, authorID)

	return post, nil
}

// Get returns one post, member-gated
func (s *PostService) Get(ctx context.Context, postID, userID string) (*models.Post, error) {
	post, err := s.postStore.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if _, err := s.requireMember(ctx, post.ArchID, userID); err != nil {
		return nil, err
	}
	return post, nil
}

// ToggleLike likes the post, or removes the caller's existing like
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (liked bool, likes int, err error) {
	post, err := s.Get(ctx, postID, userID)
	if err != nil {
		return false, 0, err
	}

	has, err := s.postStore.HasLike(ctx, postID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to check like: %w", err)
	}

	if has {
		if err := s.postStore.RemoveLike(ctx, postID, userID); err != nil {
			return false, 0, fmt.Errorf("failed to remove like: %w", err)
		}
	} else {
		like := &models.Like{PostID: postID, UserID: userID, LikedAt: time.Now()}
		if err := s.postStore.AddLike(ctx, like); err != nil {
			return false, 0, fmt.Errorf("failed to add like: %w", err)
		}
		if post.AuthorID != userID {
			if user, err := s.userStore.GetByID(ctx, userID); err == nil {
				s.notifier.NotifyUser(ctx, post.AuthorID, Notification{
					Type:  NotifyNewLike,
					Title: "New like",
					Body:  fmt.Sprintf("%s liked your post", user.Name),
					Data:  map[string]string{"post_id": postID, "arch_id": post.ArchID},
				})
			}
		}
	}

	count, err := s.postStore.CountLikes(ctx, postID)
	if err != nil {
		return !has, 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return !has, count, nil
}

// AddComment appends a comment and notifies the post author
func (s *PostService) AddComment(ctx context.Context, postID, userID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}

	post, err := s.Get(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.postStore.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	if user, err := s.userStore.GetByID(ctx, userID); err == nil {
		comment.UserName = user.Name
		if post.AuthorID != userID {
			s.notifier.NotifyUser(ctx, post.AuthorID, Notification{
				Type:  NotifyNewComment,
				Title: fmt.Sprintf("%s commented", user.Name),
				Body:  truncate(content, 100),
				Data:  map[string]string{"post_id": postID, "arch_id": post.ArchID},
			})
		}
	}
	s.hub.BroadcastToArch(post.ArchID, WSMessage{Type: "new-comment", Data: comment}, userID)

	return comment, nil
}

// Delete soft-deletes a post. Allowed for the author or an arch admin.
func (s *PostService) Delete(ctx context.Context, postID, userID string) error {
	post, err := s.postStore.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load post: %w", err)
	}

	role, err := s.requireMember(ctx, post.ArchID, userID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID && role != models.RoleAdmin {
		return ErrNotAuthorized
	}

	return s.postStore.SoftDelete(ctx, postID)
}
