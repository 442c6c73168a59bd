package services

import (
	"context"
	"testing"

	"the-arch-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postFixture struct {
	*archFixture
	posts *fakePostStore
	svc   *PostService
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()

	af := newArchFixture(t)
	posts := newFakePostStore()
	notifier := NewNotificationService(af.users, af.arches, af.push)
	svc := NewPostService(posts, af.arches, af.users, notifier, NewWSHub())
	return &postFixture{archFixture: af, posts: posts, svc: svc}
}

func TestPostCreate(t *testing.T) {
	f := newPostFixture(t)

	post, err := f.svc.Create(context.Background(), f.arch.ID, f.creator.ID, "Hello family", nil)
	require.NoError(t, err)
	assert.Equal(t, models.PostTypeRegular, post.Type)
	assert.Equal(t, "Alice", post.AuthorName)
}

func TestPostCreateNeedsContentOrMedia(t *testing.T) {
	f := newPostFixture(t)

	_, err := f.svc.Create(context.Background(), f.arch.ID, f.creator.ID, "  ", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	media := []models.Media{{Type: "image", URL: "https://cdn.example.com/a.jpg"}}
	post, err := f.svc.Create(context.Background(), f.arch.ID, f.creator.ID, "", media)
	require.NoError(t, err)
	assert.Empty(t, post.Content)
	assert.Len(t, post.Media, 1)
}

func TestPostCreateRejectsBadMediaType(t *testing.T) {
	f := newPostFixture(t)

	media := []models.Media{{Type: "audio", URL: "https://cdn.example.com/a.mp3"}}
	_, err := f.svc.Create(context.Background(), f.arch.ID, f.creator.ID, "hi", media)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPostCreateMemberOnly(t *testing.T) {
	f := newPostFixture(t)

	_, err := f.svc.Create(context.Background(), f.arch.ID, uuid.New().String(), "Hello", nil)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestToggleLike(t *testing.T) {
	f := newPostFixture(t)
	post, err := f.svc.Create(context.Background(), f.arch.ID, f.creator.ID, "Like me", nil)
	require.NoError(t, err)

	liked, count, err := f.svc.ToggleLike(context.Background(), post.ID, f.member.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	liked, count, err = f.svc.ToggleLike(context.Background(), post.ID, f.member.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)
}

func TestAddComment(t *testing.T) {
	f := newPostFixture(t)
	post, err := f.svc.Create(context.Background(), f.arch.ID, f.creator.ID, "Discuss", nil)
	require.NoError(t, err)

	_, err = f.svc.AddComment(context.Background(), post.ID, f.member.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	comment, err := f.svc.AddComment(context.Background(), post.ID, f.member.ID, "Great news")
	require.NoError(t, err)
	assert.Equal(t, "Bob", comment.UserName)

	reloaded, err := f.svc.Get(context.Background(), post.ID, f.creator.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Comments, 1)
}

func TestPostDeleteAuthorOrAdmin(t *testing.T) {
	f := newPostFixture(t)
	post, err := f.svc.Create(context.Background(), f.arch.ID, f.member.ID, "Mine", nil)
	require.NoError(t, err)

	carol := seedNotifyUser(t, f.users, "Carol", nil, models.DefaultNotificationSettings())
	require.NoError(t, f.arches.AddMember(context.Background(), f.arch.ID, carol.ID, models.RoleMember, post.CreatedAt))

	// A plain member who is not the author cannot delete
	err = f.svc.Delete(context.Background(), post.ID, carol.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// The author can
	require.NoError(t, f.svc.Delete(context.Background(), post.ID, f.member.ID))
	_, err = f.svc.Get(context.Background(), post.ID, f.member.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// An admin can delete someone else's post
	post2, err := f.svc.Create(context.Background(), f.arch.ID, f.member.ID, "Mine too", nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(context.Background(), post2.ID, f.creator.ID))
}
