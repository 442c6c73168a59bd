package services

import (
	"context"
	"fmt"
	"testing"

	"the-arch-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageFixture struct {
	*archFixture
	messages *fakeMessageStore
	svc      *MessageService
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()

	af := newArchFixture(t)
	messages := newFakeMessageStore()
	notifier := NewNotificationService(af.users, af.arches, af.push)
	svc := NewMessageService(messages, af.arches, af.users, notifier, NewWSHub())
	return &messageFixture{archFixture: af, messages: messages, svc: svc}
}

func TestSendMessage(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.svc.Send(context.Background(), f.arch.ID, f.creator.ID, f.member.ID, "Hey Bob", nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice", msg.SenderName)
	assert.Nil(t, msg.ReadAt)
}

func TestSendMessageGuards(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.svc.Send(context.Background(), f.arch.ID, f.creator.ID, f.creator.ID, "Hi me", nil)
	assert.ErrorIs(t, err, ErrSelfMessage)

	_, err = f.svc.Send(context.Background(), f.arch.ID, f.creator.ID, f.member.ID, "  ", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Send(context.Background(), f.arch.ID, uuid.New().String(), f.member.ID, "Hi", nil)
	assert.ErrorIs(t, err, ErrNotMember)

	// A recipient outside the arch is a bad request, not a membership failure
	_, err = f.svc.Send(context.Background(), f.arch.ID, f.creator.ID, uuid.New().String(), "Hi", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConversationOrderAndReadMarking(t *testing.T) {
	f := newMessageFixture(t)

	for i := 1; i <= 3; i++ {
		_, err := f.svc.Send(context.Background(), f.arch.ID, f.creator.ID, f.member.ID, fmt.Sprintf("msg %d", i), nil)
		require.NoError(t, err)
	}

	unread, err := f.messages.UnreadCount(context.Background(), f.arch.ID, f.creator.ID, f.member.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	msgs, err := f.svc.Conversation(context.Background(), f.arch.ID, f.member.ID, f.creator.ID, 1, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "msg 1", msgs[0].Content)
	assert.Equal(t, "msg 3", msgs[2].Content)

	// Opening the thread marks the incoming messages read
	unread, err = f.messages.UnreadCount(context.Background(), f.arch.ID, f.creator.ID, f.member.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestConversationEmptyThread(t *testing.T) {
	f := newMessageFixture(t)

	msgs, err := f.svc.Conversation(context.Background(), f.arch.ID, f.member.ID, f.creator.ID, 1, 50)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestConversationsList(t *testing.T) {
	f := newMessageFixture(t)
	carol := seedNotifyUser(t, f.users, "Carol", nil, models.DefaultNotificationSettings())
	require.NoError(t, f.arches.AddMember(context.Background(), f.arch.ID, carol.ID, models.RoleMember, f.arch.CreatedAt))

	_, err := f.svc.Send(context.Background(), f.arch.ID, carol.ID, f.creator.ID, "From Carol", nil)
	require.NoError(t, err)

	convs, err := f.svc.Conversations(context.Background(), f.arch.ID, f.creator.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	// Carol has the most recent activity, Bob has none
	assert.Equal(t, carol.ID, convs[0].User.UserID)
	assert.Equal(t, 1, convs[0].UnreadCount)
	require.NotNil(t, convs[0].LatestMessage)
	assert.Equal(t, f.member.ID, convs[1].User.UserID)
	assert.Nil(t, convs[1].LatestMessage)
}

func TestMarkReadRecipientOnly(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.svc.Send(context.Background(), f.arch.ID, f.creator.ID, f.member.ID, "Read me", nil)
	require.NoError(t, err)

	// The sender cannot mark their own message read
	err = f.svc.MarkRead(context.Background(), msg.ID, f.creator.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.svc.MarkRead(context.Background(), msg.ID, f.member.ID))

	stored, err := f.messages.GetByID(context.Background(), msg.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReadAt)
	readAt := *stored.ReadAt

	// Marking an already-read message again succeeds and keeps the timestamp
	require.NoError(t, f.svc.MarkRead(context.Background(), msg.ID, f.member.ID))
	stored, err = f.messages.GetByID(context.Background(), msg.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReadAt)
	assert.Equal(t, readAt, *stored.ReadAt)
}

func TestSearchMessages(t *testing.T) {
	f := newMessageFixture(t)

	for _, content := range []string{"Dinner on Sunday?", "Picked up the cake", "Sunday works for me"} {
		_, err := f.svc.Send(context.Background(), f.arch.ID, f.creator.ID, f.member.ID, content, nil)
		require.NoError(t, err)
	}

	results, err := f.svc.Search(context.Background(), f.arch.ID, f.member.ID, f.creator.ID, "sunday", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	results, err = f.svc.Search(context.Background(), f.arch.ID, f.member.ID, f.creator.ID, "cake", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Picked up the cake", results[0].Content)
}

func TestSearchMessagesGuards(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.svc.Search(context.Background(), f.arch.ID, f.member.ID, f.creator.ID, " a ", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Search(context.Background(), f.arch.ID, uuid.New().String(), f.creator.ID, "dinner", 0)
	assert.ErrorIs(t, err, ErrNotMember)

	results, err := f.svc.Search(context.Background(), f.arch.ID, f.member.ID, f.creator.ID, "nothing here", 0)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.svc.Send(context.Background(), f.arch.ID, f.creator.ID, f.member.ID, "Oops", nil)
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), msg.ID, f.member.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.svc.Delete(context.Background(), msg.ID, f.creator.ID))
	_, err = f.messages.GetByID(context.Background(), msg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMessageStats(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.svc.Send(context.Background(), f.arch.ID, f.creator.ID, f.member.ID, "One", nil)
	require.NoError(t, err)
	_, err = f.svc.Send(context.Background(), f.arch.ID, f.member.ID, f.creator.ID, "Two", nil)
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background(), f.arch.ID, f.creator.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSent)
	assert.Equal(t, 1, stats.TotalReceived)
	assert.Equal(t, 1, stats.TotalUnread)
}
