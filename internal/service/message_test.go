package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social_messenger/internal/domain"
	apperrors "social_messenger/pkg/errors"
)

type messageTestEnv struct {
	alice    *domain.User
	bob      *domain.User
	chat     *domain.Chat
	users    *fakeUserRepo
	chats    *fakeChatRepo
	messages *fakeMessageRepo
	notifier *fakeNotifier
	svc      MessageService
}

func newMessageTestEnv(t *testing.T) *messageTestEnv {
	t.Helper()

	alice := newTestUser("alice")
	bob := newTestUser("bob")
	now := time.Now().UTC()
	chat := &domain.Chat{
		ID:           uuid.New(),
		Participants: []uuid.UUID{alice.ID, bob.ID},
		Type:         domain.ChatTypeIndividual,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	users := newFakeUserRepo(alice, bob)
	chats := newFakeChatRepo(chat)
	messages := newFakeMessageRepo()
	notifier := &fakeNotifier{}

	return &messageTestEnv{
		alice:    alice,
		bob:      bob,
		chat:     chat,
		users:    users,
		chats:    chats,
		messages: messages,
		notifier: notifier,
		svc:      NewMessageService(messages, chats, users, notifier, newTestLogger()),
	}
}

func TestAppendAdvancesLastMessageAndNotifies(t *testing.T) {
	env := newMessageTestEnv(t)

	msg, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{
		ChatID:  env.chat.ID,
		Content: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeText, msg.Type)

	chat, err := env.chats.GetByID(context.Background(), env.chat.ID)
	require.NoError(t, err)
	require.NotNil(t, chat.LastMessageID)
	assert.Equal(t, msg.ID, *chat.LastMessageID)

	require.Len(t, env.notifier.messages, 1)
	assert.Equal(t, msg.ID, env.notifier.messages[0].ID)
}

func TestAppendEmptyContent(t *testing.T) {
	env := newMessageTestEnv(t)

	_, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{ChatID: env.chat.ID})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAppendToUnknownChat(t *testing.T) {
	env := newMessageTestEnv(t)

	_, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{
		ChatID:  uuid.New(),
		Content: "hello",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAppendByNonParticipant(t *testing.T) {
	env := newMessageTestEnv(t)
	mallory := newTestUser("mallory")
	require.NoError(t, env.users.Create(context.Background(), mallory))

	_, err := env.svc.Append(context.Background(), mallory.ID, &SendMessageRequest{
		ChatID:  env.chat.ID,
		Content: "hello",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)
}

func TestAppendSurvivesPointerFailure(t *testing.T) {
	env := newMessageTestEnv(t)
	env.chats.setLastMessageErr = assert.AnError

	// the append is durable even when the pointer update fails
	msg, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{
		ChatID:  env.chat.ID,
		Content: "hello",
	})
	require.NoError(t, err)

	stored, err := env.messages.GetByID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Content)
	assert.Len(t, env.notifier.messages, 1)
}

func TestEditSenderOnly(t *testing.T) {
	env := newMessageTestEnv(t)

	msg, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{
		ChatID:  env.chat.ID,
		Content: "hello",
	})
	require.NoError(t, err)

	edited, err := env.svc.Edit(context.Background(), env.alice.ID, msg.ID, &EditMessageRequest{Content: "hello there"})
	require.NoError(t, err)
	assert.Equal(t, "hello there", edited.Content)

	_, err = env.svc.Edit(context.Background(), env.bob.ID, msg.ID, &EditMessageRequest{Content: "hijacked"})
	assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)
}

func TestEditMissingMessage(t *testing.T) {
	env := newMessageTestEnv(t)

	_, err := env.svc.Edit(context.Background(), env.alice.ID, uuid.New(), &EditMessageRequest{Content: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRemoveRewindsLastMessagePointer(t *testing.T) {
	env := newMessageTestEnv(t)

	first, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{ChatID: env.chat.ID, Content: "first"})
	require.NoError(t, err)
	second, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{ChatID: env.chat.ID, Content: "second"})
	require.NoError(t, err)

	require.NoError(t, env.svc.Remove(context.Background(), env.alice.ID, second.ID))

	chat, err := env.chats.GetByID(context.Background(), env.chat.ID)
	require.NoError(t, err)
	require.NotNil(t, chat.LastMessageID)
	assert.Equal(t, first.ID, *chat.LastMessageID)
}

func TestRemoveLastMessageClearsPointer(t *testing.T) {
	env := newMessageTestEnv(t)

	only, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{ChatID: env.chat.ID, Content: "only"})
	require.NoError(t, err)

	require.NoError(t, env.svc.Remove(context.Background(), env.alice.ID, only.ID))

	chat, err := env.chats.GetByID(context.Background(), env.chat.ID)
	require.NoError(t, err)
	assert.Nil(t, chat.LastMessageID)
}

func TestRemoveOlderMessageKeepsPointer(t *testing.T) {
	env := newMessageTestEnv(t)

	first, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{ChatID: env.chat.ID, Content: "first"})
	require.NoError(t, err)
	second, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{ChatID: env.chat.ID, Content: "second"})
	require.NoError(t, err)

	require.NoError(t, env.svc.Remove(context.Background(), env.alice.ID, first.ID))

	chat, err := env.chats.GetByID(context.Background(), env.chat.ID)
	require.NoError(t, err)
	require.NotNil(t, chat.LastMessageID)
	assert.Equal(t, second.ID, *chat.LastMessageID)
}

func TestRemoveBySomeoneElse(t *testing.T) {
	env := newMessageTestEnv(t)

	msg, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{ChatID: env.chat.ID, Content: "mine"})
	require.NoError(t, err)

	err = env.svc.Remove(context.Background(), env.bob.ID, msg.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	env := newMessageTestEnv(t)

	msg, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{ChatID: env.chat.ID, Content: "hello"})
	require.NoError(t, err)

	require.NoError(t, env.svc.MarkRead(context.Background(), env.bob.ID, msg.ID))
	require.NoError(t, env.svc.MarkRead(context.Background(), env.bob.ID, msg.ID))

	stored, err := env.messages.GetByID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{env.bob.ID}, stored.ReadBy)
}

func TestMarkReadMissingMessage(t *testing.T) {
	env := newMessageTestEnv(t)

	err := env.svc.MarkRead(context.Background(), env.bob.ID, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListByChatResolvesSenders(t *testing.T) {
	env := newMessageTestEnv(t)

	_, err := env.svc.Append(context.Background(), env.alice.ID, &SendMessageRequest{ChatID: env.chat.ID, Content: "hi"})
	require.NoError(t, err)
	_, err = env.svc.Append(context.Background(), env.bob.ID, &SendMessageRequest{ChatID: env.chat.ID, Content: "hey"})
	require.NoError(t, err)

	views, err := env.svc.ListByChat(context.Background(), env.alice.ID, env.chat.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.NotNil(t, views[0].Sender)
	assert.Equal(t, env.alice.Name, views[0].Sender.Name)
	require.NotNil(t, views[1].Sender)
	assert.Equal(t, env.bob.Name, views[1].Sender.Name)
}

func TestListByChatNonParticipant(t *testing.T) {
	env := newMessageTestEnv(t)
	mallory := newTestUser("mallory")
	require.NoError(t, env.users.Create(context.Background(), mallory))

	_, err := env.svc.ListByChat(context.Background(), mallory.ID, env.chat.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)
}
