package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"social_messenger/internal/domain"
	"social_messenger/internal/repository"
	apperrors "social_messenger/pkg/errors"
	"social_messenger/pkg/logger"
)

func newTestLogger() logger.Logger {
	return logger.New("error")
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return apperrors.ErrUserAlreadyExists
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []*domain.User
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.PhoneNumber == phoneNumber {
			return user, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.Status = status
	user.LastSeen = &lastSeen
	return nil
}

type fakeChatRepo struct {
	mu    sync.Mutex
	chats map[uuid.UUID]*domain.Chat
	pairs map[string]uuid.UUID

	// messages, when set, receives the cascade from DeleteWithMessages
	messages          *fakeMessageRepo
	setLastMessageErr error
}

func newFakeChatRepo(chats ...*domain.Chat) *fakeChatRepo {
	repo := &fakeChatRepo{
		chats: make(map[uuid.UUID]*domain.Chat),
		pairs: make(map[string]uuid.UUID),
	}
	for _, chat := range chats {
		repo.chats[chat.ID] = chat
		if chat.Type == domain.ChatTypeIndividual && len(chat.Participants) == 2 {
			repo.pairs[repository.IndividualPairKey(chat.Participants[0], chat.Participants[1])] = chat.ID
		}
	}
	return repo
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *domain.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chat.Type == domain.ChatTypeIndividual && len(chat.Participants) == 2 {
		key := repository.IndividualPairKey(chat.Participants[0], chat.Participants[1])
		if _, ok := r.pairs[key]; ok {
			return apperrors.ErrChatAlreadyExists
		}
		r.pairs[key] = chat.ID
	}
	r.chats[chat.ID] = chat
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return chat, nil
}

func (r *fakeChatRepo) FindIndividualByPair(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.pairs[repository.IndividualPairKey(userA, userB)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r.chats[id], nil
}

func (r *fakeChatRepo) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var chats []*domain.Chat
	for _, chat := range r.chats {
		if chat.HasParticipant(userID) {
			chats = append(chats, chat)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].UpdatedAt.After(chats[j].UpdatedAt) })
	return chats, nil
}

func (r *fakeChatRepo) UpdateParticipants(ctx context.Context, chat *domain.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.chats[chat.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	stored.Participants = chat.Participants
	stored.UpdatedAt = time.Now().UTC()
	chat.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *fakeChatRepo) Rename(ctx context.Context, chatID uuid.UUID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return apperrors.ErrNotFound
	}
	chat.Name = &name
	return nil
}

func (r *fakeChatRepo) SetLastMessage(ctx context.Context, chatID uuid.UUID, messageID *uuid.UUID) (*domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setLastMessageErr != nil {
		return nil, r.setLastMessageErr
	}
	chat, ok := r.chats[chatID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	chat.LastMessageID = messageID
	chat.UpdatedAt = time.Now().UTC()
	return chat, nil
}

func (r *fakeChatRepo) DeleteWithMessages(ctx context.Context, chatID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if chat.Type == domain.ChatTypeIndividual && len(chat.Participants) == 2 {
		delete(r.pairs, repository.IndividualPairKey(chat.Participants[0], chat.Participants[1]))
	}
	delete(r.chats, chatID)
	if r.messages != nil {
		r.messages.deleteByChat(chatID)
	}
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*domain.Message
	order    []uuid.UUID
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]*domain.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[message.ID] = message
	r.order = append(r.order, message.ID)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return message, nil
}

func (r *fakeMessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var messages []*domain.Message
	for _, id := range r.order {
		if message, ok := r.messages[id]; ok && message.ChatID == chatID {
			messages = append(messages, message)
		}
	}
	return messages, nil
}

func (r *fakeMessageRepo) GetLatestForChat(ctx context.Context, chatID uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		if message, ok := r.messages[r.order[i]]; ok && message.ChatID == chatID {
			return message, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeMessageRepo) Update(ctx context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[message.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.messages[message.ID] = message
	return nil
}

func (r *fakeMessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.messages, id)
	return nil
}

func (r *fakeMessageRepo) deleteByChat(chatID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, message := range r.messages {
		if message.ChatID == chatID {
			delete(r.messages, id)
		}
	}
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[messageID]
	if !ok {
		return apperrors.ErrNotFound
	}
	for _, id := range message.ReadBy {
		if id == userID {
			return nil
		}
	}
	message.ReadBy = append(message.ReadBy, userID)
	return nil
}

type fakeFriendshipRepo struct {
	mu          sync.Mutex
	friendships map[uuid.UUID]*domain.Friendship
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{friendships: make(map[uuid.UUID]*domain.Friendship)}
}

func (r *fakeFriendshipRepo) Create(ctx context.Context, friendship *domain.Friendship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.friendships[friendship.ID] = friendship
	return nil
}

func (r *fakeFriendshipRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	friendship, ok := r.friendships[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return friendship, nil
}

func (r *fakeFriendshipRepo) GetByPair(ctx context.Context, userA, userB uuid.UUID) (*domain.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.friendships {
		if (f.RequesterID == userA && f.RecipientID == userB) || (f.RequesterID == userB && f.RecipientID == userA) {
			return f, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeFriendshipRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	friendship, ok := r.friendships[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	friendship.Status = status
	return nil
}

func (r *fakeFriendshipRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.friendships[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.friendships, id)
	return nil
}

func (r *fakeFriendshipRepo) DeleteAcceptedPair(ctx context.Context, userA, userB uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, f := range r.friendships {
		if f.Status != domain.FriendshipStatusAccepted {
			continue
		}
		if (f.RequesterID == userA && f.RecipientID == userB) || (f.RequesterID == userB && f.RecipientID == userA) {
			delete(r.friendships, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeFriendshipRepo) ListAcceptedForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var accepted []*domain.Friendship
	for _, f := range r.friendships {
		if f.Status == domain.FriendshipStatusAccepted && (f.RequesterID == userID || f.RecipientID == userID) {
			accepted = append(accepted, f)
		}
	}
	return accepted, nil
}

func (r *fakeFriendshipRepo) ListPendingForRecipient(ctx context.Context, userID uuid.UUID) ([]*domain.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []*domain.Friendship
	for _, f := range r.friendships {
		if f.Status == domain.FriendshipStatusPending && f.RecipientID == userID {
			pending = append(pending, f)
		}
	}
	return pending, nil
}

type fakePresenceRepo struct {
	mu     sync.Mutex
	online map[uuid.UUID]bool
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{online: make(map[uuid.UUID]bool)}
}

func (r *fakePresenceRepo) SetOnline(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[userID] = true
	return nil
}

func (r *fakePresenceRepo) SetOffline(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.online, userID)
	return nil
}

func (r *fakePresenceRepo) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online[userID], nil
}

type fakePostRepo struct {
	mu       sync.Mutex
	posts    map[uuid.UUID]*domain.Post
	comments map[uuid.UUID]*domain.Comment
	order    []uuid.UUID
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts:    make(map[uuid.UUID]*domain.Post),
		comments: make(map[uuid.UUID]*domain.Comment),
	}
}

func (r *fakePostRepo) Create(ctx context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = post
	r.order = append(r.order, post.ID)
	return nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return post, nil
}

func (r *fakePostRepo) ListByAuthors(ctx context.Context, authorIDs []uuid.UUID) ([]*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	authors := make(map[uuid.UUID]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}
	var posts []*domain.Post
	for i := len(r.order) - 1; i >= 0; i-- {
		post, ok := r.posts[r.order[i]]
		if !ok {
			continue
		}
		if _, ok := authors[post.UserID]; ok {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (r *fakePostRepo) Update(ctx context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.posts[post.ID] = post
	return nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) CreateComment(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments[comment.ID] = comment
	return nil
}

func (r *fakePostRepo) GetCommentByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return comment, nil
}

func (r *fakePostRepo) ListCommentsByPost(ctx context.Context, postID uuid.UUID) ([]*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var comments []*domain.Comment
	for _, comment := range r.comments {
		if comment.PostID == postID {
			comments = append(comments, comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	return comments, nil
}

func (r *fakePostRepo) DeleteComment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *fakePostRepo) DeleteCommentsByPost(ctx context.Context, postID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, comment := range r.comments {
		if comment.PostID == postID {
			delete(r.comments, id)
		}
	}
	return nil
}

type fakeNotifier struct {
	mu           sync.Mutex
	messages     []*domain.Message
	deletedChats []uuid.UUID
}

func (n *fakeNotifier) NotifyMessage(ctx context.Context, message *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *fakeNotifier) NotifyChatDeleted(chatID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deletedChats = append(n.deletedChats, chatID)
}

func newTestUser(name string) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:        uuid.New(),
		Email:     name + "@example.com",
		Name:      name,
		Avatar:    domain.DefaultAvatar,
		Status:    domain.StatusOffline,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
