package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"social_messenger/internal/domain"
	"social_messenger/internal/repository"
	apperrors "social_messenger/pkg/errors"
	"social_messenger/pkg/logger"
)

// RoomNotifier is the realtime side of chat mutations. Notifications are
// best-effort: failures never roll back a persisted change.
type RoomNotifier interface {
	NotifyMessage(ctx context.Context, message *domain.Message)
	NotifyChatDeleted(chatID uuid.UUID)
}

// Participant is the resolved per-user slice of a chat summary.
type Participant struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Avatar   string     `json:"avatar"`
	Status   string     `json:"status"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// ChatSummary is what the chat list returns: the chat plus resolved
// participants and the denormalized last message, if any.
type ChatSummary struct {
	ID           uuid.UUID       `json:"id"`
	Type         string          `json:"type"`
	Name         *string         `json:"name,omitempty"`
	Participants []Participant   `json:"participants"`
	LastMessage  *domain.Message `json:"last_message,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ChatService interface {
	FindOrCreateIndividualChat(ctx context.Context, creatorID, targetID uuid.UUID) (*domain.Chat, error)
	CreateGroupChat(ctx context.Context, creatorID uuid.UUID, name string, memberIDs []uuid.UUID) (*domain.Chat, error)
	GetChat(ctx context.Context, chatID uuid.UUID) (*domain.Chat, error)
	ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]*ChatSummary, error)
	AddMember(ctx context.Context, actorID, chatID, memberID uuid.UUID) (*domain.Chat, error)
	RemoveMember(ctx context.Context, actorID, chatID, memberID uuid.UUID) (*domain.Chat, error)
	RenameChat(ctx context.Context, actorID, chatID uuid.UUID, name string) error
	DeleteChat(ctx context.Context, actorID, chatID uuid.UUID) error
	SearchUserByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
}

type chatService struct {
	chats    repository.ChatRepository
	messages repository.MessageRepository
	users    repository.UserRepository
	notifier RoomNotifier
	log      logger.Logger
}

func NewChatService(
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	notifier RoomNotifier,
	log logger.Logger,
) ChatService {
	return &chatService{chats: chats, messages: messages, users: users, notifier: notifier, log: log}
}

// FindOrCreateIndividualChat returns the existing one-on-one chat between
// the two users or creates it. Concurrent callers racing on creation both
// converge on the same chat: the loser of the insert race re-reads.
func (s *chatService) FindOrCreateIndividualChat(ctx context.Context, creatorID, targetID uuid.UUID) (*domain.Chat, error) {
	if creatorID == targetID {
		return nil, apperrors.ErrValidation
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrValidation
		}
		return nil, err
	}

	existing, err := s.chats.FindIndividualByPair(ctx, creatorID, targetID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	chat := &domain.Chat{
		ID:           uuid.New(),
		Participants: []uuid.UUID{creatorID, targetID},
		Type:         domain.ChatTypeIndividual,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.chats.Create(ctx, chat)
	if errors.Is(err, apperrors.ErrChatAlreadyExists) {
		return s.chats.FindIndividualByPair(ctx, creatorID, targetID)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("Individual chat created", "chat_id", chat.ID)
	return chat, nil
}

func (s *chatService) CreateGroupChat(ctx context.Context, creatorID uuid.UUID, name string, memberIDs []uuid.UUID) (*domain.Chat, error) {
	if name == "" {
		return nil, apperrors.ErrValidation
	}

	participants := dedupParticipants(creatorID, memberIDs)
	if len(participants) < 3 {
		// a group needs the creator plus at least two others
		return nil, apperrors.ErrValidation
	}

	members, err := s.users.GetByIDs(ctx, participants)
	if err != nil {
		return nil, err
	}
	if len(members) != len(participants) {
		return nil, apperrors.ErrValidation
	}

	now := time.Now().UTC()
	chat := &domain.Chat{
		ID:           uuid.New(),
		Participants: participants,
		Type:         domain.ChatTypeGroup,
		Name:         &name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}

	s.log.Info("Group chat created", "chat_id", chat.ID, "participants", len(participants))
	return chat, nil
}

func (s *chatService) GetChat(ctx context.Context, chatID uuid.UUID) (*domain.Chat, error) {
	return s.chats.GetByID(ctx, chatID)
}

func (s *chatService) ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]*ChatSummary, error) {
	chats, err := s.chats.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summary, err := s.buildSummary(ctx, chat)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (s *chatService) buildSummary(ctx context.Context, chat *domain.Chat) (*ChatSummary, error) {
	users, err := s.users.GetByIDs(ctx, chat.Participants)
	if err != nil {
		return nil, err
	}

	participants := make([]Participant, 0, len(users))
	for _, u := range users {
		participants = append(participants, Participant{
			ID:       u.ID,
			Name:     u.Name,
			Avatar:   u.Avatar,
			Status:   u.Status,
			LastSeen: u.LastSeen,
		})
	}

	summary := &ChatSummary{
		ID:           chat.ID,
		Type:         chat.Type,
		Name:         chat.Name,
		Participants: participants,
		UpdatedAt:    chat.UpdatedAt,
	}

	if chat.LastMessageID != nil {
		lastMessage, err := s.messages.GetByID(ctx, *chat.LastMessageID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		// a dangling pointer renders as no preview rather than an error
		summary.LastMessage = lastMessage
	}

	return summary, nil
}

func (s *chatService) AddMember(ctx context.Context, actorID, chatID, memberID uuid.UUID) (*domain.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Type != domain.ChatTypeGroup || !chat.HasParticipant(actorID) {
		return nil, apperrors.ErrNotAuthorized
	}
	if chat.HasParticipant(memberID) {
		return nil, apperrors.ErrAlreadyMember
	}
	if _, err := s.users.GetByID(ctx, memberID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrValidation
		}
		return nil, err
	}

	chat.Participants = append(chat.Participants, memberID)
	if err := s.chats.UpdateParticipants(ctx, chat); err != nil {
		return nil, err
	}

	return chat, nil
}

func (s *chatService) RemoveMember(ctx context.Context, actorID, chatID, memberID uuid.UUID) (*domain.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Type != domain.ChatTypeGroup || !chat.HasParticipant(actorID) {
		return nil, apperrors.ErrNotAuthorized
	}
	if !chat.HasParticipant(memberID) {
		return nil, apperrors.ErrNotMember
	}

	remaining := make([]uuid.UUID, 0, len(chat.Participants)-1)
	for _, id := range chat.Participants {
		if id != memberID {
			remaining = append(remaining, id)
		}
	}

	chat.Participants = remaining
	if err := s.chats.UpdateParticipants(ctx, chat); err != nil {
		return nil, err
	}

	return chat, nil
}

func (s *chatService) RenameChat(ctx context.Context, actorID, chatID uuid.UUID, name string) error {
	if name == "" {
		return apperrors.ErrValidation
	}

	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.Type != domain.ChatTypeGroup || !chat.HasParticipant(actorID) {
		return apperrors.ErrNotAuthorized
	}

	return s.chats.Rename(ctx, chatID, name)
}

// DeleteChat removes the chat row and its message log in one transaction,
// then drops the live room.
func (s *chatService) DeleteChat(ctx context.Context, actorID, chatID uuid.UUID) error {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(actorID) {
		return apperrors.ErrNotAuthorized
	}

	if err := s.chats.DeleteWithMessages(ctx, chatID); err != nil {
		return err
	}

	s.notifier.NotifyChatDeleted(chatID)
	s.log.Info("Chat deleted", "chat_id", chatID, "actor_id", actorID)
	return nil
}

func (s *chatService) SearchUserByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	if phoneNumber == "" {
		return nil, apperrors.ErrValidation
	}
	return s.users.GetByPhoneNumber(ctx, phoneNumber)
}

func dedupParticipants(creatorID uuid.UUID, memberIDs []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{creatorID: {}}
	participants := []uuid.UUID{creatorID}
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, id)
	}
	return participants
}
