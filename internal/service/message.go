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

type SendMessageRequest struct {
	ChatID  uuid.UUID `json:"chat_id" binding:"required"`
	Content string    `json:"content" binding:"required"`
	Type    string    `json:"type"`
	FileURL *string   `json:"file_url"`
}

type EditMessageRequest struct {
	Content string  `json:"content" binding:"required"`
	Type    string  `json:"type"`
	FileURL *string `json:"file_url"`
}

// MessageView is a message with its sender resolved for display.
type MessageView struct {
	*domain.Message
	Sender *Participant `json:"sender,omitempty"`
}

type MessageService interface {
	Append(ctx context.Context, senderID uuid.UUID, req *SendMessageRequest) (*domain.Message, error)
	ListByChat(ctx context.Context, userID, chatID uuid.UUID) ([]*MessageView, error)
	Edit(ctx context.Context, actorID, messageID uuid.UUID, req *EditMessageRequest) (*domain.Message, error)
	Remove(ctx context.Context, actorID, messageID uuid.UUID) error
	MarkRead(ctx context.Context, userID, messageID uuid.UUID) error
}

type messageService struct {
	messages repository.MessageRepository
	chats    repository.ChatRepository
	users    repository.UserRepository
	notifier RoomNotifier
	log      logger.Logger
}

func NewMessageService(
	messages repository.MessageRepository,
	chats repository.ChatRepository,
	users repository.UserRepository,
	notifier RoomNotifier,
	log logger.Logger,
) MessageService {
	return &messageService{messages: messages, chats: chats, users: users, notifier: notifier, log: log}
}

// Append persists a message, advances the chat's last-message pointer, and
// fans the message out to the live room. The append is durable once the
// insert succeeds; pointer and fan-out failures are logged, never returned.
func (s *messageService) Append(ctx context.Context, senderID uuid.UUID, req *SendMessageRequest) (*domain.Message, error) {
	if req.Content == "" {
		return nil, apperrors.ErrValidation
	}

	chat, err := s.chats.GetByID(ctx, req.ChatID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrValidation
		}
		return nil, err
	}
	if !chat.HasParticipant(senderID) {
		return nil, apperrors.ErrNotAuthorized
	}
	if _, err := s.users.GetByID(ctx, senderID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrValidation
		}
		return nil, err
	}

	messageType := req.Type
	if messageType == "" {
		messageType = domain.MessageTypeText
	}

	now := time.Now().UTC()
	message := &domain.Message{
		ID:        uuid.New(),
		ChatID:    req.ChatID,
		SenderID:  senderID,
		Content:   req.Content,
		Type:      messageType,
		FileURL:   req.FileURL,
		ReadBy:    []uuid.UUID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	if _, err := s.chats.SetLastMessage(ctx, message.ChatID, &message.ID); err != nil {
		s.log.Error("Failed to advance last message pointer", "error", err, "chat_id", message.ChatID, "message_id", message.ID)
	}

	s.notifier.NotifyMessage(ctx, message)
	return message, nil
}

func (s *messageService) ListByChat(ctx context.Context, userID, chatID uuid.UUID) ([]*MessageView, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, apperrors.ErrNotAuthorized
	}

	messages, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	senders, err := s.users.GetByIDs(ctx, chat.Participants)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*Participant, len(senders))
	for _, u := range senders {
		byID[u.ID] = &Participant{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Status: u.Status, LastSeen: u.LastSeen}
	}

	views := make([]*MessageView, 0, len(messages))
	for _, message := range messages {
		views = append(views, &MessageView{Message: message, Sender: byID[message.SenderID]})
	}

	return views, nil
}

func (s *messageService) Edit(ctx context.Context, actorID, messageID uuid.UUID, req *EditMessageRequest) (*domain.Message, error) {
	if req.Content == "" {
		return nil, apperrors.ErrValidation
	}

	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != actorID {
		return nil, apperrors.ErrNotAuthorized
	}

	message.Content = req.Content
	if req.Type != "" {
		message.Type = req.Type
	}
	if req.FileURL != nil {
		message.FileURL = req.FileURL
	}

	if err := s.messages.Update(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

// Remove deletes a message and, when it was the chat's latest, walks the
// pointer back to the new latest message (or clears it for an empty log).
func (s *messageService) Remove(ctx context.Context, actorID, messageID uuid.UUID) error {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != actorID {
		return apperrors.ErrNotAuthorized
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return err
	}

	chat, err := s.chats.GetByID(ctx, message.ChatID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		s.log.Error("Failed to load chat after message delete", "error", err, "chat_id", message.ChatID)
		return nil
	}
	if chat.LastMessageID == nil || *chat.LastMessageID != messageID {
		return nil
	}

	var latestID *uuid.UUID
	latest, err := s.messages.GetLatestForChat(ctx, message.ChatID)
	switch {
	case err == nil:
		latestID = &latest.ID
	case errors.Is(err, apperrors.ErrNotFound):
		// log is empty, pointer clears
	default:
		s.log.Error("Failed to recompute last message", "error", err, "chat_id", message.ChatID)
		return nil
	}

	if _, err := s.chats.SetLastMessage(ctx, message.ChatID, latestID); err != nil {
		s.log.Error("Failed to rewind last message pointer", "error", err, "chat_id", message.ChatID)
	}

	return nil
}

// MarkRead records that a user has seen a message. Repeat calls are no-ops;
// the read set only grows.
func (s *messageService) MarkRead(ctx context.Context, userID, messageID uuid.UUID) error {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	chat, err := s.chats.GetByID(ctx, message.ChatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return apperrors.ErrNotAuthorized
	}

	return s.messages.MarkRead(ctx, messageID, userID)
}
