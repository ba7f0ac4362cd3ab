package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"social_messenger/internal/domain"
	apperrors "social_messenger/pkg/errors"
	"social_messenger/pkg/logger"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListByChat(ctx context.Context, chatID uuid.UUID) ([]*domain.Message, error)
	GetLatestForChat(ctx context.Context, chatID uuid.UUID) (*domain.Message, error)
	Update(ctx context.Context, message *domain.Message) error
	Delete(ctx context.Context, id uuid.UUID) error
	MarkRead(ctx context.Context, messageID, userID uuid.UUID) error
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

const messageColumns = `id, chat_id, sender_id, content, type, file_url, read_by, created_at, updated_at`

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender_id, content, type, file_url, read_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		message.ID, message.ChatID, message.SenderID, message.Content, message.Type,
		message.FileURL, message.ReadBy, message.CreatedAt, message.UpdatedAt,
	).Scan(&message.CreatedAt, &message.UpdatedAt)

	if err != nil {
		r.log.Error("Failed to create message", "error", err, "chat_id", message.ChatID)
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *messageRepository) ListByChat(ctx context.Context, chatID uuid.UUID) ([]*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE chat_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, chatID)
	if err != nil {
		r.log.Error("Failed to list messages", "error", err, "chat_id", chatID)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		message, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func (r *messageRepository) GetLatestForChat(ctx context.Context, chatID uuid.UUID) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE chat_id = $1 ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRow(ctx, query, chatID))
}

func (r *messageRepository) Update(ctx context.Context, message *domain.Message) error {
	query := `
		UPDATE messages
		SET content = $2, type = $3, file_url = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		message.ID, message.Content, message.Type, message.FileURL,
	).Scan(&message.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		r.log.Error("Failed to update message", "error", err, "message_id", message.ID)
		return fmt.Errorf("failed to update message: %w", err)
	}

	return nil
}

func (r *messageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete message", "error", err, "message_id", id)
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// MarkRead appends userID to read_by only when absent, so repeated calls
// are idempotent and the set never shrinks.
func (r *messageRepository) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	query := `
		UPDATE messages
		SET read_by = array_append(read_by, $2)
		WHERE id = $1 AND NOT ($2 = ANY(read_by))
	`

	_, err := r.db.Exec(ctx, query, messageID, userID)
	if err != nil {
		r.log.Error("Failed to mark message read", "error", err, "message_id", messageID)
		return fmt.Errorf("failed to mark message read: %w", err)
	}

	return nil
}

func (r *messageRepository) scanOne(row pgx.Row) (*domain.Message, error) {
	message, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return message, nil
}

func (r *messageRepository) scanRow(row rowScanner) (*domain.Message, error) {
	message := &domain.Message{}
	err := row.Scan(
		&message.ID, &message.ChatID, &message.SenderID, &message.Content, &message.Type,
		&message.FileURL, &message.ReadBy, &message.CreatedAt, &message.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return message, nil
}
