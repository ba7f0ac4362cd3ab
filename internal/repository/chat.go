package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"social_messenger/internal/domain"
	apperrors "social_messenger/pkg/errors"
	"social_messenger/pkg/logger"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error)
	FindIndividualByPair(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error)
	UpdateParticipants(ctx context.Context, chat *domain.Chat) error
	Rename(ctx context.Context, chatID uuid.UUID, name string) error
	SetLastMessage(ctx context.Context, chatID uuid.UUID, messageID *uuid.UUID) (*domain.Chat, error)
	DeleteWithMessages(ctx context.Context, chatID uuid.UUID) error
}

type chatRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewChatRepository(db *pgxpool.Pool, log logger.Logger) ChatRepository {
	return &chatRepository{db: db, log: log}
}

// IndividualPairKey builds the sorted participant-pair key backing the
// unique index that guarantees at most one individual chat per pair.
func IndividualPairKey(userA, userB uuid.UUID) string {
	a, b := userA.String(), userB.String()
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}

const chatColumns = `id, participants, type, name, last_message_id, created_at, updated_at`

func (r *chatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	query := `
		INSERT INTO chats (id, participants, type, name, pair_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	var pairKey *string
	if chat.Type == domain.ChatTypeIndividual && len(chat.Participants) == 2 {
		key := IndividualPairKey(chat.Participants[0], chat.Participants[1])
		pairKey = &key
	}

	err := r.db.QueryRow(ctx, query,
		chat.ID, chat.Participants, chat.Type, chat.Name, pairKey, chat.CreatedAt, chat.UpdatedAt,
	).Scan(&chat.CreatedAt, &chat.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// unique pair_key violation: another caller created the chat first
			r.log.Debug("Individual chat already exists", "constraint", pgErr.ConstraintName)
			return apperrors.ErrChatAlreadyExists
		}
		r.log.Error("Failed to create chat", "error", err)
		return fmt.Errorf("failed to create chat: %w", err)
	}

	return nil
}

func (r *chatRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *chatRepository) FindIndividualByPair(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE type = $1 AND pair_key = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, domain.ChatTypeIndividual, IndividualPairKey(userA, userB)))
}

func (r *chatRepository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE participants @> ARRAY[$1]::uuid[]
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list chats", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []*domain.Chat
	for rows.Next() {
		chat, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}

	return chats, rows.Err()
}

func (r *chatRepository) UpdateParticipants(ctx context.Context, chat *domain.Chat) error {
	query := `
		UPDATE chats
		SET participants = $2, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query, chat.ID, chat.Participants).Scan(&chat.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		r.log.Error("Failed to update participants", "error", err, "chat_id", chat.ID)
		return fmt.Errorf("failed to update participants: %w", err)
	}

	return nil
}

func (r *chatRepository) Rename(ctx context.Context, chatID uuid.UUID, name string) error {
	query := `UPDATE chats SET name = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, chatID, name)
	if err != nil {
		r.log.Error("Failed to rename chat", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to rename chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// SetLastMessage is the atomic update-and-fetch behind the last-message
// pointer. A nil messageID clears the pointer.
func (r *chatRepository) SetLastMessage(ctx context.Context, chatID uuid.UUID, messageID *uuid.UUID) (*domain.Chat, error) {
	query := `
		UPDATE chats
		SET last_message_id = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + chatColumns + `
	`

	return r.scanOne(r.db.QueryRow(ctx, query, chatID, messageID))
}

// DeleteWithMessages removes the chat and its message log in one
// transaction, so a failure never leaves orphaned messages behind a
// missing chat.
func (r *chatRepository) DeleteWithMessages(ctx context.Context, chatID uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE chat_id = $1`, chatID); err != nil {
			return fmt.Errorf("failed to delete chat messages: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM chats WHERE id = $1`, chatID)
		if err != nil {
			return fmt.Errorf("failed to delete chat: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}

		return nil
	})
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		r.log.Error("Failed to delete chat", "error", err, "chat_id", chatID)
	}

	return err
}

func (r *chatRepository) scanOne(row pgx.Row) (*domain.Chat, error) {
	chat, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return chat, nil
}

func (r *chatRepository) scanRow(row rowScanner) (*domain.Chat, error) {
	chat := &domain.Chat{}
	err := row.Scan(
		&chat.ID, &chat.Participants, &chat.Type, &chat.Name,
		&chat.LastMessageID, &chat.CreatedAt, &chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return chat, nil
}
