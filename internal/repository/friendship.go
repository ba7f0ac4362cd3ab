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

type FriendshipRepository interface {
	Create(ctx context.Context, friendship *domain.Friendship) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Friendship, error)
	GetByPair(ctx context.Context, userA, userB uuid.UUID) (*domain.Friendship, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAcceptedPair(ctx context.Context, userA, userB uuid.UUID) (int64, error)
	ListAcceptedForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Friendship, error)
	ListPendingForRecipient(ctx context.Context, userID uuid.UUID) ([]*domain.Friendship, error)
}

type friendshipRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewFriendshipRepository(db *pgxpool.Pool, log logger.Logger) FriendshipRepository {
	return &friendshipRepository{db: db, log: log}
}

const friendshipColumns = `id, requester_id, recipient_id, status, created_at, updated_at`

func (r *friendshipRepository) Create(ctx context.Context, friendship *domain.Friendship) error {
	query := `
		INSERT INTO friendships (id, requester_id, recipient_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		friendship.ID, friendship.RequesterID, friendship.RecipientID,
		friendship.Status, friendship.CreatedAt, friendship.UpdatedAt,
	).Scan(&friendship.CreatedAt, &friendship.UpdatedAt)

	if err != nil {
		r.log.Error("Failed to create friendship", "error", err)
		return fmt.Errorf("failed to create friendship: %w", err)
	}

	return nil
}

func (r *friendshipRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Friendship, error) {
	query := `SELECT ` + friendshipColumns + ` FROM friendships WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *friendshipRepository) GetByPair(ctx context.Context, userA, userB uuid.UUID) (*domain.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE (requester_id = $1 AND recipient_id = $2)
		   OR (requester_id = $2 AND recipient_id = $1)
	`
	return r.scanOne(r.db.QueryRow(ctx, query, userA, userB))
}

func (r *friendshipRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE friendships SET status = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.Error("Failed to update friendship status", "error", err, "friendship_id", id)
		return fmt.Errorf("failed to update friendship status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *friendshipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete friendship", "error", err, "friendship_id", id)
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *friendshipRepository) DeleteAcceptedPair(ctx context.Context, userA, userB uuid.UUID) (int64, error) {
	query := `
		DELETE FROM friendships
		WHERE status = $3
		  AND ((requester_id = $1 AND recipient_id = $2)
		    OR (requester_id = $2 AND recipient_id = $1))
	`

	tag, err := r.db.Exec(ctx, query, userA, userB, domain.FriendshipStatusAccepted)
	if err != nil {
		r.log.Error("Failed to delete friendship pair", "error", err)
		return 0, fmt.Errorf("failed to delete friendship pair: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *friendshipRepository) ListAcceptedForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE status = $2 AND (requester_id = $1 OR recipient_id = $1)
	`
	return r.list(ctx, query, userID, domain.FriendshipStatusAccepted)
}

func (r *friendshipRepository) ListPendingForRecipient(ctx context.Context, userID uuid.UUID) ([]*domain.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE status = $2 AND recipient_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID, domain.FriendshipStatusPending)
}

func (r *friendshipRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Friendship, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list friendships", "error", err)
		return nil, fmt.Errorf("failed to list friendships: %w", err)
	}
	defer rows.Close()

	var friendships []*domain.Friendship
	for rows.Next() {
		friendship, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		friendships = append(friendships, friendship)
	}

	return friendships, rows.Err()
}

func (r *friendshipRepository) scanOne(row pgx.Row) (*domain.Friendship, error) {
	friendship, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return friendship, nil
}

func (r *friendshipRepository) scanRow(row rowScanner) (*domain.Friendship, error) {
	friendship := &domain.Friendship{}
	err := row.Scan(
		&friendship.ID, &friendship.RequesterID, &friendship.RecipientID,
		&friendship.Status, &friendship.CreatedAt, &friendship.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return friendship, nil
}
