package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"social_messenger/pkg/logger"
)

// PresenceRepository mirrors the online/offline flag into redis so chat-list
// previews can check liveness without a postgres round trip. The user row in
// postgres remains the durable record of status and last-seen.
type PresenceRepository interface {
	SetOnline(ctx context.Context, userID uuid.UUID) error
	SetOffline(ctx context.Context, userID uuid.UUID) error
	IsOnline(ctx context.Context, userID uuid.UUID) (bool, error)
}

type presenceRepository struct {
	redis *redis.Client
	ttl   time.Duration
	log   logger.Logger
}

func NewPresenceRepository(redis *redis.Client, ttl time.Duration, log logger.Logger) PresenceRepository {
	return &presenceRepository{redis: redis, ttl: ttl, log: log}
}

func presenceKey(userID uuid.UUID) string {
	return "presence:" + userID.String()
}

func (r *presenceRepository) SetOnline(ctx context.Context, userID uuid.UUID) error {
	err := r.redis.Set(ctx, presenceKey(userID), "1", r.ttl).Err()
	if err != nil {
		r.log.Error("Failed to set presence", "error", err, "user_id", userID)
		return err
	}

	return nil
}

func (r *presenceRepository) SetOffline(ctx context.Context, userID uuid.UUID) error {
	err := r.redis.Del(ctx, presenceKey(userID)).Err()
	if err != nil {
		r.log.Error("Failed to clear presence", "error", err, "user_id", userID)
		return err
	}

	return nil
}

func (r *presenceRepository) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	err := r.redis.Get(ctx, presenceKey(userID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		r.log.Error("Failed to check presence", "error", err, "user_id", userID)
		return false, err
	}

	return true, nil
}
