package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"social_messenger/pkg/logger"
)

type Repositories struct {
	User       UserRepository
	Chat       ChatRepository
	Message    MessageRepository
	Friendship FriendshipRepository
	Post       PostRepository
	Presence   PresenceRepository
	RateLimit  RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, redis *redis.Client, presenceTTL time.Duration, log logger.Logger) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db, log),
		Chat:       NewChatRepository(db, log),
		Message:    NewMessageRepository(db, log),
		Friendship: NewFriendshipRepository(db, log),
		Post:       NewPostRepository(db, log),
		Presence:   NewPresenceRepository(redis, presenceTTL, log),
		RateLimit:  NewRateLimitRepository(redis, log),
	}
}
