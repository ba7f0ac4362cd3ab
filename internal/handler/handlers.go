package handler

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"social_messenger/internal/hub"
	"social_messenger/internal/service"
	"social_messenger/pkg/logger"
)

type Handlers struct {
	Auth      *AuthHandler
	User      *UserHandler
	Chat      *ChatHandler
	Message   *MessageHandler
	Friend    *FriendHandler
	Post      *PostHandler
	WebSocket *WebSocketHandler
	Health    *HealthHandler
}

func NewHandlers(services *service.Services, h *hub.Hub, db *pgxpool.Pool, redis *redis.Client, log logger.Logger) *Handlers {
	return &Handlers{
		Auth:      NewAuthHandler(services.Auth, log),
		User:      NewUserHandler(services.User, log),
		Chat:      NewChatHandler(services.Chat, log),
		Message:   NewMessageHandler(services.Message, log),
		Friend:    NewFriendHandler(services.Friendship, log),
		Post:      NewPostHandler(services.Post, log),
		WebSocket: NewWebSocketHandler(h, services.Auth, log),
		Health:    NewHealthHandler(db, redis),
	}
}
