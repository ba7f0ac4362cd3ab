package service

import (
	"social_messenger/internal/config"
	"social_messenger/internal/repository"
	"social_messenger/pkg/logger"
)

type Services struct {
	Auth       AuthService
	User       UserService
	Chat       ChatService
	Message    MessageService
	Friendship FriendshipService
	Post       PostService
	RateLimit  RateLimitService
}

func NewServices(repos *repository.Repositories, notifier RoomNotifier, cfg *config.Config, log logger.Logger) *Services {
	return &Services{
		Auth:       NewAuthService(repos.User, repos.Presence, cfg.JWT, log),
		User:       NewUserService(repos.User, repos.Presence, log),
		Chat:       NewChatService(repos.Chat, repos.Message, repos.User, notifier, log),
		Message:    NewMessageService(repos.Message, repos.Chat, repos.User, notifier, log),
		Friendship: NewFriendshipService(repos.Friendship, repos.User, log),
		Post:       NewPostService(repos.Post, repos.Friendship, repos.User, log),
		RateLimit:  NewRateLimitService(repos.RateLimit, log),
	}
}
