package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"social_messenger/internal/domain"
	"social_messenger/internal/repository"
	apperrors "social_messenger/pkg/errors"
	"social_messenger/pkg/logger"
)

type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number"`
	Avatar      *string `json:"avatar"`
}

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*domain.User, error)
	IsOnline(ctx context.Context, id uuid.UUID) (bool, error)
}

type userService struct {
	users    repository.UserRepository
	presence repository.PresenceRepository
	log      logger.Logger
}

func NewUserService(users repository.UserRepository, presence repository.PresenceRepository, log logger.Logger) UserService {
	return &userService{users: users, presence: presence, log: log}
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) GetProfile(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.ErrValidation
		}
		user.Name = name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			return nil, apperrors.ErrValidation
		}
		user.Email = email
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("Profile updated", "user_id", id)
	return user, nil
}

func (s *userService) IsOnline(ctx context.Context, id uuid.UUID) (bool, error) {
	online, err := s.presence.IsOnline(ctx, id)
	if err != nil {
		// fall back to the durable status flag when redis is unavailable
		user, uerr := s.users.GetByID(ctx, id)
		if uerr != nil {
			return false, uerr
		}
		return user.Status == domain.StatusOnline, nil
	}
	return online, nil
}
