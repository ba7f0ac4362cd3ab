package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"social_messenger/internal/config"
	"social_messenger/internal/domain"
	"social_messenger/internal/repository"
	apperrors "social_messenger/pkg/errors"
	"social_messenger/pkg/jwt"
	"social_messenger/pkg/logger"
)

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Name        string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *domain.User `json:"user"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
}

type authService struct {
	users    repository.UserRepository
	presence repository.PresenceRepository
	cfg      config.JWTConfig
	log      logger.Logger
}

func NewAuthService(users repository.UserRepository, presence repository.PresenceRepository, cfg config.JWTConfig, log logger.Logger) AuthService {
	return &authService{users: users, presence: presence, cfg: cfg, log: log}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Name == "" || req.PhoneNumber == "" {
		return nil, apperrors.ErrValidation
	}
	if len(req.Password) < 8 {
		return nil, apperrors.ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("Failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		Name:         strings.TrimSpace(req.Name),
		Avatar:       domain.DefaultAvatar,
		Status:       domain.StatusOffline,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("User registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.users.UpdateStatus(ctx, user.ID, domain.StatusOnline, now); err != nil {
		s.log.Warn("Failed to flip status on login", "error", err, "user_id", user.ID)
	} else {
		user.Status = domain.StatusOnline
		user.LastSeen = &now
	}
	if err := s.presence.SetOnline(ctx, user.ID); err != nil {
		s.log.Warn("Failed to set presence on login", "error", err, "user_id", user.ID)
	}

	return s.issueTokens(user)
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	now := time.Now().UTC()
	if err := s.users.UpdateStatus(ctx, userID, domain.StatusOffline, now); err != nil {
		return err
	}
	if err := s.presence.SetOffline(ctx, userID); err != nil {
		s.log.Warn("Failed to clear presence on logout", "error", err, "user_id", userID)
	}

	s.log.Info("User logged out", "user_id", userID)
	return nil
}

// Refresh trades a valid refresh token for a fresh token pair. Refresh tokens
// are signature-validated only; there is no server-side session table.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.RefreshSecret, s.cfg.Issuer)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	return s.issueTokens(user)
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return apperrors.ErrValidation
	}
	if len(req.NewPassword) < 8 {
		return apperrors.ErrValidation
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("Failed to hash password", "error", err)
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	return s.users.Update(ctx, user)
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := jwt.ValidateToken(token, s.cfg.AccessSecret, s.cfg.Issuer)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	return user, nil
}

func (s *authService) issueTokens(user *domain.User) (*LoginResponse, error) {
	accessToken, err := jwt.GenerateAccessToken(user.ID, user.Email, s.cfg.AccessSecret, s.cfg.Issuer, s.cfg.AccessTTL)
	if err != nil {
		s.log.Error("Failed to generate access token", "error", err)
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := jwt.GenerateRefreshToken(user.ID, s.cfg.RefreshSecret, s.cfg.Issuer, s.cfg.RefreshTTL)
	if err != nil {
		s.log.Error("Failed to generate refresh token", "error", err)
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}
