package service

import (
	"context"
	"time"

	"social_messenger/internal/repository"
	"social_messenger/pkg/logger"
)

type RateLimitService interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, error)
}

type rateLimitService struct {
	limits repository.RateLimitRepository
	log    logger.Logger
}

func NewRateLimitService(limits repository.RateLimitRepository, log logger.Logger) RateLimitService {
	return &rateLimitService{limits: limits, log: log}
}

// Allow applies a fixed-window counter and reports whether the request fits
// under the limit, plus the count consumed so far in the window.
func (s *rateLimitService) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, error) {
	ok, err := s.limits.CheckLimit(ctx, key, limit, window)
	if err != nil {
		return false, 0, err
	}
	if !ok {
		return false, int64(limit), nil
	}

	count, err := s.limits.Increment(ctx, key, window)
	if err != nil {
		return false, 0, err
	}

	return count <= int64(limit), count, nil
}
