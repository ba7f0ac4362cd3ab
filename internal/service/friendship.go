package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"social_messenger/internal/domain"
	"social_messenger/internal/repository"
	apperrors "social_messenger/pkg/errors"
	"social_messenger/pkg/logger"
)

// FriendRequestView is a pending request with its requester resolved.
type FriendRequestView struct {
	ID        uuid.UUID   `json:"id"`
	Requester Participant `json:"requester"`
	CreatedAt time.Time   `json:"created_at"`
}

type FriendshipService interface {
	SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID) (*domain.Friendship, error)
	Accept(ctx context.Context, actorID, requestID uuid.UUID) (*domain.Friendship, error)
	Reject(ctx context.Context, actorID, requestID uuid.UUID) error
	ListFriends(ctx context.Context, userID uuid.UUID) ([]*domain.User, error)
	ListRequests(ctx context.Context, userID uuid.UUID) ([]*FriendRequestView, error)
	RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error
	AreFriends(ctx context.Context, userA, userB uuid.UUID) (bool, error)
}

type friendshipService struct {
	friendships repository.FriendshipRepository
	users       repository.UserRepository
	log         logger.Logger
}

func NewFriendshipService(friendships repository.FriendshipRepository, users repository.UserRepository, log logger.Logger) FriendshipService {
	return &friendshipService{friendships: friendships, users: users, log: log}
}

func (s *friendshipService) SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID) (*domain.Friendship, error) {
	if requesterID == recipientID {
		return nil, apperrors.ErrValidation
	}
	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrValidation
		}
		return nil, err
	}

	existing, err := s.friendships.GetByPair(ctx, requesterID, recipientID)
	if err == nil && existing != nil {
		return nil, apperrors.ErrValidation
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	friendship := &domain.Friendship{
		ID:          uuid.New(),
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      domain.FriendshipStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.friendships.Create(ctx, friendship); err != nil {
		return nil, err
	}

	s.log.Info("Friend request sent", "requester_id", requesterID, "recipient_id", recipientID)
	return friendship, nil
}

func (s *friendshipService) Accept(ctx context.Context, actorID, requestID uuid.UUID) (*domain.Friendship, error) {
	friendship, err := s.friendships.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if friendship.RecipientID != actorID {
		return nil, apperrors.ErrNotAuthorized
	}
	if friendship.Status != domain.FriendshipStatusPending {
		return nil, apperrors.ErrValidation
	}

	if err := s.friendships.UpdateStatus(ctx, requestID, domain.FriendshipStatusAccepted); err != nil {
		return nil, err
	}

	friendship.Status = domain.FriendshipStatusAccepted
	return friendship, nil
}

func (s *friendshipService) Reject(ctx context.Context, actorID, requestID uuid.UUID) error {
	friendship, err := s.friendships.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if friendship.RecipientID != actorID {
		return apperrors.ErrNotAuthorized
	}

	return s.friendships.Delete(ctx, requestID)
}

func (s *friendshipService) ListFriends(ctx context.Context, userID uuid.UUID) ([]*domain.User, error) {
	accepted, err := s.friendships.ListAcceptedForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accepted) == 0 {
		return []*domain.User{}, nil
	}

	friendIDs := make([]uuid.UUID, 0, len(accepted))
	for _, f := range accepted {
		friendIDs = append(friendIDs, f.OtherParty(userID))
	}

	return s.users.GetByIDs(ctx, friendIDs)
}

func (s *friendshipService) ListRequests(ctx context.Context, userID uuid.UUID) ([]*FriendRequestView, error) {
	pending, err := s.friendships.ListPendingForRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return []*FriendRequestView{}, nil
	}

	requesterIDs := make([]uuid.UUID, 0, len(pending))
	for _, f := range pending {
		requesterIDs = append(requesterIDs, f.RequesterID)
	}
	requesters, err := s.users.GetByIDs(ctx, requesterIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.User, len(requesters))
	for _, u := range requesters {
		byID[u.ID] = u
	}

	views := make([]*FriendRequestView, 0, len(pending))
	for _, f := range pending {
		requester, ok := byID[f.RequesterID]
		if !ok {
			continue
		}
		views = append(views, &FriendRequestView{
			ID: f.ID,
			Requester: Participant{
				ID:       requester.ID,
				Name:     requester.Name,
				Avatar:   requester.Avatar,
				Status:   requester.Status,
				LastSeen: requester.LastSeen,
			},
			CreatedAt: f.CreatedAt,
		})
	}

	return views, nil
}

func (s *friendshipService) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	removed, err := s.friendships.DeleteAcceptedPair(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return apperrors.ErrNotFound
	}

	s.log.Info("Friendship removed", "user_id", userID, "friend_id", friendID)
	return nil
}

func (s *friendshipService) AreFriends(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	friendship, err := s.friendships.GetByPair(ctx, userA, userB)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return friendship.Status == domain.FriendshipStatusAccepted, nil
}
