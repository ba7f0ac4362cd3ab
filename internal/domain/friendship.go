package domain

import (
	"time"

	"github.com/google/uuid"
)

type Friendship struct {
	ID          uuid.UUID `json:"id"`
	RequesterID uuid.UUID `json:"requester_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	FriendshipStatusPending  = "pending"
	FriendshipStatusAccepted = "accepted"
)

// OtherParty returns the friend seen from userID's side of the relationship.
func (f *Friendship) OtherParty(userID uuid.UUID) uuid.UUID {
	if f.RequesterID == userID {
		return f.RecipientID
	}
	return f.RequesterID
}
