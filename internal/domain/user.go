package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	PhoneNumber  string     `json:"phone_number"`
	Name         string     `json:"name"`
	Avatar       string     `json:"avatar"`
	Status       string     `json:"status"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

const DefaultAvatar = "default_avatar.png"
