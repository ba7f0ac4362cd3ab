package domain

import (
	"time"

	"github.com/google/uuid"
)

// Chat is a conversation between two (individual) or more (group) users.
// At most one individual chat exists per unordered participant pair.
type Chat struct {
	ID            uuid.UUID   `json:"id"`
	Participants  []uuid.UUID `json:"participants"`
	Type          string      `json:"type"`
	Name          *string     `json:"name,omitempty"`
	LastMessageID *uuid.UUID  `json:"last_message_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

const (
	ChatTypeIndividual = "individual"
	ChatTypeGroup      = "group"
)

// HasParticipant reports whether userID belongs to the chat.
func (c *Chat) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

type Message struct {
	ID        uuid.UUID   `json:"id"`
	ChatID    uuid.UUID   `json:"chat_id"`
	SenderID  uuid.UUID   `json:"sender_id"`
	Content   string      `json:"content"`
	Type      string      `json:"type"`
	FileURL   *string     `json:"file_url,omitempty"`
	ReadBy    []uuid.UUID `json:"read_by"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)
