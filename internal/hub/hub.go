package hub

import (
	"context"
	"time"

	"github.com/google/uuid"

	"social_messenger/internal/domain"
	"social_messenger/pkg/logger"
)

const (
	EventMessage     = "message"
	EventTyping      = "typing"
	EventChatDeleted = "chatDeleted"
)

// Event is the envelope fanned out to sessions and written to the wire.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"data"`
}

type MessagePayload struct {
	ChatID    uuid.UUID `json:"chatId"`
	SenderID  uuid.UUID `json:"senderId"`
	Avatar    string    `json:"avatar"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	FileURL   *string   `json:"fileUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type TypingPayload struct {
	UserID uuid.UUID `json:"userId"`
}

type ChatDeletedPayload struct {
	ChatID uuid.UUID `json:"chatId"`
}

// Subscriber is a live client session from the hub's point of view.
// Deliver must not block; Close is invoked by the hub exactly once, after
// the subscriber has been removed from every room.
type Subscriber interface {
	Deliver(evt Event)
	Close()
}

// UserReader is the read-only User collaborator used to resolve sender
// avatars at publish time.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type joinCmd struct {
	sub    Subscriber
	chatID uuid.UUID
}

type leaveCmd struct {
	sub    Subscriber
	chatID uuid.UUID
}

type disconnectCmd struct {
	sub Subscriber
}

type publishCmd struct {
	chatID uuid.UUID
	evt    Event
	except Subscriber
	evict  bool
}

// Hub is the single-process room broker. Room state is owned by the Run
// goroutine and mutated only through the command channel, so no lock is
// needed. Delivery is best-effort, at-most-once per joined session, with
// no persistence: a session that is not joined at publish time never sees
// the event, and all memberships vanish on restart.
type Hub struct {
	users    UserReader
	log      logger.Logger
	commands chan any

	rooms  map[uuid.UUID]map[Subscriber]struct{}
	joined map[Subscriber]map[uuid.UUID]struct{}
}

func New(users UserReader, log logger.Logger) *Hub {
	return &Hub{
		users:    users,
		log:      log,
		commands: make(chan any, 256),
		rooms:    make(map[uuid.UUID]map[Subscriber]struct{}),
		joined:   make(map[Subscriber]map[uuid.UUID]struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("Hub stopping")
			return
		case cmd := <-h.commands:
			h.handle(cmd)
		}
	}
}

func (h *Hub) handle(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		room, ok := h.rooms[c.chatID]
		if !ok {
			room = make(map[Subscriber]struct{})
			h.rooms[c.chatID] = room
		}
		room[c.sub] = struct{}{}
		if h.joined[c.sub] == nil {
			h.joined[c.sub] = make(map[uuid.UUID]struct{})
		}
		h.joined[c.sub][c.chatID] = struct{}{}

	case leaveCmd:
		h.removeFromRoom(c.sub, c.chatID)

	case disconnectCmd:
		for chatID := range h.joined[c.sub] {
			h.removeFromRoom(c.sub, chatID)
		}
		delete(h.joined, c.sub)
		c.sub.Close()

	case publishCmd:
		for sub := range h.rooms[c.chatID] {
			if sub == c.except {
				continue
			}
			sub.Deliver(c.evt)
		}
		if c.evict {
			for sub := range h.rooms[c.chatID] {
				delete(h.joined[sub], c.chatID)
			}
			delete(h.rooms, c.chatID)
		}
	}
}

func (h *Hub) removeFromRoom(sub Subscriber, chatID uuid.UUID) {
	if room, ok := h.rooms[chatID]; ok {
		delete(room, sub)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
	if chats, ok := h.joined[sub]; ok {
		delete(chats, chatID)
	}
}

// Join is idempotent: joining the same room twice still yields one delivery
// per event.
func (h *Hub) Join(sub Subscriber, chatID uuid.UUID) {
	h.commands <- joinCmd{sub: sub, chatID: chatID}
}

func (h *Hub) Leave(sub Subscriber, chatID uuid.UUID) {
	h.commands <- leaveCmd{sub: sub, chatID: chatID}
}

// Disconnect releases every room membership the session holds. It is safe
// to call for sessions that never joined anything.
func (h *Hub) Disconnect(sub Subscriber) {
	h.commands <- disconnectCmd{sub: sub}
}

func (h *Hub) Publish(chatID uuid.UUID, evt Event) {
	h.commands <- publishCmd{chatID: chatID, evt: evt}
}

func (h *Hub) PublishExcept(chatID uuid.UUID, evt Event, except Subscriber) {
	h.commands <- publishCmd{chatID: chatID, evt: evt, except: except}
}

// NotifyMessage fans out a persisted message to its chat room. The sender
// avatar is resolved here, at publish time; a failed lookup degrades to an
// empty avatar rather than losing the event.
func (h *Hub) NotifyMessage(ctx context.Context, message *domain.Message) {
	payload := MessagePayload{
		ChatID:    message.ChatID,
		SenderID:  message.SenderID,
		Avatar:    h.resolveAvatar(ctx, message.SenderID),
		Content:   message.Content,
		Type:      message.Type,
		FileURL:   message.FileURL,
		CreatedAt: message.CreatedAt,
	}
	h.Publish(message.ChatID, Event{Name: EventMessage, Payload: payload})
}

// NotifyLiveMessage relays a fire-and-forget message event from one session
// to the rest of the room, without persistence.
func (h *Hub) NotifyLiveMessage(ctx context.Context, payload MessagePayload, from Subscriber) {
	payload.Avatar = h.resolveAvatar(ctx, payload.SenderID)
	h.PublishExcept(payload.ChatID, Event{Name: EventMessage, Payload: payload}, from)
}

// NotifyTyping reaches every session in the room except the one composing.
func (h *Hub) NotifyTyping(chatID, userID uuid.UUID, from Subscriber) {
	h.PublishExcept(chatID, Event{Name: EventTyping, Payload: TypingPayload{UserID: userID}}, from)
}

// NotifyChatDeleted tells the room its chat is gone, then discards the room
// mapping itself.
func (h *Hub) NotifyChatDeleted(chatID uuid.UUID) {
	evt := Event{Name: EventChatDeleted, Payload: ChatDeletedPayload{ChatID: chatID}}
	h.commands <- publishCmd{chatID: chatID, evt: evt, evict: true}
}

func (h *Hub) resolveAvatar(ctx context.Context, senderID uuid.UUID) string {
	sender, err := h.users.GetByID(ctx, senderID)
	if err != nil {
		h.log.Warn("Failed to resolve sender avatar", "error", err, "sender_id", senderID)
		return ""
	}
	return sender.Avatar
}
