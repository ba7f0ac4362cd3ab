package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"social_messenger/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Session binds one websocket connection to the hub. Outbound events flow
// through a buffered channel; Deliver drops instead of blocking when the
// client cannot keep up, so a slow reader never stalls the hub loop.
type Session struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID
	send   chan Event
	log    logger.Logger

	closeOnce sync.Once
}

func NewSession(h *Hub, conn *websocket.Conn, userID uuid.UUID, log logger.Logger) *Session {
	return &Session{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan Event, sendBufferSize),
		log:    log,
	}
}

func (s *Session) Deliver(evt Event) {
	select {
	case s.send <- evt:
	default:
		s.log.Warn("Dropping event for slow session", "event", evt.Name, "user_id", s.userID)
	}
}

// Close is called by the hub after the session leaves its last room.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinChatData struct {
	ChatID uuid.UUID `json:"chatId"`
}

type typingData struct {
	ChatID uuid.UUID `json:"chatId"`
}

type liveMessageData struct {
	ChatID  uuid.UUID `json:"chatId"`
	Content string    `json:"content"`
	Type    string    `json:"type"`
	FileURL *string   `json:"fileUrl"`
}

// ReadPump consumes inbound frames until the connection drops, then tells
// the hub the session is gone. Runs on the caller's goroutine.
func (s *Session) ReadPump(ctx context.Context) {
	defer func() {
		s.hub.Disconnect(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("Websocket read failed", "error", err, "user_id", s.userID)
			}
			return
		}

		var evt inboundEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			s.log.Debug("Ignoring malformed frame", "error", err, "user_id", s.userID)
			continue
		}

		s.dispatch(ctx, evt)
	}
}

func (s *Session) dispatch(ctx context.Context, evt inboundEvent) {
	switch evt.Event {
	case "joinChat":
		var data joinChatData
		if err := json.Unmarshal(evt.Data, &data); err != nil || data.ChatID == uuid.Nil {
			return
		}
		s.hub.Join(s, data.ChatID)

	case "leaveChat":
		var data joinChatData
		if err := json.Unmarshal(evt.Data, &data); err != nil || data.ChatID == uuid.Nil {
			return
		}
		s.hub.Leave(s, data.ChatID)

	case "typing":
		var data typingData
		if err := json.Unmarshal(evt.Data, &data); err != nil || data.ChatID == uuid.Nil {
			return
		}
		s.hub.NotifyTyping(data.ChatID, s.userID, s)

	case "newMessage":
		var data liveMessageData
		if err := json.Unmarshal(evt.Data, &data); err != nil || data.ChatID == uuid.Nil {
			return
		}
		s.hub.NotifyLiveMessage(ctx, MessagePayload{
			ChatID:    data.ChatID,
			SenderID:  s.userID,
			Content:   data.Content,
			Type:      data.Type,
			FileURL:   data.FileURL,
			CreatedAt: time.Now().UTC(),
		}, s)

	default:
		s.log.Debug("Unknown websocket event", "event", evt.Event, "user_id", s.userID)
	}
}

// WritePump drains the send channel onto the wire and keeps the connection
// alive with pings. Exits when the hub closes the channel or a write fails.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(evt); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
