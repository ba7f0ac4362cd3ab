package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"social_messenger/internal/hub"
	"social_messenger/internal/service"
	"social_messenger/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub         *hub.Hub
	authService service.AuthService
	log         logger.Logger
}

func NewWebSocketHandler(h *hub.Hub, authService service.AuthService, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: h, authService: authService, log: log}
}

// HandleConnection authenticates via the token query parameter, upgrades
// the connection, and runs the session pumps. Browsers cannot set headers
// on websocket requests, hence the query parameter.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
		return
	}

	user, err := h.authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Websocket upgrade failed", "error", err, "user_id", user.ID)
		return
	}

	session := hub.NewSession(h.hub, conn, user.ID, h.log)
	h.log.Info("Websocket connected", "user_id", user.ID)

	go session.WritePump()
	session.ReadPump(c.Request.Context())
}
