package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"social_messenger/internal/service"
	"social_messenger/pkg/logger"
)

type ChatHandler struct {
	chatService service.ChatService
	log         logger.Logger
}

func NewChatHandler(chatService service.ChatService, log logger.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, log: log}
}

// CreateChat starts (or returns) the one-on-one chat with the target user.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req struct {
		TargetUserID uuid.UUID `json:"target_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.chatService.FindOrCreateIndividualChat(c.Request.Context(), userID, req.TargetUserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, chat)
}

func (h *ChatHandler) CreateGroup(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req struct {
		Name      string      `json:"name" binding:"required"`
		MemberIDs []uuid.UUID `json:"member_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.chatService.CreateGroupChat(c.Request.Context(), userID, req.Name, req.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, chat)
}

func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	summaries, err := h.chatService.ListChatsForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

func (h *ChatHandler) Delete(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	if err := h.chatService.DeleteChat(c.Request.Context(), userID, chatID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "chat deleted"})
}

func (h *ChatHandler) AddMember(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		MemberID uuid.UUID `json:"member_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.chatService.AddMember(c.Request.Context(), userID, chatID, req.MemberID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) RemoveMember(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
		return
	}

	chat, err := h.chatService.RemoveMember(c.Request.Context(), userID, chatID, memberID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) Rename(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.chatService.RenameChat(c.Request.Context(), userID, chatID, req.Name); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "chat renamed"})
}

// Search looks a user up by phone number for starting a new chat.
func (h *ChatHandler) Search(c *gin.Context) {
	phone := c.Query("phone")

	user, err := h.chatService.SearchUserByPhone(c.Request.Context(), phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
