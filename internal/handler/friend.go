package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"social_messenger/internal/service"
	"social_messenger/pkg/logger"
)

type FriendHandler struct {
	friendshipService service.FriendshipService
	log               logger.Logger
}

func NewFriendHandler(friendshipService service.FriendshipService, log logger.Logger) *FriendHandler {
	return &FriendHandler{friendshipService: friendshipService, log: log}
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req struct {
		RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	friendship, err := h.friendshipService.SendRequest(c.Request.Context(), userID, req.RecipientID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, friendship)
}

func (h *FriendHandler) Accept(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	friendship, err := h.friendshipService.Accept(c.Request.Context(), userID, requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, friendship)
}

func (h *FriendHandler) Reject(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	if err := h.friendshipService.Reject(c.Request.Context(), userID, requestID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "request rejected"})
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	friends, err := h.friendshipService.ListFriends(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, friends)
}

func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	requests, err := h.friendshipService.ListRequests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

func (h *FriendHandler) Check(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	otherID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	friends, err := h.friendshipService.AreFriends(c.Request.Context(), userID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *FriendHandler) Remove(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	friendID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.friendshipService.RemoveFriend(c.Request.Context(), userID, friendID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "friend removed"})
}
