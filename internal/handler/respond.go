package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "social_messenger/pkg/errors"
)

// respondError maps a service error onto the response. Known error kinds keep
// their message; anything that falls through to 500 is masked with a generic
// body so store and driver detail never reaches the client.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatusFromError(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
