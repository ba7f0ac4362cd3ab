package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "social_messenger/pkg/errors"
	"social_messenger/pkg/logger"
)

// ErrorHandler turns errors attached to the gin context into a JSON response
// with the status derived from the error kind. Handlers that write their own
// responses bypass it.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apperrors.HTTPStatusFromError(err)
		if status >= 500 {
			// log the real cause, return a generic body
			log.Error("Request failed", "error", err, "path", c.Request.URL.Path)
			c.JSON(status, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(status, gin.H{"error": err.Error()})
	}
}
