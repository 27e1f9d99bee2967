package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyMiddleware rejects requests whose X-API-Key header does not match
// the configured key. An empty configured key disables the check, which is
// the expected setup for local development.
func APIKeyMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}

		key := c.GetHeader("X-API-Key")

		if key == "" || key != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok":    false,
				"error": "invalid API key",
			})
			return
		}

		c.Next()
	}
}
