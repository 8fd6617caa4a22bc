package webserver

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIKey enforces the static shared-secret header on protected routes.
func APIKey(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
			log.Printf("api: unauthorized request from %s (request %s)", c.ClientIP(), c.GetString("request_id"))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Invalid or missing API key",
			})
			return
		}
		c.Next()
	}
}

// RequestID tags every request with a UUID for log correlation and echoes it
// back in the response headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
