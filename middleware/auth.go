package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nambasaf/Azure-a2a-demo/config"
)

// APIKeyHeader carries the shared pipeline key on stage calls.
const APIKeyHeader = "X-Api-Key"

// AuthMiddleware validates the shared api key on stage endpoints. The
// same key authenticates external callers and stage-to-stage triggers.
// An empty configured key disables the check for local development.
func AuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APIKey == "" {
			c.Next()
			return
		}

		key := c.GetHeader(APIKeyHeader)
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing " + APIKeyHeader + " header"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.APIKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid api key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
