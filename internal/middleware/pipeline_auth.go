package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "tradedesk/internal/errors"
)

// PipelineAuthMiddleware guards the market data ingest routes with the shared
// X-API-Key used by the oracle.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, apperrors.ErrPipelineNotConfigured)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
