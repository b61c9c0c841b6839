package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "tradedesk/internal/errors"
	"tradedesk/internal/logger"
)

// WriteError renders err as {"error":{"code","message"}}. AppErrors keep their
// status and code; anything else is logged and reported as INTERNAL_ERROR so
// internals never reach the client.
func WriteError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		appErr = apperrors.ErrInternalServer
	} else if appErr.Internal != nil {
		logger.Get().Errorw("app error",
			"code", appErr.Code,
			"message", appErr.Message,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
		)
	}

	c.JSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

// ErrorHandler renders the last error attached to the context with c.Error
// when the handler itself wrote nothing.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}

func abortWithError(c *gin.Context, appErr *apperrors.AppError) {
	c.Abort()
	WriteError(c, appErr)
}
