package middleware

import (
	"net/http"

	apperrors "warehouse-ledger/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error a handler attached with c.Error
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		stdErr := apperrors.FromDomain(c.Errors.Last().Err)
		status := stdErr.HTTPStatus()
		fields := []zap.Field{
			zap.String("error_code", stdErr.Code),
			zap.String("details", stdErr.Details),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("Unhandled error", fields...)
		} else {
			logger.Warn("Request error", fields...)
		}
		c.JSON(status, stdErr)
	}
}

// RecoveryHandler turns panics into a 500 StandardError
func RecoveryHandler(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, apperrors.NewInternalError("internal server error", nil))
	})
}
