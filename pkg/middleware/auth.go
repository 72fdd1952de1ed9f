package middleware

import (
	"errors"
	"strings"

	"warehouse-ledger/internal/auth"
	apperrors "warehouse-ledger/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UsernameContextKey holds the authenticated operator name
const UsernameContextKey = "username"

// AuthMiddleware requires a valid bearer token
func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			reject(c, logger, apperrors.NewStandardError("Unauthorized", "missing authorization header", "Header: Authorization"))
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			reject(c, logger, apperrors.NewStandardError("Unauthorized", "invalid authorization header format", "Expected: Bearer <token>"))
			return
		}

		claims, err := jwtManager.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				reject(c, logger, apperrors.NewStandardError("Unauthorized", "token expired", "Token has expired, request a new one"))
				return
			}
			reject(c, logger, apperrors.NewStandardError("Unauthorized", "invalid token", err.Error()))
			return
		}

		c.Set(UsernameContextKey, claims.Username)
		c.Next()
	}
}

// Username returns the authenticated operator, or "" on public routes
func Username(c *gin.Context) string {
	return c.GetString(UsernameContextKey)
}

func reject(c *gin.Context, logger *zap.Logger, stdErr *apperrors.StandardError) {
	logger.Warn("Request rejected",
		zap.String("reason", stdErr.Message),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.AbortWithStatusJSON(stdErr.HTTPStatus(), stdErr)
}
