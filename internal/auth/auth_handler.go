package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	apperrors "warehouse-ledger/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler exchanges operator credentials for bearer tokens
type AuthHandler struct {
	jwtManager *JWTManager
	users      map[string]string
	logger     *zap.Logger
}

// NewAuthHandler checks logins against users, a username to secret map
func NewAuthHandler(jwtManager *JWTManager, users map[string]string, logger *zap.Logger) *AuthHandler {
	if len(users) == 0 {
		logger.Warn("No operators configured, token requests will be rejected")
	}
	return &AuthHandler{
		jwtManager: jwtManager,
		users:      users,
		logger:     logger,
	}
}

// TokenRequest carries operator credentials
type TokenRequest struct {
	Username string `json:"username" binding:"required,max=100" example:"picker-7"`
	Password string `json:"password" binding:"required" example:"secret"`
}

// TokenResponse is an issued bearer token
type TokenResponse struct {
	Token     string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Type      string    `json:"type" example:"Bearer"`
	ExpiresIn int       `json:"expiresIn" example:"600"`
	ExpiresAt time.Time `json:"expiresAt" example:"2026-10-19T12:00:00Z"`
}

func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/token", h.IssueToken)
}

// IssueToken handles POST /auth/token
// @Summary      Issue a bearer token
// @Description  Exchanges operator credentials for a JWT. The username becomes performedBy on ledger entries when a command body does not name an operator.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      TokenRequest            true  "Operator credentials"
// @Success      200      {object}  TokenResponse
// @Failure      400      {object}  apperrors.StandardError  "Missing credentials"
// @Failure      401      {object}  apperrors.StandardError  "Unknown operator or wrong password"
// @Router       /auth/token [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewInvalidRequest("invalid request body", err.Error()))
		return
	}

	if !h.validCredentials(req.Username, req.Password) {
		h.logger.Warn("Invalid credentials", zap.String("username", req.Username))
		_ = c.Error(apperrors.NewUnauthorized("invalid credentials"))
		return
	}

	token, err := h.jwtManager.GenerateToken(req.Username)
	if err != nil {
		_ = c.Error(apperrors.NewInternalError("failed to generate token", err))
		return
	}

	expiresAt := time.Now().Add(h.jwtManager.TTL())
	h.logger.Info("Token issued",
		zap.String("username", req.Username),
		zap.Time("expires_at", expiresAt),
	)
	c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		Type:      "Bearer",
		ExpiresIn: int(h.jwtManager.TTL().Seconds()),
		ExpiresAt: expiresAt,
	})
}

func (h *AuthHandler) validCredentials(username, password string) bool {
	expected, ok := h.users[username]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(password)) == 1
}
