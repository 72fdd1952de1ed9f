package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"warehouse-ledger/internal/auth"
	"warehouse-ledger/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	manager := auth.NewJWTManager("test-secret-key-with-at-least-32-chars", 5*time.Minute, logger)

	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))
	v1 := router.Group("/api/v1")
	auth.NewAuthHandler(manager, map[string]string{"picker-7": "s3cret"}, logger).Register(v1)
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(manager, logger))
	protected.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": middleware.Username(c)})
	})
	return router, manager
}

func postToken(router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_IssuedTokenOpensProtectedRoutes(t *testing.T) {
	router, manager := setupAuthRouter(t)

	w := postToken(router, auth.TokenRequest{Username: "picker-7", Password: "s3cret"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp auth.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.Type)
	assert.Equal(t, 300, resp.ExpiresIn)

	claims, err := manager.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "picker-7", claims.Username)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "picker-7")
}

func TestAuthHandler_RejectsBadCredentials(t *testing.T) {
	router, _ := setupAuthRouter(t)

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"wrong password", auth.TokenRequest{Username: "picker-7", Password: "guess"}, http.StatusUnauthorized},
		{"unknown operator", auth.TokenRequest{Username: "nobody", Password: "s3cret"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"username": "picker-7"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postToken(router, tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.NotContains(t, w.Body.String(), "token\"")
		})
	}
}
