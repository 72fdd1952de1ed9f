package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"warehouse-ledger/internal/auth"
	"warehouse-ledger/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": GetRequestID(c)})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestRequestIDMiddleware_UsesProvidedID(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-42", w.Body.String())
}

func idempotentRouter(store ResponseStore, status int) (*gin.Engine, *int) {
	calls := 0
	router := gin.New()
	router.Use(RequestIDMiddleware(), IdempotencyMiddleware(store, zap.NewNop(), time.Minute))
	router.POST("/command", func(c *gin.Context) {
		calls++
		c.JSON(status, gin.H{"call": calls})
	})
	return router, &calls
}

func TestIdempotencyMiddleware_ReplaysSuccessfulCommand(t *testing.T) {
	router, calls := idempotentRouter(NewInMemoryResponseStore(), http.StatusCreated)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/command", nil)
		req.Header.Set(RequestIDHeader, "req-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send()
	second := send()

	assert.Equal(t, 1, *calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
}

func TestIdempotencyMiddleware_DoesNotCacheFailures(t *testing.T) {
	router, calls := idempotentRouter(NewInMemoryResponseStore(), http.StatusConflict)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/command", nil)
		req.Header.Set(RequestIDHeader, "req-1")
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2, *calls)
}

func TestIdempotencyMiddleware_IgnoresRequestsWithoutClientID(t *testing.T) {
	router, calls := idempotentRouter(NewInMemoryResponseStore(), http.StatusOK)

	for i := 0; i < 2; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/command", nil))
	}

	assert.Equal(t, 2, *calls)
}

func TestInMemoryResponseStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryResponseStore()
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Store(ctx, "req-1", CachedResponse{Status: 200, Body: []byte(`{}`)}, time.Minute))
	_, err := store.Get(ctx, "req-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "req-1")
	assert.ErrorIs(t, err, ErrResponseNotFound)
}

func TestErrorHandler_MapsDomainErrors(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(zap.NewNop()))
	router.GET("/conflict", func(c *gin.Context) {
		_ = c.Error(domain.ErrInsufficientAvailableStock)
	})
	router.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("disk on fire"))
	})

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/conflict", http.StatusConflict, "InsufficientStock"},
		{"/boom", http.StatusInternalServerError, "InternalError"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

		assert.Equal(t, tt.status, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tt.code, body["error"])
	}
}

func TestRecoveryHandler(t *testing.T) {
	router := gin.New()
	router.Use(RecoveryHandler(zap.NewNop()))
	router.GET("/panic", func(c *gin.Context) { panic("handler bug") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	manager := auth.NewJWTManager("test-secret-key-with-at-least-32-chars", time.Minute, zap.NewNop())
	token, err := manager.GenerateToken("counter-3")
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthMiddleware(manager, zap.NewNop()))
	router.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, Username(c))
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "counter-3", w.Body.String())
			}
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware())
	router.POST("/command", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/command", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	limit, err := RateLimit("2-M", nil, zap.NewNop())
	require.NoError(t, err)

	router := gin.New()
	router.Use(limit)
	router.GET("/stock", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stock", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	_, err = RateLimit("lots", nil, zap.NewNop())
	assert.Error(t, err)
}
