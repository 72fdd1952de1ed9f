package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader carries the client's request id
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey is the gin context key for the request id
	RequestIDContextKey = "request_id"
	// ReplayedHeader is set on responses served from the idempotency cache
	ReplayedHeader = "X-Idempotent-Replay"
)

// ErrResponseNotFound is returned by a ResponseStore without a cached response
var ErrResponseNotFound = errors.New("cached response not found")

// CachedResponse is a stored command response
type CachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// ResponseStore caches command responses by request id so a retried command
// is answered without being applied twice
type ResponseStore interface {
	Get(ctx context.Context, requestID string) (*CachedResponse, error)
	Store(ctx context.Context, requestID string, response CachedResponse, ttl time.Duration) error
}

// InMemoryResponseStore keeps responses in process memory
type InMemoryResponseStore struct {
	mu      sync.RWMutex
	entries map[string]cachedEntry
	now     func() time.Time
}

type cachedEntry struct {
	response  CachedResponse
	expiresAt time.Time
}

func NewInMemoryResponseStore() *InMemoryResponseStore {
	return &InMemoryResponseStore{
		entries: make(map[string]cachedEntry),
		now:     time.Now,
	}
}

func (s *InMemoryResponseStore) Get(_ context.Context, requestID string) (*CachedResponse, error) {
	s.mu.RLock()
	entry, ok := s.entries[requestID]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expiresAt) {
		return nil, ErrResponseNotFound
	}
	response := entry.response
	return &response, nil
}

func (s *InMemoryResponseStore) Store(_ context.Context, requestID string, response CachedResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[requestID] = cachedEntry{response: response, expiresAt: s.now().Add(ttl)}
	return nil
}

// Cleanup drops expired entries until ctx is cancelled
func (s *InMemoryResponseStore) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for id, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

// RedisResponseStore shares cached responses between API replicas
type RedisResponseStore struct {
	client redis.UniversalClient
}

func NewRedisResponseStore(client redis.UniversalClient) *RedisResponseStore {
	return &RedisResponseStore{client: client}
}

func (s *RedisResponseStore) key(requestID string) string {
	return "idempotency:" + requestID
}

func (s *RedisResponseStore) Get(ctx context.Context, requestID string) (*CachedResponse, error) {
	data, err := s.client.Get(ctx, s.key(requestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrResponseNotFound
	}
	if err != nil {
		return nil, err
	}
	var response CachedResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (s *RedisResponseStore) Store(ctx context.Context, requestID string, response CachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(requestID), data, ttl).Err()
}

// RequestIDMiddleware reuses the client's X-Request-ID or generates one
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDContextKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the request id set by RequestIDMiddleware
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}

// IdempotencyMiddleware replays the cached response of a command already
// answered under the same client-supplied X-Request-ID. Only 2xx responses
// are cached, so a rejected command can be retried. Store failures are
// logged and the request proceeds.
func IdempotencyMiddleware(store ResponseStore, logger *zap.Logger, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || c.GetHeader(RequestIDHeader) == "" {
			c.Next()
			return
		}
		requestID := c.GetHeader(RequestIDHeader)
		ctx := c.Request.Context()

		cached, err := store.Get(ctx, requestID)
		switch {
		case err == nil:
			logger.Info("Duplicate request detected, returning cached response",
				zap.String("request_id", requestID),
				zap.String("path", c.Request.URL.Path),
			)
			c.Header(ReplayedHeader, "true")
			c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
			c.Abort()
			return
		case !errors.Is(err, ErrResponseNotFound):
			logger.Warn("Failed to read idempotency cache", zap.String("request_id", requestID), zap.Error(err))
		}

		writer := &responseWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		status := writer.Status()
		if status < 200 || status >= 300 || len(writer.body) == 0 {
			return
		}
		if err := store.Store(ctx, requestID, CachedResponse{Status: status, Body: writer.body}, ttl); err != nil {
			logger.Warn("Failed to store response for idempotency", zap.String("request_id", requestID), zap.Error(err))
		}
	}
}

// responseWriter captures the response body
type responseWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body = append(w.body, s...)
	return w.ResponseWriter.WriteString(s)
}
