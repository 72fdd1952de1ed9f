package middleware

import (
	"fmt"

	apperrors "warehouse-ledger/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RateLimit limits requests per client IP. formatted uses the limiter
// notation, e.g. "300-M". Counters live in Redis when client is set so that
// every API replica shares them, and in process memory otherwise.
func RateLimit(formatted string, client redis.UniversalClient, logger *zap.Logger) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", formatted, err)
	}

	options := limiter.StoreOptions{Prefix: "warehouse-ledger-rate"}
	var store limiter.Store
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, options)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(options)
	}

	instance := limiter.New(store, rate)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			logger.Warn("Rate limit reached",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			stdErr := apperrors.NewStandardError("TooManyRequests", "rate limit exceeded", formatted)
			c.AbortWithStatusJSON(stdErr.HTTPStatus(), stdErr)
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			logger.Error("Rate limiter failed, letting request through", zap.Error(err))
			c.Next()
		}),
	), nil
}
