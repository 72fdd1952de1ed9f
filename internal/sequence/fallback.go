package sequence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"warehouse-ledger/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FallbackAllocator wraps a primary allocator. When the primary fails it
// returns a uuid-suffixed number that is unique without coordination.
type FallbackAllocator struct {
	primary Allocator
	logger  *zap.Logger
}

func NewFallbackAllocator(primary Allocator, logger *zap.Logger) *FallbackAllocator {
	return &FallbackAllocator{primary: primary, logger: logger}
}

func (a *FallbackAllocator) Next(ctx context.Context, reason domain.Reason, date time.Time) (Number, error) {
	n, err := a.primary.Next(ctx, reason, date)
	if err == nil {
		return n, nil
	}

	a.logger.Warn("Sequence allocator failed, using uuid fallback",
		zap.String("reason", string(reason)),
		zap.Error(err),
	)
	return Unique(reason, date), nil
}

// Unique returns a uuid-suffixed number that needs no coordination. It sorts
// after every counter-allocated number of the same prefix and date.
func Unique(reason domain.Reason, date time.Time) Number {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return Number{
		Value:    fmt.Sprintf("TXN-%s-%s-U%s", reason.Prefix(), date.UTC().Format(dateLayout), suffix),
		Sequence: time.Now().UnixNano(),
	}
}
