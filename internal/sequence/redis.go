package sequence

import (
	"context"
	"fmt"
	"time"

	"warehouse-ledger/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisAllocator uses INCR on txn-seq:<prefix>:<date>, shared by every instance.
// Counters never expire: receipts and replayed events may carry old dates, and
// a recreated key would hand out numbers already in the ledger.
type RedisAllocator struct {
	client redis.UniversalClient
}

func NewRedisAllocator(client redis.UniversalClient) *RedisAllocator {
	return &RedisAllocator{client: client}
}

func (a *RedisAllocator) Next(ctx context.Context, reason domain.Reason, date time.Time) (Number, error) {
	prefix := reason.Prefix()
	key := "txn-seq:" + counterKey(prefix, date)

	seq, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return Number{}, fmt.Errorf("failed to increment sequence %s: %w", key, err)
	}
	return newNumber(prefix, date, seq)
}
