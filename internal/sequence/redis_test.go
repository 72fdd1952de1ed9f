package sequence

import (
	"context"
	"testing"
	"time"

	"warehouse-ledger/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisAllocator(t *testing.T) (*RedisAllocator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisAllocator(client), mr
}

func TestRedisAllocator_SharedCounter(t *testing.T) {
	ctx := context.Background()
	a, mr := newRedisAllocator(t)
	otherClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer otherClient.Close()
	other := NewRedisAllocator(otherClient)

	n1, err := a.Next(ctx, domain.ReasonGoodsReceipt, day)
	require.NoError(t, err)
	n2, err := other.Next(ctx, domain.ReasonGoodsReceipt, day)
	require.NoError(t, err)

	assert.Equal(t, "TXN-GR-20240315-00000001", n1.Value)
	assert.Equal(t, "TXN-GR-20240315-00000002", n2.Value)
}

func TestRedisAllocator_OldDatesKeepCounting(t *testing.T) {
	ctx := context.Background()
	a, mr := newRedisAllocator(t)
	receivedDate := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

	first, err := a.Next(ctx, domain.ReasonGoodsReceipt, receivedDate)
	require.NoError(t, err)
	assert.Zero(t, mr.TTL("txn-seq:GR:20261015"))

	// a late receipt or replayed event for the same day, days later
	mr.FastForward(49 * time.Hour)
	second, err := a.Next(ctx, domain.ReasonGoodsReceipt, receivedDate)
	require.NoError(t, err)

	assert.Equal(t, "TXN-GR-20261015-00000001", first.Value)
	assert.Equal(t, "TXN-GR-20261015-00000002", second.Value)
}

func TestRedisAllocator_UnavailableFallsBack(t *testing.T) {
	ctx := context.Background()
	a, mr := newRedisAllocator(t)
	mr.Close()

	_, err := a.Next(ctx, domain.ReasonGoodsReceipt, day)
	assert.Error(t, err)

	n, err := NewFallbackAllocator(a, zap.NewNop()).Next(ctx, domain.ReasonGoodsReceipt, day)
	require.NoError(t, err)
	assert.Regexp(t, `^TXN-GR-20240315-U[0-9A-F]{12}$`, n.Value)
}
