package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedisLocker_HoldsAndReleases(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	locker := NewRedisLocker(client, zap.NewNop())

	unlock := locker.Acquire(context.Background(), "item:warehouse")
	assert.True(t, mr.Exists("stock-lock:item:warehouse"))

	unlock()
	assert.False(t, mr.Exists("stock-lock:item:warehouse"))
}

func TestRedisLocker_ProceedsWhenLockIsHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	locker := NewRedisLocker(client, zap.New(core))
	locker.ttl = time.Minute

	held := locker.Acquire(context.Background(), "level-1")
	defer held()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	second := locker.Acquire(ctx, "level-1")
	second()

	assert.Equal(t, 1, logs.Len())
	assert.True(t, mr.Exists("stock-lock:level-1"), "the first holder keeps its lock")
}
