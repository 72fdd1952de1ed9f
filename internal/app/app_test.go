package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"warehouse-ledger/internal/config"
	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/events"
	"warehouse-ledger/internal/lock"
	"warehouse-ledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenStore_Memory(t *testing.T) {
	store, err := OpenStore(context.Background(), &config.Config{DBDriver: "memory"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &repository.MemoryStore{}, store)
}

func TestNewAllocator(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	for _, backend := range []string{"", "memory", "db"} {
		allocator, err := NewAllocator(&config.Config{SequenceBackend: backend}, store, nil, zap.NewNop())
		require.NoError(t, err, backend)
		n, err := allocator.Next(ctx, domain.ReasonCountGain, testDate)
		require.NoError(t, err)
		assert.Equal(t, "TXN-CNT-20240502-00000001", n.Value, backend)
	}

	_, err := NewAllocator(&config.Config{SequenceBackend: "redis"}, store, nil, zap.NewNop())
	assert.Error(t, err)
	_, err = NewAllocator(&config.Config{SequenceBackend: "zookeeper"}, store, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestNewAllocator_PersistentStoreNeedsSharedCounters(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{DBDriver: "sqlite", DBName: filepath.Join(t.TempDir(), "ledger.db"), DBAutoMigrate: true}
	store, err := OpenStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &repository.GormStore{}, store)

	cfg.SequenceBackend = "memory"
	_, err = NewAllocator(cfg, store, nil, zap.NewNop())
	assert.Error(t, err)

	// Two processes sharing the database continue one counter
	cfg.SequenceBackend = ""
	api, err := NewAllocator(cfg, store, nil, zap.NewNop())
	require.NoError(t, err)
	listener, err := NewAllocator(cfg, store, nil, zap.NewNop())
	require.NoError(t, err)

	first, err := api.Next(ctx, domain.ReasonStockIncrease, testDate)
	require.NoError(t, err)
	second, err := listener.Next(ctx, domain.ReasonStockIncrease, testDate)
	require.NoError(t, err)
	assert.Equal(t, "TXN-INC-20240502-00000001", first.Value)
	assert.Equal(t, "TXN-INC-20240502-00000002", second.Value)
}

func TestNewLockerAndPublisher_WithoutInfrastructure(t *testing.T) {
	assert.IsType(t, &lock.LocalLocker{}, NewLocker(nil, zap.NewNop()))

	publisher := NewPublisher(context.Background(), &config.Config{EventBroker: "memory"}, zap.NewNop())
	assert.IsType(t, &events.InMemoryEventPublisher{}, publisher)
}

var testDate = time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
