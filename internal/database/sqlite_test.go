package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *SingleWriterDB {
	t.Helper()
	db, err := NewSingleWriterDB(filepath.Join(t.TempDir(), "events.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSingleWriterDB_ProcessedEvents(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	processed, err := db.IsProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, processed)

	ev := ProcessedEvent{EventID: "evt-1", EventType: "StockReserved", Topic: "warehouse.stock", Partition: 0, Offset: 42}
	require.NoError(t, db.MarkProcessed(ctx, ev))
	require.NoError(t, db.MarkProcessed(ctx, ev))

	processed, err = db.IsProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, processed)

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Processed)
	assert.NotNil(t, stats.LastProcessed)
}

func TestSingleWriterDB_RecordFailure(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	err := db.RecordFailure(ctx, ProcessedEvent{EventID: "evt-9", Topic: "warehouse.stock"}, []byte(`{}`), errors.New("decode failed"))
	require.NoError(t, err)

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(0), stats.Processed)
	assert.Nil(t, stats.LastProcessed)
}
