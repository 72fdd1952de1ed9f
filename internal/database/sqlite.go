package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SingleWriterDB records which broker events the listener already applied.
// SQLite allows one writer at a time, so every write goes through mu.
type SingleWriterDB struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.Mutex // Mutex to ensure single writer
}

// ProcessedEvent is one row of processed_events
type ProcessedEvent struct {
	EventID     string
	EventType   string
	Topic       string
	Partition   int32
	Offset      int64
	ProcessedAt time.Time
}

// Stats summarises listener progress for the monitoring endpoint
type Stats struct {
	Processed     int64      `json:"processed"`
	Failed        int64      `json:"failed"`
	LastProcessed *time.Time `json:"lastProcessed,omitempty"`
}

// NewSingleWriterDB opens the SQLite file at path and creates the schema
func NewSingleWriterDB(path string, logger *zap.Logger) (*SingleWriterDB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // Single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	swdb := &SingleWriterDB{
		db:     db,
		logger: logger,
	}

	if err := swdb.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return swdb, nil
}

func (swdb *SingleWriterDB) initSchema() error {
	schema := `
	-- One row per broker event applied to the ledger
	CREATE TABLE IF NOT EXISTS processed_events (
		event_id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		topic TEXT NOT NULL,
		partition_no INTEGER NOT NULL,
		offset_value INTEGER NOT NULL,
		processed_at TEXT NOT NULL
	);

	-- Events that exhausted their retries
	CREATE TABLE IF NOT EXISTS failed_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT,
		event_type TEXT,
		topic TEXT NOT NULL,
		partition_no INTEGER NOT NULL,
		offset_value INTEGER NOT NULL,
		error TEXT NOT NULL,
		payload BLOB,
		failed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_processed_events_processed_at ON processed_events(processed_at);
	CREATE INDEX IF NOT EXISTS idx_failed_events_event_id ON failed_events(event_id);
	`

	_, err := swdb.db.Exec(schema)
	return err
}

// Ping checks the database connection
func (swdb *SingleWriterDB) Ping(ctx context.Context) error {
	return swdb.db.PingContext(ctx)
}

// Close closes the database connection
func (swdb *SingleWriterDB) Close() error {
	return swdb.db.Close()
}

// IsProcessed reports whether eventID was already applied
func (swdb *SingleWriterDB) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists int
	err := swdb.db.QueryRowContext(ctx, `SELECT 1 FROM processed_events WHERE event_id = ?`, eventID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}
	return true, nil
}

// MarkProcessed records an applied event. Recording the same event twice is a no-op.
func (swdb *SingleWriterDB) MarkProcessed(ctx context.Context, ev ProcessedEvent) error {
	swdb.mu.Lock()
	defer swdb.mu.Unlock()

	if ev.ProcessedAt.IsZero() {
		ev.ProcessedAt = time.Now().UTC()
	}
	_, err := swdb.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO processed_events (event_id, event_type, topic, partition_no, offset_value, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.EventID, ev.EventType, ev.Topic, ev.Partition, ev.Offset, ev.ProcessedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	swdb.logger.Debug("Event marked processed",
		zap.String("event_id", ev.EventID),
		zap.String("event_type", ev.EventType),
		zap.Int64("offset", ev.Offset),
	)
	return nil
}

// RecordFailure stores an event that could not be processed after all retries
func (swdb *SingleWriterDB) RecordFailure(ctx context.Context, ev ProcessedEvent, payload []byte, cause error) error {
	swdb.mu.Lock()
	defer swdb.mu.Unlock()

	_, err := swdb.db.ExecContext(ctx, `
		INSERT INTO failed_events (event_id, event_type, topic, partition_no, offset_value, error, payload, failed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.EventID, ev.EventType, ev.Topic, ev.Partition, ev.Offset, cause.Error(), payload, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record failed event: %w", err)
	}
	return nil
}

// Stats counts processed and failed events
func (swdb *SingleWriterDB) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	var last sql.NullString

	err := swdb.db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(processed_at) FROM processed_events`).Scan(&stats.Processed, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to count processed events: %w", err)
	}
	if err := swdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM failed_events`).Scan(&stats.Failed); err != nil {
		return nil, fmt.Errorf("failed to count failed events: %w", err)
	}
	if last.Valid {
		if t, err := time.Parse(time.RFC3339Nano, last.String); err == nil {
			stats.LastProcessed = &t
		}
	}
	return &stats, nil
}
