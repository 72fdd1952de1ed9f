package repository

import (
	"context"
	"errors"
	"time"

	"warehouse-ledger/internal/domain"

	"github.com/google/uuid"
)

var (
	// ErrConcurrentUpdate is returned when an optimistic version check fails
	ErrConcurrentUpdate = errors.New("concurrent update detected")
	// ErrDuplicate is returned when a unique key (transaction number, event id) already exists
	ErrDuplicate = errors.New("duplicate record")
)

// StockFilter narrows stock level listings. Nil fields match everything.
type StockFilter struct {
	ItemID      *uuid.UUID
	WarehouseID *uuid.UUID
}

// LedgerFilter narrows ledger listings. Results are ordered by transaction date, then sequence.
type LedgerFilter struct {
	ItemID      *uuid.UUID
	WarehouseID *uuid.UUID
	Limit       int
}

// StockLevelRepository persists StockLevel aggregates
type StockLevelRepository interface {
	// GetForUpdate loads and row-locks the level for key. Returns domain.ErrStockLevelNotFound.
	GetForUpdate(ctx context.Context, key domain.StockKey) (*domain.StockLevel, error)
	// GetByID loads the level by id, row-locking it when called inside a transaction
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StockLevel, error)
	Create(ctx context.Context, level *domain.StockLevel) error
	// Update stores level if the persisted version still equals expectedVersion
	Update(ctx context.Context, level *domain.StockLevel, expectedVersion int64) error
	SumOnHand(ctx context.Context, itemID, warehouseID uuid.UUID) (int64, error)
	List(ctx context.Context, filter StockFilter) ([]*domain.StockLevel, error)
}

// LedgerRepository is the append-only store of ledger entries
type LedgerRepository interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) error
	ExistsForEvent(ctx context.Context, eventID uuid.UUID) (bool, error)
	List(ctx context.Context, filter LedgerFilter) ([]*domain.LedgerEntry, error)
}

// PurchaseOrderRepository persists the receiving slice of purchase orders
type PurchaseOrderRepository interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error)
	// FindByLineID resolves and row-locks the order owning lineID through the line's parent key
	FindByLineID(ctx context.Context, lineID uuid.UUID) (*domain.PurchaseOrder, error)
	Save(ctx context.Context, po *domain.PurchaseOrder) error
}

// ReservationRepository persists reservations
type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	Update(ctx context.Context, r *domain.Reservation, expectedVersion int64) error
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error)
}

// SequenceRepository hands out per (prefix, date) counters
type SequenceRepository interface {
	Next(ctx context.Context, prefix, date string) (int64, error)
}

// ReceiptRepository remembers which goods receipts were already applied
type ReceiptRepository interface {
	IsProcessed(ctx context.Context, receiptID uuid.UUID) (bool, error)
	MarkProcessed(ctx context.Context, receiptID uuid.UUID, receiptNumber string) error
}

// Tx is the set of repositories bound to one transaction
type Tx interface {
	StockLevels() StockLevelRepository
	Ledger() LedgerRepository
	PurchaseOrders() PurchaseOrderRepository
	Reservations() ReservationRepository
	Sequences() SequenceRepository
	Receipts() ReceiptRepository
}

// Store is the persistence boundary. Its own repositories run outside any transaction.
type Store interface {
	Tx
	// WithinTx runs fn in one transaction. A nested call joins the transaction already in ctx.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

type txKey struct{}

// ContextWithTx attaches tx to ctx
func ContextWithTx(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction attached to ctx, if any
func TxFromContext(ctx context.Context) (Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(Tx)
	return tx, ok
}

// LevelLockKey names the distributed lock for a stock level. The id survives
// relocation, so every command on the level contends on the same key.
func LevelLockKey(id uuid.UUID) string {
	return "level:" + id.String()
}

// LockKeyFor resolves the lock name for the level at key. A level that does
// not exist yet is locked by its key until creation assigns it an id.
func LockKeyFor(ctx context.Context, levels StockLevelRepository, key domain.StockKey) string {
	level, err := levels.GetForUpdate(ctx, key)
	if err != nil {
		return "key:" + key.String()
	}
	return LevelLockKey(level.ID)
}
