package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/events"
	"warehouse-ledger/internal/repository"
	"warehouse-ledger/internal/sequence"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	systemUser = "system"
	// allocationAttempts bounds counter re-allocation after a transaction number collision
	allocationAttempts = 3
)

type movement struct {
	txType         domain.TransactionType
	reason         domain.Reason
	quantity       int64
	quantityBefore int64
	unitCost       decimal.Decimal
	notes          string
}

var updateMovements = map[domain.ChangeType]struct {
	txType domain.TransactionType
	reason domain.Reason
}{
	domain.ChangeIncrease:      {domain.TransactionIn, domain.ReasonStockIncrease},
	domain.ChangeDecrease:      {domain.TransactionOut, domain.ReasonStockDecrease},
	domain.ChangeRelease:       {domain.TransactionAdjustment, domain.ReasonReservationReleased},
	domain.ChangeCancel:        {domain.TransactionAdjustment, domain.ReasonReservationCancelled},
	domain.ChangeExpire:        {domain.TransactionAdjustment, domain.ReasonReservationExpired},
	domain.ChangePickConfirmed: {domain.TransactionOut, domain.ReasonPickConfirmed},
}

// Writer turns stock level events into ledger entries. Writes are best
// effort: a failure is logged as ledger_write_failure and never returned,
// because the stock change it describes already committed.
type Writer struct {
	store     repository.Store
	allocator sequence.Allocator
	logger    *zap.Logger
}

func NewWriter(store repository.Store, allocator sequence.Allocator, logger *zap.Logger) *Writer {
	return &Writer{store: store, allocator: allocator, logger: logger}
}

// Register subscribes the writer to every stock event type
func (w *Writer) Register(d *events.Dispatcher) {
	d.Subscribe(domain.EventTypeStockReserved, w.HandleReservation)
	d.Subscribe(domain.EventTypeStockAllocated, w.HandleReservation)
	d.Subscribe(domain.EventTypeStockUpdated, w.HandleUpdate)
	d.Subscribe(domain.EventTypeStockCounted, w.HandleCount)
}

// HandleReservation records RESERVED and ALLOCATED adjustments at zero cost
func (w *Writer) HandleReservation(ctx context.Context, event domain.Event) error {
	var m movement
	switch e := event.(type) {
	case *domain.StockReserved:
		m = movement{
			txType:         domain.TransactionAdjustment,
			reason:         domain.ReasonReserved,
			quantity:       e.Quantity,
			quantityBefore: e.AvailableBefore(),
			notes:          reservedNotes(e),
		}
	case *domain.StockAllocated:
		m = movement{
			txType:         domain.TransactionAdjustment,
			reason:         domain.ReasonAllocated,
			quantity:       e.Quantity,
			quantityBefore: e.UnallocatedBefore(),
			notes:          allocatedNotes(e),
		}
	default:
		w.logger.Warn("Unexpected event for reservation handler", zap.String("event_type", event.EventType()))
		return nil
	}
	w.record(ctx, event, m)
	return nil
}

// HandleUpdate maps the change type to an entry. Location moves and
// changes already recorded inside their own transaction are skipped.
func (w *Writer) HandleUpdate(ctx context.Context, event domain.Event) error {
	e, ok := event.(*domain.StockUpdated)
	if !ok {
		return nil
	}
	if e.LedgerRecorded || e.Change == domain.ChangeLocation {
		return nil
	}
	mapping, ok := updateMovements[e.Change]
	if !ok {
		w.logger.Warn("Unmapped stock change type", zap.String("change_type", string(e.Change)))
		return nil
	}

	unitCost := e.UnitCost
	if mapping.txType == domain.TransactionAdjustment {
		unitCost = decimal.Zero
	}
	w.record(ctx, event, movement{
		txType:         mapping.txType,
		reason:         mapping.reason,
		quantity:       e.Quantity,
		quantityBefore: e.QuantityBefore,
		unitCost:       unitCost,
		notes:          updatedNotes(e),
	})
	return nil
}

// HandleCount records COUNT_GAIN or COUNT_LOSS. A count with no variance writes nothing.
func (w *Writer) HandleCount(ctx context.Context, event domain.Event) error {
	e, ok := event.(*domain.StockCounted)
	if !ok || e.Variance == 0 {
		return nil
	}
	reason := domain.ReasonCountGain
	quantity := e.Variance
	if e.Variance < 0 {
		reason = domain.ReasonCountLoss
		quantity = -e.Variance
	}
	w.record(ctx, event, movement{
		txType:         domain.TransactionAdjustment,
		reason:         reason,
		quantity:       quantity,
		quantityBefore: e.QuantityBefore,
		notes:          countedNotes(e),
	})
	return nil
}

func (w *Writer) record(ctx context.Context, event domain.Event, m movement) {
	meta := event.Meta()
	snapshot := event.StockSnapshot()
	date := meta.OccurredAt
	if date.IsZero() {
		date = time.Now().UTC()
	}

	var err error
	for attempt := 1; attempt <= allocationAttempts+1; attempt++ {
		err = w.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			exists, err := tx.Ledger().ExistsForEvent(ctx, meta.ID)
			if err != nil {
				return err
			}
			if exists {
				w.logger.Debug("Ledger entry already recorded for event, skipping",
					zap.String("event_id", meta.ID.String()),
					zap.String("event_type", event.EventType()),
				)
				return nil
			}

			var number sequence.Number
			if attempt > allocationAttempts {
				number = sequence.Unique(m.reason, date)
			} else if number, err = w.allocator.Next(ctx, m.reason, date); err != nil {
				return fmt.Errorf("failed to allocate transaction number: %w", err)
			}

			return tx.Ledger().Append(ctx, &domain.LedgerEntry{
				ID:                uuid.New(),
				TransactionNumber: number.Value,
				Sequence:          number.Sequence,
				EventID:           meta.ID,
				StockLevelID:      snapshot.StockLevelID,
				ItemID:            snapshot.Key.ItemID,
				WarehouseID:       snapshot.Key.WarehouseID,
				LocationID:        snapshot.Key.LocationID,
				Type:              m.txType,
				Reason:            m.reason,
				Quantity:          m.quantity,
				QuantityBefore:    m.quantityBefore,
				UnitCost:          m.unitCost,
				TransactionDate:   date,
				Reference:         meta.Reference,
				Notes:             m.notes,
				PerformedBy:       performer(meta.PerformedBy),
				IsApproved:        true,
				CreatedAt:         time.Now().UTC(),
			})
		})
		// A duplicate is either a number another writer already used or a
		// concurrent delivery of this event; the next attempt tells them apart.
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		w.logger.Warn("Transaction number collision, reallocating",
			zap.String("event_id", meta.ID.String()),
			zap.String("reason", string(m.reason)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	if err != nil {
		w.logger.Error("ledger_write_failure",
			zap.Error(fmt.Errorf("%w: %v", domain.ErrLedgerWrite, err)),
			zap.String("event_id", meta.ID.String()),
			zap.String("event_type", event.EventType()),
			zap.String("reason", string(m.reason)),
			zap.Int64("quantity", m.quantity),
			zap.Int64("quantity_before", m.quantityBefore),
			zap.String("stock_level_id", snapshot.StockLevelID.String()),
			zap.String("stock_key", snapshot.Key.String()),
			zap.String("reference", meta.Reference),
		)
	}
}

func performer(user string) string {
	if user == "" {
		return systemUser
	}
	return user
}
