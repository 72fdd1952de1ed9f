package sequence

import (
	"context"
	"time"

	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/repository"
)

// StoreAllocator keeps counters in the database, row-locked per (prefix, date).
// When ctx carries a transaction the counter update joins it.
type StoreAllocator struct {
	store repository.Store
}

func NewStoreAllocator(store repository.Store) *StoreAllocator {
	return &StoreAllocator{store: store}
}

func (a *StoreAllocator) Next(ctx context.Context, reason domain.Reason, date time.Time) (Number, error) {
	prefix := reason.Prefix()
	sequences := a.store.Sequences()
	if tx, ok := repository.TxFromContext(ctx); ok {
		sequences = tx.Sequences()
	}

	seq, err := sequences.Next(ctx, prefix, date.UTC().Format(dateLayout))
	if err != nil {
		return Number{}, err
	}
	return newNumber(prefix, date, seq)
}
