package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Balance compares ledger replay with stock level totals for one (item, warehouse)
type Balance struct {
	ItemID      uuid.UUID `json:"itemId"`
	WarehouseID uuid.UUID `json:"warehouseId"`
	OnHand      int64     `json:"onHand"`
	LedgerTotal int64     `json:"ledgerTotal"`
	Entries     int       `json:"entries"`
}

// Drift is LedgerTotal - OnHand. Zero means the pair reconciles.
func (b Balance) Drift() int64 { return b.LedgerTotal - b.OnHand }

// Report is the result of one reconciliation pass
type Report struct {
	CheckedAt time.Time `json:"checkedAt"`
	Balances  []Balance `json:"balances"`
	Drifted   int       `json:"drifted"`
}

type pair struct {
	item, warehouse uuid.UUID
}

// Reconciler replays the ledger against stock levels and reports drift
type Reconciler struct {
	store  repository.Store
	logger *zap.Logger
}

func NewReconciler(store repository.Store, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Reconcile checks every (item, warehouse) pair matching filter
func (r *Reconciler) Reconcile(ctx context.Context, filter repository.StockFilter) (*Report, error) {
	levels, err := r.store.StockLevels().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock levels: %w", err)
	}

	seen := make(map[pair]bool)
	pairs := make([]pair, 0)
	for _, l := range levels {
		p := pair{l.Key.ItemID, l.Key.WarehouseID}
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].item != pairs[j].item {
			return pairs[i].item.String() < pairs[j].item.String()
		}
		return pairs[i].warehouse.String() < pairs[j].warehouse.String()
	})

	report := &Report{CheckedAt: time.Now().UTC(), Balances: make([]Balance, 0, len(pairs))}
	for _, p := range pairs {
		b, err := r.balance(ctx, p)
		if err != nil {
			return nil, err
		}
		if b.Drift() != 0 {
			report.Drifted++
			r.logger.Error("stock_ledger_drift",
				zap.String("item_id", b.ItemID.String()),
				zap.String("warehouse_id", b.WarehouseID.String()),
				zap.Int64("on_hand", b.OnHand),
				zap.Int64("ledger_total", b.LedgerTotal),
				zap.Int64("drift", b.Drift()),
			)
		}
		report.Balances = append(report.Balances, b)
	}
	return report, nil
}

func (r *Reconciler) balance(ctx context.Context, p pair) (Balance, error) {
	onHand, err := r.store.StockLevels().SumOnHand(ctx, p.item, p.warehouse)
	if err != nil {
		return Balance{}, fmt.Errorf("failed to sum on hand: %w", err)
	}
	entries, err := r.store.Ledger().List(ctx, repository.LedgerFilter{ItemID: &p.item, WarehouseID: &p.warehouse})
	if err != nil {
		return Balance{}, fmt.Errorf("failed to list ledger: %w", err)
	}
	return Balance{
		ItemID:      p.item,
		WarehouseID: p.warehouse,
		OnHand:      onHand,
		LedgerTotal: domain.ReplayOnHand(entries),
		Entries:     len(entries),
	}, nil
}

// Run reconciles every interval until ctx is done
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Reconciler started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reconciler stopped")
			return
		case <-ticker.C:
			report, err := r.Reconcile(ctx, repository.StockFilter{})
			if err != nil {
				r.logger.Error("Reconciliation failed", zap.Error(err))
				continue
			}
			r.logger.Info("Reconciliation completed",
				zap.Int("pairs", len(report.Balances)),
				zap.Int("drifted", report.Drifted),
			)
		}
	}
}
