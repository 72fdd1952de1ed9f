package receiving

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/events"
	"warehouse-ledger/internal/ledger"
	"warehouse-ledger/internal/lock"
	"warehouse-ledger/internal/repository"
	"warehouse-ledger/internal/sequence"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("warehouse-ledger/receiving")

const retryDelay = 20 * time.Millisecond

// Result summarises one processed goods receipt
type Result struct {
	ReceiptID          uuid.UUID    `json:"receiptId"`
	ReceiptNumber      string       `json:"receiptNumber"`
	Duplicate          bool         `json:"duplicate"`
	Skipped            bool         `json:"skipped"`
	TransactionNumbers []string     `json:"transactionNumbers"`
	Transitions        []Transition `json:"transitions"`
	Overages           []Overage    `json:"overages,omitempty"`
}

// Overage is a receipt line that exceeded its purchase order line. Under the
// cap policy the line stops at Ordered while stock still takes the full quantity.
type Overage struct {
	Line              int       `json:"line"`
	PurchaseOrderID   uuid.UUID `json:"purchaseOrderId"`
	PurchaseOrderItem uuid.UUID `json:"purchaseOrderItemId"`
	ItemID            uuid.UUID `json:"itemId"`
	Ordered           int64     `json:"ordered"`
	Quantity          int64     `json:"quantity"`
	Overage           int64     `json:"overage"`
	Policy            string    `json:"policy"`
}

// Processor applies completed goods receipts: purchase order lines, stock
// levels and GOODS_RECEIPT ledger entries change together in one transaction.
type Processor struct {
	store      repository.Store
	allocator  sequence.Allocator
	tracker    *PurchaseOrderFulfillmentTracker
	dispatcher *events.Dispatcher
	locker     lock.Locker
	policy     domain.OverReceiptPolicy
	maxRetries int
	logger     *zap.Logger
}

type ProcessorConfig struct {
	Policy     domain.OverReceiptPolicy
	MaxRetries int
}

func NewProcessor(store repository.Store, allocator sequence.Allocator, tracker *PurchaseOrderFulfillmentTracker, dispatcher *events.Dispatcher, locker lock.Locker, cfg ProcessorConfig, logger *zap.Logger) *Processor {
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	if cfg.Policy == "" {
		cfg.Policy = domain.OverReceiptReject
	}
	return &Processor{
		store:      store,
		allocator:  allocator,
		tracker:    tracker,
		dispatcher: dispatcher,
		locker:     locker,
		policy:     cfg.Policy,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

// receiptRun is the state of one transaction attempt
type receiptRun struct {
	orders      map[uuid.UUID]*domain.PurchaseOrder
	orderIDs    []uuid.UUID
	pending     []domain.Event
	numbers     []string
	transitions []Transition
	overages    []Overage
}

func (r *receiptRun) track(po *domain.PurchaseOrder) {
	if _, ok := r.orders[po.ID]; ok {
		return
	}
	r.orders[po.ID] = po
	r.orderIDs = append(r.orderIDs, po.ID)
}

// Process applies receipt. A receipt already processed is a logged no-op.
func (p *Processor) Process(ctx context.Context, receipt *domain.GoodsReceipt) (*Result, error) {
	ctx, span := tracer.Start(ctx, "GoodsReceiptProcessor.Process", trace.WithAttributes(
		attribute.String("receipt.number", receipt.ReceiptNumber),
		attribute.Int("receipt.lines", len(receipt.Items)),
	))
	defer span.End()

	result := &Result{ReceiptID: receipt.ID, ReceiptNumber: receipt.ReceiptNumber}
	if err := receipt.Validate(); err != nil {
		return nil, spanError(span, err)
	}
	if len(receipt.Items) == 0 {
		p.logger.Warn("Goods receipt has no items, skipping inventory update",
			zap.String("receipt", receipt.ReceiptNumber))
		result.Skipped = true
		return result, nil
	}
	if receipt.ReceivedDate.IsZero() {
		receipt.ReceivedDate = time.Now().UTC()
	}

	p.logger.Info("Processing goods receipt",
		zap.String("receipt", receipt.ReceiptNumber),
		zap.String("receipt_id", receipt.ID.String()),
		zap.Int("lines", len(receipt.Items)),
	)

	defer p.lockKeys(ctx, receipt)()

	var run *receiptRun
	for attempt := 0; ; attempt++ {
		run = &receiptRun{orders: make(map[uuid.UUID]*domain.PurchaseOrder)}
		err := p.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			processed, err := tx.Receipts().IsProcessed(ctx, receipt.ID)
			if err != nil {
				return err
			}
			if processed {
				result.Duplicate = true
				return nil
			}
			return p.apply(ctx, tx, receipt, run)
		})
		if err == nil {
			break
		}
		if !retryable(err) || attempt >= p.maxRetries {
			p.logger.Error("Failed to process goods receipt",
				zap.String("receipt", receipt.ReceiptNumber),
				zap.Error(err),
			)
			return nil, spanError(span, err)
		}
		p.logger.Warn("Goods receipt conflicted with a concurrent update, retrying",
			zap.String("receipt", receipt.ReceiptNumber),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, spanError(span, ctx.Err())
		case <-time.After(retryDelay * time.Duration(attempt+1)):
		}
	}

	if result.Duplicate {
		p.logger.Info("Goods receipt already processed, skipping",
			zap.String("receipt", receipt.ReceiptNumber))
		return result, nil
	}

	p.dispatcher.Dispatch(ctx, run.pending...)

	result.TransactionNumbers = run.numbers
	result.Transitions = run.transitions
	result.Overages = run.overages
	p.logger.Info("Goods receipt processed",
		zap.String("receipt", receipt.ReceiptNumber),
		zap.Int("transactions", len(run.numbers)),
		zap.Int("status_changes", len(run.transitions)),
	)
	return result, nil
}

func (p *Processor) apply(ctx context.Context, tx repository.Tx, receipt *domain.GoodsReceipt, run *receiptRun) error {
	if receipt.PurchaseOrderID != nil {
		po, err := tx.PurchaseOrders().GetForUpdate(ctx, *receipt.PurchaseOrderID)
		if err != nil {
			return err
		}
		run.track(po)
	}

	for i, item := range receipt.Items {
		if err := p.applyLine(ctx, tx, receipt, i, item, run); err != nil {
			return err
		}
	}

	for _, id := range run.orderIDs {
		transition, err := p.tracker.Apply(ctx, tx, run.orders[id])
		if err != nil {
			return err
		}
		if transition != nil {
			run.transitions = append(run.transitions, *transition)
		}
	}

	return tx.Receipts().MarkProcessed(ctx, receipt.ID, receipt.ReceiptNumber)
}

func (p *Processor) applyLine(ctx context.Context, tx repository.Tx, receipt *domain.GoodsReceipt, index int, item domain.GoodsReceiptItem, run *receiptRun) error {
	purchaseOrderID := receipt.PurchaseOrderID

	// 1. purchase order line
	if item.PurchaseOrderItemID != nil {
		po, err := p.orderForLine(ctx, tx, *item.PurchaseOrderItemID, run)
		if err != nil {
			return err
		}
		line, err := po.Line(*item.PurchaseOrderItemID)
		if err != nil {
			return err
		}
		overage, err := line.ApplyReceipt(item.Quantity, p.policy)
		if err != nil {
			return fmt.Errorf("receipt %s line %d: %w", receipt.ReceiptNumber, index+1, err)
		}
		if overage > 0 {
			p.logger.Warn("Over-receipt against purchase order line",
				zap.String("receipt", receipt.ReceiptNumber),
				zap.String("order", po.OrderNumber),
				zap.String("line_id", line.ID.String()),
				zap.Int64("overage", overage),
				zap.String("policy", string(p.policy)),
			)
			run.overages = append(run.overages, Overage{
				Line:              index + 1,
				PurchaseOrderID:   po.ID,
				PurchaseOrderItem: line.ID,
				ItemID:            item.ItemID,
				Ordered:           line.OrderedQuantity,
				Quantity:          item.Quantity,
				Overage:           overage,
				Policy:            string(p.policy),
			})
		}
		if purchaseOrderID == nil {
			purchaseOrderID = &po.ID
		}
	}

	// 2. on hand across the warehouse before this line
	before, err := tx.StockLevels().SumOnHand(ctx, item.ItemID, receipt.WarehouseID)
	if err != nil {
		return err
	}

	// 3. stock level
	key := receipt.StockKey(item)
	level, err := tx.StockLevels().GetForUpdate(ctx, key)
	created := false
	if errors.Is(err, domain.ErrStockLevelNotFound) {
		level, created, err = domain.NewStockLevel(key), true, nil
	}
	if err != nil {
		return err
	}
	expectedVersion := level.Version
	if err := level.IncreaseQuantityAtCost(item.Quantity, item.UnitCost); err != nil {
		return err
	}
	pulled := level.PullEvents()
	domain.Annotate(pulled, receipt.ReceiptNumber, receipt.PerformedBy)
	var increase *domain.StockUpdated
	for _, ev := range pulled {
		if u, ok := ev.(*domain.StockUpdated); ok && u.Change == domain.ChangeIncrease {
			u.LedgerRecorded = true
			increase = u
		}
	}
	if created {
		err = tx.StockLevels().Create(ctx, level)
	} else {
		err = tx.StockLevels().Update(ctx, level, expectedVersion)
	}
	if err != nil {
		return err
	}

	// 4. GOODS_RECEIPT ledger entry, keyed to the increase event
	number, err := p.allocator.Next(ctx, domain.ReasonGoodsReceipt, receipt.ReceivedDate)
	if err != nil {
		return fmt.Errorf("failed to allocate transaction number: %w", err)
	}
	entry := &domain.LedgerEntry{
		ID:                uuid.New(),
		TransactionNumber: number.Value,
		Sequence:          number.Sequence,
		StockLevelID:      level.ID,
		ItemID:            item.ItemID,
		WarehouseID:       receipt.WarehouseID,
		LocationID:        receipt.LocationID,
		PurchaseOrderID:   purchaseOrderID,
		Type:              domain.TransactionIn,
		Reason:            domain.ReasonGoodsReceipt,
		Quantity:          item.Quantity,
		QuantityBefore:    before,
		UnitCost:          item.UnitCost,
		TransactionDate:   receipt.ReceivedDate,
		Reference:         receipt.ReceiptNumber,
		Notes:             ledger.ReceiptNotes(receipt.ReceiptNumber),
		PerformedBy:       receipt.PerformedBy,
		IsApproved:        true,
		CreatedAt:         time.Now().UTC(),
	}
	if increase != nil {
		entry.EventID = increase.ID
	}
	if err := tx.Ledger().Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to record goods receipt entry: %w", err)
	}

	p.logger.Info("Created ledger entry for received item",
		zap.String("transaction", number.Value),
		zap.String("item_id", item.ItemID.String()),
		zap.Int64("quantity", item.Quantity),
		zap.Int64("quantity_before", before),
	)
	run.pending = append(run.pending, pulled...)
	run.numbers = append(run.numbers, number.Value)
	return nil
}

func (p *Processor) orderForLine(ctx context.Context, tx repository.Tx, lineID uuid.UUID, run *receiptRun) (*domain.PurchaseOrder, error) {
	for _, id := range run.orderIDs {
		if _, err := run.orders[id].Line(lineID); err == nil {
			return run.orders[id], nil
		}
	}
	po, err := tx.PurchaseOrders().FindByLineID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	run.track(po)
	return po, nil
}

// lockKeys takes the stock locks for every line in a fixed order
func (p *Processor) lockKeys(ctx context.Context, receipt *domain.GoodsReceipt) func() {
	seen := make(map[string]bool)
	keys := make([]string, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		k := repository.LockKeyFor(ctx, p.store.StockLevels(), receipt.StockKey(item))
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	unlocks := make([]lock.Unlock, 0, len(keys))
	for _, k := range keys {
		unlocks = append(unlocks, p.locker.Acquire(ctx, k))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

func retryable(err error) bool {
	return errors.Is(err, repository.ErrConcurrentUpdate) || errors.Is(err, repository.ErrDuplicate)
}

func spanError(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
