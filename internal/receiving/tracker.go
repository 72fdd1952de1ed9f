package receiving

import (
	"context"

	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transition records a purchase order status change
type Transition struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	From        string    `json:"from"`
	To          string    `json:"to"`
}

// LineFulfillment is the receiving progress of one order line
type LineFulfillment struct {
	LineID      uuid.UUID        `json:"lineId"`
	ItemID      uuid.UUID        `json:"itemId"`
	Ordered     int64            `json:"ordered"`
	Received    int64            `json:"received"`
	Outstanding int64            `json:"outstanding"`
	State       domain.LineState `json:"state"`
}

// Fulfillment is the receiving progress of a whole order
type Fulfillment struct {
	OrderID       uuid.UUID         `json:"orderId"`
	OrderNumber   string            `json:"orderNumber"`
	Status        string            `json:"status"`
	FullyReceived bool              `json:"fullyReceived"`
	Lines         []LineFulfillment `json:"lines"`
}

// PurchaseOrderFulfillmentTracker derives purchase order status from line receipts
type PurchaseOrderFulfillmentTracker struct {
	store  repository.Store
	logger *zap.Logger
}

func NewPurchaseOrderFulfillmentTracker(store repository.Store, logger *zap.Logger) *PurchaseOrderFulfillmentTracker {
	return &PurchaseOrderFulfillmentTracker{store: store, logger: logger}
}

// Apply persists po with its recomputed status inside tx. The returned
// transition is nil when the status did not change.
func (t *PurchaseOrderFulfillmentTracker) Apply(ctx context.Context, tx repository.Tx, po *domain.PurchaseOrder) (*Transition, error) {
	previous, changed := po.RecomputeStatus()
	if err := tx.PurchaseOrders().Save(ctx, po); err != nil {
		return nil, err
	}
	if !changed {
		return nil, nil
	}

	t.logger.Info("Purchase order status changed",
		zap.String("order", po.OrderNumber),
		zap.String("from", previous),
		zap.String("to", po.Status),
	)
	return &Transition{OrderID: po.ID, OrderNumber: po.OrderNumber, From: previous, To: po.Status}, nil
}

// Recompute reloads the order and re-evaluates its status. Calling it again
// without new receipts changes nothing.
func (t *PurchaseOrderFulfillmentTracker) Recompute(ctx context.Context, orderID uuid.UUID) (*domain.PurchaseOrder, *Transition, error) {
	var (
		order      *domain.PurchaseOrder
		transition *Transition
	)
	err := t.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		po, err := tx.PurchaseOrders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		transition, err = t.Apply(ctx, tx, po)
		order = po
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return order, transition, nil
}

// Fulfillment reports per-line receiving progress
func (t *PurchaseOrderFulfillmentTracker) Fulfillment(ctx context.Context, orderID uuid.UUID) (*Fulfillment, error) {
	po, err := t.store.PurchaseOrders().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	f := &Fulfillment{
		OrderID:       po.ID,
		OrderNumber:   po.OrderNumber,
		Status:        po.Status,
		FullyReceived: po.IsFullyReceived(),
		Lines:         make([]LineFulfillment, 0, len(po.Items)),
	}
	for _, item := range po.Items {
		f.Lines = append(f.Lines, LineFulfillment{
			LineID:      item.ID,
			ItemID:      item.ItemID,
			Ordered:     item.OrderedQuantity,
			Received:    item.ReceivedQuantity,
			Outstanding: item.Outstanding(),
			State:       item.State(),
		})
	}
	return f, nil
}
