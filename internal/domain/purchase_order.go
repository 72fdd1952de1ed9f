package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus values
const (
	PurchaseOrderDraft             = "Draft"
	PurchaseOrderSubmitted         = "Submitted"
	PurchaseOrderApproved          = "Approved"
	PurchaseOrderSent              = "Sent"
	PurchaseOrderPartiallyReceived = "PartiallyReceived"
	PurchaseOrderReceived          = "Received"
	PurchaseOrderCancelled         = "Cancelled"
)

// LineState is the derived receiving state of a purchase order line
type LineState string

const (
	LineNotReceived       LineState = "NotReceived"
	LinePartiallyReceived LineState = "PartiallyReceived"
	LineFullyReceived     LineState = "FullyReceived"
)

// OverReceiptPolicy decides what happens when a receipt exceeds the ordered quantity
type OverReceiptPolicy string

const (
	OverReceiptReject OverReceiptPolicy = "reject"
	OverReceiptCap    OverReceiptPolicy = "cap"
	OverReceiptAllow  OverReceiptPolicy = "allow"
)

// ParseOverReceiptPolicy defaults to reject for empty or unknown values
func ParseOverReceiptPolicy(s string) OverReceiptPolicy {
	switch OverReceiptPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case OverReceiptCap:
		return OverReceiptCap
	case OverReceiptAllow:
		return OverReceiptAllow
	default:
		return OverReceiptReject
	}
}

// PurchaseOrderItem is one ordered line
type PurchaseOrderItem struct {
	ID               uuid.UUID
	PurchaseOrderID  uuid.UUID
	ItemID           uuid.UUID
	OrderedQuantity  int64
	ReceivedQuantity int64
	UnitPrice        decimal.Decimal
}

// State derives the line's receiving state
func (i *PurchaseOrderItem) State() LineState {
	switch {
	case i.ReceivedQuantity <= 0:
		return LineNotReceived
	case i.ReceivedQuantity >= i.OrderedQuantity:
		return LineFullyReceived
	default:
		return LinePartiallyReceived
	}
}

// Outstanding is the quantity still expected
func (i *PurchaseOrderItem) Outstanding() int64 {
	if i.ReceivedQuantity >= i.OrderedQuantity {
		return 0
	}
	return i.OrderedQuantity - i.ReceivedQuantity
}

// ApplyReceipt adds a received quantity under the given policy. It returns the
// overage beyond OrderedQuantity so callers can report it. On error the line is unchanged.
func (i *PurchaseOrderItem) ApplyReceipt(quantity int64, policy OverReceiptPolicy) (int64, error) {
	if quantity <= 0 {
		return 0, invalidQuantity(quantity)
	}
	var overage int64
	if next := i.ReceivedQuantity + quantity; next > i.OrderedQuantity {
		overage = next - i.OrderedQuantity
	}
	if overage == 0 {
		i.ReceivedQuantity += quantity
		return 0, nil
	}

	switch policy {
	case OverReceiptCap:
		i.ReceivedQuantity = i.OrderedQuantity
	case OverReceiptAllow:
		i.ReceivedQuantity += quantity
	default:
		return overage, fmt.Errorf("%w: line %s ordered %d, received %d, incoming %d",
			ErrOverReceipt, i.ID, i.OrderedQuantity, i.ReceivedQuantity, quantity)
	}
	return overage, nil
}

// PurchaseOrder is the narrow slice of the purchasing aggregate that receiving mutates
type PurchaseOrder struct {
	ID          uuid.UUID
	OrderNumber string
	Status      string
	Items       []*PurchaseOrderItem
	ReceivedAt  *time.Time
	UpdatedAt   time.Time
	Version     int64
}

// NewPurchaseOrder creates a sent order with the given lines
func NewPurchaseOrder(number string, lines map[uuid.UUID]int64) *PurchaseOrder {
	po := &PurchaseOrder{
		ID:          uuid.New(),
		OrderNumber: number,
		Status:      PurchaseOrderSent,
		UpdatedAt:   time.Now().UTC(),
		Version:     1,
	}
	for itemID, qty := range lines {
		po.AddItem(itemID, qty, decimal.Zero)
	}
	return po
}

// AddItem appends a line
func (p *PurchaseOrder) AddItem(itemID uuid.UUID, ordered int64, unitPrice decimal.Decimal) *PurchaseOrderItem {
	line := &PurchaseOrderItem{
		ID:              uuid.New(),
		PurchaseOrderID: p.ID,
		ItemID:          itemID,
		OrderedQuantity: ordered,
		UnitPrice:       unitPrice,
	}
	p.Items = append(p.Items, line)
	return line
}

// Line returns the line with the given id
func (p *PurchaseOrder) Line(lineID uuid.UUID) (*PurchaseOrderItem, error) {
	for _, item := range p.Items {
		if item.ID == lineID {
			return item, nil
		}
	}
	return nil, fmt.Errorf("%w: %s on order %s", ErrPurchaseOrderLineNotFound, lineID, p.OrderNumber)
}

// IsFullyReceived reports whether every line has received its ordered quantity
func (p *PurchaseOrder) IsFullyReceived() bool {
	if len(p.Items) == 0 {
		return false
	}
	for _, item := range p.Items {
		if item.State() != LineFullyReceived {
			return false
		}
	}
	return true
}

// RecomputeStatus derives the order status from its lines and reports whether it changed.
// Received is terminal and Cancelled orders are left alone, so repeated calls are no-ops.
func (p *PurchaseOrder) RecomputeStatus() (string, bool) {
	if p.Status == PurchaseOrderReceived || p.Status == PurchaseOrderCancelled {
		return p.Status, false
	}

	next := p.Status
	if p.IsFullyReceived() {
		next = PurchaseOrderReceived
	} else {
		for _, item := range p.Items {
			if item.ReceivedQuantity > 0 {
				next = PurchaseOrderPartiallyReceived
				break
			}
		}
	}
	if next == p.Status {
		return p.Status, false
	}

	previous := p.Status
	p.Status = next
	p.UpdatedAt = time.Now().UTC()
	if next == PurchaseOrderReceived {
		at := p.UpdatedAt
		p.ReceivedAt = &at
	}
	p.Version++
	return previous, true
}
