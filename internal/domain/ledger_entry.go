package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger movement
type TransactionType string

const (
	TransactionIn         TransactionType = "IN"
	TransactionOut        TransactionType = "OUT"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
)

// Reason classifies a ledger movement
type Reason string

const (
	ReasonGoodsReceipt         Reason = "GOODS_RECEIPT"
	ReasonReserved             Reason = "RESERVED"
	ReasonAllocated            Reason = "ALLOCATED"
	ReasonReservationReleased  Reason = "RESERVATION_RELEASED"
	ReasonReservationCancelled Reason = "RESERVATION_CANCELLED"
	ReasonReservationExpired   Reason = "RESERVATION_EXPIRED"
	ReasonPickConfirmed        Reason = "PICK_CONFIRMED"
	ReasonStockIncrease        Reason = "STOCK_INCREASE"
	ReasonStockDecrease        Reason = "STOCK_DECREASE"
	ReasonCountGain            Reason = "COUNT_GAIN"
	ReasonCountLoss            Reason = "COUNT_LOSS"
)

var reasonPrefixes = map[Reason]string{
	ReasonGoodsReceipt:         "GR",
	ReasonReserved:             "RSV",
	ReasonAllocated:            "ALC",
	ReasonReservationReleased:  "REL",
	ReasonReservationCancelled: "CNL",
	ReasonReservationExpired:   "EXP",
	ReasonPickConfirmed:        "PCK",
	ReasonStockIncrease:        "INC",
	ReasonStockDecrease:        "DEC",
	ReasonCountGain:            "CNT",
	ReasonCountLoss:            "CNT",
}

// Prefix is the short code used in transaction numbers
func (r Reason) Prefix() string {
	if p, ok := reasonPrefixes[r]; ok {
		return p
	}
	return "ADJ"
}

// LedgerEntry is one immutable stock movement
type LedgerEntry struct {
	ID                uuid.UUID
	TransactionNumber string
	Sequence          int64
	EventID           uuid.UUID
	StockLevelID      uuid.UUID
	ItemID            uuid.UUID
	WarehouseID       uuid.UUID
	LocationID        *uuid.UUID
	PurchaseOrderID   *uuid.UUID
	Type              TransactionType
	Reason            Reason
	Quantity          int64
	QuantityBefore    int64
	UnitCost          decimal.Decimal
	TransactionDate   time.Time
	Reference         string
	Notes             string
	PerformedBy       string
	IsApproved        bool
	CreatedAt         time.Time
}

// TotalCost is Quantity x UnitCost
func (e *LedgerEntry) TotalCost() decimal.Decimal {
	return e.UnitCost.Mul(decimal.NewFromInt(e.Quantity))
}

// OnHandDelta returns the signed effect of the entry on QuantityOnHand.
// Reservation bookkeeping adjustments do not move physical stock.
func (e *LedgerEntry) OnHandDelta() int64 {
	switch e.Type {
	case TransactionIn:
		return e.Quantity
	case TransactionOut:
		return -e.Quantity
	}
	switch e.Reason {
	case ReasonCountGain:
		return e.Quantity
	case ReasonCountLoss:
		return -e.Quantity
	}
	return 0
}

// Before reports whether e sorts before other in ledger order (date, then sequence)
func (e *LedgerEntry) Before(other *LedgerEntry) bool {
	if !e.TransactionDate.Equal(other.TransactionDate) {
		return e.TransactionDate.Before(other.TransactionDate)
	}
	if e.Sequence != other.Sequence {
		return e.Sequence < other.Sequence
	}
	return e.TransactionNumber < other.TransactionNumber
}

// ReplayOnHand sums the signed on-hand effect of entries
func ReplayOnHand(entries []*LedgerEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.OnHandDelta()
	}
	return total
}
