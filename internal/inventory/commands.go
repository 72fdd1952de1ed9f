package inventory

import (
	"time"

	"warehouse-ledger/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IncreaseStockCommand adds units outside the receiving workflow (returns, found stock)
type IncreaseStockCommand struct {
	Key         domain.StockKey
	Quantity    int64
	UnitCost    decimal.Decimal
	Reference   string
	PerformedBy string
}

// WriteDownCommand removes damaged or lost unreserved units
type WriteDownCommand struct {
	Key         domain.StockKey
	Quantity    int64
	Reference   string
	PerformedBy string
}

// RecordCountCommand replaces on hand with a cycle count result
type RecordCountCommand struct {
	Key         domain.StockKey
	Counted     int64
	Reference   string
	PerformedBy string
}

// RelocateCommand moves a stock level to new location assignments
type RelocateCommand struct {
	StockLevelID   uuid.UUID
	LocationID     *uuid.UUID
	BinID          *uuid.UUID
	LotNumberID    *uuid.UUID
	SerialNumberID *uuid.UUID
	PerformedBy    string
}

// ReserveStockCommand creates a reservation against a stock level
type ReserveStockCommand struct {
	Key        domain.StockKey
	Quantity   int64
	Type       domain.ReservationType
	Reference  string
	ReservedBy string
	// TTL overrides the default expiry. Negative means the reservation never expires.
	TTL time.Duration
}

// ReservationCommand acts on an existing reservation
type ReservationCommand struct {
	ReservationID uuid.UUID
	Reason        string
	PerformedBy   string
}
