package handlers

import (
	"time"

	"warehouse-ledger/internal/domain"
	apperrors "warehouse-ledger/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrorResponse is the body of every failed request
type ErrorResponse = apperrors.StandardError

// IncreaseStockRequest adds units outside the receiving workflow
type IncreaseStockRequest struct {
	domain.StockKey
	Quantity    int64           `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unitCost"`
	Reference   string          `json:"reference" binding:"max=100"`
	PerformedBy string          `json:"performedBy" binding:"max=100"`
}

// WriteDownRequest removes damaged or lost units
type WriteDownRequest struct {
	domain.StockKey
	Quantity    int64  `json:"quantity"`
	Reference   string `json:"reference" binding:"max=100"`
	PerformedBy string `json:"performedBy" binding:"max=100"`
}

// CountRequest records a cycle count result
type CountRequest struct {
	domain.StockKey
	Counted     *int64 `json:"counted" binding:"required"`
	Reference   string `json:"reference" binding:"max=100"`
	PerformedBy string `json:"performedBy" binding:"max=100"`
}

// RelocateRequest moves a stock level. Omitted fields clear the assignment.
type RelocateRequest struct {
	StockLevelID   uuid.UUID  `json:"stockLevelId" binding:"required"`
	LocationID     *uuid.UUID `json:"locationId"`
	BinID          *uuid.UUID `json:"binId"`
	LotNumberID    *uuid.UUID `json:"lotNumberId"`
	SerialNumberID *uuid.UUID `json:"serialNumberId"`
	PerformedBy    string     `json:"performedBy" binding:"max=100"`
}

// ReserveRequest reserves available units for an order, transfer or production run
type ReserveRequest struct {
	domain.StockKey
	Quantity   int64  `json:"quantity"`
	Type       string `json:"type"`
	Reference  string `json:"reference" binding:"max=100"`
	ReservedBy string `json:"reservedBy" binding:"max=100"`
	// TTLSeconds overrides the default expiry. Zero or negative never expires.
	TTLSeconds *int64 `json:"ttlSeconds"`
}

// ReservationActionRequest is the optional body of reservation transitions
type ReservationActionRequest struct {
	Reason      string `json:"reason" binding:"max=255"`
	PerformedBy string `json:"performedBy" binding:"max=100"`
}

// StockLevelResponse is the API view of a stock level
type StockLevelResponse struct {
	ID uuid.UUID `json:"id"`
	domain.StockKey
	QuantityOnHand    int64      `json:"quantityOnHand"`
	QuantityReserved  int64      `json:"quantityReserved"`
	QuantityAllocated int64      `json:"quantityAllocated"`
	QuantityAvailable int64      `json:"quantityAvailable"`
	LastMovementAt    *time.Time `json:"lastMovementAt,omitempty"`
	LastCountedAt     *time.Time `json:"lastCountedAt,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	Version           int64      `json:"version"`
}

// ReservationResponse is the API view of a reservation
type ReservationResponse struct {
	ID                uuid.UUID `json:"id"`
	ReservationNumber string    `json:"reservationNumber"`
	StockLevelID      uuid.UUID `json:"stockLevelId"`
	domain.StockKey
	Quantity      int64      `json:"quantity"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Reference     string     `json:"reference,omitempty"`
	ReservedBy    string     `json:"reservedBy,omitempty"`
	ReservedAt    time.Time  `json:"reservedAt"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	ReleaseReason string     `json:"releaseReason,omitempty"`
}

// LedgerEntryResponse is the API view of a ledger entry
type LedgerEntryResponse struct {
	ID                uuid.UUID       `json:"id"`
	TransactionNumber string          `json:"transactionNumber"`
	StockLevelID      uuid.UUID       `json:"stockLevelId"`
	ItemID            uuid.UUID       `json:"itemId"`
	WarehouseID       uuid.UUID       `json:"warehouseId"`
	LocationID        *uuid.UUID      `json:"locationId,omitempty"`
	PurchaseOrderID   *uuid.UUID      `json:"purchaseOrderId,omitempty"`
	Type              string          `json:"transactionType"`
	Reason            string          `json:"reason"`
	Quantity          int64           `json:"quantity"`
	QuantityBefore    int64           `json:"quantityBefore"`
	UnitCost          decimal.Decimal `json:"unitCost"`
	TotalCost         decimal.Decimal `json:"totalCost"`
	TransactionDate   time.Time       `json:"transactionDate"`
	Reference         string          `json:"reference,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	PerformedBy       string          `json:"performedBy"`
	IsApproved        bool            `json:"isApproved"`
}

func toStockLevelResponse(level *domain.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ID:                level.ID,
		StockKey:          level.Key,
		QuantityOnHand:    level.QuantityOnHand,
		QuantityReserved:  level.QuantityReserved,
		QuantityAllocated: level.QuantityAllocated,
		QuantityAvailable: level.QuantityAvailable(),
		LastMovementAt:    level.LastMovementAt,
		LastCountedAt:     level.LastCountedAt,
		UpdatedAt:         level.UpdatedAt,
		Version:           level.Version,
	}
}

func toReservationResponse(r *domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:                r.ID,
		ReservationNumber: r.ReservationNumber,
		StockLevelID:      r.StockLevelID,
		StockKey:          r.Key,
		Quantity:          r.Quantity,
		Type:              string(r.Type),
		Status:            string(r.Status),
		Reference:         r.Reference,
		ReservedBy:        r.ReservedBy,
		ReservedAt:        r.ReservedAt,
		ExpiresAt:         r.ExpiresAt,
		CompletedAt:       r.CompletedAt,
		ReleaseReason:     r.ReleaseReason,
	}
}

func toLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:                e.ID,
		TransactionNumber: e.TransactionNumber,
		StockLevelID:      e.StockLevelID,
		ItemID:            e.ItemID,
		WarehouseID:       e.WarehouseID,
		LocationID:        e.LocationID,
		PurchaseOrderID:   e.PurchaseOrderID,
		Type:              string(e.Type),
		Reason:            string(e.Reason),
		Quantity:          e.Quantity,
		QuantityBefore:    e.QuantityBefore,
		UnitCost:          e.UnitCost,
		TotalCost:         e.TotalCost(),
		TransactionDate:   e.TransactionDate,
		Reference:         e.Reference,
		Notes:             e.Notes,
		PerformedBy:       e.PerformedBy,
		IsApproved:        e.IsApproved,
	}
}
