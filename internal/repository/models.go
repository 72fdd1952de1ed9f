package repository

import (
	"time"

	"warehouse-ledger/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLevelModel is the stock_levels row. StockKey holds the rendered key so
// uniqueness does not depend on how the database compares NULL columns.
type StockLevelModel struct {
	ID                uuid.UUID  `gorm:"type:varchar(36);primaryKey"`
	StockKey          string     `gorm:"type:varchar(200);uniqueIndex;not null"`
	ItemID            uuid.UUID  `gorm:"type:varchar(36);index:idx_stock_item_warehouse;not null"`
	WarehouseID       uuid.UUID  `gorm:"type:varchar(36);index:idx_stock_item_warehouse;not null"`
	LocationID        *uuid.UUID `gorm:"type:varchar(36)"`
	BinID             *uuid.UUID `gorm:"type:varchar(36)"`
	LotNumberID       *uuid.UUID `gorm:"type:varchar(36)"`
	SerialNumberID    *uuid.UUID `gorm:"type:varchar(36)"`
	QuantityOnHand    int64      `gorm:"not null;default:0"`
	QuantityReserved  int64      `gorm:"not null;default:0"`
	QuantityAllocated int64      `gorm:"not null;default:0"`
	Version           int64      `gorm:"not null;default:1"`
	LastMovementAt    *time.Time
	LastCountedAt     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (StockLevelModel) TableName() string { return "stock_levels" }

// LedgerEntryModel is the append-only stock_ledger_entries row
type LedgerEntryModel struct {
	ID                uuid.UUID       `gorm:"type:varchar(36);primaryKey"`
	TransactionNumber string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	Sequence          int64           `gorm:"not null"`
	EventID           uuid.UUID       `gorm:"type:varchar(36);uniqueIndex;not null"`
	StockLevelID      uuid.UUID       `gorm:"type:varchar(36);index"`
	ItemID            uuid.UUID       `gorm:"type:varchar(36);index:idx_ledger_item_warehouse;not null"`
	WarehouseID       uuid.UUID       `gorm:"type:varchar(36);index:idx_ledger_item_warehouse;not null"`
	LocationID        *uuid.UUID      `gorm:"type:varchar(36)"`
	PurchaseOrderID   *uuid.UUID      `gorm:"type:varchar(36);index"`
	TransactionType   string          `gorm:"type:varchar(16);not null"`
	Reason            string          `gorm:"type:varchar(32);not null"`
	Quantity          int64           `gorm:"not null"`
	QuantityBefore    int64           `gorm:"not null"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	TransactionDate   time.Time       `gorm:"index;not null"`
	Reference         string          `gorm:"type:varchar(100)"`
	Notes             string          `gorm:"type:varchar(500)"`
	PerformedBy       string          `gorm:"type:varchar(100)"`
	IsApproved        bool
	CreatedAt         time.Time
}

func (LedgerEntryModel) TableName() string { return "stock_ledger_entries" }

// PurchaseOrderModel is the purchase_orders row
type PurchaseOrderModel struct {
	ID          uuid.UUID                `gorm:"type:varchar(36);primaryKey"`
	OrderNumber string                   `gorm:"type:varchar(100);uniqueIndex"`
	Status      string                   `gorm:"type:varchar(32);not null"`
	ReceivedAt  *time.Time
	UpdatedAt   time.Time
	Version     int64                    `gorm:"not null;default:1"`
	Items       []PurchaseOrderItemModel `gorm:"foreignKey:PurchaseOrderID"`
}

func (PurchaseOrderModel) TableName() string { return "purchase_orders" }

// PurchaseOrderItemModel is the purchase_order_items row, indexed by its parent
type PurchaseOrderItemModel struct {
	ID               uuid.UUID       `gorm:"type:varchar(36);primaryKey"`
	PurchaseOrderID  uuid.UUID       `gorm:"type:varchar(36);index;not null"`
	ItemID           uuid.UUID       `gorm:"type:varchar(36);not null"`
	OrderedQuantity  int64           `gorm:"not null"`
	ReceivedQuantity int64           `gorm:"not null;default:0"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4)"`
}

func (PurchaseOrderItemModel) TableName() string { return "purchase_order_items" }

// ReservationModel is the inventory_reservations row
type ReservationModel struct {
	ID                uuid.UUID  `gorm:"type:varchar(36);primaryKey"`
	ReservationNumber string     `gorm:"type:varchar(100);uniqueIndex;not null"`
	StockLevelID      uuid.UUID  `gorm:"type:varchar(36);index"`
	ItemID            uuid.UUID  `gorm:"type:varchar(36);not null"`
	WarehouseID       uuid.UUID  `gorm:"type:varchar(36);not null"`
	LocationID        *uuid.UUID `gorm:"type:varchar(36)"`
	BinID             *uuid.UUID `gorm:"type:varchar(36)"`
	LotNumberID       *uuid.UUID `gorm:"type:varchar(36)"`
	SerialNumberID    *uuid.UUID `gorm:"type:varchar(36)"`
	Quantity          int64      `gorm:"not null"`
	ReservationType   string     `gorm:"type:varchar(32);not null"`
	Status            string     `gorm:"type:varchar(32);index:idx_reservation_status_expiry;not null"`
	Reference         string     `gorm:"type:varchar(100)"`
	ReservedBy        string     `gorm:"type:varchar(100)"`
	ReservedAt        time.Time
	ExpiresAt         *time.Time `gorm:"index:idx_reservation_status_expiry"`
	CompletedAt       *time.Time
	ReleaseReason     string `gorm:"type:varchar(200)"`
	Version           int64  `gorm:"not null;default:1"`
}

func (ReservationModel) TableName() string { return "inventory_reservations" }

// SequenceCounterModel is one transaction number counter per (prefix, date)
type SequenceCounterModel struct {
	Prefix      string `gorm:"type:varchar(16);primaryKey"`
	CounterDate string `gorm:"type:varchar(8);primaryKey"`
	Value       int64  `gorm:"not null;default:0"`
}

func (SequenceCounterModel) TableName() string { return "transaction_sequences" }

// ProcessedReceiptModel marks a goods receipt as applied
type ProcessedReceiptModel struct {
	ReceiptID     uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	ReceiptNumber string    `gorm:"type:varchar(100)"`
	ProcessedAt   time.Time
}

func (ProcessedReceiptModel) TableName() string { return "processed_goods_receipts" }

// AllModels lists every table the gorm store migrates
func AllModels() []interface{} {
	return []interface{}{
		&StockLevelModel{},
		&LedgerEntryModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderItemModel{},
		&ReservationModel{},
		&SequenceCounterModel{},
		&ProcessedReceiptModel{},
	}
}

func stockLevelToModel(l *domain.StockLevel) *StockLevelModel {
	return &StockLevelModel{
		ID:                l.ID,
		StockKey:          l.Key.String(),
		ItemID:            l.Key.ItemID,
		WarehouseID:       l.Key.WarehouseID,
		LocationID:        l.Key.LocationID,
		BinID:             l.Key.BinID,
		LotNumberID:       l.Key.LotNumberID,
		SerialNumberID:    l.Key.SerialNumberID,
		QuantityOnHand:    l.QuantityOnHand,
		QuantityReserved:  l.QuantityReserved,
		QuantityAllocated: l.QuantityAllocated,
		Version:           l.Version,
		LastMovementAt:    l.LastMovementAt,
		LastCountedAt:     l.LastCountedAt,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func (m *StockLevelModel) toDomain() *domain.StockLevel {
	return &domain.StockLevel{
		ID: m.ID,
		Key: domain.StockKey{
			ItemID:         m.ItemID,
			WarehouseID:    m.WarehouseID,
			LocationID:     m.LocationID,
			BinID:          m.BinID,
			LotNumberID:    m.LotNumberID,
			SerialNumberID: m.SerialNumberID,
		},
		QuantityOnHand:    m.QuantityOnHand,
		QuantityReserved:  m.QuantityReserved,
		QuantityAllocated: m.QuantityAllocated,
		Version:           m.Version,
		LastMovementAt:    m.LastMovementAt,
		LastCountedAt:     m.LastCountedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func ledgerEntryToModel(e *domain.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:                e.ID,
		TransactionNumber: e.TransactionNumber,
		Sequence:          e.Sequence,
		EventID:           e.EventID,
		StockLevelID:      e.StockLevelID,
		ItemID:            e.ItemID,
		WarehouseID:       e.WarehouseID,
		LocationID:        e.LocationID,
		PurchaseOrderID:   e.PurchaseOrderID,
		TransactionType:   string(e.Type),
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
		CreatedAt:         e.CreatedAt,
	}
}

func (m *LedgerEntryModel) toDomain() *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:                m.ID,
		TransactionNumber: m.TransactionNumber,
		Sequence:          m.Sequence,
		EventID:           m.EventID,
		StockLevelID:      m.StockLevelID,
		ItemID:            m.ItemID,
		WarehouseID:       m.WarehouseID,
		LocationID:        m.LocationID,
		PurchaseOrderID:   m.PurchaseOrderID,
		Type:              domain.TransactionType(m.TransactionType),
		Reason:            domain.Reason(m.Reason),
		Quantity:          m.Quantity,
		QuantityBefore:    m.QuantityBefore,
		UnitCost:          m.UnitCost,
		TransactionDate:   m.TransactionDate,
		Reference:         m.Reference,
		Notes:             m.Notes,
		PerformedBy:       m.PerformedBy,
		IsApproved:        m.IsApproved,
		CreatedAt:         m.CreatedAt,
	}
}

func purchaseOrderToModel(po *domain.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		ID:          po.ID,
		OrderNumber: po.OrderNumber,
		Status:      po.Status,
		ReceivedAt:  po.ReceivedAt,
		UpdatedAt:   po.UpdatedAt,
		Version:     po.Version,
	}
	for _, item := range po.Items {
		m.Items = append(m.Items, PurchaseOrderItemModel{
			ID:               item.ID,
			PurchaseOrderID:  po.ID,
			ItemID:           item.ItemID,
			OrderedQuantity:  item.OrderedQuantity,
			ReceivedQuantity: item.ReceivedQuantity,
			UnitPrice:        item.UnitPrice,
		})
	}
	return m
}

func (m *PurchaseOrderModel) toDomain() *domain.PurchaseOrder {
	po := &domain.PurchaseOrder{
		ID:          m.ID,
		OrderNumber: m.OrderNumber,
		Status:      m.Status,
		ReceivedAt:  m.ReceivedAt,
		UpdatedAt:   m.UpdatedAt,
		Version:     m.Version,
	}
	for _, item := range m.Items {
		po.Items = append(po.Items, &domain.PurchaseOrderItem{
			ID:               item.ID,
			PurchaseOrderID:  item.PurchaseOrderID,
			ItemID:           item.ItemID,
			OrderedQuantity:  item.OrderedQuantity,
			ReceivedQuantity: item.ReceivedQuantity,
			UnitPrice:        item.UnitPrice,
		})
	}
	return po
}

func reservationToModel(r *domain.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:                r.ID,
		ReservationNumber: r.ReservationNumber,
		StockLevelID:      r.StockLevelID,
		ItemID:            r.Key.ItemID,
		WarehouseID:       r.Key.WarehouseID,
		LocationID:        r.Key.LocationID,
		BinID:             r.Key.BinID,
		LotNumberID:       r.Key.LotNumberID,
		SerialNumberID:    r.Key.SerialNumberID,
		Quantity:          r.Quantity,
		ReservationType:   string(r.Type),
		Status:            string(r.Status),
		Reference:         r.Reference,
		ReservedBy:        r.ReservedBy,
		ReservedAt:        r.ReservedAt,
		ExpiresAt:         r.ExpiresAt,
		CompletedAt:       r.CompletedAt,
		ReleaseReason:     r.ReleaseReason,
		Version:           r.Version,
	}
}

func (m *ReservationModel) toDomain() *domain.Reservation {
	return &domain.Reservation{
		ID:                m.ID,
		ReservationNumber: m.ReservationNumber,
		StockLevelID:      m.StockLevelID,
		Key: domain.StockKey{
			ItemID:         m.ItemID,
			WarehouseID:    m.WarehouseID,
			LocationID:     m.LocationID,
			BinID:          m.BinID,
			LotNumberID:    m.LotNumberID,
			SerialNumberID: m.SerialNumberID,
		},
		Quantity:      m.Quantity,
		Type:          domain.ReservationType(m.ReservationType),
		Status:        domain.ReservationStatus(m.Status),
		Reference:     m.Reference,
		ReservedBy:    m.ReservedBy,
		ReservedAt:    m.ReservedAt,
		ExpiresAt:     m.ExpiresAt,
		CompletedAt:   m.CompletedAt,
		ReleaseReason: m.ReleaseReason,
		Version:       m.Version,
	}
}
