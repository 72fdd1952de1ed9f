package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warehouse-ledger/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the relational Store. Row locks use SELECT ... FOR UPDATE and
// every aggregate update checks its version column.
type GormStore struct {
	gormTx
}

// NewGormStore wraps an opened gorm connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{gormTx{db: db}}
}

// Migrate creates or updates every table
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// WithinTx runs fn in a database transaction, joining the one already in ctx if present
func (s *GormStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if existing, ok := TxFromContext(ctx); ok {
		if gt, ok := existing.(gormTx); ok && gt.inTx {
			return fn(ctx, gt)
		}
	}
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		tx := gormTx{db: db, inTx: true}
		return fn(ContextWithTx(ctx, tx), tx)
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormTx struct {
	db   *gorm.DB
	inTx bool
}

type (
	gormStockLevels  struct{ gormTx }
	gormLedger       struct{ gormTx }
	gormOrders       struct{ gormTx }
	gormReservations struct{ gormTx }
	gormSequences    struct{ gormTx }
	gormReceipts     struct{ gormTx }
)

func (t gormTx) StockLevels() StockLevelRepository       { return gormStockLevels{t} }
func (t gormTx) Ledger() LedgerRepository                { return gormLedger{t} }
func (t gormTx) PurchaseOrders() PurchaseOrderRepository { return gormOrders{t} }
func (t gormTx) Reservations() ReservationRepository     { return gormReservations{t} }
func (t gormTx) Sequences() SequenceRepository           { return gormSequences{t} }
func (t gormTx) Receipts() ReceiptRepository             { return gormReceipts{t} }

// conn prefers the transaction carried by ctx so store-level calls made inside
// WithinTx see the same uncommitted rows.
func (t gormTx) conn(ctx context.Context) *gorm.DB {
	if !t.inTx {
		if existing, ok := TxFromContext(ctx); ok {
			if gt, ok := existing.(gormTx); ok && gt.inTx {
				return gt.db.WithContext(ctx)
			}
		}
	}
	return t.db.WithContext(ctx)
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// Stock levels

func (r gormStockLevels) GetForUpdate(ctx context.Context, key domain.StockKey) (*domain.StockLevel, error) {
	var m StockLevelModel
	err := forUpdate(r.conn(ctx)).Where("stock_key = ?", key.String()).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrStockLevelNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stock level: %w", err)
	}
	return m.toDomain(), nil
}

func (r gormStockLevels) GetByID(ctx context.Context, id uuid.UUID) (*domain.StockLevel, error) {
	var m StockLevelModel
	q := r.conn(ctx)
	if _, ok := TxFromContext(ctx); ok || r.inTx {
		q = forUpdate(q)
	}
	err := q.Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %s", domain.ErrStockLevelNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stock level: %w", err)
	}
	return m.toDomain(), nil
}

func (r gormStockLevels) Create(ctx context.Context, level *domain.StockLevel) error {
	if err := r.conn(ctx).Create(stockLevelToModel(level)).Error; err != nil {
		return fmt.Errorf("failed to create stock level: %w", translate(err))
	}
	return nil
}

func (r gormStockLevels) Update(ctx context.Context, level *domain.StockLevel, expectedVersion int64) error {
	m := stockLevelToModel(level)
	res := r.conn(ctx).Model(&StockLevelModel{}).
		Where("id = ? AND version = ?", level.ID, expectedVersion).
		Updates(map[string]interface{}{
			"stock_key":          m.StockKey,
			"location_id":        m.LocationID,
			"bin_id":             m.BinID,
			"lot_number_id":      m.LotNumberID,
			"serial_number_id":   m.SerialNumberID,
			"quantity_on_hand":   m.QuantityOnHand,
			"quantity_reserved":  m.QuantityReserved,
			"quantity_allocated": m.QuantityAllocated,
			"version":            m.Version,
			"last_movement_at":   m.LastMovementAt,
			"last_counted_at":    m.LastCountedAt,
			"updated_at":         m.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update stock level: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: stock level %s expected version %d", ErrConcurrentUpdate, level.ID, expectedVersion)
	}
	return nil
}

func (r gormStockLevels) SumOnHand(ctx context.Context, itemID, warehouseID uuid.UUID) (int64, error) {
	var total int64
	err := r.conn(ctx).Model(&StockLevelModel{}).
		Select("COALESCE(SUM(quantity_on_hand), 0)").
		Where("item_id = ? AND warehouse_id = ?", itemID, warehouseID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum on hand: %w", err)
	}
	return total, nil
}

func (r gormStockLevels) List(ctx context.Context, filter StockFilter) ([]*domain.StockLevel, error) {
	q := r.conn(ctx).Model(&StockLevelModel{})
	if filter.ItemID != nil {
		q = q.Where("item_id = ?", *filter.ItemID)
	}
	if filter.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	var rows []StockLevelModel
	if err := q.Order("stock_key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock levels: %w", err)
	}
	out := make([]*domain.StockLevel, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// Ledger

func (r gormLedger) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	if err := r.conn(ctx).Create(ledgerEntryToModel(entry)).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry %s: %w", entry.TransactionNumber, translate(err))
	}
	return nil
}

func (r gormLedger) ExistsForEvent(ctx context.Context, eventID uuid.UUID) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&LedgerEntryModel{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check ledger event: %w", err)
	}
	return count > 0, nil
}

func (r gormLedger) List(ctx context.Context, filter LedgerFilter) ([]*domain.LedgerEntry, error) {
	q := r.conn(ctx).Model(&LedgerEntryModel{})
	if filter.ItemID != nil {
		q = q.Where("item_id = ?", *filter.ItemID)
	}
	if filter.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var rows []LedgerEntryModel
	if err := q.Order("transaction_date, sequence, transaction_number").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	out := make([]*domain.LedgerEntry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// Purchase orders

func (r gormOrders) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var m PurchaseOrderModel
	err := forUpdate(r.conn(ctx)).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPurchaseOrderNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase order: %w", err)
	}
	if err := r.conn(ctx).Where("purchase_order_id = ?", id).Order("id").Find(&m.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load purchase order items: %w", err)
	}
	return m.toDomain(), nil
}

func (r gormOrders) FindByLineID(ctx context.Context, lineID uuid.UUID) (*domain.PurchaseOrder, error) {
	var line PurchaseOrderItemModel
	err := r.conn(ctx).Select("purchase_order_id").Where("id = ?", lineID).First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPurchaseOrderLineNotFound, lineID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve purchase order line: %w", err)
	}
	return r.GetForUpdate(ctx, line.PurchaseOrderID)
}

func (r gormOrders) Save(ctx context.Context, po *domain.PurchaseOrder) error {
	m := purchaseOrderToModel(po)
	err := r.conn(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(m).Error
	if err != nil {
		return fmt.Errorf("failed to save purchase order %s: %w", po.OrderNumber, translate(err))
	}
	return nil
}

// Reservations

func (r gormReservations) Create(ctx context.Context, res *domain.Reservation) error {
	if err := r.conn(ctx).Create(reservationToModel(res)).Error; err != nil {
		return fmt.Errorf("failed to create reservation: %w", translate(err))
	}
	return nil
}

func (r gormReservations) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	var m ReservationModel
	err := forUpdate(r.conn(ctx)).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrReservationNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	return m.toDomain(), nil
}

func (r gormReservations) Update(ctx context.Context, res *domain.Reservation, expectedVersion int64) error {
	result := r.conn(ctx).Model(&ReservationModel{}).
		Where("id = ? AND version = ?", res.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":         string(res.Status),
			"completed_at":   res.CompletedAt,
			"release_reason": res.ReleaseReason,
			"version":        res.Version,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: reservation %s expected version %d", ErrConcurrentUpdate, res.ID, expectedVersion)
	}
	return nil
}

func (r gormReservations) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	q := r.conn(ctx).Model(&ReservationModel{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", string(domain.ReservationActive), now).
		Order("expires_at")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []ReservationModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired reservations: %w", err)
	}
	out := make([]*domain.Reservation, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// Sequences

// Next locks the (prefix, date) counter row, creating it on first use, and increments it
func (r gormSequences) Next(ctx context.Context, prefix, date string) (int64, error) {
	var value int64
	err := r.inTransaction(ctx, func(db *gorm.DB) error {
		counter := SequenceCounterModel{Prefix: prefix, CounterDate: date}
		if err := forUpdate(db).Where("prefix = ? AND counter_date = ?", prefix, date).FirstOrCreate(&counter).Error; err != nil {
			if errors.Is(translate(err), ErrDuplicate) {
				return fmt.Errorf("%w: sequence %s/%s created concurrently", ErrConcurrentUpdate, prefix, date)
			}
			return err
		}
		value = counter.Value + 1
		return db.Model(&SequenceCounterModel{}).
			Where("prefix = ? AND counter_date = ?", prefix, date).
			Update("value", value).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to allocate sequence: %w", err)
	}
	return value, nil
}

// inTransaction runs fn in the caller's transaction, or a short one of its own
func (r gormSequences) inTransaction(ctx context.Context, fn func(db *gorm.DB) error) error {
	db := r.conn(ctx)
	if r.inTx {
		return fn(db)
	}
	if existing, ok := TxFromContext(ctx); ok {
		if gt, ok := existing.(gormTx); ok && gt.inTx {
			return fn(db)
		}
	}
	return db.Transaction(fn)
}

// Receipts

func (r gormReceipts) IsProcessed(ctx context.Context, receiptID uuid.UUID) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&ProcessedReceiptModel{}).Where("receipt_id = ?", receiptID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check receipt: %w", err)
	}
	return count > 0, nil
}

func (r gormReceipts) MarkProcessed(ctx context.Context, receiptID uuid.UUID, receiptNumber string) error {
	m := &ProcessedReceiptModel{ReceiptID: receiptID, ReceiptNumber: receiptNumber, ProcessedAt: time.Now().UTC()}
	if err := r.conn(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to mark receipt %s processed: %w", receiptNumber, translate(err))
	}
	return nil
}

var _ Store = (*GormStore)(nil)
