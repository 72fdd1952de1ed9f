package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"warehouse-ledger/internal/domain"

	"github.com/google/uuid"
)

type memoryState struct {
	levels       map[uuid.UUID]*domain.StockLevel
	levelByKey   map[string]uuid.UUID
	ledger       []*domain.LedgerEntry
	ledgerNumber map[string]struct{}
	ledgerEvent  map[uuid.UUID]struct{}
	orders       map[uuid.UUID]*domain.PurchaseOrder
	orderByLine  map[uuid.UUID]uuid.UUID
	reservations map[uuid.UUID]*domain.Reservation
	sequences    map[string]int64
	receipts     map[uuid.UUID]string
}

func newMemoryState() *memoryState {
	return &memoryState{
		levels:       make(map[uuid.UUID]*domain.StockLevel),
		levelByKey:   make(map[string]uuid.UUID),
		ledgerNumber: make(map[string]struct{}),
		ledgerEvent:  make(map[uuid.UUID]struct{}),
		orders:       make(map[uuid.UUID]*domain.PurchaseOrder),
		orderByLine:  make(map[uuid.UUID]uuid.UUID),
		reservations: make(map[uuid.UUID]*domain.Reservation),
		sequences:    make(map[string]int64),
		receipts:     make(map[uuid.UUID]string),
	}
}

// clone copies everything a transaction may mutate. Ledger entries are immutable and shared.
func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for id, l := range s.levels {
		c.levels[id] = cloneLevel(l)
	}
	for k, v := range s.levelByKey {
		c.levelByKey[k] = v
	}
	c.ledger = append(c.ledger, s.ledger...)
	for k := range s.ledgerNumber {
		c.ledgerNumber[k] = struct{}{}
	}
	for k := range s.ledgerEvent {
		c.ledgerEvent[k] = struct{}{}
	}
	for id, po := range s.orders {
		c.orders[id] = cloneOrder(po)
	}
	for k, v := range s.orderByLine {
		c.orderByLine[k] = v
	}
	for id, r := range s.reservations {
		c.reservations[id] = cloneReservation(r)
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	for k, v := range s.receipts {
		c.receipts[k] = v
	}
	return c
}

// MemoryStore is an in-process Store. Transactions are serialised by one mutex,
// and a failed transaction restores the state captured when it began.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func (s *MemoryStore) view(inTx bool) *memoryTx {
	return &memoryTx{store: s, inTx: inTx}
}

// WithinTx runs fn while holding the store lock
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if existing, ok := TxFromContext(ctx); ok {
		if mt, ok := existing.(*memoryTx); ok && mt.store == s && mt.inTx {
			return fn(ctx, mt)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	tx := s.view(true)
	if err := fn(ContextWithTx(ctx, tx), tx); err != nil {
		*s.state = *snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                   { return nil }

func (s *MemoryStore) StockLevels() StockLevelRepository       { return s.view(false).StockLevels() }
func (s *MemoryStore) Ledger() LedgerRepository                { return s.view(false).Ledger() }
func (s *MemoryStore) PurchaseOrders() PurchaseOrderRepository { return s.view(false).PurchaseOrders() }
func (s *MemoryStore) Reservations() ReservationRepository     { return s.view(false).Reservations() }
func (s *MemoryStore) Sequences() SequenceRepository           { return s.view(false).Sequences() }
func (s *MemoryStore) Receipts() ReceiptRepository             { return s.view(false).Receipts() }

// memoryTx binds the repositories to the shared state. Outside a transaction
// each repository call takes the store lock for its own duration.
type memoryTx struct {
	store *MemoryStore
	inTx  bool
}

type (
	memoryStockLevels  struct{ *memoryTx }
	memoryLedger       struct{ *memoryTx }
	memoryOrders       struct{ *memoryTx }
	memoryReservations struct{ *memoryTx }
	memorySequences    struct{ *memoryTx }
	memoryReceipts     struct{ *memoryTx }
)

func (t *memoryTx) StockLevels() StockLevelRepository       { return memoryStockLevels{t} }
func (t *memoryTx) Ledger() LedgerRepository                { return memoryLedger{t} }
func (t *memoryTx) PurchaseOrders() PurchaseOrderRepository { return memoryOrders{t} }
func (t *memoryTx) Reservations() ReservationRepository     { return memoryReservations{t} }
func (t *memoryTx) Sequences() SequenceRepository           { return memorySequences{t} }
func (t *memoryTx) Receipts() ReceiptRepository             { return memoryReceipts{t} }

func (t *memoryTx) guard(ctx context.Context) func() {
	if t.inTx {
		return func() {}
	}
	if existing, ok := TxFromContext(ctx); ok {
		if mt, ok := existing.(*memoryTx); ok && mt.store == t.store && mt.inTx {
			return func() {}
		}
	}
	t.store.mu.Lock()
	return t.store.mu.Unlock
}

func (t *memoryTx) state() *memoryState { return t.store.state }

// Stock levels

func (t memoryStockLevels) GetForUpdate(ctx context.Context, key domain.StockKey) (*domain.StockLevel, error) {
	defer t.guard(ctx)()
	id, ok := t.state().levelByKey[key.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStockLevelNotFound, key)
	}
	return cloneLevel(t.state().levels[id]), nil
}

func (t memoryStockLevels) GetByID(ctx context.Context, id uuid.UUID) (*domain.StockLevel, error) {
	defer t.guard(ctx)()
	level, ok := t.state().levels[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %s", domain.ErrStockLevelNotFound, id)
	}
	return cloneLevel(level), nil
}

func (t memoryStockLevels) Create(ctx context.Context, level *domain.StockLevel) error {
	defer t.guard(ctx)()
	key := level.Key.String()
	if _, exists := t.state().levelByKey[key]; exists {
		return fmt.Errorf("%w: stock level %s", ErrDuplicate, key)
	}
	t.state().levels[level.ID] = cloneLevel(level)
	t.state().levelByKey[key] = level.ID
	return nil
}

func (t memoryStockLevels) Update(ctx context.Context, level *domain.StockLevel, expectedVersion int64) error {
	defer t.guard(ctx)()
	current, ok := t.state().levels[level.ID]
	if !ok {
		return fmt.Errorf("%w: id %s", domain.ErrStockLevelNotFound, level.ID)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: stock level %s at version %d, expected %d", ErrConcurrentUpdate, level.ID, current.Version, expectedVersion)
	}
	if oldKey := current.Key.String(); oldKey != level.Key.String() {
		delete(t.state().levelByKey, oldKey)
		t.state().levelByKey[level.Key.String()] = level.ID
	}
	t.state().levels[level.ID] = cloneLevel(level)
	return nil
}

func (t memoryStockLevels) SumOnHand(ctx context.Context, itemID, warehouseID uuid.UUID) (int64, error) {
	defer t.guard(ctx)()
	var total int64
	for _, l := range t.state().levels {
		if l.Key.ItemID == itemID && l.Key.WarehouseID == warehouseID {
			total += l.QuantityOnHand
		}
	}
	return total, nil
}

func (t memoryStockLevels) List(ctx context.Context, filter StockFilter) ([]*domain.StockLevel, error) {
	defer t.guard(ctx)()
	var out []*domain.StockLevel
	for _, l := range t.state().levels {
		if filter.ItemID != nil && l.Key.ItemID != *filter.ItemID {
			continue
		}
		if filter.WarehouseID != nil && l.Key.WarehouseID != *filter.WarehouseID {
			continue
		}
		out = append(out, cloneLevel(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out, nil
}

// Ledger

func (t memoryLedger) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	defer t.guard(ctx)()
	st := t.state()
	if _, dup := st.ledgerNumber[entry.TransactionNumber]; dup {
		return fmt.Errorf("%w: transaction number %s", ErrDuplicate, entry.TransactionNumber)
	}
	if _, dup := st.ledgerEvent[entry.EventID]; dup && entry.EventID != uuid.Nil {
		return fmt.Errorf("%w: event %s", ErrDuplicate, entry.EventID)
	}
	e := *entry
	st.ledger = append(st.ledger, &e)
	st.ledgerNumber[e.TransactionNumber] = struct{}{}
	if e.EventID != uuid.Nil {
		st.ledgerEvent[e.EventID] = struct{}{}
	}
	return nil
}

func (t memoryLedger) ExistsForEvent(ctx context.Context, eventID uuid.UUID) (bool, error) {
	defer t.guard(ctx)()
	_, ok := t.state().ledgerEvent[eventID]
	return ok, nil
}

func (t memoryLedger) List(ctx context.Context, filter LedgerFilter) ([]*domain.LedgerEntry, error) {
	defer t.guard(ctx)()
	var out []*domain.LedgerEntry
	for _, e := range t.state().ledger {
		if filter.ItemID != nil && e.ItemID != *filter.ItemID {
			continue
		}
		if filter.WarehouseID != nil && e.WarehouseID != *filter.WarehouseID {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j]) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Purchase orders

func (t memoryOrders) getOrder(id uuid.UUID) (*domain.PurchaseOrder, error) {
	po, ok := t.state().orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPurchaseOrderNotFound, id)
	}
	return cloneOrder(po), nil
}

func (t memoryOrders) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	defer t.guard(ctx)()
	return t.getOrder(id)
}

func (t memoryOrders) FindByLineID(ctx context.Context, lineID uuid.UUID) (*domain.PurchaseOrder, error) {
	defer t.guard(ctx)()
	orderID, ok := t.state().orderByLine[lineID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPurchaseOrderLineNotFound, lineID)
	}
	return t.getOrder(orderID)
}

func (t memoryOrders) Save(ctx context.Context, po *domain.PurchaseOrder) error {
	defer t.guard(ctx)()
	t.state().orders[po.ID] = cloneOrder(po)
	for _, item := range po.Items {
		t.state().orderByLine[item.ID] = po.ID
	}
	return nil
}

// Sequences

func (t memorySequences) Next(ctx context.Context, prefix, date string) (int64, error) {
	defer t.guard(ctx)()
	key := prefix + ":" + date
	t.state().sequences[key]++
	return t.state().sequences[key], nil
}

// Receipts

func (t memoryReceipts) IsProcessed(ctx context.Context, receiptID uuid.UUID) (bool, error) {
	defer t.guard(ctx)()
	_, ok := t.state().receipts[receiptID]
	return ok, nil
}

func (t memoryReceipts) MarkProcessed(ctx context.Context, receiptID uuid.UUID, receiptNumber string) error {
	defer t.guard(ctx)()
	if _, ok := t.state().receipts[receiptID]; ok {
		return fmt.Errorf("%w: receipt %s", ErrDuplicate, receiptNumber)
	}
	t.state().receipts[receiptID] = receiptNumber
	return nil
}

func cloneLevel(l *domain.StockLevel) *domain.StockLevel {
	c := *l
	c.PullEvents()
	return &c
}

func cloneOrder(po *domain.PurchaseOrder) *domain.PurchaseOrder {
	c := *po
	c.Items = make([]*domain.PurchaseOrderItem, len(po.Items))
	for i, item := range po.Items {
		line := *item
		c.Items[i] = &line
	}
	return &c
}

func cloneReservation(r *domain.Reservation) *domain.Reservation {
	c := *r
	return &c
}

var _ Store = (*MemoryStore)(nil)

// Reservations

func (r memoryReservations) Create(ctx context.Context, res *domain.Reservation) error {
	defer r.guard(ctx)()
	if _, exists := r.state().reservations[res.ID]; exists {
		return fmt.Errorf("%w: reservation %s", ErrDuplicate, res.ID)
	}
	r.state().reservations[res.ID] = cloneReservation(res)
	return nil
}

func (r memoryReservations) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	defer r.guard(ctx)()
	res, ok := r.state().reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrReservationNotFound, id)
	}
	return cloneReservation(res), nil
}

func (r memoryReservations) Update(ctx context.Context, res *domain.Reservation, expectedVersion int64) error {
	defer r.guard(ctx)()
	current, ok := r.state().reservations[res.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrReservationNotFound, res.ID)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: reservation %s at version %d, expected %d", ErrConcurrentUpdate, res.ID, current.Version, expectedVersion)
	}
	r.state().reservations[res.ID] = cloneReservation(res)
	return nil
}

func (r memoryReservations) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	defer r.guard(ctx)()
	var out []*domain.Reservation
	for _, res := range r.state().reservations {
		if res.IsExpired(now) {
			out = append(out, cloneReservation(res))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
