package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockKey identifies one StockLevel row. Everything after WarehouseID is optional.
type StockKey struct {
	ItemID         uuid.UUID  `json:"itemId"`
	WarehouseID    uuid.UUID  `json:"warehouseId"`
	LocationID     *uuid.UUID `json:"locationId,omitempty"`
	BinID          *uuid.UUID `json:"binId,omitempty"`
	LotNumberID    *uuid.UUID `json:"lotNumberId,omitempty"`
	SerialNumberID *uuid.UUID `json:"serialNumberId,omitempty"`
}

// String renders the key in a stable form usable as a map or lock key
func (k StockKey) String() string {
	parts := []string{k.ItemID.String(), k.WarehouseID.String()}
	for _, id := range []*uuid.UUID{k.LocationID, k.BinID, k.LotNumberID, k.SerialNumberID} {
		if id == nil {
			parts = append(parts, "-")
			continue
		}
		parts = append(parts, id.String())
	}
	return strings.Join(parts, "/")
}

// Validate checks that the mandatory parts of the key are present
func (k StockKey) Validate() error {
	if k.ItemID == uuid.Nil {
		return fmt.Errorf("%w: item id is required", ErrInvalidStockKey)
	}
	if k.WarehouseID == uuid.Nil {
		return fmt.Errorf("%w: warehouse id is required", ErrInvalidStockKey)
	}
	return nil
}

// StockLevel is the aggregate root holding the current quantities for one StockKey.
// Invariant: 0 <= QuantityAllocated <= QuantityReserved <= QuantityOnHand.
type StockLevel struct {
	ID                uuid.UUID
	Key               StockKey
	QuantityOnHand    int64
	QuantityReserved  int64
	QuantityAllocated int64
	LastMovementAt    *time.Time
	LastCountedAt     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64 // For optimistic locking

	events []Event
}

// NewStockLevel creates an empty stock level for a never-seen key
func NewStockLevel(key StockKey) *StockLevel {
	now := time.Now().UTC()
	return &StockLevel{
		ID:        uuid.New(),
		Key:       key,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// QuantityAvailable returns the quantity new reservations can draw from (on hand - reserved)
func (s *StockLevel) QuantityAvailable() int64 {
	return s.QuantityOnHand - s.QuantityReserved
}

// Unallocated returns reserved units not yet assigned to a pick
func (s *StockLevel) Unallocated() int64 {
	return s.QuantityReserved - s.QuantityAllocated
}

// Snapshot returns the current quantities
func (s *StockLevel) Snapshot() StockSnapshot {
	return StockSnapshot{
		StockLevelID: s.ID,
		Key:          s.Key,
		OnHand:       s.QuantityOnHand,
		Reserved:     s.QuantityReserved,
		Allocated:    s.QuantityAllocated,
		Available:    s.QuantityAvailable(),
		Version:      s.Version,
	}
}

// PullEvents returns and clears pending domain events
func (s *StockLevel) PullEvents() []Event {
	events := s.events
	s.events = nil
	return events
}

// CheckInvariants reports whether the quantities are consistent
func (s *StockLevel) CheckInvariants() error {
	if s.QuantityAllocated < 0 || s.QuantityAllocated > s.QuantityReserved || s.QuantityReserved > s.QuantityOnHand {
		return fmt.Errorf("stock level %s violates 0 <= allocated(%d) <= reserved(%d) <= on hand(%d)",
			s.ID, s.QuantityAllocated, s.QuantityReserved, s.QuantityOnHand)
	}
	return nil
}

// IncreaseQuantity adds physical units
func (s *StockLevel) IncreaseQuantity(amount int64) error {
	return s.IncreaseQuantityAtCost(amount, decimal.Zero)
}

// IncreaseQuantityAtCost adds physical units and records their unit cost on the event
func (s *StockLevel) IncreaseQuantityAtCost(amount int64, unitCost decimal.Decimal) error {
	if amount <= 0 {
		return invalidQuantity(amount)
	}
	before := s.QuantityOnHand
	s.QuantityOnHand += amount
	at := s.touch()
	s.events = append(s.events, &StockUpdated{
		EventMeta:      newEventMeta(at),
		Snapshot:       s.Snapshot(),
		Change:         ChangeIncrease,
		Quantity:       amount,
		QuantityBefore: before,
		UnitCost:       unitCost,
	})
	return nil
}

// Reserve commits available units to a future outbound movement
func (s *StockLevel) Reserve(amount int64) error {
	if amount <= 0 {
		return invalidQuantity(amount)
	}
	if amount > s.QuantityAvailable() {
		return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientAvailableStock, s.QuantityAvailable(), amount)
	}
	s.QuantityReserved += amount
	at := s.touch()
	s.events = append(s.events, &StockReserved{
		EventMeta: newEventMeta(at),
		Snapshot:  s.Snapshot(),
		Quantity:  amount,
	})
	return nil
}

// Allocate assigns reserved units to a pick
func (s *StockLevel) Allocate(amount int64) error {
	if amount <= 0 {
		return invalidQuantity(amount)
	}
	if amount > s.Unallocated() {
		return fmt.Errorf("%w: unallocated reserved %d, requested %d", ErrInsufficientAvailableStock, s.Unallocated(), amount)
	}
	s.QuantityAllocated += amount
	at := s.touch()
	s.events = append(s.events, &StockAllocated{
		EventMeta: newEventMeta(at),
		Snapshot:  s.Snapshot(),
		Quantity:  amount,
	})
	return nil
}

// Release returns reserved units to the available pool
func (s *StockLevel) Release(amount int64, allocated bool) error {
	return s.releaseReserved(amount, allocated, ChangeRelease)
}

// Cancel is Release recorded as a cancellation
func (s *StockLevel) Cancel(amount int64, allocated bool) error {
	return s.releaseReserved(amount, allocated, ChangeCancel)
}

// Expire is Release recorded as an expiry. Only unallocated reservations expire.
func (s *StockLevel) Expire(amount int64) error {
	return s.releaseReserved(amount, false, ChangeExpire)
}

func (s *StockLevel) releaseReserved(amount int64, allocated bool, change ChangeType) error {
	if amount <= 0 {
		return invalidQuantity(amount)
	}
	if allocated {
		s.QuantityAllocated = clampSub(s.QuantityAllocated, amount)
	}
	s.QuantityReserved = clampSub(s.QuantityReserved, amount)
	if s.QuantityAllocated > s.QuantityReserved {
		s.QuantityAllocated = s.QuantityReserved
	}
	at := s.touch()
	s.events = append(s.events, &StockUpdated{
		EventMeta:      newEventMeta(at),
		Snapshot:       s.Snapshot(),
		Change:         change,
		Quantity:       amount,
		QuantityBefore: s.QuantityOnHand,
	})
	return nil
}

// DecreaseQuantity confirms a pick: the picked units leave on hand and retire
// the reservation and allocation that backed them.
func (s *StockLevel) DecreaseQuantity(amount int64) error {
	if amount <= 0 {
		return invalidQuantity(amount)
	}
	if amount > s.QuantityAllocated {
		return fmt.Errorf("%w: allocated %d, requested %d", ErrInsufficientAvailableStock, s.QuantityAllocated, amount)
	}
	before := s.QuantityOnHand
	s.QuantityOnHand -= amount
	s.QuantityReserved -= amount
	s.QuantityAllocated -= amount
	at := s.touch()
	s.events = append(s.events, &StockUpdated{
		EventMeta:      newEventMeta(at),
		Snapshot:       s.Snapshot(),
		Change:         ChangePickConfirmed,
		Quantity:       amount,
		QuantityBefore: before,
	})
	return nil
}

// WriteDown removes unreserved units (damage, shrinkage)
func (s *StockLevel) WriteDown(amount int64) error {
	if amount <= 0 {
		return invalidQuantity(amount)
	}
	if amount > s.QuantityAvailable() {
		return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientAvailableStock, s.QuantityAvailable(), amount)
	}
	before := s.QuantityOnHand
	s.QuantityOnHand -= amount
	at := s.touch()
	s.events = append(s.events, &StockUpdated{
		EventMeta:      newEventMeta(at),
		Snapshot:       s.Snapshot(),
		Change:         ChangeDecrease,
		Quantity:       amount,
		QuantityBefore: before,
	})
	return nil
}

// RecordCount replaces on hand with a physically counted quantity
func (s *StockLevel) RecordCount(counted int64) error {
	if counted < 0 {
		return invalidQuantity(counted)
	}
	if counted < s.QuantityReserved {
		return fmt.Errorf("%w: reserved %d, counted %d", ErrCountBelowCommitted, s.QuantityReserved, counted)
	}
	before := s.QuantityOnHand
	s.QuantityOnHand = counted
	at := s.touch()
	s.LastCountedAt = &at
	s.events = append(s.events, &StockCounted{
		EventMeta:      newEventMeta(at),
		Snapshot:       s.Snapshot(),
		Counted:        counted,
		Variance:       counted - before,
		QuantityBefore: before,
	})
	return nil
}

// Relocate updates the location assignments. Quantities do not change.
func (s *StockLevel) Relocate(locationID, binID, lotNumberID, serialNumberID *uuid.UUID) bool {
	next := s.Key
	next.LocationID = locationID
	next.BinID = binID
	next.LotNumberID = lotNumberID
	next.SerialNumberID = serialNumberID
	if next.String() == s.Key.String() {
		return false
	}
	s.Key = next
	s.UpdatedAt = time.Now().UTC()
	s.Version++
	s.events = append(s.events, &StockUpdated{
		EventMeta:      newEventMeta(s.UpdatedAt),
		Snapshot:       s.Snapshot(),
		Change:         ChangeLocation,
		QuantityBefore: s.QuantityOnHand,
	})
	return true
}

func (s *StockLevel) touch() time.Time {
	now := time.Now().UTC()
	s.LastMovementAt = &now
	s.UpdatedAt = now
	s.Version++
	return now
}

func invalidQuantity(amount int64) error {
	return fmt.Errorf("%w: got %d", ErrInvalidQuantity, amount)
}

func clampSub(v, amount int64) int64 {
	if amount >= v {
		return 0
	}
	return v - amount
}
