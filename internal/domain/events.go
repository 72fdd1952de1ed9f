package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names used on the dispatcher and as the Kafka "event-type" header.
const (
	EventTypeStockReserved  = "StockReserved"
	EventTypeStockAllocated = "StockAllocated"
	EventTypeStockUpdated   = "StockUpdated"
	EventTypeStockCounted   = "StockCounted"
)

// ChangeType classifies a StockUpdated event
type ChangeType string

const (
	ChangeIncrease      ChangeType = "INCREASE"
	ChangeDecrease      ChangeType = "DECREASE"
	ChangeRelease       ChangeType = "RELEASE_RESERVATION"
	ChangeCancel        ChangeType = "CANCEL_RESERVATION"
	ChangeExpire        ChangeType = "EXPIRE_RESERVATION"
	ChangePickConfirmed ChangeType = "PICK_CONFIRMED"
	ChangeLocation      ChangeType = "LOCATION_UPDATE"
)

// Event is a domain event raised by the StockLevel aggregate
type Event interface {
	EventType() string
	Meta() *EventMeta
	StockSnapshot() StockSnapshot
}

// EventMeta carries identity and caller context shared by every event.
// Reference and PerformedBy are filled by the service that pulled the event.
type EventMeta struct {
	ID          uuid.UUID `json:"eventId"`
	OccurredAt  time.Time `json:"occurredAt"`
	Reference   string    `json:"reference,omitempty"`
	PerformedBy string    `json:"performedBy,omitempty"`
}

func newEventMeta(at time.Time) EventMeta {
	return EventMeta{ID: uuid.New(), OccurredAt: at}
}

// Annotate sets the caller context on a batch of events
func Annotate(events []Event, reference, performedBy string) {
	for _, e := range events {
		m := e.Meta()
		if m.Reference == "" {
			m.Reference = reference
		}
		if m.PerformedBy == "" {
			m.PerformedBy = performedBy
		}
	}
}

// StockSnapshot is the post-event state of a StockLevel
type StockSnapshot struct {
	StockLevelID uuid.UUID `json:"stockLevelId"`
	Key          StockKey  `json:"key"`
	OnHand       int64     `json:"onHand"`
	Reserved     int64     `json:"reserved"`
	Allocated    int64     `json:"allocated"`
	Available    int64     `json:"available"`
	Version      int64     `json:"version"`
}

type StockReserved struct {
	EventMeta
	Snapshot StockSnapshot `json:"snapshot"`
	Quantity int64         `json:"quantity"`
}

func (e *StockReserved) EventType() string            { return EventTypeStockReserved }
func (e *StockReserved) Meta() *EventMeta             { return &e.EventMeta }
func (e *StockReserved) StockSnapshot() StockSnapshot { return e.Snapshot }

// AvailableBefore reconstructs the available quantity before the reservation
func (e *StockReserved) AvailableBefore() int64 {
	return e.Snapshot.Available + e.Quantity
}

type StockAllocated struct {
	EventMeta
	Snapshot StockSnapshot `json:"snapshot"`
	Quantity int64         `json:"quantity"`
}

func (e *StockAllocated) EventType() string            { return EventTypeStockAllocated }
func (e *StockAllocated) Meta() *EventMeta             { return &e.EventMeta }
func (e *StockAllocated) StockSnapshot() StockSnapshot { return e.Snapshot }

// UnallocatedBefore reconstructs reserved-but-unassigned units before the allocation
func (e *StockAllocated) UnallocatedBefore() int64 {
	return e.Snapshot.Reserved - e.Snapshot.Allocated + e.Quantity
}

type StockUpdated struct {
	EventMeta
	Snapshot       StockSnapshot   `json:"snapshot"`
	Change         ChangeType      `json:"changeType"`
	Quantity       int64           `json:"quantity"`
	QuantityBefore int64           `json:"quantityBefore"`
	UnitCost       decimal.Decimal `json:"unitCost"`
	// LedgerRecorded marks a change whose ledger entry was already written in
	// the same transaction as the mutation (goods receipts).
	LedgerRecorded bool `json:"ledgerRecorded"`
}

func (e *StockUpdated) EventType() string            { return EventTypeStockUpdated }
func (e *StockUpdated) Meta() *EventMeta             { return &e.EventMeta }
func (e *StockUpdated) StockSnapshot() StockSnapshot { return e.Snapshot }

type StockCounted struct {
	EventMeta
	Snapshot       StockSnapshot `json:"snapshot"`
	Counted        int64         `json:"counted"`
	Variance       int64         `json:"variance"`
	QuantityBefore int64         `json:"quantityBefore"`
}

func (e *StockCounted) EventType() string            { return EventTypeStockCounted }
func (e *StockCounted) Meta() *EventMeta             { return &e.EventMeta }
func (e *StockCounted) StockSnapshot() StockSnapshot { return e.Snapshot }
