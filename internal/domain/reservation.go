package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReservationType is the requesting context of a reservation
type ReservationType string

const (
	ReservationTypeOrder      ReservationType = "Order"
	ReservationTypeTransfer   ReservationType = "Transfer"
	ReservationTypeProduction ReservationType = "Production"
	ReservationTypeAssembly   ReservationType = "Assembly"
	ReservationTypeOther      ReservationType = "Other"
)

// ParseReservationType accepts any casing of a known type. Empty means Order.
func ParseReservationType(s string) (ReservationType, error) {
	if s == "" {
		return ReservationTypeOrder, nil
	}
	for _, t := range []ReservationType{
		ReservationTypeOrder, ReservationTypeTransfer, ReservationTypeProduction,
		ReservationTypeAssembly, ReservationTypeOther,
	} {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown reservation type %q", ErrInvalidReservationState, s)
}

// ReservationStatus is a state of the reservation lifecycle
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "Active"
	ReservationAllocated ReservationStatus = "Allocated"
	ReservationReleased  ReservationStatus = "Released"
	ReservationCancelled ReservationStatus = "Cancelled"
	ReservationExpired   ReservationStatus = "Expired"
	ReservationFulfilled ReservationStatus = "Fulfilled"
)

// IsTerminal reports whether no further transition is possible
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationReleased, ReservationCancelled, ReservationExpired, ReservationFulfilled:
		return true
	}
	return false
}

// Reservation holds units of one StockLevel for a pick list or order
type Reservation struct {
	ID                uuid.UUID
	ReservationNumber string
	StockLevelID      uuid.UUID
	Key               StockKey
	Quantity          int64
	Type              ReservationType
	Status            ReservationStatus
	Reference         string
	ReservedBy        string
	ReservedAt        time.Time
	ExpiresAt         *time.Time
	CompletedAt       *time.Time
	ReleaseReason     string
	Version           int64
}

// NewReservation creates an active reservation
func NewReservation(number string, stockLevelID uuid.UUID, key StockKey, quantity int64, typ ReservationType, reference, reservedBy string, expiresAt *time.Time) (*Reservation, error) {
	if quantity <= 0 {
		return nil, invalidQuantity(quantity)
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return &Reservation{
		ID:                uuid.New(),
		ReservationNumber: number,
		StockLevelID:      stockLevelID,
		Key:               key,
		Quantity:          quantity,
		Type:              typ,
		Status:            ReservationActive,
		Reference:         reference,
		ReservedBy:        reservedBy,
		ReservedAt:        time.Now().UTC(),
		ExpiresAt:         expiresAt,
		Version:           1,
	}, nil
}

// IsExpired reports whether an active reservation has passed its expiry
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationActive && r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// Allocate marks the reservation as assigned to a pick
func (r *Reservation) Allocate() error {
	if r.Status != ReservationActive {
		return r.stateError("allocate")
	}
	r.Status = ReservationAllocated
	r.Version++
	return nil
}

// Release returns the reservation to the available pool
func (r *Reservation) Release(reason string) error {
	return r.close(ReservationReleased, reason, "release")
}

// Cancel withdraws the reservation
func (r *Reservation) Cancel(reason string) error {
	return r.close(ReservationCancelled, reason, "cancel")
}

// Expire ends an active reservation that was never allocated
func (r *Reservation) Expire() error {
	if r.Status != ReservationActive {
		return r.stateError("expire")
	}
	return r.close(ReservationExpired, "Automatic expiration", "expire")
}

// Fulfil records that the allocated units were picked
func (r *Reservation) Fulfil() error {
	if r.Status != ReservationAllocated {
		return r.stateError("fulfil")
	}
	return r.close(ReservationFulfilled, "", "fulfil")
}

func (r *Reservation) close(status ReservationStatus, reason, op string) error {
	if r.Status.IsTerminal() {
		return r.stateError(op)
	}
	now := time.Now().UTC()
	r.Status = status
	r.CompletedAt = &now
	r.ReleaseReason = reason
	r.Version++
	return nil
}

func (r *Reservation) stateError(op string) error {
	return fmt.Errorf("%w: cannot %s reservation %s in %s status", ErrInvalidReservationState, op, r.ReservationNumber, r.Status)
}
