package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/repository"
	"warehouse-ledger/internal/sequence"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const expirySweepBatch = 100

// ReservationManager drives the reservation lifecycle. Each transition moves
// the reservation and its stock level together in one transaction.
type ReservationManager struct {
	stock      *StockService
	allocator  sequence.Allocator
	defaultTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewReservationManager(stock *StockService, allocator sequence.Allocator, defaultTTL time.Duration, logger *zap.Logger) *ReservationManager {
	return &ReservationManager{
		stock:      stock,
		allocator:  allocator,
		defaultTTL: defaultTTL,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Reserve commits available units and records the reservation
func (m *ReservationManager) Reserve(ctx context.Context, cmd ReserveStockCommand) (*domain.Reservation, error) {
	ctx, span := startSpan(ctx, "ReservationManager.Reserve", cmd.Key, cmd.Quantity)
	defer span.End()

	if err := cmd.Key.Validate(); err != nil {
		return nil, spanError(span, err)
	}
	typ := cmd.Type
	if typ == "" {
		typ = domain.ReservationTypeOrder
	}

	var reservation *domain.Reservation
	_, err := m.stock.mutate(ctx, m.stock.lockKey(ctx, cmd.Key), byKey(cmd.Key, false), func(ctx context.Context, tx repository.Tx, level *domain.StockLevel) error {
		if err := level.Reserve(cmd.Quantity); err != nil {
			return err
		}
		now := m.now()
		number, err := m.allocator.Next(ctx, domain.ReasonReserved, now)
		if err != nil {
			return err
		}
		res, err := domain.NewReservation(reservationNumber(number), level.ID, level.Key, cmd.Quantity, typ, cmd.Reference, cmd.ReservedBy, m.expiry(now, cmd.TTL))
		if err != nil {
			return err
		}
		if err := tx.Reservations().Create(ctx, res); err != nil {
			return err
		}
		reservation = res
		return nil
	}, cmd.Reference, cmd.ReservedBy)
	if err != nil {
		return nil, spanError(span, err)
	}

	m.logger.Info("Stock reserved",
		zap.String("reservation", reservation.ReservationNumber),
		zap.String("key", cmd.Key.String()),
		zap.Int64("quantity", cmd.Quantity),
	)
	return reservation, nil
}

// Allocate assigns an active reservation's units to a pick
func (m *ReservationManager) Allocate(ctx context.Context, cmd ReservationCommand) (*domain.Reservation, error) {
	return m.transition(ctx, "ReservationManager.Allocate", cmd, func(res *domain.Reservation, level *domain.StockLevel) error {
		if err := res.Allocate(); err != nil {
			return err
		}
		return level.Allocate(res.Quantity)
	})
}

// Release returns the reservation's units to the available pool
func (m *ReservationManager) Release(ctx context.Context, cmd ReservationCommand) (*domain.Reservation, error) {
	return m.transition(ctx, "ReservationManager.Release", cmd, func(res *domain.Reservation, level *domain.StockLevel) error {
		allocated := res.Status == domain.ReservationAllocated
		if err := res.Release(cmd.Reason); err != nil {
			return err
		}
		return level.Release(res.Quantity, allocated)
	})
}

// Cancel withdraws the reservation
func (m *ReservationManager) Cancel(ctx context.Context, cmd ReservationCommand) (*domain.Reservation, error) {
	return m.transition(ctx, "ReservationManager.Cancel", cmd, func(res *domain.Reservation, level *domain.StockLevel) error {
		allocated := res.Status == domain.ReservationAllocated
		if err := res.Cancel(cmd.Reason); err != nil {
			return err
		}
		return level.Cancel(res.Quantity, allocated)
	})
}

// Pick confirms the allocated units left the shelf
func (m *ReservationManager) Pick(ctx context.Context, cmd ReservationCommand) (*domain.Reservation, error) {
	return m.transition(ctx, "ReservationManager.Pick", cmd, func(res *domain.Reservation, level *domain.StockLevel) error {
		if err := res.Fulfil(); err != nil {
			return err
		}
		return level.DecreaseQuantity(res.Quantity)
	})
}

// Get returns a reservation
func (m *ReservationManager) Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return m.stock.store.Reservations().GetForUpdate(ctx, id)
}

// ExpireDue expires active reservations whose expiry has passed and returns how many it expired
func (m *ReservationManager) ExpireDue(ctx context.Context) (int, error) {
	due, err := m.stock.store.Reservations().ListExpired(ctx, m.now(), expirySweepBatch)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, res := range due {
		_, err := m.transition(ctx, "ReservationManager.Expire", ReservationCommand{ReservationID: res.ID}, func(res *domain.Reservation, level *domain.StockLevel) error {
			if !res.IsExpired(m.now()) {
				return domain.ErrInvalidReservationState
			}
			if err := res.Expire(); err != nil {
				return err
			}
			return level.Expire(res.Quantity)
		})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, domain.ErrInvalidReservationState):
			// allocated or released since it was listed
		default:
			m.logger.Error("Failed to expire reservation",
				zap.String("reservation", res.ReservationNumber),
				zap.Error(err),
			)
		}
	}
	return expired, nil
}

// Run sweeps expired reservations every interval until ctx is done
func (m *ReservationManager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("Reservation expiry sweep started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Reservation expiry sweep stopped")
			return
		case <-ticker.C:
			n, err := m.ExpireDue(ctx)
			if err != nil {
				m.logger.Error("Reservation expiry sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				m.logger.Info("Expired reservations", zap.Int("count", n))
			}
		}
	}
}

func (m *ReservationManager) transition(ctx context.Context, op string, cmd ReservationCommand, apply func(*domain.Reservation, *domain.StockLevel) error) (*domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("reservation.id", cmd.ReservationID.String()),
	))
	defer span.End()

	current, err := m.stock.store.Reservations().GetForUpdate(ctx, cmd.ReservationID)
	if err != nil {
		return nil, spanError(span, err)
	}

	var updated *domain.Reservation
	_, err = m.stock.mutate(ctx, repository.LevelLockKey(current.StockLevelID), byID(current.StockLevelID), func(ctx context.Context, tx repository.Tx, level *domain.StockLevel) error {
		res, err := tx.Reservations().GetForUpdate(ctx, cmd.ReservationID)
		if err != nil {
			return err
		}
		expectedVersion := res.Version
		if err := apply(res, level); err != nil {
			return err
		}
		if err := tx.Reservations().Update(ctx, res, expectedVersion); err != nil {
			return err
		}
		updated = res
		return nil
	}, current.ReservationNumber, cmd.PerformedBy)
	if err != nil {
		return nil, spanError(span, err)
	}
	return updated, nil
}

func (m *ReservationManager) expiry(now time.Time, ttl time.Duration) *time.Time {
	if ttl == 0 {
		ttl = m.defaultTTL
	}
	if ttl <= 0 {
		return nil
	}
	at := now.Add(ttl)
	return &at
}

// reservationNumber reuses the RSV counter under a RES- prefix
func reservationNumber(n sequence.Number) string {
	return strings.Replace(n.Value, "TXN-RSV-", "RES-", 1)
}
