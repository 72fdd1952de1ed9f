package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/events"
	"warehouse-ledger/internal/lock"
	"warehouse-ledger/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("warehouse-ledger/inventory")

const defaultRetryDelay = 20 * time.Millisecond

// loader fetches the level a mutation works on. created reports a level that
// does not exist yet and must be inserted instead of updated.
type loader func(ctx context.Context, tx repository.Tx) (level *domain.StockLevel, created bool, err error)

// mutation changes a locked level, and anything else, inside one transaction
type mutation func(ctx context.Context, tx repository.Tx, level *domain.StockLevel) error

// StockService applies stock level commands. Every command runs in one store
// transaction under the row lock, is retried on version conflicts and
// dispatches the level's events only after commit.
type StockService struct {
	store      repository.Store
	dispatcher *events.Dispatcher
	locker     lock.Locker
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewStockService(store repository.Store, dispatcher *events.Dispatcher, locker lock.Locker, maxRetries int, logger *zap.Logger) *StockService {
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &StockService{
		store:      store,
		dispatcher: dispatcher,
		locker:     locker,
		maxRetries: maxRetries,
		retryDelay: defaultRetryDelay,
		logger:     logger,
	}
}

// IncreaseStock adds units, creating the level if needed
func (s *StockService) IncreaseStock(ctx context.Context, cmd IncreaseStockCommand) (*domain.StockLevel, error) {
	ctx, span := startSpan(ctx, "StockService.IncreaseStock", cmd.Key, cmd.Quantity)
	defer span.End()

	if err := cmd.Key.Validate(); err != nil {
		return nil, spanError(span, err)
	}
	level, err := s.mutate(ctx, s.lockKey(ctx, cmd.Key), byKey(cmd.Key, true), func(_ context.Context, _ repository.Tx, level *domain.StockLevel) error {
		return level.IncreaseQuantityAtCost(cmd.Quantity, cmd.UnitCost)
	}, cmd.Reference, cmd.PerformedBy)
	return level, spanError(span, err)
}

// WriteDown removes unreserved units
func (s *StockService) WriteDown(ctx context.Context, cmd WriteDownCommand) (*domain.StockLevel, error) {
	ctx, span := startSpan(ctx, "StockService.WriteDown", cmd.Key, cmd.Quantity)
	defer span.End()

	if err := cmd.Key.Validate(); err != nil {
		return nil, spanError(span, err)
	}
	level, err := s.mutate(ctx, s.lockKey(ctx, cmd.Key), byKey(cmd.Key, false), func(_ context.Context, _ repository.Tx, level *domain.StockLevel) error {
		return level.WriteDown(cmd.Quantity)
	}, cmd.Reference, cmd.PerformedBy)
	return level, spanError(span, err)
}

// RecordCount applies a cycle count. Counting an unknown location creates its level.
func (s *StockService) RecordCount(ctx context.Context, cmd RecordCountCommand) (*domain.StockLevel, error) {
	ctx, span := startSpan(ctx, "StockService.RecordCount", cmd.Key, cmd.Counted)
	defer span.End()

	if err := cmd.Key.Validate(); err != nil {
		return nil, spanError(span, err)
	}
	level, err := s.mutate(ctx, s.lockKey(ctx, cmd.Key), byKey(cmd.Key, true), func(_ context.Context, _ repository.Tx, level *domain.StockLevel) error {
		return level.RecordCount(cmd.Counted)
	}, cmd.Reference, cmd.PerformedBy)
	return level, spanError(span, err)
}

// Relocate changes the location assignments of a level. A no-op move returns the level unchanged.
func (s *StockService) Relocate(ctx context.Context, cmd RelocateCommand) (*domain.StockLevel, error) {
	ctx, span := tracer.Start(ctx, "StockService.Relocate", trace.WithAttributes(
		attribute.String("stock.level_id", cmd.StockLevelID.String()),
	))
	defer span.End()

	level, err := s.mutate(ctx, repository.LevelLockKey(cmd.StockLevelID), byID(cmd.StockLevelID), func(ctx context.Context, tx repository.Tx, level *domain.StockLevel) error {
		next := level.Key
		next.LocationID, next.BinID = cmd.LocationID, cmd.BinID
		next.LotNumberID, next.SerialNumberID = cmd.LotNumberID, cmd.SerialNumberID
		if next.String() != level.Key.String() {
			_, err := tx.StockLevels().GetForUpdate(ctx, next)
			if err == nil {
				return fmt.Errorf("%w: a stock level already exists at %s", domain.ErrInvalidStockKey, next)
			}
			if !errors.Is(err, domain.ErrStockLevelNotFound) {
				return err
			}
		}
		level.Relocate(cmd.LocationID, cmd.BinID, cmd.LotNumberID, cmd.SerialNumberID)
		return nil
	}, "", cmd.PerformedBy)
	return level, spanError(span, err)
}

// GetLevel returns the level for key
func (s *StockService) GetLevel(ctx context.Context, key domain.StockKey) (*domain.StockLevel, error) {
	return s.store.StockLevels().GetForUpdate(ctx, key)
}

// ListLevels returns the levels matching filter
func (s *StockService) ListLevels(ctx context.Context, filter repository.StockFilter) ([]*domain.StockLevel, error) {
	return s.store.StockLevels().List(ctx, filter)
}

func (s *StockService) lockKey(ctx context.Context, key domain.StockKey) string {
	return repository.LockKeyFor(ctx, s.store.StockLevels(), key)
}

func (s *StockService) mutate(ctx context.Context, lockKey string, load loader, fn mutation, reference, performedBy string) (*domain.StockLevel, error) {
	unlock := s.locker.Acquire(ctx, lockKey)
	defer unlock()

	var (
		result  *domain.StockLevel
		pending []domain.Event
	)
	for attempt := 0; ; attempt++ {
		err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			level, created, err := load(ctx, tx)
			if err != nil {
				return err
			}
			expectedVersion := level.Version

			if err := fn(ctx, tx, level); err != nil {
				return err
			}
			if err := level.CheckInvariants(); err != nil {
				return err
			}

			if created {
				err = tx.StockLevels().Create(ctx, level)
			} else if level.Version != expectedVersion {
				err = tx.StockLevels().Update(ctx, level, expectedVersion)
			}
			if err != nil {
				return err
			}

			result = level
			pending = level.PullEvents()
			return nil
		})
		if err == nil {
			break
		}
		if !retryable(err) || attempt >= s.maxRetries {
			return nil, err
		}

		s.logger.Warn("Stock level changed concurrently, retrying",
			zap.String("key", lockKey),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(s.retryDelay * time.Duration(attempt+1)):
		}
	}

	domain.Annotate(pending, reference, performedBy)
	s.dispatcher.Dispatch(ctx, pending...)
	return result, nil
}

func retryable(err error) bool {
	return errors.Is(err, repository.ErrConcurrentUpdate) || errors.Is(err, repository.ErrDuplicate)
}

func byKey(key domain.StockKey, create bool) loader {
	return func(ctx context.Context, tx repository.Tx) (*domain.StockLevel, bool, error) {
		level, err := tx.StockLevels().GetForUpdate(ctx, key)
		if create && errors.Is(err, domain.ErrStockLevelNotFound) {
			return domain.NewStockLevel(key), true, nil
		}
		return level, false, err
	}
}

func byID(id uuid.UUID) loader {
	return func(ctx context.Context, tx repository.Tx) (*domain.StockLevel, bool, error) {
		level, err := tx.StockLevels().GetByID(ctx, id)
		return level, false, err
	}
}

func startSpan(ctx context.Context, name string, key domain.StockKey, quantity int64) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("stock.key", key.String()),
		attribute.Int64("stock.quantity", quantity),
	))
}

func spanError(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
