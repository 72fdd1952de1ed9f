package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"warehouse-ledger/internal/domain"

	"go.uber.org/zap"
)

// Handler reacts to one domain event
type Handler func(ctx context.Context, event domain.Event) error

// Dispatcher delivers domain events synchronously to the handlers registered
// for their type, then mirrors them to the external publisher if one is set.
type Dispatcher struct {
	mu        sync.RWMutex
	handlers  map[string][]Handler
	publisher EventPublisher
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. publisher may be nil.
func NewDispatcher(publisher EventPublisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers:  make(map[string][]Handler),
		publisher: publisher,
		logger:    logger,
	}
}

// Subscribe registers h for eventType. Handlers run in registration order.
func (d *Dispatcher) Subscribe(eventType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], h)
}

// Dispatch delivers committed events to local handlers and the publisher.
// Failures are logged, never returned: the state change already committed.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...domain.Event) {
	for _, event := range events {
		if err := d.Handle(ctx, event); err != nil {
			d.logger.Error("Event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.Meta().ID.String()),
				zap.Error(err),
			)
		}
		if d.publisher == nil {
			continue
		}
		if err := d.publisher.Publish(ctx, event); err != nil {
			d.logger.Error("Failed to publish event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.Meta().ID.String()),
				zap.Error(err),
			)
		}
	}
}

// Handle runs the local handlers for one event and joins their errors.
// The listener uses it so a consumed event is not published back.
func (d *Dispatcher) Handle(ctx context.Context, event domain.Event) error {
	d.mu.RLock()
	handlers := d.handlers[event.EventType()]
	d.mu.RUnlock()

	var errs []error
	for i, h := range handlers {
		if err := d.safeCall(ctx, h, event); err != nil {
			errs = append(errs, fmt.Errorf("handler %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) safeCall(ctx context.Context, h Handler, event domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, event)
}
