package events

import (
	"context"
	"sync"

	"warehouse-ledger/internal/domain"

	"go.uber.org/zap"
)

// EventPublisher mirrors domain events to an external broker
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}

// InMemoryEventPublisher keeps published events in memory. Used when no broker is configured.
type InMemoryEventPublisher struct {
	mu     sync.Mutex
	logger *zap.Logger
	events []domain.Event
}

func NewInMemoryEventPublisher(logger *zap.Logger) *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		logger: logger,
		events: make([]domain.Event, 0),
	}
}

func (p *InMemoryEventPublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	p.logger.Debug("Event published (in-memory)",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.Meta().ID.String()),
	)
	return nil
}

// Events returns a copy of everything published so far
func (p *InMemoryEventPublisher) Events() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *InMemoryEventPublisher) Close() error { return nil }
