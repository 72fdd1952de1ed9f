package events

import (
	"encoding/json"
	"fmt"
	"time"

	"warehouse-ledger/internal/domain"

	"github.com/google/uuid"
)

// Envelope is the wire form of a domain event on Kafka and Pub/Sub
type Envelope struct {
	EventID    uuid.UUID       `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Encode wraps event in an Envelope and serialises it
func Encode(event domain.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", event.EventType(), err)
	}
	meta := event.Meta()
	return json.Marshal(Envelope{
		EventID:    meta.ID,
		EventType:  event.EventType(),
		OccurredAt: meta.OccurredAt,
		Payload:    payload,
	})
}

// Decode parses an Envelope back into its concrete domain event
func Decode(data []byte) (domain.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	var event domain.Event
	switch env.EventType {
	case domain.EventTypeStockReserved:
		event = &domain.StockReserved{}
	case domain.EventTypeStockAllocated:
		event = &domain.StockAllocated{}
	case domain.EventTypeStockUpdated:
		event = &domain.StockUpdated{}
	case domain.EventTypeStockCounted:
		event = &domain.StockCounted{}
	default:
		return nil, fmt.Errorf("unknown event type: %q", env.EventType)
	}

	if err := json.Unmarshal(env.Payload, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", env.EventType, err)
	}
	if event.Meta().ID == uuid.Nil {
		event.Meta().ID = env.EventID
	}
	return event, nil
}

// PartitionKey keeps every event of one item on the same partition
func PartitionKey(event domain.Event) string {
	return event.StockSnapshot().Key.ItemID.String()
}
