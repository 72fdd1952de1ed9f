package events

import (
	"context"
	"fmt"

	"warehouse-ledger/internal/domain"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// PubSubEventPublisher publishes to a Google Cloud Pub/Sub topic with per-item ordering
type PubSubEventPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

func NewPubSubEventPublisher(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSubEventPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to check topic %s: %w", topicID, err)
	}
	if !exists {
		if topic, err = client.CreateTopic(ctx, topicID); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to create topic %s: %w", topicID, err)
		}
	}
	topic.EnableMessageOrdering = true

	return &PubSubEventPublisher{client: client, topic: topic, logger: logger}, nil
}

func (p *PubSubEventPublisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := Encode(event)
	if err != nil {
		return err
	}

	key := PartitionKey(event)
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:        body,
		OrderingKey: key,
		Attributes: map[string]string{
			HeaderEventType: event.EventType(),
			HeaderEventID:   event.Meta().ID.String(),
		},
	})
	id, err := result.Get(ctx)
	if err != nil {
		// ordered publishing pauses the key after a failure
		p.topic.ResumePublish(key)
		return fmt.Errorf("failed to publish %s: %w", event.EventType(), err)
	}

	p.logger.Info("Event published to Pub/Sub",
		zap.String("message_id", id),
		zap.String("event_type", event.EventType()),
	)
	return nil
}

func (p *PubSubEventPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
