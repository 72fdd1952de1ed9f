package events

import (
	"context"
	"fmt"
	"time"

	"warehouse-ledger/internal/config"
	"warehouse-ledger/internal/domain"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Kafka record header names shared with the listener
const (
	HeaderEventType = "event-type"
	HeaderEventID   = "event-id"
	HeaderTimestamp = "timestamp"
)

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer sarama.SyncProducer
	logger   *zap.Logger
	config   *config.Config
}

// NewSaramaProducerConfig builds the idempotent producer config from cfg
func NewSaramaProducerConfig(cfg *config.Config) *sarama.Config {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.KafkaClientID
	sc.Producer.Return.Successes = true
	sc.Producer.Retry.Max = cfg.KafkaRetries
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1

	switch cfg.KafkaAcks {
	case "0":
		sc.Producer.RequiredAcks = sarama.NoResponse
	case "1":
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	default:
		sc.Producer.RequiredAcks = sarama.WaitForAll
	}
	// Idempotent producers require acks=all
	if sc.Producer.RequiredAcks != sarama.WaitForAll {
		sc.Producer.Idempotent = false
	}
	return sc
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(cfg *config.Config, logger *zap.Logger) (*KafkaEventPublisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.KafkaBrokers, NewSaramaProducerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return newKafkaEventPublisher(producer, cfg, logger), nil
}

func newKafkaEventPublisher(producer sarama.SyncProducer, cfg *config.Config, logger *zap.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		logger:   logger,
		config:   cfg,
	}
}

// Publish publishes an event to Kafka with retries and exponential backoff
func (p *KafkaEventPublisher) Publish(ctx context.Context, event domain.Event) error {
	message, err := p.buildMessage(event)
	if err != nil {
		return err
	}

	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		partition, offset, err := p.producer.SendMessage(message)
		if err == nil {
			p.logger.Info("Event published to Kafka",
				zap.String("topic", message.Topic),
				zap.Int32("partition", partition),
				zap.Int64("offset", offset),
				zap.String("event_type", event.EventType()),
				zap.Int("attempt", attempt+1),
			)
			return nil
		}

		p.logger.Warn("Failed to publish event to Kafka, retrying",
			zap.String("topic", message.Topic),
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
		)

		if attempt < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<uint(attempt)) // 100ms, 200ms, 400ms
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("failed to publish event to Kafka after %d attempts", maxRetries)
}

func (p *KafkaEventPublisher) buildMessage(event domain.Event) (*sarama.ProducerMessage, error) {
	topic, err := p.getTopicForEvent(event)
	if err != nil {
		return nil, fmt.Errorf("failed to determine topic: %w", err)
	}

	body, err := Encode(event)
	if err != nil {
		return nil, err
	}

	meta := event.Meta()
	return &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(PartitionKey(event)),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventType), Value: []byte(event.EventType())},
			{Key: []byte(HeaderEventID), Value: []byte(meta.ID.String())},
			{Key: []byte(HeaderTimestamp), Value: []byte(meta.OccurredAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}

// Close closes the Kafka producer
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func (p *KafkaEventPublisher) getTopicForEvent(event domain.Event) (string, error) {
	switch event.(type) {
	case *domain.StockReserved, *domain.StockAllocated, *domain.StockUpdated, *domain.StockCounted:
		return p.config.KafkaTopicStock, nil
	default:
		return "", fmt.Errorf("unknown event type: %T", event)
	}
}
