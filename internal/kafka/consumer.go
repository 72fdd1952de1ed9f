package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"warehouse-ledger/internal/config"
	"warehouse-ledger/internal/database"
	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/events"
	"warehouse-ledger/internal/receiving"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// EventHandler runs the subscribed handlers for one stock event
type EventHandler interface {
	Handle(ctx context.Context, event domain.Event) error
}

// ReceiptProcessor applies a goods receipt
type ReceiptProcessor interface {
	Process(ctx context.Context, receipt *domain.GoodsReceipt) (*receiving.Result, error)
}

// ProcessedStore remembers applied and failed broker messages
type ProcessedStore interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, ev database.ProcessedEvent) error
	RecordFailure(ctx context.Context, ev database.ProcessedEvent, payload []byte, cause error) error
}

// Consumer reads stock events and goods receipts from Kafka
type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	handler       *consumerGroupHandler
	logger        *zap.Logger
	topics        []string
}

// NewSaramaConsumerConfig builds the consumer group config
func NewSaramaConsumerConfig(cfg *config.Config) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.KafkaClientID
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Version = sarama.V2_8_0_0

	saramaConfig.Net.DialTimeout = 10 * time.Second
	saramaConfig.Net.ReadTimeout = 10 * time.Second
	saramaConfig.Net.WriteTimeout = 10 * time.Second

	saramaConfig.Metadata.RefreshFrequency = 10 * time.Minute
	saramaConfig.Metadata.Retry.Max = 3
	saramaConfig.Metadata.Retry.Backoff = 250 * time.Millisecond
	return saramaConfig
}

// NewConsumer creates a consumer group on the stock and receipts topics.
// receipts may be nil, in which case only stock events are consumed.
func NewConsumer(cfg *config.Config, handler EventHandler, receipts ReceiptProcessor, store ProcessedStore, logger *zap.Logger) (*Consumer, error) {
	logger.Info("Creating Kafka consumer",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("group_id", cfg.KafkaGroupID),
	)

	consumerGroup, err := sarama.NewConsumerGroup(cfg.KafkaBrokers, cfg.KafkaGroupID, NewSaramaConsumerConfig(cfg))
	if err != nil {
		logger.Error("Failed to create Kafka consumer group",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	topics := []string{cfg.KafkaTopicStock}
	if receipts != nil && cfg.KafkaTopicReceipts != "" {
		topics = append(topics, cfg.KafkaTopicReceipts)
	}

	return &Consumer{
		consumerGroup: consumerGroup,
		handler:       newConsumerGroupHandler(cfg, handler, receipts, store, logger),
		logger:        logger,
		topics:        topics,
	}, nil
}

// Start consumes until ctx is cancelled or the group fails
func (c *Consumer) Start(ctx context.Context) error {
	go func() {
		for err := range c.consumerGroup.Errors() {
			c.logger.Error("Consumer error", zap.Error(err))
		}
	}()

	c.logger.Info("Kafka consumer started", zap.Strings("topics", c.topics))

	for {
		if err := c.consumerGroup.Consume(ctx, c.topics, c.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.Error("Error from consumer", zap.Error(err))
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Close closes the consumer group
func (c *Consumer) Close() error {
	return c.consumerGroup.Close()
}

// consumerGroupHandler handles Kafka consumer group messages
type consumerGroupHandler struct {
	handler       EventHandler
	receipts      ReceiptProcessor
	store         ProcessedStore
	logger        *zap.Logger
	stockTopic    string
	receiptsTopic string
	maxRetries    int
	retryDelay    time.Duration
}

func newConsumerGroupHandler(cfg *config.Config, handler EventHandler, receipts ReceiptProcessor, store ProcessedStore, logger *zap.Logger) *consumerGroupHandler {
	return &consumerGroupHandler{
		handler:       handler,
		receipts:      receipts,
		store:         store,
		logger:        logger,
		stockTopic:    cfg.KafkaTopicStock,
		receiptsTopic: cfg.KafkaTopicReceipts,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    time.Duration(cfg.RetryDelayMs) * time.Millisecond,
	}
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks every message once handled. Failures are recorded in the
// failed_events table instead of blocking the partition.
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			h.handleMessage(session.Context(), message)
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) {
	switch message.Topic {
	case h.stockTopic:
		h.handleStockEvent(ctx, message)
	case h.receiptsTopic:
		h.handleReceipt(ctx, message)
	default:
		h.logger.Warn("Message from unexpected topic, skipping",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
		)
	}
}

func (h *consumerGroupHandler) handleStockEvent(ctx context.Context, message *sarama.ConsumerMessage) {
	record := recordFor(message)
	record.EventType = header(message.Headers, events.HeaderEventType)
	record.EventID = header(message.Headers, events.HeaderEventID)
	if record.EventType == "" {
		h.logger.Warn("Message without event type, skipping",
			zap.String("topic", message.Topic),
			zap.Int32("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		return
	}

	event, err := events.Decode(message.Value)
	if err != nil {
		h.fail(ctx, record, message.Value, err)
		return
	}
	record.EventID = event.Meta().ID.String()

	processed, err := h.store.IsProcessed(ctx, record.EventID)
	if err != nil {
		h.logger.Warn("Failed to check processed events, handling anyway",
			zap.String("event_id", record.EventID),
			zap.Error(err),
		)
	}
	if processed {
		h.logger.Debug("Event already processed, skipping", zap.String("event_id", record.EventID))
		return
	}

	err = h.processWithRetry(ctx, record, func(ctx context.Context) error {
		return h.handler.Handle(ctx, event)
	})
	if err != nil {
		h.fail(ctx, record, message.Value, err)
		return
	}
	h.markProcessed(ctx, record)
}

func (h *consumerGroupHandler) handleReceipt(ctx context.Context, message *sarama.ConsumerMessage) {
	record := recordFor(message)
	record.EventType = "GoodsReceiptCompleted"

	var receipt domain.GoodsReceipt
	if err := json.Unmarshal(message.Value, &receipt); err != nil {
		h.fail(ctx, record, message.Value, fmt.Errorf("failed to decode goods receipt: %w", err))
		return
	}
	record.EventID = receipt.ID.String()

	err := h.processWithRetry(ctx, record, func(ctx context.Context) error {
		_, err := h.receipts.Process(ctx, &receipt)
		return err
	})
	if err != nil {
		h.fail(ctx, record, message.Value, err)
		return
	}
	h.markProcessed(ctx, record)
}

// processWithRetry retries fn with a linear backoff. Domain errors are final.
func (h *consumerGroupHandler) processWithRetry(ctx context.Context, record database.ProcessedEvent, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if attempt > 0 {
			delay := h.retryDelay * time.Duration(attempt)
			h.logger.Info("Retrying event processing",
				zap.String("event_type", record.EventType),
				zap.String("event_id", record.EventID),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				h.logger.Info("Event processed successfully after retry",
					zap.String("event_type", record.EventType),
					zap.Int("attempts", attempt+1),
				)
			}
			return nil
		}
		lastErr = err

		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		h.logger.Warn("Event processing failed, will retry",
			zap.String("event_type", record.EventType),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return fmt.Errorf("failed after %d attempts: %w", h.maxRetries+1, lastErr)
}

func (h *consumerGroupHandler) fail(ctx context.Context, record database.ProcessedEvent, payload []byte, cause error) {
	h.logger.Error("Failed to process event",
		zap.String("event_type", record.EventType),
		zap.String("event_id", record.EventID),
		zap.String("topic", record.Topic),
		zap.Int64("offset", record.Offset),
		zap.Error(cause),
	)
	if err := h.store.RecordFailure(ctx, record, payload, cause); err != nil {
		h.logger.Error("Failed to record failed event", zap.Error(err))
	}
}

func (h *consumerGroupHandler) markProcessed(ctx context.Context, record database.ProcessedEvent) {
	if err := h.store.MarkProcessed(ctx, record); err != nil {
		h.logger.Warn("Failed to mark event processed",
			zap.String("event_id", record.EventID),
			zap.Error(err),
		)
	}
}

func recordFor(message *sarama.ConsumerMessage) database.ProcessedEvent {
	return database.ProcessedEvent{
		Topic:     message.Topic,
		Partition: message.Partition,
		Offset:    message.Offset,
	}
}

func header(headers []*sarama.RecordHeader, key string) string {
	for _, h := range headers {
		if h != nil && string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}
