package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"warehouse-ledger/internal/config"
	"warehouse-ledger/internal/database"
	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/events"
	"warehouse-ledger/internal/receiving"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	marked []*sarama.ConsumerMessage
}

func (s *fakeSession) Context() context.Context { return context.Background() }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func claimOf(messages ...*sarama.ConsumerMessage) *fakeClaim {
	ch := make(chan *sarama.ConsumerMessage, len(messages))
	for _, m := range messages {
		ch <- m
	}
	close(ch)
	return &fakeClaim{messages: ch}
}

type MockReceiptProcessor struct {
	mock.Mock
}

func (m *MockReceiptProcessor) Process(ctx context.Context, receipt *domain.GoodsReceipt) (*receiving.Result, error) {
	args := m.Called(ctx, receipt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receiving.Result), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		KafkaTopicStock:    "warehouse.stock",
		KafkaTopicReceipts: "warehouse.receipts",
		MaxRetries:         2,
		RetryDelayMs:       1,
	}
}

func newStore(t *testing.T) *database.SingleWriterDB {
	t.Helper()
	db, err := database.NewSingleWriterDB(filepath.Join(t.TempDir(), "events.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func reservedEvent(t *testing.T) domain.Event {
	t.Helper()
	level := domain.NewStockLevel(domain.StockKey{ItemID: uuid.New(), WarehouseID: uuid.New()})
	require.NoError(t, level.IncreaseQuantity(10))
	level.PullEvents()
	require.NoError(t, level.Reserve(3))
	return level.PullEvents()[0]
}

func stockMessage(t *testing.T, event domain.Event, offset int64) *sarama.ConsumerMessage {
	t.Helper()
	data, err := events.Encode(event)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{
		Topic:  "warehouse.stock",
		Offset: offset,
		Value:  data,
		Headers: []*sarama.RecordHeader{
			{Key: []byte(events.HeaderEventType), Value: []byte(event.EventType())},
			{Key: []byte(events.HeaderEventID), Value: []byte(event.Meta().ID.String())},
		},
	}
}

func TestConsumeClaim_DeliversStockEventsOnce(t *testing.T) {
	store := newStore(t)
	dispatcher := events.NewDispatcher(nil, zap.NewNop())
	var handled []uuid.UUID
	dispatcher.Subscribe(domain.EventTypeStockReserved, func(_ context.Context, e domain.Event) error {
		handled = append(handled, e.Meta().ID)
		return nil
	})
	h := newConsumerGroupHandler(testConfig(), dispatcher, nil, store, zap.NewNop())

	event := reservedEvent(t)
	session := &fakeSession{}
	err := h.ConsumeClaim(session, claimOf(stockMessage(t, event, 1), stockMessage(t, event, 2)))

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{event.Meta().ID}, handled)
	assert.Len(t, session.marked, 2)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Processed)
	assert.Zero(t, stats.Failed)
}

func TestConsumeClaim_RecordsPoisonMessages(t *testing.T) {
	store := newStore(t)
	h := newConsumerGroupHandler(testConfig(), events.NewDispatcher(nil, zap.NewNop()), nil, store, zap.NewNop())

	poison := &sarama.ConsumerMessage{
		Topic: "warehouse.stock",
		Value: []byte(`not json`),
		Headers: []*sarama.RecordHeader{
			{Key: []byte(events.HeaderEventType), Value: []byte(domain.EventTypeStockReserved)},
		},
	}
	headerless := &sarama.ConsumerMessage{Topic: "warehouse.stock", Value: []byte(`{}`)}
	session := &fakeSession{}

	require.NoError(t, h.ConsumeClaim(session, claimOf(poison, headerless)))

	assert.Len(t, session.marked, 2)
	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Zero(t, stats.Processed)
}

func TestConsumeClaim_RetriesTransientHandlerErrors(t *testing.T) {
	store := newStore(t)
	dispatcher := events.NewDispatcher(nil, zap.NewNop())
	attempts := 0
	dispatcher.Subscribe(domain.EventTypeStockReserved, func(context.Context, domain.Event) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	h := newConsumerGroupHandler(testConfig(), dispatcher, nil, store, zap.NewNop())

	require.NoError(t, h.ConsumeClaim(&fakeSession{}, claimOf(stockMessage(t, reservedEvent(t), 7))))

	assert.Equal(t, 3, attempts)
	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Processed)
}

func TestConsumeClaim_GoodsReceipts(t *testing.T) {
	store := newStore(t)
	processor := new(MockReceiptProcessor)
	h := newConsumerGroupHandler(testConfig(), events.NewDispatcher(nil, zap.NewNop()), processor, store, zap.NewNop())

	receipt := domain.GoodsReceipt{ID: uuid.New(), ReceiptNumber: "GR-0100", WarehouseID: uuid.New()}
	payload, err := json.Marshal(receipt)
	require.NoError(t, err)

	rejected := domain.GoodsReceipt{ID: uuid.New(), ReceiptNumber: "GR-0101", WarehouseID: uuid.New()}
	rejectedPayload, err := json.Marshal(rejected)
	require.NoError(t, err)

	processor.On("Process", mock.Anything, mock.MatchedBy(func(r *domain.GoodsReceipt) bool {
		return r.ID == receipt.ID
	})).Return(&receiving.Result{ReceiptID: receipt.ID}, nil).Once()
	processor.On("Process", mock.Anything, mock.MatchedBy(func(r *domain.GoodsReceipt) bool {
		return r.ID == rejected.ID
	})).Return(nil, domain.ErrOverReceipt).Once()

	session := &fakeSession{}
	err = h.ConsumeClaim(session, claimOf(
		&sarama.ConsumerMessage{Topic: "warehouse.receipts", Value: payload},
		&sarama.ConsumerMessage{Topic: "warehouse.receipts", Value: rejectedPayload, Offset: 1},
	))

	require.NoError(t, err)
	processor.AssertExpectations(t)
	assert.Len(t, session.marked, 2)

	processed, err := store.IsProcessed(context.Background(), receipt.ID.String())
	require.NoError(t, err)
	assert.True(t, processed)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Failed)
}
