package events

import (
	"context"
	"errors"
	"testing"

	"warehouse-ledger/internal/config"
	"warehouse-ledger/internal/domain"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLevel(t *testing.T, onHand int64) *domain.StockLevel {
	t.Helper()
	level := domain.NewStockLevel(domain.StockKey{ItemID: uuid.New(), WarehouseID: uuid.New()})
	if onHand > 0 {
		require.NoError(t, level.IncreaseQuantity(onHand))
		level.PullEvents()
	}
	return level
}

func TestCodec_RoundTripPreservesTypeAndIdentity(t *testing.T) {
	level := testLevel(t, 50)
	require.NoError(t, level.Reserve(20))
	require.NoError(t, level.Allocate(5))
	require.NoError(t, level.IncreaseQuantity(3))
	require.NoError(t, level.RecordCount(60))
	evs := level.PullEvents()
	evs[2].(*domain.StockUpdated).UnitCost = decimal.RequireFromString("12.50")

	for _, original := range evs {
		data, err := Encode(original)
		require.NoError(t, err)

		decoded, err := Decode(data)
		require.NoError(t, err)
		assert.IsType(t, original, decoded)
		assert.Equal(t, original.EventType(), decoded.EventType())
		assert.Equal(t, original.Meta().ID, decoded.Meta().ID)
		assert.Equal(t, original.StockSnapshot(), decoded.StockSnapshot())
	}

	data, _ := Encode(evs[2])
	decoded, _ := Decode(data)
	assert.True(t, decoded.(*domain.StockUpdated).UnitCost.Equal(decimal.RequireFromString("12.5")))
}

func TestCodec_RejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"eventType":"InventoryItemCreated","payload":{}}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDispatcher_RoutesByTypeAndMirrors(t *testing.T) {
	ctx := context.Background()
	publisher := NewInMemoryEventPublisher(zap.NewNop())
	d := NewDispatcher(publisher, zap.NewNop())

	var reserved, updated int
	d.Subscribe(domain.EventTypeStockReserved, func(context.Context, domain.Event) error {
		reserved++
		return nil
	})
	d.Subscribe(domain.EventTypeStockUpdated, func(context.Context, domain.Event) error {
		updated++
		return nil
	})

	level := testLevel(t, 10)
	require.NoError(t, level.Reserve(4))
	require.NoError(t, level.Release(4, false))
	d.Dispatch(ctx, level.PullEvents()...)

	assert.Equal(t, 1, reserved)
	assert.Equal(t, 1, updated)
	assert.Len(t, publisher.Events(), 2)
}

func TestDispatcher_HandlerFailuresDoNotStopDelivery(t *testing.T) {
	ctx := context.Background()
	publisher := NewInMemoryEventPublisher(zap.NewNop())
	d := NewDispatcher(publisher, zap.NewNop())

	calls := 0
	d.Subscribe(domain.EventTypeStockReserved, func(context.Context, domain.Event) error {
		return errors.New("boom")
	})
	d.Subscribe(domain.EventTypeStockReserved, func(context.Context, domain.Event) error {
		panic("handler bug")
	})
	d.Subscribe(domain.EventTypeStockReserved, func(context.Context, domain.Event) error {
		calls++
		return nil
	})

	level := testLevel(t, 10)
	require.NoError(t, level.Reserve(1))
	evs := level.PullEvents()

	err := d.Handle(ctx, evs[0])
	assert.ErrorContains(t, err, "boom")
	assert.ErrorContains(t, err, "handler panic")

	assert.NotPanics(t, func() { d.Dispatch(ctx, evs...) })
	assert.Equal(t, 2, calls)
	assert.Len(t, publisher.Events(), 1)
}

type MockSyncProducer struct {
	mock.Mock
	sarama.SyncProducer
}

func (m *MockSyncProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	args := m.Called(msg)
	return args.Get(0).(int32), args.Get(1).(int64), args.Error(2)
}

func (m *MockSyncProducer) Close() error { return nil }

func TestKafkaEventPublisher_Publish(t *testing.T) {
	cfg := &config.Config{KafkaTopicStock: "warehouse.stock"}
	producer := new(MockSyncProducer)
	publisher := newKafkaEventPublisher(producer, cfg, zap.NewNop())

	level := testLevel(t, 10)
	require.NoError(t, level.Reserve(2))
	event := level.PullEvents()[0]

	producer.On("SendMessage", mock.MatchedBy(func(msg *sarama.ProducerMessage) bool {
		key, _ := msg.Key.Encode()
		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[string(h.Key)] = string(h.Value)
		}
		return msg.Topic == "warehouse.stock" &&
			string(key) == level.Key.ItemID.String() &&
			headers[HeaderEventType] == domain.EventTypeStockReserved &&
			headers[HeaderEventID] == event.Meta().ID.String()
	})).Return(int32(0), int64(7), nil).Once()

	require.NoError(t, publisher.Publish(context.Background(), event))
	producer.AssertExpectations(t)
}

func TestKafkaEventPublisher_RetriesThenFails(t *testing.T) {
	cfg := &config.Config{KafkaTopicStock: "warehouse.stock"}
	producer := new(MockSyncProducer)
	publisher := newKafkaEventPublisher(producer, cfg, zap.NewNop())

	level := testLevel(t, 10)
	require.NoError(t, level.Reserve(2))

	producer.On("SendMessage", mock.Anything).Return(int32(0), int64(0), errors.New("broker down")).Times(3)

	err := publisher.Publish(context.Background(), level.PullEvents()[0])
	assert.ErrorContains(t, err, "after 3 attempts")
	producer.AssertExpectations(t)
}

func TestNewSaramaProducerConfig_Acks(t *testing.T) {
	tests := []struct {
		acks       string
		expected   sarama.RequiredAcks
		idempotent bool
	}{
		{"0", sarama.NoResponse, false},
		{"1", sarama.WaitForLocal, false},
		{"all", sarama.WaitForAll, true},
		{"", sarama.WaitForAll, true},
	}
	for _, tt := range tests {
		t.Run(tt.acks, func(t *testing.T) {
			sc := NewSaramaProducerConfig(&config.Config{KafkaAcks: tt.acks, KafkaRetries: 3, KafkaClientID: "test"})
			assert.Equal(t, tt.expected, sc.Producer.RequiredAcks)
			assert.Equal(t, tt.idempotent, sc.Producer.Idempotent)
			assert.Equal(t, "test", sc.ClientID)
		})
	}
}
