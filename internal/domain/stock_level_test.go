package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey() StockKey {
	return StockKey{ItemID: uuid.New(), WarehouseID: uuid.New()}
}

func stockWith(t *testing.T, onHand, reserved, allocated int64) *StockLevel {
	t.Helper()
	s := NewStockLevel(newTestKey())
	s.QuantityOnHand = onHand
	s.QuantityReserved = reserved
	s.QuantityAllocated = allocated
	require.NoError(t, s.CheckInvariants())
	return s
}

func TestNewStockLevel(t *testing.T) {
	key := newTestKey()
	s := NewStockLevel(key)

	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, key, s.Key)
	assert.Equal(t, int64(0), s.QuantityOnHand)
	assert.Equal(t, int64(1), s.Version)
	assert.Nil(t, s.LastMovementAt)
	assert.Empty(t, s.PullEvents())
}

func TestStockKey_String(t *testing.T) {
	loc := uuid.New()
	key := StockKey{ItemID: uuid.New(), WarehouseID: uuid.New(), LocationID: &loc}

	assert.Equal(t, key.ItemID.String()+"/"+key.WarehouseID.String()+"/"+loc.String()+"/-/-/-", key.String())
	assert.ErrorIs(t, StockKey{}.Validate(), ErrInvalidStockKey)
	assert.NoError(t, key.Validate())
}

func TestIncreaseQuantity_Success(t *testing.T) {
	s := stockWith(t, 10, 0, 0)

	err := s.IncreaseQuantity(5)

	require.NoError(t, err)
	assert.Equal(t, int64(15), s.QuantityOnHand)
	assert.NotNil(t, s.LastMovementAt)

	events := s.PullEvents()
	require.Len(t, events, 1)
	updated, ok := events[0].(*StockUpdated)
	require.True(t, ok)
	assert.Equal(t, ChangeIncrease, updated.Change)
	assert.Equal(t, int64(5), updated.Quantity)
	assert.Equal(t, int64(10), updated.QuantityBefore)
	assert.Equal(t, int64(15), updated.Snapshot.OnHand)
	assert.Empty(t, s.PullEvents())
}

func TestMutators_RejectNonPositiveAmounts(t *testing.T) {
	ops := map[string]func(s *StockLevel, n int64) error{
		"increase":   (*StockLevel).IncreaseQuantity,
		"reserve":    (*StockLevel).Reserve,
		"allocate":   (*StockLevel).Allocate,
		"decrease":   (*StockLevel).DecreaseQuantity,
		"write-down": (*StockLevel).WriteDown,
		"expire":     (*StockLevel).Expire,
		"release":    func(s *StockLevel, n int64) error { return s.Release(n, false) },
		"cancel":     func(s *StockLevel, n int64) error { return s.Cancel(n, true) },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			for _, amount := range []int64{0, -3} {
				s := stockWith(t, 10, 5, 2)
				before := *s

				err := op(s, amount)

				assert.ErrorIs(t, err, ErrInvalidQuantity)
				assert.Equal(t, before.QuantityOnHand, s.QuantityOnHand)
				assert.Equal(t, before.QuantityReserved, s.QuantityReserved)
				assert.Equal(t, before.QuantityAllocated, s.QuantityAllocated)
				assert.Equal(t, before.Version, s.Version)
				assert.Empty(t, s.PullEvents())
			}
		})
	}
}

// Reserve 20 of 50 on hand, allocate them, pick them.
func TestReserveAllocatePick_Walkthrough(t *testing.T) {
	s := stockWith(t, 50, 0, 0)

	require.NoError(t, s.Reserve(20))
	assert.Equal(t, int64(30), s.QuantityAvailable())
	reserved := s.PullEvents()
	require.Len(t, reserved, 1)
	assert.Equal(t, int64(50), reserved[0].(*StockReserved).AvailableBefore())

	require.NoError(t, s.Allocate(20))
	allocated := s.PullEvents()
	require.Len(t, allocated, 1)
	assert.Equal(t, int64(20), allocated[0].(*StockAllocated).UnallocatedBefore())

	require.NoError(t, s.DecreaseQuantity(20))
	assert.Equal(t, int64(30), s.QuantityOnHand)
	assert.Equal(t, int64(0), s.QuantityReserved)
	assert.Equal(t, int64(0), s.QuantityAllocated)
	assert.Equal(t, int64(30), s.QuantityAvailable())
	picked := s.PullEvents()
	require.Len(t, picked, 1)
	assert.Equal(t, ChangePickConfirmed, picked[0].(*StockUpdated).Change)
	assert.NoError(t, s.CheckInvariants())
}

func TestReserve_Error_InsufficientStock(t *testing.T) {
	s := stockWith(t, 10, 0, 0)
	require.NoError(t, s.Reserve(6))
	s.PullEvents()
	version := s.Version

	err := s.Reserve(6)

	assert.ErrorIs(t, err, ErrInsufficientAvailableStock)
	assert.Equal(t, int64(6), s.QuantityReserved)
	assert.Equal(t, version, s.Version)
	assert.Empty(t, s.PullEvents())
}

func TestAllocate_Error_ExceedsUnallocated(t *testing.T) {
	s := stockWith(t, 10, 4, 3)

	err := s.Allocate(2)

	assert.ErrorIs(t, err, ErrInsufficientAvailableStock)
	assert.Equal(t, int64(3), s.QuantityAllocated)
}

func TestDecreaseQuantity_Error_ExceedsAllocated(t *testing.T) {
	s := stockWith(t, 10, 5, 2)

	err := s.DecreaseQuantity(3)

	assert.ErrorIs(t, err, ErrInsufficientAvailableStock)
	assert.Equal(t, int64(10), s.QuantityOnHand)
}

func TestRelease_ClampsAtZero(t *testing.T) {
	s := stockWith(t, 10, 3, 0)

	require.NoError(t, s.Release(5, false))

	assert.Equal(t, int64(0), s.QuantityReserved)
	assert.Equal(t, int64(10), s.QuantityAvailable())
	events := s.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, ChangeRelease, events[0].(*StockUpdated).Change)
}

func TestRelease_KeepsAllocatedWithinReserved(t *testing.T) {
	s := stockWith(t, 10, 5, 5)

	require.NoError(t, s.Release(2, false))

	assert.Equal(t, int64(3), s.QuantityReserved)
	assert.Equal(t, int64(3), s.QuantityAllocated)
	assert.NoError(t, s.CheckInvariants())
}

func TestCancel_Allocated(t *testing.T) {
	s := stockWith(t, 10, 6, 4)

	require.NoError(t, s.Cancel(4, true))

	assert.Equal(t, int64(2), s.QuantityReserved)
	assert.Equal(t, int64(0), s.QuantityAllocated)
	assert.Equal(t, ChangeCancel, s.PullEvents()[0].(*StockUpdated).Change)
}

func TestExpire(t *testing.T) {
	s := stockWith(t, 10, 6, 0)

	require.NoError(t, s.Expire(6))

	assert.Equal(t, int64(0), s.QuantityReserved)
	assert.Equal(t, ChangeExpire, s.PullEvents()[0].(*StockUpdated).Change)
}

func TestWriteDown(t *testing.T) {
	s := stockWith(t, 10, 6, 0)

	assert.ErrorIs(t, s.WriteDown(5), ErrInsufficientAvailableStock)
	require.NoError(t, s.WriteDown(4))

	assert.Equal(t, int64(6), s.QuantityOnHand)
	events := s.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, ChangeDecrease, events[0].(*StockUpdated).Change)
}

func TestRecordCount(t *testing.T) {
	s := stockWith(t, 10, 4, 0)

	require.NoError(t, s.RecordCount(7))

	assert.Equal(t, int64(7), s.QuantityOnHand)
	assert.NotNil(t, s.LastCountedAt)
	events := s.PullEvents()
	require.Len(t, events, 1)
	counted := events[0].(*StockCounted)
	assert.Equal(t, int64(-3), counted.Variance)
	assert.Equal(t, int64(10), counted.QuantityBefore)
}

func TestRecordCount_Error_BelowReserved(t *testing.T) {
	s := stockWith(t, 10, 4, 0)

	err := s.RecordCount(3)

	assert.ErrorIs(t, err, ErrCountBelowCommitted)
	assert.Equal(t, int64(10), s.QuantityOnHand)
	assert.Nil(t, s.LastCountedAt)
}

func TestRelocate(t *testing.T) {
	s := stockWith(t, 10, 0, 0)
	bin := uuid.New()

	assert.True(t, s.Relocate(nil, &bin, nil, nil))
	assert.Equal(t, &bin, s.Key.BinID)
	assert.False(t, s.Relocate(nil, &bin, nil, nil))

	events := s.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, ChangeLocation, events[0].(*StockUpdated).Change)
	assert.Equal(t, int64(10), s.QuantityOnHand)
}

// A long random-ish sequence of operations never breaks the quantity invariant.
func TestInvariantHoldsAcrossOperations(t *testing.T) {
	s := stockWith(t, 0, 0, 0)
	steps := []func() error{
		func() error { return s.IncreaseQuantity(40) },
		func() error { return s.Reserve(25) },
		func() error { return s.Allocate(10) },
		func() error { return s.Reserve(30) },
		func() error { return s.DecreaseQuantity(4) },
		func() error { return s.Release(30, false) },
		func() error { return s.Cancel(6, true) },
		func() error { return s.WriteDown(100) },
		func() error { return s.RecordCount(18) },
		func() error { return s.Expire(1) },
	}

	for i, step := range steps {
		_ = step()
		require.NoError(t, s.CheckInvariants(), "step %d", i)
		assert.GreaterOrEqual(t, s.QuantityAvailable(), int64(0))
	}
}
