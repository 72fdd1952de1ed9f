package sequence

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var day = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func TestFormat(t *testing.T) {
	assert.Equal(t, "TXN-GR-20240315-00000007", Format("GR", day, 7))
	assert.Equal(t, "TXN-RSV-20240315-01234567", Format("RSV", day, 1234567))
}

func TestMemoryAllocator_PerPrefixAndDay(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAllocator()

	n1, err := a.Next(ctx, domain.ReasonGoodsReceipt, day)
	require.NoError(t, err)
	n2, err := a.Next(ctx, domain.ReasonGoodsReceipt, day)
	require.NoError(t, err)
	other, err := a.Next(ctx, domain.ReasonReserved, day)
	require.NoError(t, err)
	nextDay, err := a.Next(ctx, domain.ReasonGoodsReceipt, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, "TXN-GR-20240315-00000001", n1.Value)
	assert.Equal(t, "TXN-GR-20240315-00000002", n2.Value)
	assert.Equal(t, "TXN-RSV-20240315-00000001", other.Value)
	assert.Equal(t, "TXN-GR-20240316-00000001", nextDay.Value)
}

func TestMemoryAllocator_CountGainAndLossShareCounter(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAllocator()

	gain, _ := a.Next(ctx, domain.ReasonCountGain, day)
	loss, _ := a.Next(ctx, domain.ReasonCountLoss, day)

	assert.Equal(t, "TXN-CNT-20240315-00000001", gain.Value)
	assert.Equal(t, "TXN-CNT-20240315-00000002", loss.Value)
}

func TestMemoryAllocator_UniqueUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAllocator()

	const workers = 50
	results := make(chan Number, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := a.Next(ctx, domain.ReasonPickConfirmed, day)
			if err == nil {
				results <- n
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for n := range results {
		assert.False(t, seen[n.Sequence], "duplicate sequence %d", n.Sequence)
		seen[n.Sequence] = true
	}
	assert.Len(t, seen, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, seen[i])
	}
}

func TestStoreAllocator_UsesStoreCounters(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	a := NewStoreAllocator(store)

	n1, err := a.Next(ctx, domain.ReasonAllocated, day)
	require.NoError(t, err)

	var n2 Number
	err = store.WithinTx(ctx, func(ctx context.Context, _ repository.Tx) error {
		var err error
		n2, err = a.Next(ctx, domain.ReasonAllocated, day)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, "TXN-ALC-20240315-00000001", n1.Value)
	assert.Equal(t, "TXN-ALC-20240315-00000002", n2.Value)
}

func TestFormat_LexicalOrderFollowsSequence(t *testing.T) {
	seqs := []int64{1, 9, 10, 999999, 1000000, 1234567, MaxSequence}
	numbers := make([]string, len(seqs))
	for i, seq := range seqs {
		numbers[i] = Format("GR", day, seq)
	}
	assert.True(t, sort.StringsAreSorted(numbers), "%v", numbers)
}

func TestMemoryAllocator_ExhaustedSequenceFallsBack(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAllocator()
	a.counters[counterKey("GR", day)] = MaxSequence - 1

	last, err := a.Next(ctx, domain.ReasonGoodsReceipt, day)
	require.NoError(t, err)
	assert.Equal(t, "TXN-GR-20240315-99999999", last.Value)

	_, err = a.Next(ctx, domain.ReasonGoodsReceipt, day)
	assert.ErrorIs(t, err, ErrSequenceExhausted)

	fallback, err := NewFallbackAllocator(a, zap.NewNop()).Next(ctx, domain.ReasonGoodsReceipt, day)
	require.NoError(t, err)
	assert.Greater(t, fallback.Value, last.Value)
}

type failingAllocator struct{}

func (failingAllocator) Next(context.Context, domain.Reason, time.Time) (Number, error) {
	return Number{}, errors.New("redis unavailable")
}

func TestFallbackAllocator(t *testing.T) {
	ctx := context.Background()

	ok := NewFallbackAllocator(NewMemoryAllocator(), zap.NewNop())
	n, err := ok.Next(ctx, domain.ReasonGoodsReceipt, day)
	require.NoError(t, err)
	assert.Equal(t, "TXN-GR-20240315-00000001", n.Value)

	fb := NewFallbackAllocator(failingAllocator{}, zap.NewNop())
	a, err := fb.Next(ctx, domain.ReasonGoodsReceipt, day)
	require.NoError(t, err)
	b, err := fb.Next(ctx, domain.ReasonGoodsReceipt, day)
	require.NoError(t, err)

	assert.Regexp(t, `^TXN-GR-20240315-U[0-9A-F]{12}$`, a.Value)
	assert.NotEqual(t, a.Value, b.Value)
	assert.Positive(t, a.Sequence)
}
