package sequence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"warehouse-ledger/internal/domain"
)

const dateLayout = "20060102"

// Number is an allocated transaction number
type Number struct {
	Value    string
	Sequence int64
}

// Allocator hands out transaction numbers, strictly increasing per prefix and day
type Allocator interface {
	Next(ctx context.Context, reason domain.Reason, date time.Time) (Number, error)
}

// MaxSequence is the largest per-day sequence that keeps numbers lexically sortable
const MaxSequence = 99999999

// Format renders TXN-<prefix>-<yyyymmdd>-<seq:08d>
func Format(prefix string, date time.Time, seq int64) string {
	return fmt.Sprintf("TXN-%s-%s-%08d", prefix, date.UTC().Format(dateLayout), seq)
}

// ErrSequenceExhausted is returned past MaxSequence. FallbackAllocator then
// switches to uuid-suffixed numbers, which still sort after the counted ones.
var ErrSequenceExhausted = errors.New("sequence exhausted for prefix and date")

func newNumber(prefix string, date time.Time, seq int64) (Number, error) {
	if seq > MaxSequence {
		return Number{}, fmt.Errorf("%w: %s %s", ErrSequenceExhausted, prefix, date.UTC().Format(dateLayout))
	}
	return Number{Value: Format(prefix, date, seq), Sequence: seq}, nil
}

func counterKey(prefix string, date time.Time) string {
	return prefix + ":" + date.UTC().Format(dateLayout)
}

// MemoryAllocator keeps counters in process memory
type MemoryAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{counters: make(map[string]int64)}
}

func (a *MemoryAllocator) Next(_ context.Context, reason domain.Reason, date time.Time) (Number, error) {
	prefix := reason.Prefix()
	key := counterKey(prefix, date)

	a.mu.Lock()
	a.counters[key]++
	seq := a.counters[key]
	a.mu.Unlock()

	return newNumber(prefix, date, seq)
}
