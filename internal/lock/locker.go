package lock

import (
	"context"
	"sync"
)

// Unlock releases a held lock
type Unlock func()

// Locker serialises work on a key across callers. Acquire never fails the
// caller's operation: implementations that cannot lock return a no-op Unlock
// and rely on the database row lock.
type Locker interface {
	Acquire(ctx context.Context, key string) Unlock
}

type keyedMutex struct {
	mu   sync.Mutex
	refs int
}

// LocalLocker hands out one mutex per key inside this process
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedMutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyedMutex)}
}

func (l *LocalLocker) Acquire(_ context.Context, key string) Unlock {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &keyedMutex{}
		l.locks[key] = m
	}
	m.refs++
	l.mu.Unlock()

	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// NoopLocker never locks
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) Unlock { return func() {} }
