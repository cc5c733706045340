package schedule

import (
	"sync"
	"time"
)

// lockTable provides a per-technician mutual-exclusion lock with a bounded
// wait. Two concurrent bookings for the same technician serialize here; the
// loser of a slow contention fails fast with ErrLockTimeout instead of
// queueing indefinitely.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{locks: map[string]chan struct{}{}}
}

func (l *lockTable) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	return ch
}

// acquire blocks until the lock is held or the wait expires.
func (l *lockTable) acquire(key string, wait time.Duration) error {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	}
}

func (l *lockTable) release(key string) {
	<-l.slot(key)
}
