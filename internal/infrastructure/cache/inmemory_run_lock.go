package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hyperpc/marketsync/internal/domain/shared"
)

// lockEntry is a held lock with its expiry
type lockEntry struct {
	owner     string
	expiresAt time.Time
}

// InMemoryRunLock implements RunLock with an in-process map.
// Suitable for single-instance deployments and tests.
type InMemoryRunLock struct {
	mu        sync.Mutex
	locks     map[string]lockEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRunLock creates the lock and starts the expired-entry sweeper
func NewInMemoryRunLock() *InMemoryRunLock {
	l := &InMemoryRunLock{
		locks:    make(map[string]lockEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	l.wg.Add(1)
	go l.sweepLoop()
	return l
}

// Acquire takes key for owner. An expired lock can be taken over; the
// current owner re-acquiring extends its hold.
func (l *InMemoryRunLock) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, held := l.locks[key]; held && now.Before(e.expiresAt) && e.owner != owner {
		return false, nil
	}
	l.locks[key] = lockEntry{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

// Release drops key if owner still holds it
func (l *InMemoryRunLock) Release(ctx context.Context, key, owner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, held := l.locks[key]; held && e.owner == owner {
		delete(l.locks, key)
	}
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (l *InMemoryRunLock) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

func (l *InMemoryRunLock) sweepLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep removes expired locks
func (l *InMemoryRunLock) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, e := range l.locks {
		if !now.Before(e.expiresAt) {
			delete(l.locks, key)
		}
	}
}

// Size returns the number of tracked locks, expired or not
func (l *InMemoryRunLock) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var _ shared.RunLock = (*InMemoryRunLock)(nil)
