package shared

import (
	"context"
	"time"
)

// RunLock guards a named job so that only one holder runs it at a time.
// Implementations may be process-local or shared across replicas.
type RunLock interface {
	// Acquire takes the lock for key, holding it for at most ttl.
	// Returns false without error if another holder owns the lock.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)

	// Release drops the lock if it is still held by owner
	Release(ctx context.Context, key, owner string) error

	// Close releases resources held by the lock backend
	Close() error
}
