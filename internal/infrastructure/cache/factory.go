package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/shared"
)

// Run lock backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// RunLockFactory creates run locks based on configuration
type RunLockFactory struct {
	redisConfig           RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// RunLockFactoryOption configures the factory
type RunLockFactoryOption func(*RunLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to the in-memory lock.
// Default is true.
func WithInMemoryFallback(allow bool) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRunLockFactory creates a new factory
func NewRunLockFactory(cfg RedisConfig, opts ...RunLockFactoryOption) *RunLockFactory {
	f := &RunLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a run lock for backend
func (f *RunLockFactory) Create(backend string) (shared.RunLock, error) {
	switch backend {
	case "", BackendMemory:
		f.logger.Info("using in-memory run lock")
		return NewInMemoryRunLock(), nil
	case BackendRedis:
		lock, err := NewRedisRunLock(f.redisConfig)
		if err == nil {
			f.logger.Info("using Redis run lock", zap.String("addr", f.redisConfig.Addr()))
			return lock, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for run lock but unavailable: %w", err)
		}
		// Replicas no longer exclude each other once this happens
		f.logger.Warn("Redis unavailable, falling back to in-memory run lock", zap.Error(err))
		return NewInMemoryRunLock(), nil
	default:
		return nil, fmt.Errorf("unknown run lock backend %q", backend)
	}
}
