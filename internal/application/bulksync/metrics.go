package bulksync

import (
	"context"
	"time"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// Run outcomes reported to Metrics
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
)

// Metrics receives run and unit measurements
type Metrics interface {
	RunStarted(ctx context.Context, targets, units int)
	UnitCompleted(ctx context.Context, marketplace integration.MarketplaceID, success bool, duration time.Duration)
	RunFinished(ctx context.Context, outcome string, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RunStarted(context.Context, int, int) {}

func (noopMetrics) UnitCompleted(context.Context, integration.MarketplaceID, bool, time.Duration) {}

func (noopMetrics) RunFinished(context.Context, string, time.Duration) {}
