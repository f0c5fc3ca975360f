package bulksync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/shared"
)

// StockProjector applies the quantities of a finished run to the canonical
// catalog. The canonical stock is updated even when some marketplace replicas
// rejected the update; those failures stay in the run result. Cancelled runs
// change nothing.
type StockProjector struct {
	products integration.ProductRepository
	logger   *zap.Logger
}

// NewStockProjector creates a projector writing to products
func NewStockProjector(products integration.ProductRepository, logger *zap.Logger) *StockProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockProjector{products: products, logger: logger}
}

// Handle writes every item of a RunFinishedEvent. When a SKU appears more
// than once, the last row wins. SKUs missing from the catalog are skipped.
func (p *StockProjector) Handle(ctx context.Context, event shared.DomainEvent) error {
	ev, ok := event.(*RunFinishedEvent)
	if !ok {
		return nil
	}

	var errs []error
	applied := 0
	for _, item := range ev.Items {
		err := p.products.UpdateStock(ctx, item.SKU, item.Quantity)
		switch {
		case err == nil:
			applied++
		case errors.Is(err, integration.ErrProductNotFound):
			p.logger.Debug("Skipping stock for SKU outside the catalog",
				zap.String("run_id", ev.AggregateID()),
				zap.String("sku", item.SKU),
			)
		default:
			errs = append(errs, fmt.Errorf("sku %s: %w", item.SKU, err))
		}
	}

	p.logger.Info("Canonical stock updated",
		zap.String("run_id", ev.AggregateID()),
		zap.Int("items", len(ev.Items)),
		zap.Int("applied", applied),
	)
	return errors.Join(errs...)
}

// EventTypes returns the events the projector listens to
func (p *StockProjector) EventTypes() []string {
	return []string{EventTypeRunFinished}
}

var _ shared.EventHandler = (*StockProjector)(nil)
