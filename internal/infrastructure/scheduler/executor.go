package scheduler

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/saleflow"
	"github.com/hyperpc/marketsync/internal/domain/shared"
	"github.com/hyperpc/marketsync/internal/infrastructure/telemetry"
)

// ---------------------------------------------------------------------------
// PullExecutor
// ---------------------------------------------------------------------------

// JobExecutor executes pull jobs
type JobExecutor interface {
	// Execute pulls from the job's marketplace and stores the results
	Execute(ctx context.Context, job *PullJob) error
}

// IngestMetrics records ingestion counts
type IngestMetrics interface {
	OrdersIngested(ctx context.Context, marketplace integration.MarketplaceID, n int)
}

// PullExecutor pulls orders and products from marketplace clients into the
// canonical store. Newly seen orders are recorded as received in the sale
// flow tracker.
type PullExecutor struct {
	registry  integration.MarketplaceRegistry
	orders    integration.OrderRepository
	products  integration.ProductRepository
	tracker   *saleflow.Tracker
	publisher shared.EventPublisher
	metrics   IngestMetrics
	logger    *zap.Logger
}

// ExecutorOption configures a PullExecutor
type ExecutorOption func(*PullExecutor)

// WithTracker records newly pulled orders in a sale flow tracker
func WithTracker(t *saleflow.Tracker) ExecutorOption {
	return func(e *PullExecutor) {
		e.tracker = t
	}
}

// WithPublisher publishes a MarketplacePulled event after each successful pull
func WithPublisher(p shared.EventPublisher) ExecutorOption {
	return func(e *PullExecutor) {
		e.publisher = p
	}
}

// WithIngestMetrics records ingested order counts
func WithIngestMetrics(m IngestMetrics) ExecutorOption {
	return func(e *PullExecutor) {
		e.metrics = m
	}
}

// NewPullExecutor creates a new pull executor
func NewPullExecutor(
	registry integration.MarketplaceRegistry,
	orders integration.OrderRepository,
	products integration.ProductRepository,
	logger *zap.Logger,
	opts ...ExecutorOption,
) *PullExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &PullExecutor{
		registry: registry,
		orders:   orders,
		products: products,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute pulls orders and products from the job's marketplace
func (e *PullExecutor) Execute(ctx context.Context, job *PullJob) error {
	client, err := e.registry.Client(job.Marketplace)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarketplaceUnavailable, err)
	}

	e.logger.Debug("Starting marketplace pull",
		zap.String("job_id", job.ID.String()),
		zap.String("marketplace", string(job.Marketplace)),
		zap.String("trace_id", telemetry.GetTraceID(ctx)),
	)

	orders, err := client.FetchOrders(ctx)
	if err != nil {
		return pullError(ctx, "orders", err)
	}
	products, err := client.FetchProducts(ctx)
	if err != nil {
		return pullError(ctx, "products", err)
	}

	newOrders, failed := 0, 0
	failedIDs := make([]string, 0)
	for i := range orders {
		order := &orders[i]
		created, err := e.storeOrder(ctx, order)
		if err != nil {
			if ctx.Err() != nil {
				return pullError(ctx, "orders", ctx.Err())
			}
			e.logger.Warn("Failed to store pulled order",
				zap.String("marketplace", string(job.Marketplace)),
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
			failed++
			failedIDs = append(failedIDs, order.ID)
			continue
		}
		if created {
			newOrders++
		}
	}

	storedProducts := 0
	for i := range products {
		if err := e.products.Save(ctx, &products[i]); err != nil {
			if ctx.Err() != nil {
				return pullError(ctx, "products", ctx.Err())
			}
			e.logger.Warn("Failed to store pulled product",
				zap.String("marketplace", string(job.Marketplace)),
				zap.String("sku", products[i].SKU),
				zap.Error(err),
			)
			continue
		}
		storedProducts++
	}

	job.Complete(len(orders), newOrders, storedProducts, failed)
	job.FailedOrderIDs = failedIDs
	telemetry.SetAttributes(trace.SpanFromContext(ctx), telemetry.SpanAttrProducts, storedProducts, "failed_orders", failed)

	if e.metrics != nil && newOrders > 0 {
		e.metrics.OrdersIngested(ctx, job.Marketplace, newOrders)
	}
	if e.publisher != nil {
		ev := integration.NewMarketplacePulledEvent(job.Marketplace, len(orders), newOrders, storedProducts)
		if err := e.publisher.Publish(ctx, ev); err != nil {
			e.logger.Warn("Failed to publish pull event", zap.Error(err))
		}
	}
	return nil
}

// IngestOrders validates and stores orders pushed by a marketplace. Nothing
// is stored when any order is invalid. It returns the number of new orders.
func (e *PullExecutor) IngestOrders(ctx context.Context, marketplace integration.MarketplaceID, orders []integration.Order) (int, error) {
	for i := range orders {
		if orders[i].Marketplace != marketplace {
			return 0, fmt.Errorf("%w: order %s belongs to %s", integration.ErrInvalidPayload, orders[i].ID, orders[i].Marketplace)
		}
		if err := orders[i].Validate(); err != nil {
			return 0, fmt.Errorf("order %s: %w", orders[i].ID, err)
		}
	}

	created := 0
	for i := range orders {
		ok, err := e.storeOrder(ctx, &orders[i])
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	if e.metrics != nil && created > 0 {
		e.metrics.OrdersIngested(ctx, marketplace, created)
	}
	return created, nil
}

// IngestProducts merges products pushed by a marketplace into the catalog
func (e *PullExecutor) IngestProducts(ctx context.Context, products []integration.Product) error {
	for i := range products {
		if err := products[i].Validate(); err != nil {
			return fmt.Errorf("product %s: %w", products[i].SKU, err)
		}
	}
	for i := range products {
		if err := e.products.Save(ctx, &products[i]); err != nil {
			return err
		}
	}
	return nil
}

// storeOrder saves an order and tracks it when it is new
func (e *PullExecutor) storeOrder(ctx context.Context, order *integration.Order) (bool, error) {
	if err := order.Validate(); err != nil {
		return false, err
	}
	created, err := e.orders.Save(ctx, order)
	if err != nil {
		return false, err
	}
	if created && e.tracker != nil {
		if _, err := e.tracker.Record(ctx, order.Key(), saleflow.StepOrderReceived, saleflow.StatusSuccess, ""); err != nil &&
			!errors.Is(err, saleflow.ErrStepAlreadyRecorded) {
			e.logger.Warn("Failed to track pulled order",
				zap.String("order_key", order.Key()),
				zap.Error(err),
			)
		}
	}
	return created, nil
}

func pullError(ctx context.Context, what string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: fetching %s", ErrPullTimeout, what)
	}
	return fmt.Errorf("%w: fetching %s: %v", ErrPullFailed, what, err)
}

var _ JobExecutor = (*PullExecutor)(nil)
