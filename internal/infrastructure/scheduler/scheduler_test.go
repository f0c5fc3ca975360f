package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/saleflow"
	"github.com/hyperpc/marketsync/internal/domain/shared"
	"github.com/hyperpc/marketsync/internal/infrastructure/ecommerce"
	"github.com/hyperpc/marketsync/internal/infrastructure/store"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

type pullClient struct {
	id       integration.MarketplaceID
	orders   []integration.Order
	products []integration.Product
	// failures is the number of FetchOrders calls that fail before succeeding
	failures atomic.Int32
	calls    atomic.Int32
	block    bool
}

func (c *pullClient) Marketplace() integration.MarketplaceID { return c.id }

func (c *pullClient) FetchOrders(ctx context.Context) ([]integration.Order, error) {
	c.calls.Add(1)
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.failures.Load() > 0 {
		c.failures.Add(-1)
		return nil, errors.New("503 service unavailable")
	}
	return c.orders, nil
}

func (c *pullClient) FetchProducts(context.Context) ([]integration.Product, error) {
	return c.products, nil
}

func (c *pullClient) UpdateStock(context.Context, string, int) (*integration.SyncResult, error) {
	return integration.NewSyncSuccess("ok", time.Now()), nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (r *eventRecorder) Publish(_ context.Context, events ...shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *eventRecorder) ofType(eventType string) []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.DomainEvent, 0)
	for _, e := range r.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type ingestCounter struct {
	n atomic.Int64
}

func (c *ingestCounter) OrdersIngested(_ context.Context, _ integration.MarketplaceID, n int) {
	c.n.Add(int64(n))
}

func pulledOrder(t *testing.T, m integration.MarketplaceID, id string) integration.Order {
	t.Helper()
	item, err := integration.NewOrderItem("ZOR553", "PC", 2, decimal.NewFromInt(100))
	require.NoError(t, err)
	o := integration.Order{
		ID:          id,
		Marketplace: m,
		Items:       []integration.OrderItem{item},
		Status:      integration.OrderStatusPending,
		Currency:    integration.SettlementCurrency,
		CreatedAt:   time.Now(),
	}
	o.RecalculateTotal()
	return o
}

type fixture struct {
	registry *ecommerce.Registry
	orders   *store.OrderRepository
	products *store.ProductRepository
	tracker  *saleflow.Tracker
	events   *eventRecorder
	ingested *ingestCounter
	executor *PullExecutor
}

func newFixture(t *testing.T, clients ...*pullClient) *fixture {
	t.Helper()
	f := &fixture{
		registry: ecommerce.NewRegistry(),
		orders:   store.NewOrderRepository(),
		products: store.NewProductRepository(),
		tracker:  saleflow.NewTracker(store.NewFlowRepository()),
		events:   &eventRecorder{},
		ingested: &ingestCounter{},
	}
	for _, c := range clients {
		require.NoError(t, f.registry.RegisterClient(c))
	}
	f.executor = NewPullExecutor(f.registry, f.orders, f.products, nil,
		WithTracker(f.tracker),
		WithPublisher(f.events),
		WithIngestMetrics(f.ingested),
	)
	return f
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = false
	cfg.RetryDelay = time.Millisecond
	cfg.JobTimeout = time.Second
	return cfg
}

// ---------------------------------------------------------------------------
// PullJob Tests
// ---------------------------------------------------------------------------

func TestNewPullJob(t *testing.T) {
	job := NewPullJob(integration.MarketplaceRipley, 3)

	assert.NotEmpty(t, job.ID.String())
	assert.Equal(t, integration.MarketplaceRipley, job.Marketplace)
	assert.Equal(t, PullJobStatusPending, job.Status)
	assert.Equal(t, 3, job.MaxRetries)
	assert.Nil(t, job.StartedAt)
	assert.Equal(t, 1, job.Attempts())
}

func TestPullJob_Complete(t *testing.T) {
	tests := []struct {
		name           string
		orders, failed int
		want           PullJobStatus
	}{
		{"all stored", 10, 0, PullJobStatusSuccess},
		{"some failed", 10, 3, PullJobStatusPartial},
		{"all failed", 4, 4, PullJobStatusFailed},
		{"nothing to pull", 0, 0, PullJobStatusSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewPullJob(integration.MarketplaceParis, 3)
			job.Start()
			job.Complete(tt.orders, 0, 0, tt.failed)
			assert.Equal(t, tt.want, job.Status)
			assert.NotNil(t, job.CompletedAt)
			assert.False(t, job.ShouldRetry())
		})
	}
}

func TestPullJob_RetryBackoff(t *testing.T) {
	job := NewPullJob(integration.MarketplaceParis, 3)
	job.Start()
	job.Fail("boom")
	require.True(t, job.ShouldRetry())

	assert.Equal(t, time.Second, job.ScheduleRetry(time.Second))
	assert.Equal(t, PullJobStatusPending, job.Status)
	assert.NotNil(t, job.NextRetryAt)
	assert.Empty(t, job.Error)

	job.Fail("boom")
	assert.Equal(t, 2*time.Second, job.ScheduleRetry(time.Second))
	job.Fail("boom")
	assert.Equal(t, 4*time.Second, job.ScheduleRetry(time.Second))
	job.Fail("boom")
	assert.False(t, job.ShouldRetry())
	assert.Equal(t, 4, job.Attempts())

	capped := NewPullJob(integration.MarketplaceParis, 10)
	capped.RetryCount = 8
	assert.Equal(t, 30*time.Minute, capped.RetryDelay(time.Minute))
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no workers", func(c *Config) { c.MaxConcurrentJobs = 0 }},
		{"no timeout", func(c *Config) { c.JobTimeout = 0 }},
		{"negative retries", func(c *Config) { c.RetryAttempts = -1 }},
		{"zero interval when enabled", func(c *Config) { c.PullInterval = 0 }},
		{"no queue", func(c *Config) { c.QueueSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

// ---------------------------------------------------------------------------
// Executor Tests
// ---------------------------------------------------------------------------

func TestPullExecutor_StoresAndTracksOrders(t *testing.T) {
	ctx := context.Background()
	ripley := &pullClient{
		id:       integration.MarketplaceRipley,
		orders:   []integration.Order{pulledOrder(t, integration.MarketplaceRipley, "R-1"), pulledOrder(t, integration.MarketplaceRipley, "R-2")},
		products: []integration.Product{{SKU: "ZOR553", Name: "PC", Stock: 3, Marketplaces: []integration.MarketplaceID{integration.MarketplaceRipley}}},
	}
	f := newFixture(t, ripley)

	job := NewPullJob(integration.MarketplaceRipley, 0)
	require.NoError(t, f.executor.Execute(ctx, job))
	assert.Equal(t, PullJobStatusSuccess, job.Status)
	assert.Equal(t, 2, job.Orders)
	assert.Equal(t, 2, job.NewOrders)
	assert.Equal(t, 1, job.Products)

	assert.Equal(t, 2, f.orders.Count())
	step, err := f.tracker.CurrentStep(ctx, integration.OrderKey(integration.MarketplaceRipley, "R-1"))
	require.NoError(t, err)
	assert.Equal(t, saleflow.StepOdooProcessing, step)

	// a second pull stores nothing new
	again := NewPullJob(integration.MarketplaceRipley, 0)
	require.NoError(t, f.executor.Execute(ctx, again))
	assert.Equal(t, 0, again.NewOrders)
	assert.Equal(t, int64(2), f.ingested.n.Load())

	pulled := f.events.ofType(integration.EventTypeMarketplacePulled)
	require.Len(t, pulled, 2)
	assert.Equal(t, 2, pulled[0].(*integration.MarketplacePulledEvent).NewOrders)
}

func TestPullExecutor_RejectsInconsistentOrders(t *testing.T) {
	bad := pulledOrder(t, integration.MarketplaceParis, "P-2")
	bad.Total = decimal.NewFromInt(1)
	paris := &pullClient{
		id:     integration.MarketplaceParis,
		orders: []integration.Order{pulledOrder(t, integration.MarketplaceParis, "P-1"), bad},
	}
	f := newFixture(t, paris)

	job := NewPullJob(integration.MarketplaceParis, 0)
	require.NoError(t, f.executor.Execute(context.Background(), job))
	assert.Equal(t, PullJobStatusPartial, job.Status)
	assert.Equal(t, []string{"P-2"}, job.FailedOrderIDs)
	assert.Equal(t, 1, f.orders.Count())
}

func TestPullExecutor_Errors(t *testing.T) {
	f := newFixture(t, &pullClient{id: integration.MarketplaceWalmart, block: true})

	err := f.executor.Execute(context.Background(), NewPullJob(integration.MarketplaceFalabella, 0))
	assert.ErrorIs(t, err, ErrMarketplaceUnavailable)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = f.executor.Execute(ctx, NewPullJob(integration.MarketplaceWalmart, 0))
	assert.ErrorIs(t, err, ErrPullTimeout)
}

func TestPullExecutor_IngestOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	orders := []integration.Order{pulledOrder(t, integration.MarketplaceWalmart, "W-1"), pulledOrder(t, integration.MarketplaceWalmart, "W-2")}
	created, err := f.executor.IngestOrders(ctx, integration.MarketplaceWalmart, orders)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, int64(2), f.ingested.n.Load())

	step, err := f.tracker.CurrentStep(ctx, integration.OrderKey(integration.MarketplaceWalmart, "W-1"))
	require.NoError(t, err)
	assert.Equal(t, saleflow.StepOdooProcessing, step)

	created, err = f.executor.IngestOrders(ctx, integration.MarketplaceWalmart, orders[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	t.Run("invalid order stores nothing", func(t *testing.T) {
		bad := pulledOrder(t, integration.MarketplaceWalmart, "W-4")
		bad.Total = decimal.NewFromInt(1)
		_, err := f.executor.IngestOrders(ctx, integration.MarketplaceWalmart,
			[]integration.Order{pulledOrder(t, integration.MarketplaceWalmart, "W-3"), bad})
		assert.Error(t, err)
		assert.Equal(t, 2, f.orders.Count())
	})

	t.Run("foreign marketplace", func(t *testing.T) {
		_, err := f.executor.IngestOrders(ctx, integration.MarketplaceWalmart,
			[]integration.Order{pulledOrder(t, integration.MarketplaceParis, "P-1")})
		assert.ErrorIs(t, err, integration.ErrInvalidPayload)
	})
}

func TestPullExecutor_IngestProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.executor.IngestProducts(ctx, []integration.Product{{SKU: "ZOR553", Name: "PC", Stock: 3}})
	require.NoError(t, err)
	p, err := f.products.FindBySKU(ctx, "ZOR553")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)

	err = f.executor.IngestProducts(ctx, []integration.Product{{SKU: "", Stock: 1}})
	assert.ErrorIs(t, err, integration.ErrEmptySKU)
}

// ---------------------------------------------------------------------------
// Scheduler Tests
// ---------------------------------------------------------------------------

func TestScheduler_PullNow(t *testing.T) {
	ripley := &pullClient{id: integration.MarketplaceRipley, orders: []integration.Order{pulledOrder(t, integration.MarketplaceRipley, "R-1")}}
	paris := &pullClient{id: integration.MarketplaceParis, orders: []integration.Order{pulledOrder(t, integration.MarketplaceParis, "P-1")}}
	walmart := &pullClient{id: integration.MarketplaceWalmart}
	walmart.failures.Store(1)
	f := newFixture(t, ripley, paris, walmart)

	s, err := NewScheduler(testConfig(), f.executor, f.registry, nil)
	require.NoError(t, err)

	jobs := s.PullNow(context.Background())
	require.Len(t, jobs, 3)
	byMarketplace := make(map[integration.MarketplaceID]*PullJob)
	for _, j := range jobs {
		byMarketplace[j.Marketplace] = j
	}
	assert.Equal(t, PullJobStatusSuccess, byMarketplace[integration.MarketplaceRipley].Status)
	assert.Equal(t, PullJobStatusSuccess, byMarketplace[integration.MarketplaceParis].Status)
	assert.Equal(t, PullJobStatusFailed, byMarketplace[integration.MarketplaceWalmart].Status)
	assert.Contains(t, byMarketplace[integration.MarketplaceWalmart].Error, "503")

	assert.Equal(t, 2, f.orders.Count())
	assert.Len(t, s.GetJobHistory(0), 3)
	assert.Len(t, s.GetJobHistoryByMarketplace(integration.MarketplaceWalmart, 5), 1)
}

func TestScheduler_PullSpanStatus(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ripley := &pullClient{id: integration.MarketplaceRipley, orders: []integration.Order{pulledOrder(t, integration.MarketplaceRipley, "R-1")}}
	walmart := &pullClient{id: integration.MarketplaceWalmart}
	walmart.failures.Store(1)
	f := newFixture(t, ripley, walmart)

	s, err := NewScheduler(testConfig(), f.executor, f.registry, nil)
	require.NoError(t, err)
	s.PullNow(context.Background())

	tests := []struct {
		marketplace integration.MarketplaceID
		want        codes.Code
	}{
		{integration.MarketplaceRipley, codes.Ok},
		{integration.MarketplaceWalmart, codes.Error},
	}
	spans := rec.Ended()
	require.Len(t, spans, 2)
	for _, tt := range tests {
		t.Run(string(tt.marketplace), func(t *testing.T) {
			var found bool
			for _, sp := range spans {
				for _, kv := range sp.Attributes() {
					if string(kv.Key) == "marketplace" && kv.Value.AsString() == string(tt.marketplace) {
						found = true
						assert.Equal(t, "scheduler.pull", sp.Name())
						assert.Equal(t, tt.want, sp.Status().Code)
					}
				}
			}
			assert.True(t, found)
		})
	}
}

func TestScheduler_SubmitRequiresRunning(t *testing.T) {
	f := newFixture(t)
	s, err := NewScheduler(testConfig(), f.executor, f.registry, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.SubmitJob(NewPullJob(integration.MarketplaceParis, 0)), ErrSchedulerNotRunning)
	_, err = s.SchedulePull(integration.MarketplaceParis)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_RetriesThenSucceeds(t *testing.T) {
	ripley := &pullClient{id: integration.MarketplaceRipley, orders: []integration.Order{pulledOrder(t, integration.MarketplaceRipley, "R-1")}}
	ripley.failures.Store(2)
	f := newFixture(t, ripley)

	s, err := NewScheduler(testConfig(), f.executor, f.registry, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	queued, err := s.ScheduleAll()
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	require.Eventually(t, func() bool { return len(s.GetJobHistory(0)) == 1 }, 5*time.Second, 5*time.Millisecond)
	job := s.GetJobHistory(1)[0]
	assert.Equal(t, PullJobStatusSuccess, job.Status)
	assert.Equal(t, 2, job.RetryCount)
	assert.Equal(t, int32(3), ripley.calls.Load())
	assert.Equal(t, 1, f.orders.Count())
}

func TestScheduler_PublishesFailureAfterRetries(t *testing.T) {
	walmart := &pullClient{id: integration.MarketplaceWalmart}
	walmart.failures.Store(100)
	f := newFixture(t, walmart)

	cfg := testConfig()
	cfg.RetryAttempts = 2
	s, err := NewScheduler(cfg, f.executor, f.registry, nil)
	require.NoError(t, err)
	s.SetPublisher(f.events)
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	ok, err := s.SchedulePull(integration.MarketplaceWalmart)
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		return len(f.events.ofType(integration.EventTypeMarketplacePullFailed)) == 1
	}, 5*time.Second, 5*time.Millisecond)

	ev := f.events.ofType(integration.EventTypeMarketplacePullFailed)[0].(*integration.MarketplacePullFailedEvent)
	assert.Equal(t, integration.MarketplaceWalmart, ev.Marketplace)
	assert.Equal(t, 3, ev.Attempts)
	assert.Equal(t, int32(3), walmart.calls.Load())

	// the marketplace can be scheduled again once the job is finished
	ok, err = s.SchedulePull(integration.MarketplaceWalmart)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestScheduler_SkipsMarketplaceWithActiveJob(t *testing.T) {
	paris := &pullClient{id: integration.MarketplaceParis, block: true}
	f := newFixture(t, paris)

	cfg := testConfig()
	cfg.JobTimeout = 5 * time.Second
	cfg.RetryAttempts = 0
	s, err := NewScheduler(cfg, f.executor, f.registry, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	ok, err := s.SchedulePull(integration.MarketplaceParis)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SchedulePull(integration.MarketplaceParis)
	require.NoError(t, err)
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
}

func TestScheduler_PeriodicTrigger(t *testing.T) {
	ripley := &pullClient{id: integration.MarketplaceRipley}
	f := newFixture(t, ripley)

	cfg := testConfig()
	cfg.Enabled = true
	cfg.PullInterval = 10 * time.Millisecond
	s, err := NewScheduler(cfg, f.executor, f.registry, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	require.Eventually(t, func() bool { return ripley.calls.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)
}
