package bulksync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/shared"
)

const tracerName = "github.com/hyperpc/marketsync/internal/application/bulksync"

// Config holds orchestrator settings
type Config struct {
	// Concurrency is the worker pool size; zero means one worker per target
	Concurrency int
	// LockKey names the run lock shared by every replica
	LockKey string
	// LockTTL bounds how long a crashed holder can block new runs
	LockTTL time.Duration
	// SubscriberBuffer is the channel capacity of each status subscription
	SubscriberBuffer int
	// UnitTimeout bounds one UpdateStock call; zero disables the timeout
	UnitTimeout time.Duration
}

// DefaultConfig returns the default orchestrator settings
func DefaultConfig() Config {
	return Config{
		LockKey:          "bulk-sync",
		LockTTL:          30 * time.Minute,
		SubscriberBuffer: 16,
		UnitTimeout:      30 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Concurrency < 0 {
		c.Concurrency = 0
	}
	if c.LockKey == "" {
		c.LockKey = d.LockKey
	}
	if c.LockTTL <= 0 {
		c.LockTTL = d.LockTTL
	}
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = d.SubscriberBuffer
	}
	if c.UnitTimeout < 0 {
		c.UnitTimeout = 0
	}
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRunLock guards runs with a lock shared across replicas
func WithRunLock(lock shared.RunLock) Option {
	return func(o *Orchestrator) {
		o.lock = lock
	}
}

// WithPublisher publishes run lifecycle events
func WithPublisher(p shared.EventPublisher) Option {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

// WithMetrics records run and unit measurements
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer sets the tracer used for run spans
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator executes bulk stock sync runs, one at a time.
//
// All run state lives in the Run handle; the orchestrator only remembers the
// latest run so Status and Reset can answer without a handle.
type Orchestrator struct {
	registry  integration.MarketplaceRegistry
	lock      shared.RunLock
	publisher shared.EventPublisher
	metrics   Metrics
	tracer    trace.Tracer
	logger    *zap.Logger
	now       func() time.Time
	cfg       Config

	startMu sync.Mutex

	// mu guards run, every field of the run it points to, and subs.
	// Snapshots are broadcast while mu is held so that every subscriber
	// observes updates in the order they were applied.
	mu     sync.Mutex
	run    *Run
	subs   map[uint64]chan Status
	nextID uint64
	closed bool
}

// NewOrchestrator creates an orchestrator over the marketplaces in registry
func NewOrchestrator(registry integration.MarketplaceRegistry, logger *zap.Logger, cfg Config, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()
	o := &Orchestrator{
		registry: registry,
		metrics:  noopMetrics{},
		tracer:   otel.Tracer(tracerName),
		logger:   logger.With(zap.String("component", "bulksync")),
		now:      time.Now,
		cfg:      cfg,
		subs:     make(map[uint64]chan Status),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run is the handle of one orchestration run
type Run struct {
	ID        string
	Targets   []integration.MarketplaceID
	Items     []integration.BulkUploadItem
	StartedAt time.Time

	o      *Orchestrator
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// guarded by o.mu
	processing  bool
	cancelled   bool
	total       int
	processed   int
	progress    int
	currentItem string
	errors      []integration.BulkUploadError
	result      *integration.BulkUploadResult
	finishedAt  *time.Time
}

// Done is closed once the run has finalized or drained after cancellation
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Status returns a snapshot of the run
func (r *Run) Status() Status {
	r.o.mu.Lock()
	defer r.o.mu.Unlock()
	return r.snapshotLocked()
}

// Result returns the final aggregate, or nil while running or after cancellation
func (r *Run) Result() *integration.BulkUploadResult {
	r.o.mu.Lock()
	defer r.o.mu.Unlock()
	return cloneResult(r.result)
}

// Wait blocks until the run is done or ctx ends
func (r *Run) Wait(ctx context.Context) (Status, error) {
	select {
	case <-r.done:
		return r.Status(), nil
	case <-ctx.Done():
		return r.Status(), ctx.Err()
	}
}

// Cancel stops dispatching new units and waits for in-flight units to drain
func (r *Run) Cancel(ctx context.Context) error {
	return r.o.cancelRun(ctx, r)
}

func (r *Run) snapshotLocked() Status {
	errs := make([]string, len(r.errors))
	for i, e := range r.errors {
		errs[i] = e.String()
	}
	started := r.StartedAt
	return Status{
		RunID:          r.ID,
		IsProcessing:   r.processing,
		Cancelled:      r.cancelled,
		Progress:       r.progress,
		TotalItems:     r.total,
		ProcessedItems: r.processed,
		CurrentItem:    r.currentItem,
		Targets:        slices.Clone(r.Targets),
		StartedAt:      &started,
		FinishedAt:     r.finishedAt,
		Result:         cloneResult(r.result),
		Errors:         errs,
	}
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// Start validates the batch and targets and launches a run in the background.
// Duplicate targets are ignored. The run outlives ctx; use Cancel to stop it.
func (o *Orchestrator) Start(ctx context.Context, batch []integration.BulkUploadItem, targets []integration.MarketplaceID) (*Run, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}
	targets = dedupe(targets)
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	for _, t := range targets {
		if _, err := o.registry.Client(t); err != nil {
			return nil, shared.WrapDomainError(ErrUnknownTarget.Code, fmt.Errorf("%w: %s", ErrUnknownTarget, t))
		}
	}

	o.startMu.Lock()
	defer o.startMu.Unlock()

	o.mu.Lock()
	busy := o.run != nil && o.run.processing
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return nil, ErrShuttingDown
	}
	if busy {
		return nil, ErrAlreadyRunning
	}

	runID := uuid.New().String()
	if o.lock != nil {
		ok, err := o.lock.Acquire(ctx, o.cfg.LockKey, runID, o.cfg.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("bulksync: acquire run lock: %w", err)
		}
		if !ok {
			return nil, ErrAlreadyRunning
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &Run{
		ID:         runID,
		Targets:    targets,
		Items:      slices.Clone(batch),
		StartedAt:  o.now(),
		o:          o,
		ctx:        runCtx,
		cancel:     cancel,
		done:       make(chan struct{}),
		processing: true,
		total:      len(batch) * len(targets),
		errors:     make([]integration.BulkUploadError, 0),
	}

	o.mu.Lock()
	o.run = r
	o.broadcastLocked(r.snapshotLocked())
	o.mu.Unlock()

	o.logger.Info("Bulk sync run started",
		zap.String("run_id", r.ID),
		zap.Int("items", len(batch)),
		zap.Stringers("targets", targets),
		zap.Int("units", r.total),
	)
	o.metrics.RunStarted(runCtx, len(targets), r.total)
	o.publish(runCtx, newRunStarted(r.ID, slices.Clone(targets), len(batch)))

	go o.execute(r)
	return r, nil
}

// Cancel cancels the current run and waits for it to drain
func (o *Orchestrator) Cancel(ctx context.Context) error {
	o.mu.Lock()
	r := o.run
	o.mu.Unlock()
	if r == nil {
		return ErrNotRunning
	}
	return o.cancelRun(ctx, r)
}

func (o *Orchestrator) cancelRun(ctx context.Context, r *Run) error {
	o.mu.Lock()
	if !r.processing {
		o.mu.Unlock()
		return ErrNotRunning
	}
	if !r.cancelled {
		r.cancelled = true
		r.cancel()
		o.broadcastLocked(r.snapshotLocked())
	}
	o.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset discards the last run and returns the initial status.
// A run in progress must be cancelled first.
func (o *Orchestrator) Reset() (Status, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.run != nil && o.run.processing {
		return o.run.snapshotLocked(), ErrAlreadyRunning
	}
	o.run = nil
	s := InitialStatus()
	o.broadcastLocked(s)
	return s, nil
}

// Status returns a snapshot of the current or last run
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statusLocked()
}

// Current returns the handle of the current or last run
func (o *Orchestrator) Current() (*Run, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run, o.run != nil
}

// Subscribe streams status snapshots, starting with the current one.
// When the subscriber falls behind, the oldest pending snapshot is dropped.
// The returned function ends the subscription and closes the channel.
func (o *Orchestrator) Subscribe() (<-chan Status, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan Status, o.cfg.SubscriberBuffer)
	if o.closed {
		close(ch)
		return ch, func() {}
	}
	id := o.nextID
	o.nextID++
	o.subs[id] = ch
	ch <- o.statusLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if c, ok := o.subs[id]; ok {
				delete(o.subs, id)
				close(c)
			}
		})
	}
}

// Shutdown cancels any run in progress, waits for it to drain and closes
// every subscription. Start is rejected afterwards.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	err := o.Cancel(ctx)
	if errors.Is(err, ErrNotRunning) {
		err = nil
	}

	o.mu.Lock()
	o.closed = true
	for id, ch := range o.subs {
		delete(o.subs, id)
		close(ch)
	}
	o.mu.Unlock()
	return err
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

func (o *Orchestrator) execute(r *Run) {
	defer close(r.done)

	ctx, span := o.tracer.Start(r.ctx, "bulksync.run",
		trace.WithAttributes(
			attribute.String("bulksync.run_id", r.ID),
			attribute.Int("bulksync.items", len(r.Items)),
			attribute.Int("bulksync.targets", len(r.Targets)),
		),
	)
	defer span.End()

	workers := o.cfg.Concurrency
	if workers == 0 {
		workers = len(r.Targets)
	}
	workers = min(workers, r.total)

	units := make(chan unit)
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for u := range units {
				o.process(ctx, r, u)
			}
			return nil
		})
	}

dispatch:
	for _, target := range r.Targets {
		for _, item := range r.Items {
			if r.ctx.Err() != nil {
				break dispatch
			}
			select {
			case units <- unit{item: item, target: target}:
			case <-r.ctx.Done():
				break dispatch
			}
		}
	}
	close(units)
	_ = g.Wait()

	o.finalize(ctx, r, span)
}

func (o *Orchestrator) process(ctx context.Context, r *Run, u unit) {
	// the dispatch select may hand over a unit after cancellation
	if r.ctx.Err() != nil {
		return
	}

	o.mu.Lock()
	if !r.cancelled {
		r.currentItem = fmt.Sprintf("%s → %s", u.item.SKU, u.target)
		o.broadcastLocked(r.snapshotLocked())
	}
	o.mu.Unlock()

	began := o.now()
	ok, msg := o.call(ctx, u)
	o.metrics.UnitCompleted(ctx, u.target, ok, o.now().Sub(began))

	o.mu.Lock()
	if r.cancelled {
		o.mu.Unlock()
		return
	}
	r.processed++
	if !ok {
		r.errors = append(r.errors, integration.BulkUploadError{
			SKU:         u.item.SKU,
			Marketplace: u.target,
			Error:       msg,
		})
	}
	r.progress = progressOf(r.processed, r.total)
	o.broadcastLocked(r.snapshotLocked())
	o.mu.Unlock()

	if !ok {
		o.logger.Warn("Stock update failed",
			zap.String("run_id", r.ID),
			zap.String("sku", u.item.SKU),
			zap.Int("quantity", u.item.Quantity),
			zap.String("marketplace", string(u.target)),
			zap.String("error", msg),
		)
		o.publish(ctx, newUnitFailed(r.ID, u, msg))
	}
}

// call performs one UpdateStock. The call is not interrupted by run
// cancellation, only by the unit timeout.
func (o *Orchestrator) call(ctx context.Context, u unit) (bool, string) {
	client, err := o.registry.Client(u.target)
	if err != nil {
		return false, err.Error()
	}

	callCtx := context.WithoutCancel(ctx)
	if o.cfg.UnitTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, o.cfg.UnitTimeout)
		defer cancel()
	}

	res, err := client.UpdateStock(callCtx, u.item.SKU, u.item.Quantity)
	switch {
	case err != nil:
		return false, err.Error()
	case res == nil:
		return false, "empty sync result"
	case !res.Success:
		if res.Message == "" {
			return false, "update rejected"
		}
		return false, res.Message
	default:
		return true, ""
	}
}

// finalize releases the run lock before the terminal snapshot is visible, so
// a caller that observes the finished run can start the next one.
func (o *Orchestrator) finalize(ctx context.Context, r *Run, span trace.Span) {
	finished := o.now()

	if o.lock != nil {
		if err := o.lock.Release(context.WithoutCancel(ctx), o.cfg.LockKey, r.ID); err != nil {
			o.logger.Warn("Failed to release run lock", zap.String("run_id", r.ID), zap.Error(err))
		}
	}

	o.mu.Lock()
	r.processing = false
	r.currentItem = ""
	r.finishedAt = &finished
	if !r.cancelled {
		failed := len(r.errors)
		r.result = &integration.BulkUploadResult{
			Total:     r.total,
			Processed: r.processed,
			Success:   r.total - failed,
			Failed:    failed,
			Errors:    slices.Clone(r.errors),
		}
	}
	result := cloneResult(r.result)
	processed, total := r.processed, r.total
	o.broadcastLocked(r.snapshotLocked())
	o.mu.Unlock()

	elapsed := finished.Sub(r.StartedAt)
	if result == nil {
		span.SetAttributes(attribute.String("bulksync.outcome", OutcomeCancelled))
		o.metrics.RunFinished(ctx, OutcomeCancelled, elapsed)
		o.logger.Info("Bulk sync run cancelled",
			zap.String("run_id", r.ID),
			zap.Int("processed", processed),
			zap.Int("total", total),
			zap.Duration("elapsed", elapsed),
		)
		o.publish(ctx, newRunCancelled(r.ID, processed, total))
		return
	}

	span.SetAttributes(
		attribute.String("bulksync.outcome", OutcomeCompleted),
		attribute.Int("bulksync.failed", result.Failed),
	)
	if result.Failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d units failed", result.Failed, result.Total))
	}
	o.metrics.RunFinished(ctx, OutcomeCompleted, elapsed)
	o.logger.Info("Bulk sync run finished",
		zap.String("run_id", r.ID),
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
		zap.Duration("elapsed", elapsed),
	)
	o.publish(ctx, newRunFinished(r.ID, *result, slices.Clone(r.Items)))
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (o *Orchestrator) statusLocked() Status {
	if o.run == nil {
		return InitialStatus()
	}
	return o.run.snapshotLocked()
}

// broadcastLocked delivers s to every subscriber without blocking
func (o *Orchestrator) broadcastLocked(s Status) {
	for _, ch := range o.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

func (o *Orchestrator) publish(ctx context.Context, event shared.DomainEvent) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Warn("Failed to publish sync event",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
}

func dedupe(targets []integration.MarketplaceID) []integration.MarketplaceID {
	out := make([]integration.MarketplaceID, 0, len(targets))
	for _, t := range targets {
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
