package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/shared"
	"github.com/hyperpc/marketsync/internal/infrastructure/telemetry"
)

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config holds configuration for the pull scheduler
type Config struct {
	// Enabled indicates if periodic pulls run
	Enabled bool
	// PullInterval is the time between periodic pulls of every marketplace
	PullInterval time.Duration
	// MaxConcurrentJobs is the maximum number of concurrent pull jobs
	MaxConcurrentJobs int
	// JobTimeout is the maximum time a job can run
	JobTimeout time.Duration
	// RetryAttempts is the number of retry attempts for failed jobs
	RetryAttempts int
	// RetryDelay is the base delay between retries (with exponential backoff)
	RetryDelay time.Duration
	// QueueSize is the capacity of the job queue
	QueueSize int
	// MaxHistory is the number of finished jobs kept for monitoring
	MaxHistory int
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		PullInterval:      5 * time.Minute,
		MaxConcurrentJobs: 3,
		JobTimeout:        2 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        10 * time.Second,
		QueueSize:         100,
		MaxHistory:        100,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts < 0 || c.RetryDelay < 0 {
		return ErrInvalidConfig
	}
	if c.Enabled && c.PullInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueSize <= 0 || c.MaxHistory <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// Scheduler
// ---------------------------------------------------------------------------

// Scheduler runs pull jobs on a worker pool and triggers a pull of every
// registered marketplace on each interval.
type Scheduler struct {
	config    Config
	executor  JobExecutor
	registry  integration.MarketplaceRegistry
	publisher shared.EventPublisher
	logger    *zap.Logger

	jobs      chan *PullJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	retries   sync.WaitGroup

	// marketplaces with a job queued or running
	activeMu sync.Mutex
	active   map[integration.MarketplaceID]bool

	// Job history for monitoring (in-memory, limited size)
	historyMu sync.RWMutex
	history   []*PullJob
}

// NewScheduler creates a new pull scheduler
func NewScheduler(config Config, executor JobExecutor, registry integration.MarketplaceRegistry, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		config:   config,
		executor: executor,
		registry: registry,
		logger:   logger,
		jobs:     make(chan *PullJob, config.QueueSize),
		active:   make(map[integration.MarketplaceID]bool),
		history:  make([]*PullJob, 0, config.MaxHistory),
	}, nil
}

// SetPublisher publishes MarketplacePullFailed events when a job exhausts its retries
func (s *Scheduler) SetPublisher(p shared.EventPublisher) {
	s.publisher = p
}

// Start starts the worker pool and, when enabled, the periodic trigger
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	if s.config.Enabled {
		s.wg.Add(1)
		go s.runLoop(ctx)
	}

	s.logger.Info("Pull scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Bool("periodic", s.config.Enabled),
		zap.Duration("pull_interval", s.config.PullInterval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.retries.Wait()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Pull scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Pull scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns true between Start and Stop
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// SubmitJob queues a job for execution
func (s *Scheduler) SubmitJob(job *PullJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		s.logger.Debug("Pull job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("marketplace", string(job.Marketplace)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// SchedulePull queues a pull of one marketplace unless one is already queued or running
func (s *Scheduler) SchedulePull(marketplace integration.MarketplaceID) (bool, error) {
	s.activeMu.Lock()
	if s.active[marketplace] {
		s.activeMu.Unlock()
		return false, nil
	}
	s.active[marketplace] = true
	s.activeMu.Unlock()

	if err := s.SubmitJob(NewPullJob(marketplace, s.config.RetryAttempts)); err != nil {
		s.release(marketplace)
		return false, err
	}
	return true, nil
}

// ScheduleAll queues a pull of every registered marketplace. It returns the number of jobs queued.
func (s *Scheduler) ScheduleAll() (int, error) {
	queued := 0
	var errs []error
	for _, m := range s.registry.Marketplaces() {
		ok, err := s.SchedulePull(m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			queued++
		}
	}
	return queued, errors.Join(errs...)
}

// PullNow pulls every registered marketplace concurrently and waits for the
// results, without retries. It does not require the scheduler to be running.
func (s *Scheduler) PullNow(ctx context.Context) []*PullJob {
	marketplaces := s.registry.Marketplaces()
	jobs := make([]*PullJob, len(marketplaces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrentJobs)
	for i, m := range marketplaces {
		job := NewPullJob(m, 0)
		jobs[i] = job
		g.Go(func() error {
			s.run(gctx, job)
			return nil
		})
	}
	_ = g.Wait()

	for _, job := range jobs {
		s.addToHistory(job)
	}
	return jobs
}

// runLoop periodically triggers a pull of every marketplace
func (s *Scheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ScheduleAll(); err != nil {
				s.logger.Warn("Failed to schedule pull jobs", zap.Error(err))
			}
		}
	}
}

// worker processes jobs from the queue
func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Pull worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Pull worker stopping", zap.Int("worker_id", workerID))
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job and schedules a retry when it fails
func (s *Scheduler) processJob(ctx context.Context, job *PullJob, workerID int) {
	s.run(ctx, job)

	if job.ShouldRetry() {
		delay := job.ScheduleRetry(s.config.RetryDelay)
		s.logger.Info("Pull job scheduled for retry",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Duration("delay", delay),
		)
		s.retryAfter(ctx, job, delay)
		return
	}

	s.release(job.Marketplace)
	s.addToHistory(job)

	if job.Status == PullJobStatusFailed && job.Error != "" && s.publisher != nil {
		ev := integration.NewMarketplacePullFailedEvent(job.Marketplace, job.Attempts(), errors.New(job.Error))
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn("Failed to publish pull failure", zap.Error(err))
		}
	}
}

// retryAfter re-submits job once delay has passed
func (s *Scheduler) retryAfter(ctx context.Context, job *PullJob, delay time.Duration) {
	s.retries.Add(1)
	go func() {
		defer s.retries.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			s.release(job.Marketplace)
			return
		case <-timer.C:
		}
		if err := s.SubmitJob(job); err != nil {
			s.logger.Warn("Failed to re-queue pull job for retry",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
			job.Fail(err.Error())
			s.release(job.Marketplace)
			s.addToHistory(job)
		}
	}()
}

// run executes one attempt of job with the job timeout
func (s *Scheduler) run(ctx context.Context, job *PullJob) {
	job.Start()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	jobCtx, span := telemetry.StartSpan(jobCtx, "scheduler.pull",
		telemetry.WithAttribute(telemetry.SpanAttrMarketplace, string(job.Marketplace)),
		telemetry.WithAttribute(telemetry.SpanAttrJobID, job.ID.String()),
	)
	defer span.End()
	traceID := telemetry.GetTraceID(jobCtx)

	if err := s.executor.Execute(jobCtx, job); err != nil {
		telemetry.RecordError(span, err)
		job.Fail(err.Error())
		s.logger.Error("Pull job failed",
			zap.String("job_id", job.ID.String()),
			zap.String("trace_id", traceID),
			zap.String("marketplace", string(job.Marketplace)),
			zap.Int("attempt", job.Attempts()),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Pull job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("trace_id", traceID),
		zap.String("marketplace", string(job.Marketplace)),
		zap.String("status", string(job.Status)),
		zap.Int("orders", job.Orders),
		zap.Int("new_orders", job.NewOrders),
		zap.Int("products", job.Products),
		zap.Int("failed_count", job.FailedCount),
	)
	telemetry.SetAttributes(span, telemetry.SpanAttrOrders, job.Orders, "status", string(job.Status))
	telemetry.SetOK(span)
}

func (s *Scheduler) release(m integration.MarketplaceID) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	delete(s.active, m)
}

// addToHistory adds a finished job to history
func (s *Scheduler) addToHistory(job *PullJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*PullJob{job}, s.history...)
	if len(s.history) > s.config.MaxHistory {
		s.history = s.history[:s.config.MaxHistory]
	}
}

// GetJobHistory returns recent job history, newest first
func (s *Scheduler) GetJobHistory(limit int) []*PullJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*PullJob, limit)
	copy(result, s.history[:limit])
	return result
}

// GetJobHistoryByMarketplace returns job history for one marketplace
func (s *Scheduler) GetJobHistoryByMarketplace(marketplace integration.MarketplaceID, limit int) []*PullJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	result := make([]*PullJob, 0)
	for _, job := range s.history {
		if job.Marketplace == marketplace {
			result = append(result, job)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result
}
