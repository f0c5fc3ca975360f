package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Pull Job Types
// ---------------------------------------------------------------------------

// PullJobStatus represents the status of a pull job
type PullJobStatus string

const (
	PullJobStatusPending PullJobStatus = "PENDING"
	PullJobStatusRunning PullJobStatus = "RUNNING"
	PullJobStatusSuccess PullJobStatus = "SUCCESS"
	PullJobStatusPartial PullJobStatus = "PARTIAL"
	PullJobStatusFailed  PullJobStatus = "FAILED"
)

// PullJob pulls orders and products from one marketplace into the canonical store
type PullJob struct {
	ID          uuid.UUID
	Marketplace integration.MarketplaceID
	Status      PullJobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time

	// Pull results
	Orders         int
	NewOrders      int
	Products       int
	FailedCount    int
	FailedOrderIDs []string
}

// NewPullJob creates a new pull job
func NewPullJob(marketplace integration.MarketplaceID, maxRetries int) *PullJob {
	return &PullJob{
		ID:          uuid.New(),
		Marketplace: marketplace,
		Status:      PullJobStatusPending,
		MaxRetries:  maxRetries,
	}
}

// Start marks the job as running
func (j *PullJob) Start() {
	now := time.Now()
	j.Status = PullJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as finished, partial when some orders could not be stored
func (j *PullJob) Complete(orders, newOrders, products, failed int) {
	now := time.Now()
	j.Orders = orders
	j.NewOrders = newOrders
	j.Products = products
	j.FailedCount = failed
	j.CompletedAt = &now

	switch {
	case failed == 0:
		j.Status = PullJobStatusSuccess
	case failed < orders:
		j.Status = PullJobStatusPartial
	default:
		j.Status = PullJobStatusFailed
	}
}

// Fail marks the job as failed
func (j *PullJob) Fail(err string) {
	now := time.Now()
	j.Status = PullJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *PullJob) ShouldRetry() bool {
	return j.Status == PullJobStatusFailed && j.Error != "" && j.RetryCount < j.MaxRetries
}

// RetryDelay returns the backoff before the next attempt: baseDelay * 2^retryCount, capped at 30 minutes
func (j *PullJob) RetryDelay(baseDelay time.Duration) time.Duration {
	delay := baseDelay * time.Duration(1<<j.RetryCount)
	if delay > 30*time.Minute {
		delay = 30 * time.Minute
	}
	return delay
}

// ScheduleRetry schedules the job for retry with exponential backoff
func (j *PullJob) ScheduleRetry(baseDelay time.Duration) time.Duration {
	delay := j.RetryDelay(baseDelay)
	j.RetryCount++
	j.Status = PullJobStatusPending
	next := time.Now().Add(delay)
	j.NextRetryAt = &next
	j.Error = ""
	return delay
}

// Attempts returns how many times the job has run
func (j *PullJob) Attempts() int {
	return j.RetryCount + 1
}
