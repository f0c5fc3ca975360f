package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrPullFailed is returned when a marketplace pull fails
	ErrPullFailed = errors.New("marketplace pull failed")

	// ErrPullTimeout is returned when a marketplace pull exceeds the job timeout
	ErrPullTimeout = errors.New("marketplace pull timed out")

	// ErrMarketplaceUnavailable is returned when no client is registered for a marketplace
	ErrMarketplaceUnavailable = errors.New("marketplace unavailable for pull")
)
