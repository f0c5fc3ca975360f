package bulksync

import "github.com/hyperpc/marketsync/internal/domain/shared"

// Orchestration errors. All are rejected synchronously, before any unit is dispatched.
var (
	ErrEmptyBatch     = shared.NewDomainError("VALIDATION_ERROR", "bulksync: batch is empty")
	ErrNoTargets      = shared.NewDomainError("VALIDATION_ERROR", "bulksync: no target marketplaces")
	ErrUnknownTarget  = shared.NewDomainError("VALIDATION_ERROR", "bulksync: unknown target marketplace")
	ErrAlreadyRunning = shared.NewDomainError("CONFLICT", "bulksync: a sync run is already in progress")
	ErrNotRunning     = shared.NewDomainError("INVALID_STATE", "bulksync: no sync run in progress")
	ErrShuttingDown   = shared.NewDomainError("INVALID_STATE", "bulksync: orchestrator is shutting down")
)
