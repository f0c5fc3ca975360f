package bulksync

import (
	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/shared"
)

// AggregateType is the aggregate type of every sync run event
const AggregateType = "SyncRun"

// Sync run event types
const (
	EventTypeRunStarted   = "SyncRunStarted"
	EventTypeUnitFailed   = "SyncUnitFailed"
	EventTypeRunFinished  = "SyncRunFinished"
	EventTypeRunCancelled = "SyncRunCancelled"
)

// EventTypes lists every event a run publishes
func EventTypes() []string {
	return []string{EventTypeRunStarted, EventTypeUnitFailed, EventTypeRunFinished, EventTypeRunCancelled}
}

// RunStartedEvent is published when a run is accepted
type RunStartedEvent struct {
	shared.BaseDomainEvent
	Targets    []integration.MarketplaceID
	BatchSize  int
	TotalUnits int
}

// UnitFailedEvent is published for every (item, target) update that failed
type UnitFailedEvent struct {
	shared.BaseDomainEvent
	SKU         string
	Quantity    int
	Marketplace integration.MarketplaceID
	Error       string
}

// RunFinishedEvent is published once when a run finalizes its result.
// Items is the batch in upload order.
type RunFinishedEvent struct {
	shared.BaseDomainEvent
	Result integration.BulkUploadResult
	Items  []integration.BulkUploadItem
}

// RunCancelledEvent is published once when a cancelled run has drained
type RunCancelledEvent struct {
	shared.BaseDomainEvent
	ProcessedItems int
	TotalItems     int
}

func newRunStarted(runID string, targets []integration.MarketplaceID, batchSize int) *RunStartedEvent {
	return &RunStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRunStarted, AggregateType, runID),
		Targets:         targets,
		BatchSize:       batchSize,
		TotalUnits:      batchSize * len(targets),
	}
}

func newUnitFailed(runID string, u unit, msg string) *UnitFailedEvent {
	return &UnitFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUnitFailed, AggregateType, runID),
		SKU:             u.item.SKU,
		Quantity:        u.item.Quantity,
		Marketplace:     u.target,
		Error:           msg,
	}
}

func newRunFinished(runID string, result integration.BulkUploadResult, items []integration.BulkUploadItem) *RunFinishedEvent {
	return &RunFinishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRunFinished, AggregateType, runID),
		Result:          result,
		Items:           items,
	}
}

func newRunCancelled(runID string, processed, total int) *RunCancelledEvent {
	return &RunCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRunCancelled, AggregateType, runID),
		ProcessedItems:  processed,
		TotalItems:      total,
	}
}
