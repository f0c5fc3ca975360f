package bulksync

import (
	"math"
	"slices"
	"time"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// Status is the read model of the orchestrator
type Status struct {
	RunID          string
	IsProcessing   bool
	Cancelled      bool
	Progress       int
	TotalItems     int
	ProcessedItems int
	CurrentItem    string
	Targets        []integration.MarketplaceID
	StartedAt      *time.Time
	FinishedAt     *time.Time
	Result         *integration.BulkUploadResult
	Errors         []string
}

// InitialStatus returns the status of an orchestrator with no run
func InitialStatus() Status {
	return Status{Errors: []string{}}
}

// unit is one (item, target) pair
type unit struct {
	item   integration.BulkUploadItem
	target integration.MarketplaceID
}

// progressOf returns the rounded completion percentage
func progressOf(processed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(processed) * 100 / float64(total)))
}

func cloneResult(r *integration.BulkUploadResult) *integration.BulkUploadResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Errors = slices.Clone(r.Errors)
	return &out
}
