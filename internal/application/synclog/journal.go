// Package synclog projects sync lifecycle events into a bounded activity log.
package synclog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/application/bulksync"
	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/shared"
)

// DefaultCapacity is the number of entries kept when no capacity is given
const DefaultCapacity = 500

// Status is the outcome recorded by an entry
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusWarning Status = "warning"
)

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	return s == StatusSuccess || s == StatusError || s == StatusWarning
}

// Actions recorded in the log
const (
	ActionBulkSync    = "bulk_sync"
	ActionUpdateStock = "update_stock"
	ActionPull        = "pull"
)

// Entry is one line of the activity log
type Entry struct {
	ID          string
	Timestamp   time.Time
	Marketplace integration.MarketplaceID
	Action      string
	Status      Status
	Message     string
	Detail      string
}

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	Status      Status
	Marketplace integration.MarketplaceID
	Limit       int
}

func (f Filter) matches(e *Entry) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Marketplace != "" && e.Marketplace != f.Marketplace {
		return false
	}
	return true
}

// Journal keeps the most recent entries in a ring buffer
type Journal struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
	logger  *zap.Logger
}

// NewJournal creates a journal holding at most capacity entries
func NewJournal(capacity int, logger *zap.Logger) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{
		entries: make([]Entry, capacity),
		logger:  logger,
	}
}

// Append records an entry, evicting the oldest one when full
func (j *Journal) Append(e Entry) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[j.next] = e
	j.next = (j.next + 1) % len(j.entries)
	if j.next == 0 {
		j.full = true
	}
}

// Len returns the number of entries held
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.full {
		return len(j.entries)
	}
	return j.next
}

// List returns matching entries, newest first
func (j *Journal) List(f Filter) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	n := j.next
	if j.full {
		n = len(j.entries)
	}
	out := make([]Entry, 0)
	for i := 1; i <= n; i++ {
		e := &j.entries[(j.next-i+len(j.entries))%len(j.entries)]
		if !f.matches(e) {
			continue
		}
		out = append(out, *e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Projection
// ---------------------------------------------------------------------------

// Handle projects a sync event into an entry
func (j *Journal) Handle(_ context.Context, event shared.DomainEvent) error {
	e, ok := project(event)
	if !ok {
		j.logger.Debug("Ignoring event", zap.String("event_type", event.EventType()))
		return nil
	}
	j.Append(e)
	return nil
}

// EventTypes returns the events the journal projects
func (j *Journal) EventTypes() []string {
	return append(bulksync.EventTypes(),
		integration.EventTypeMarketplacePulled,
		integration.EventTypeMarketplacePullFailed,
	)
}

func project(event shared.DomainEvent) (Entry, bool) {
	e := Entry{ID: event.EventID().String(), Timestamp: event.OccurredAt()}

	switch ev := event.(type) {
	case *bulksync.RunStartedEvent:
		e.Action = ActionBulkSync
		e.Status = StatusSuccess
		e.Message = fmt.Sprintf("Bulk sync started: %d items to %d marketplaces", ev.BatchSize, len(ev.Targets))
		e.Detail = joinTargets(ev.Targets)
	case *bulksync.UnitFailedEvent:
		e.Marketplace = ev.Marketplace
		e.Action = ActionUpdateStock
		e.Status = StatusError
		e.Message = fmt.Sprintf("Stock update failed for %s", ev.SKU)
		e.Detail = ev.Error
	case *bulksync.RunFinishedEvent:
		e.Action = ActionBulkSync
		e.Status = StatusSuccess
		if ev.Result.Failed > 0 {
			e.Status = StatusWarning
		}
		e.Message = fmt.Sprintf("Bulk sync finished: %d of %d updates succeeded", ev.Result.Success, ev.Result.Total)
	case *bulksync.RunCancelledEvent:
		e.Action = ActionBulkSync
		e.Status = StatusWarning
		e.Message = fmt.Sprintf("Bulk sync cancelled after %d of %d updates", ev.ProcessedItems, ev.TotalItems)
	case *integration.MarketplacePulledEvent:
		e.Marketplace = ev.Marketplace
		e.Action = ActionPull
		e.Status = StatusSuccess
		e.Message = fmt.Sprintf("Pulled %d orders (%d new) and %d products", ev.Orders, ev.NewOrders, ev.Products)
	case *integration.MarketplacePullFailedEvent:
		e.Marketplace = ev.Marketplace
		e.Action = ActionPull
		e.Status = StatusError
		e.Message = fmt.Sprintf("Pull failed after %d attempts", ev.Attempts)
		e.Detail = ev.Error
	default:
		return Entry{}, false
	}
	return e, true
}

func joinTargets(targets []integration.MarketplaceID) string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.DisplayName()
	}
	return strings.Join(names, ", ")
}

var _ shared.EventHandler = (*Journal)(nil)
