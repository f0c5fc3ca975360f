package saleflow

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Repository persists flows keyed by order ID
type Repository interface {
	// Save creates or replaces a flow
	Save(ctx context.Context, flow *Flow) error
	// FindByOrderID returns the flow of an order or ErrFlowNotFound
	FindByOrderID(ctx context.Context, orderID string) (*Flow, error)
	// FindAll returns every tracked flow
	FindAll(ctx context.Context) ([]*Flow, error)
}

// Tracker records step outcomes reported by the order pipeline and answers
// queries about where each order is. It never drives the pipeline itself.
type Tracker struct {
	repo Repository
	now  func() time.Time
	mu   sync.Mutex
}

// NewTracker creates a tracker backed by repo
func NewTracker(repo Repository) *Tracker {
	return &Tracker{repo: repo, now: time.Now}
}

// Track starts tracking an order, returning the existing flow if one is already tracked
func (t *Tracker) Track(ctx context.Context, orderID string) (*Flow, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if f, err := t.repo.FindByOrderID(ctx, orderID); err == nil {
		return f.Clone(), nil
	}
	f := NewFlow(orderID)
	if err := t.repo.Save(ctx, f); err != nil {
		return nil, err
	}
	return f.Clone(), nil
}

// Record sets the outcome of one step of an order, creating the flow if needed
func (t *Tracker) Record(ctx context.Context, orderID string, step Step, status StepStatus, detail string) (*Flow, error) {
	return t.update(ctx, orderID, func(f *Flow) error {
		return f.Record(step, status, t.now(), detail)
	})
}

// Retry returns a failed step of an order to pending
func (t *Tracker) Retry(ctx context.Context, orderID string, step Step) (*Flow, error) {
	return t.update(ctx, orderID, func(f *Flow) error {
		return f.Retry(step)
	})
}

// Flow returns a snapshot of an order's flow
func (t *Tracker) Flow(ctx context.Context, orderID string) (*Flow, error) {
	f, err := t.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return f.Clone(), nil
}

// CurrentStep returns the step an order is waiting on
func (t *Tracker) CurrentStep(ctx context.Context, orderID string) (Step, error) {
	f, err := t.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return "", err
	}
	return f.CurrentStep(), nil
}

// IsHealthy returns true if no step of the order has failed
func (t *Tracker) IsHealthy(ctx context.Context, orderID string) (bool, error) {
	f, err := t.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return false, err
	}
	return f.IsHealthy(), nil
}

// Unhealthy returns the flows that have a failed step
func (t *Tracker) Unhealthy(ctx context.Context) ([]*Flow, error) {
	all, err := t.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Flow, 0)
	for _, f := range all {
		if !f.IsHealthy() {
			out = append(out, f.Clone())
		}
	}
	return out, nil
}

func (t *Tracker) update(ctx context.Context, orderID string, fn func(*Flow) error) (*Flow, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := t.repo.FindByOrderID(ctx, orderID)
	switch {
	case errors.Is(err, ErrFlowNotFound):
		f = NewFlow(orderID)
	case err != nil:
		return nil, err
	default:
		f = f.Clone()
	}
	if err := fn(f); err != nil {
		return nil, err
	}
	if err := t.repo.Save(ctx, f); err != nil {
		return nil, err
	}
	return f.Clone(), nil
}
