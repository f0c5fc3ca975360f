package store

import (
	"context"
	"sort"
	"sync"

	"github.com/hyperpc/marketsync/internal/domain/saleflow"
)

// FlowRepository is an in-memory saleflow.Repository
type FlowRepository struct {
	mu    sync.RWMutex
	flows map[string]*saleflow.Flow
}

// NewFlowRepository creates an empty flow store
func NewFlowRepository() *FlowRepository {
	return &FlowRepository{flows: make(map[string]*saleflow.Flow)}
}

// Save stores a copy of flow
func (r *FlowRepository) Save(ctx context.Context, flow *saleflow.Flow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[flow.OrderID] = flow.Clone()
	return nil
}

// FindByOrderID returns a copy of the flow for orderID
func (r *FlowRepository) FindByOrderID(ctx context.Context, orderID string) (*saleflow.Flow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	flow, ok := r.flows[orderID]
	if !ok {
		return nil, saleflow.ErrFlowNotFound
	}
	return flow.Clone(), nil
}

// FindAll returns copies of every flow ordered by order id
func (r *FlowRepository) FindAll(ctx context.Context) ([]*saleflow.Flow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]*saleflow.Flow, 0, len(r.flows))
	for _, f := range r.flows {
		out = append(out, f.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

var _ saleflow.Repository = (*FlowRepository)(nil)
