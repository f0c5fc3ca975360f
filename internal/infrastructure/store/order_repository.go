package store

import (
	"context"
	"slices"
	"sync"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// OrderRepository is an in-memory integration.OrderRepository
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]integration.Order
}

// NewOrderRepository creates an empty order store
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]integration.Order)}
}

// Save inserts or replaces an order
func (r *OrderRepository) Save(ctx context.Context, order *integration.Order) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key := order.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.orders[key]
	r.orders[key] = cloneOrder(*order)
	return !exists, nil
}

// FindByKey returns the order stored under key
func (r *OrderRepository) FindByKey(ctx context.Context, key string) (*integration.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[key]
	if !ok {
		return nil, integration.ErrOrderNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

// FindAll returns matching orders, newest first
func (r *OrderRepository) FindAll(ctx context.Context, filter integration.OrderFilter) ([]integration.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]integration.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.Matches(&o) {
			out = append(out, cloneOrder(o))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b integration.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.Key() < b.Key() {
			return -1
		}
		if a.Key() > b.Key() {
			return 1
		}
		return 0
	})
	return out, nil
}

// Count returns the number of stored orders
func (r *OrderRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

func cloneOrder(o integration.Order) integration.Order {
	o.Items = slices.Clone(o.Items)
	if o.UpdatedAt != nil {
		t := *o.UpdatedAt
		o.UpdatedAt = &t
	}
	if o.ShippingAddress != nil {
		a := *o.ShippingAddress
		o.ShippingAddress = &a
	}
	if o.BillingAddress != nil {
		a := *o.BillingAddress
		o.BillingAddress = &a
	}
	return o
}

var _ integration.OrderRepository = (*OrderRepository)(nil)
