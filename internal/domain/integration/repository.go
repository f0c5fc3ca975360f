package integration

import (
	"context"
	"errors"
	"strings"
)

// ErrOrderNotFound is returned when an order key is not in the store
var ErrOrderNotFound = errors.New("integration: order not found")

// ErrProductNotFound is returned when a SKU is not in the catalog
var ErrProductNotFound = errors.New("integration: product not found")

// OrderFilter narrows order listings. Zero fields match everything.
type OrderFilter struct {
	Status      OrderStatus
	Marketplace MarketplaceID
}

// Matches reports whether o passes the filter
func (f OrderFilter) Matches(o *Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Marketplace != "" && o.Marketplace != f.Marketplace {
		return false
	}
	return true
}

// ProductFilter narrows catalog listings. Query matches SKU or name,
// case-insensitively. Zero fields match everything.
type ProductFilter struct {
	Query       string
	Marketplace MarketplaceID
}

// Matches reports whether p passes the filter
func (f ProductFilter) Matches(p *Product) bool {
	if f.Marketplace != "" && !p.ListedOn(f.Marketplace) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.SKU), q) || strings.Contains(strings.ToLower(p.Name), q)
}

// OrderRepository stores canonical orders keyed by Order.Key
type OrderRepository interface {
	// Save inserts or replaces an order. It reports whether the order was new.
	Save(ctx context.Context, order *Order) (bool, error)
	FindByKey(ctx context.Context, key string) (*Order, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]Order, error)
}

// ProductRepository stores the canonical catalog keyed by SKU
type ProductRepository interface {
	// Save merges a product into the catalog. Marketplace memberships are unioned
	// and the canonical stock is kept when the SKU already exists.
	Save(ctx context.Context, product *Product) error
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	UpdateStock(ctx context.Context, sku string, stock int) error
}
