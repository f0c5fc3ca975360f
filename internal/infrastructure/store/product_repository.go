package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// ProductRepository is an in-memory integration.ProductRepository.
// The canonical stock is authoritative: merging a marketplace replica never overwrites it.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]integration.Product
}

// NewProductRepository creates an empty catalog
func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]integration.Product)}
}

// Save merges product into the catalog
func (r *ProductRepository) Save(ctx context.Context, product *integration.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := product.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.SKU]
	if !ok {
		r.products[product.SKU] = cloneProduct(*product)
		return nil
	}
	for _, m := range product.Marketplaces {
		existing.AddMarketplace(m)
	}
	if existing.Name == "" {
		existing.Name = product.Name
	}
	if existing.Description == "" {
		existing.Description = product.Description
	}
	if existing.Category == "" {
		existing.Category = product.Category
	}
	if existing.MinStock == nil && product.MinStock != nil {
		m := *product.MinStock
		existing.MinStock = &m
	}
	r.products[product.SKU] = existing
	return nil
}

// FindBySKU returns the catalog entry for sku
func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (*integration.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[sku]
	if !ok {
		return nil, integration.ErrProductNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

// FindAll returns the catalog ordered by SKU
func (r *ProductRepository) FindAll(ctx context.Context) ([]integration.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]integration.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, cloneProduct(p))
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b integration.Product) int {
		return strings.Compare(a.SKU, b.SKU)
	})
	return out, nil
}

// UpdateStock sets the canonical stock of sku
func (r *ProductRepository) UpdateStock(ctx context.Context, sku string, stock int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if stock < 0 {
		return integration.ErrNegativeStock
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[sku]
	if !ok {
		return integration.ErrProductNotFound
	}
	p.Stock = stock
	r.products[sku] = p
	return nil
}

func cloneProduct(p integration.Product) integration.Product {
	p.Marketplaces = slices.Clone(p.Marketplaces)
	if p.Cost != nil {
		c := *p.Cost
		p.Cost = &c
	}
	if p.MinStock != nil {
		m := *p.MinStock
		p.MinStock = &m
	}
	return p
}

var _ integration.ProductRepository = (*ProductRepository)(nil)
