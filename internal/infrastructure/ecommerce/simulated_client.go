package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// ErrSimulatedOrderNotFound is returned when an order is not in the simulated order book
var ErrSimulatedOrderNotFound = errors.New("ecommerce: order not found")

// SimulatedClient is an in-memory marketplace used in place of a real transport.
// It holds a catalog and an order book and rejects stock updates at a configured rate.
type SimulatedClient struct {
	cfg    SimulatedConfig
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	rng      *rand.Rand
	reject   func(sku string, quantity int) bool
	skus     []string
	products map[string]integration.Product
	orders   []integration.Order
}

// SimulatedOption configures a SimulatedClient
type SimulatedOption func(*SimulatedClient)

// WithCatalog seeds the catalog
func WithCatalog(products ...integration.Product) SimulatedOption {
	return func(c *SimulatedClient) {
		for _, p := range products {
			c.putProduct(p)
		}
	}
}

// WithOrders seeds the order book
func WithOrders(orders ...integration.Order) SimulatedOption {
	return func(c *SimulatedClient) {
		c.orders = append(c.orders, orders...)
	}
}

// WithRejectFunc replaces the random rejection decision
func WithRejectFunc(fn func(sku string, quantity int) bool) SimulatedOption {
	return func(c *SimulatedClient) {
		c.reject = fn
	}
}

// WithClock sets the clock stamped on results
func WithClock(now func() time.Time) SimulatedOption {
	return func(c *SimulatedClient) {
		if now != nil {
			c.now = now
		}
	}
}

// NewSimulatedClient creates a simulated client
func NewSimulatedClient(cfg SimulatedConfig, logger *zap.Logger, opts ...SimulatedOption) (*SimulatedClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &SimulatedClient{
		cfg:      cfg,
		logger:   logger.With(zap.String("marketplace", string(cfg.Marketplace))),
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		products: make(map[string]integration.Product),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// putProduct inserts or replaces a catalog entry. Caller holds mu or owns c.
func (c *SimulatedClient) putProduct(p integration.Product) {
	if _, exists := c.products[p.SKU]; !exists {
		c.skus = append(c.skus, p.SKU)
	}
	p.Marketplaces = slices.Clone(p.Marketplaces)
	p.AddMarketplace(c.cfg.Marketplace)
	c.products[p.SKU] = p
}

// wait applies the configured latency, returning early when ctx is done
func (c *SimulatedClient) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.cfg.Latency <= 0 {
		return nil
	}
	timer := time.NewTimer(c.cfg.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Marketplace returns the simulated marketplace id
func (c *SimulatedClient) Marketplace() integration.MarketplaceID {
	return c.cfg.Marketplace
}

// FetchProducts returns a copy of the catalog in insertion order
func (c *SimulatedClient) FetchProducts(ctx context.Context) ([]integration.Product, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]integration.Product, 0, len(c.skus))
	for _, sku := range c.skus {
		p := c.products[sku]
		p.Marketplaces = slices.Clone(p.Marketplaces)
		out = append(out, p)
	}
	return out, nil
}

// FetchOrders returns a copy of the order book
func (c *SimulatedClient) FetchOrders(ctx context.Context) ([]integration.Order, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]integration.Order, len(c.orders))
	for i, o := range c.orders {
		o.Items = slices.Clone(o.Items)
		out[i] = o
	}
	return out, nil
}

// UpdateStock sets the stock of sku. Rejections are reported as an unsuccessful
// SyncResult; only context errors are returned as errors.
func (c *SimulatedClient) UpdateStock(ctx context.Context, sku string, quantity int) (*integration.SyncResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	name := c.cfg.Marketplace.DisplayName()
	at := c.now()
	if quantity < 0 {
		return integration.NewSyncFailure(
			fmt.Sprintf("stock update rejected by %s: %s", name, sku),
			integration.ErrNegativeStock.Error(), at), nil
	}
	if c.rejects(sku, quantity) {
		c.logger.Debug("Simulated stock update rejected", zap.String("sku", sku), zap.Int("quantity", quantity))
		return integration.NewSyncFailure(
			fmt.Sprintf("stock update rejected by %s: %s", name, sku),
			"marketplace API returned an error", at), nil
	}

	if p, ok := c.products[sku]; ok {
		p.Stock = quantity
		c.products[sku] = p
	}
	return integration.NewSyncSuccess(fmt.Sprintf("stock updated on %s: %s = %d", name, sku, quantity), at), nil
}

// rejects decides whether an update fails. Caller holds mu.
func (c *SimulatedClient) rejects(sku string, quantity int) bool {
	if c.reject != nil {
		return c.reject(sku, quantity)
	}
	return c.cfg.FailureRate > 0 && c.rng.Float64() < c.cfg.FailureRate
}

// Stock returns the simulated stock of sku
func (c *SimulatedClient) Stock(sku string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[sku]
	return p.Stock, ok
}

// AddOrder appends an order to the order book
func (c *SimulatedClient) AddOrder(order integration.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = append(c.orders, order)
}

var _ integration.MarketplaceClient = (*SimulatedClient)(nil)

// ---------------------------------------------------------------------------
// Odoo
// ---------------------------------------------------------------------------

// OdooClient is the simulated ERP. Besides the marketplace capability it
// confirms sale orders.
type OdooClient struct {
	*SimulatedClient
}

// NewOdooClient creates a simulated Odoo client
func NewOdooClient(cfg SimulatedConfig, logger *zap.Logger, opts ...SimulatedOption) (*OdooClient, error) {
	cfg.Marketplace = integration.MarketplaceOdoo
	client, err := NewSimulatedClient(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	return &OdooClient{SimulatedClient: client}, nil
}

// ConfirmSaleOrder moves a sale order to completed
func (c *OdooClient) ConfirmSaleOrder(ctx context.Context, orderID string) (*integration.SyncResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.orders {
		if c.orders[i].ID != orderID {
			continue
		}
		at := c.now()
		c.orders[i].Status = integration.OrderStatusCompleted
		c.orders[i].UpdatedAt = &at
		return integration.NewSyncSuccess("sale order confirmed: "+orderID, at), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrSimulatedOrderNotFound, orderID)
}
