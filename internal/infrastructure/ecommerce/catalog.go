package ecommerce

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// SeedProducts returns the demo catalog the simulated marketplaces start with
func SeedProducts() []integration.Product {
	product := func(id, sku, name, category string, price, cost int64, stock, minStock int, on ...integration.MarketplaceID) integration.Product {
		c := decimal.NewFromInt(cost)
		m := minStock
		return integration.Product{
			ID:           id,
			SKU:          sku,
			Name:         name,
			Category:     category,
			Price:        decimal.NewFromInt(price),
			Cost:         &c,
			Stock:        stock,
			MinStock:     &m,
			Status:       integration.ProductStatusActive,
			Marketplaces: on,
		}
	}
	return []integration.Product{
		product("prod-001", "ZOR553", "PC Gamer HyperPC Pro", "Computadores", 843980, 750000, 15, 5,
			integration.MarketplaceFalabella, integration.MarketplaceMercadoLibre, integration.MarketplaceRipley),
		product("prod-002", "ZOR554", "Notebook Gaming RTX 4060", "Notebooks", 599990, 520000, 8, 3,
			integration.MarketplaceFalabella, integration.MarketplaceMercadoLibre, integration.MarketplaceParis, integration.MarketplaceWalmart),
		product("prod-003", "MON-001", "Monitor 27\" 165Hz Gaming", "Monitores", 249990, 195000, 3, 5,
			integration.MarketplaceRipley, integration.MarketplaceFalabella, integration.MarketplaceMercadoLibre),
		product("prod-004", "TEC-045", "Teclado Mecánico RGB HyperPC", "Periféricos", 89990, 65000, 25, 10,
			integration.MarketplaceFalabella, integration.MarketplaceParis, integration.MarketplaceWalmart),
		product("prod-005", "MOU-123", "Mouse Gamer Logitech G502", "Periféricos", 45990, 35000, 42, 15,
			integration.MarketplaceWalmart, integration.MarketplaceMercadoLibre, integration.MarketplaceRipley),
	}
}

// seedCatalogFor returns the seed products listed on id. Odoo carries the whole catalog.
func seedCatalogFor(id integration.MarketplaceID) []integration.Product {
	all := SeedProducts()
	if id == integration.MarketplaceOdoo {
		return all
	}
	listed := make([]integration.Product, 0, len(all))
	for _, p := range all {
		if p.ListedOn(id) {
			listed = append(listed, p)
		}
	}
	return listed
}

// seedOrdersFor builds one order per listed product, alternating open and closed statuses
func seedOrdersFor(id integration.MarketplaceID, now time.Time) []integration.Order {
	statuses := []integration.OrderStatus{
		integration.OrderStatusCompleted,
		integration.OrderStatusPending,
		integration.OrderStatusProcessing,
	}
	var orders []integration.Order
	for i, p := range seedCatalogFor(id) {
		item, err := integration.NewOrderItem(p.SKU, p.Name, 1, p.Price)
		if err != nil {
			continue
		}
		order := integration.Order{
			ID:              uuid.NewString(),
			ExternalOrderID: uuid.NewString(),
			Marketplace:     id,
			Customer:        integration.Customer{Name: "Cliente " + p.SKU},
			Items:           []integration.OrderItem{item},
			Currency:        integration.SettlementCurrency,
			Status:          statuses[i%len(statuses)],
			CreatedAt:       now.Add(-time.Duration(i+1) * time.Hour),
		}
		order.RecalculateTotal()
		orders = append(orders, order)
	}
	return orders
}

// NewSimulatedRegistry builds a registry with a simulated client, the payload
// adapter and the display config of every known marketplace. Missing entries in
// configs fall back to DefaultSimulatedConfig.
func NewSimulatedRegistry(configs map[integration.MarketplaceID]SimulatedConfig, logger *zap.Logger) (*Registry, *OdooClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := NewRegistry()
	now := time.Now()

	var odoo *OdooClient
	for _, id := range integration.AllMarketplaces() {
		cfg, ok := configs[id]
		if !ok {
			cfg = DefaultSimulatedConfig(id)
		}
		cfg.Marketplace = id
		opts := []SimulatedOption{
			WithCatalog(seedCatalogFor(id)...),
			WithOrders(seedOrdersFor(id, now)...),
		}

		var client integration.MarketplaceClient
		if id == integration.MarketplaceOdoo {
			c, err := NewOdooClient(cfg, logger, opts...)
			if err != nil {
				return nil, nil, err
			}
			odoo, client = c, c
		} else {
			c, err := NewSimulatedClient(cfg, logger, opts...)
			if err != nil {
				return nil, nil, err
			}
			client = c
		}
		if err := registry.RegisterClient(client); err != nil {
			return nil, nil, err
		}
	}
	for _, adapter := range DefaultAdapters(logger) {
		if err := registry.RegisterAdapter(adapter); err != nil {
			return nil, nil, err
		}
	}
	for _, cfg := range DefaultConfigs() {
		if err := registry.SetConfig(cfg); err != nil {
			return nil, nil, err
		}
	}
	return registry, odoo, nil
}
