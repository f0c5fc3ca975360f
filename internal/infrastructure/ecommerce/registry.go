package ecommerce

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// Registry is the in-memory marketplace registry keyed by marketplace id.
// Clients, payload adapters and display configs are registered independently.
type Registry struct {
	mu       sync.RWMutex
	order    []integration.MarketplaceID
	clients  map[integration.MarketplaceID]integration.MarketplaceClient
	adapters map[integration.MarketplaceID]integration.PayloadAdapter
	configs  map[integration.MarketplaceID]integration.MarketplaceConfig
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		clients:  make(map[integration.MarketplaceID]integration.MarketplaceClient),
		adapters: make(map[integration.MarketplaceID]integration.PayloadAdapter),
		configs:  make(map[integration.MarketplaceID]integration.MarketplaceConfig),
	}
}

// track records first-seen order. Caller holds mu.
func (r *Registry) track(id integration.MarketplaceID) {
	_, hasClient := r.clients[id]
	_, hasAdapter := r.adapters[id]
	_, hasConfig := r.configs[id]
	if !hasClient && !hasAdapter && !hasConfig {
		r.order = append(r.order, id)
	}
}

// RegisterClient registers the client for its marketplace
func (r *Registry) RegisterClient(client integration.MarketplaceClient) error {
	id := client.Marketplace()
	if id == "" {
		return integration.ErrInvalidMarketplace
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[id]; exists {
		return fmt.Errorf("%w: client for %s", integration.ErrMarketplaceAlreadyRegistered, id)
	}
	r.track(id)
	r.clients[id] = client
	return nil
}

// RegisterAdapter registers the payload adapter for its marketplace
func (r *Registry) RegisterAdapter(adapter integration.PayloadAdapter) error {
	id := adapter.Marketplace()
	if id == "" {
		return integration.ErrInvalidMarketplace
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("%w: adapter for %s", integration.ErrMarketplaceAlreadyRegistered, id)
	}
	r.track(id)
	r.adapters[id] = adapter
	return nil
}

// SetConfig stores the display configuration of a marketplace, replacing any previous one
func (r *Registry) SetConfig(cfg integration.MarketplaceConfig) error {
	if cfg.ID == "" {
		return integration.ErrInvalidMarketplace
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track(cfg.ID)
	r.configs[cfg.ID] = cfg
	return nil
}

// Client returns the client registered for id
func (r *Registry) Client(id integration.MarketplaceID) (integration.MarketplaceClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrMarketplaceNotFound, id)
	}
	return client, nil
}

// Adapter returns the payload adapter registered for id
func (r *Registry) Adapter(id integration.MarketplaceID) (integration.PayloadAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrAdapterNotFound, id)
	}
	return adapter, nil
}

// Marketplaces returns every marketplace with a registered client, in registration order
func (r *Registry) Marketplaces() []integration.MarketplaceID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]integration.MarketplaceID, 0, len(r.clients))
	for _, id := range r.order {
		if _, ok := r.clients[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Config returns the display configuration of id
func (r *Registry) Config(id integration.MarketplaceID) (integration.MarketplaceConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[id]
	return cfg, ok
}

var _ integration.MarketplaceRegistry = (*Registry)(nil)

// DefaultAdapters returns one payload adapter per known marketplace
func DefaultAdapters(logger *zap.Logger) []integration.PayloadAdapter {
	return []integration.PayloadAdapter{
		NewFalabellaAdapter(logger),
		NewMercadoLibreAdapter(logger),
		NewRipleyAdapter(logger),
		NewParisAdapter(logger),
		NewWalmartAdapter(logger),
		NewOdooAdapter(logger),
	}
}

// DefaultConfigs returns the display configuration of every known marketplace
func DefaultConfigs() []integration.MarketplaceConfig {
	return []integration.MarketplaceConfig{
		{ID: integration.MarketplaceFalabella, Name: "Falabella", APIURL: "https://sellercenter-api.falabella.com", Enabled: true, AuthType: integration.AuthTypeSignature},
		{ID: integration.MarketplaceMercadoLibre, Name: "MercadoLibre", APIURL: "https://api.mercadolibre.com", Enabled: true, AuthType: integration.AuthTypeOAuth},
		{ID: integration.MarketplaceRipley, Name: "Ripley", APIURL: "https://ripley-prod.mirakl.net/api", Enabled: true, AuthType: integration.AuthTypeAPIKey},
		{ID: integration.MarketplaceParis, Name: "Paris", APIURL: "https://api-developers.ecomm.cencosud.com", Enabled: true, AuthType: integration.AuthTypeAPIKey},
		{ID: integration.MarketplaceWalmart, Name: "Walmart", APIURL: "https://marketplace.walmartapis.com", Enabled: true, AuthType: integration.AuthTypeOAuth},
		{ID: integration.MarketplaceOdoo, Name: "Odoo", APIURL: "http://localhost:8069/jsonrpc", Enabled: true, AuthType: integration.AuthTypeAPIKey},
	}
}
