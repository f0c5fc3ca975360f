package integration

import "context"

// MarketplaceClient is the capability every marketplace exposes.
// Implementations live in the infrastructure layer.
type MarketplaceClient interface {
	// Marketplace returns the marketplace this client talks to
	Marketplace() MarketplaceID

	// FetchProducts returns the marketplace's listings in canonical form
	FetchProducts(ctx context.Context) ([]Product, error)

	// FetchOrders returns the marketplace's orders in canonical form
	FetchOrders(ctx context.Context) ([]Order, error)

	// UpdateStock pushes a stock level for sku. A rejected update may be
	// reported either as an error or as a result with Success false.
	UpdateStock(ctx context.Context, sku string, quantity int) (*SyncResult, error)
}

// PayloadAdapter translates a marketplace's native JSON payloads into the canonical model.
// Adapters hold no state between calls.
type PayloadAdapter interface {
	// Marketplace returns the marketplace whose schema this adapter reads
	Marketplace() MarketplaceID

	// MapStatus maps a native order status; unknown values map to OrderStatusPending
	MapStatus(native string) OrderStatus

	// DecodeProduct decodes and adapts one native product payload
	DecodeProduct(raw []byte) (*Product, error)

	// DecodeOrder decodes and adapts one native order payload
	DecodeOrder(raw []byte) (*Order, error)
}

// MarketplaceRegistry looks up clients and adapters by marketplace ID
type MarketplaceRegistry interface {
	// Client returns the client for a marketplace
	Client(id MarketplaceID) (MarketplaceClient, error)

	// Adapter returns the payload adapter for a marketplace
	Adapter(id MarketplaceID) (PayloadAdapter, error)

	// Marketplaces returns every marketplace with a registered client, in registration order
	Marketplaces() []MarketplaceID

	// Config returns the connection settings of a marketplace
	Config(id MarketplaceID) (MarketplaceConfig, bool)
}
