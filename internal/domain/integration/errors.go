package integration

import "errors"

// ---------------------------------------------------------------------------
// Marketplace errors
// ---------------------------------------------------------------------------

var (
	// ErrMarketplaceNotFound is returned when no client is registered for a marketplace
	ErrMarketplaceNotFound = errors.New("integration: marketplace not found")
	// ErrAdapterNotFound is returned when no payload adapter is registered for a marketplace
	ErrAdapterNotFound = errors.New("integration: payload adapter not found")
	// ErrInvalidMarketplace is returned for an unknown or empty marketplace identifier
	ErrInvalidMarketplace = errors.New("integration: invalid marketplace")
	// ErrMarketplaceAlreadyRegistered is returned on duplicate registration
	ErrMarketplaceAlreadyRegistered = errors.New("integration: marketplace already registered")
	// ErrMarketplaceUnavailable is returned when a marketplace cannot be reached
	ErrMarketplaceUnavailable = errors.New("integration: marketplace unavailable")
)

// ---------------------------------------------------------------------------
// Canonical model errors
// ---------------------------------------------------------------------------

var (
	// ErrEmptySKU is returned when a product or item has no SKU
	ErrEmptySKU = errors.New("integration: sku is required")
	// ErrNegativeStock is returned when a stock level is below zero
	ErrNegativeStock = errors.New("integration: stock cannot be negative")
	// ErrNegativePrice is returned when a price is below zero
	ErrNegativePrice = errors.New("integration: price cannot be negative")
	// ErrInvalidQuantity is returned when an order item quantity is not positive
	ErrInvalidQuantity = errors.New("integration: quantity must be positive")
	// ErrZeroQuantity is returned when a per-unit price would be derived from a zero quantity
	ErrZeroQuantity = errors.New("integration: cannot derive unit price from zero quantity")
	// ErrEmptyOrder is returned when an order has no items
	ErrEmptyOrder = errors.New("integration: order has no items")
	// ErrInvalidPayload is returned when a native payload cannot be decoded
	ErrInvalidPayload = errors.New("integration: invalid marketplace payload")
	// ErrInvalidPrice is returned when a native price string cannot be parsed
	ErrInvalidPrice = errors.New("integration: invalid price")
)
