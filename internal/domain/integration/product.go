package integration

import (
	"slices"

	"github.com/shopspring/decimal"
)

// ProductStatus represents the listing status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusPending  ProductStatus = "pending"
)

// IsValid returns true if the status is valid
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusPending:
		return true
	default:
		return false
	}
}

// Product is the canonical product. Stock held here is authoritative;
// every marketplace listing holds an eventually consistent replica.
type Product struct {
	// ID is the identifier assigned by the source system
	ID string
	// SKU is the stock keeping unit, unique across the catalog
	SKU string
	// Name is the product title
	Name string
	// Description is an optional long description
	Description string
	// Category is an optional catalog category
	Category string
	// Price is the list price in the settlement currency
	Price decimal.Decimal
	// Cost is the optional unit cost
	Cost *decimal.Decimal
	// Stock is the available quantity
	Stock int
	// MinStock is the optional reorder threshold
	MinStock *int
	// Status is the listing status
	Status ProductStatus
	// Marketplaces is the set of marketplaces the product is listed on
	Marketplaces []MarketplaceID
}

// Validate checks the product invariants
func (p *Product) Validate() error {
	if p.SKU == "" {
		return ErrEmptySKU
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// ListedOn reports whether the product is listed on the marketplace
func (p *Product) ListedOn(id MarketplaceID) bool {
	return slices.Contains(p.Marketplaces, id)
}

// AddMarketplace adds a marketplace membership, keeping the set free of duplicates
func (p *Product) AddMarketplace(id MarketplaceID) {
	if !p.ListedOn(id) {
		p.Marketplaces = append(p.Marketplaces, id)
	}
}

// IsLowStock reports whether stock is at or below the product's MinStock,
// or at or below fallback when MinStock is unset
func (p *Product) IsLowStock(fallback int) bool {
	if p.MinStock != nil {
		return p.Stock <= *p.MinStock
	}
	return p.Stock <= fallback
}

// StatusFromActive maps a boolean active flag to a product status
func StatusFromActive(active bool) ProductStatus {
	if active {
		return ProductStatusActive
	}
	return ProductStatusInactive
}
