package integration

import (
	"fmt"
	"strings"
)

// MarketplaceID identifies an external sales channel or the ERP
type MarketplaceID string

const (
	MarketplaceFalabella    MarketplaceID = "falabella"
	MarketplaceMercadoLibre MarketplaceID = "mercadolibre"
	MarketplaceRipley       MarketplaceID = "ripley"
	MarketplaceParis        MarketplaceID = "paris"
	MarketplaceWalmart      MarketplaceID = "walmart"
	MarketplaceOdoo         MarketplaceID = "odoo"
)

// SalesChannels returns the sales channels in their canonical order.
// This is the default target set of a bulk stock sync.
func SalesChannels() []MarketplaceID {
	return []MarketplaceID{
		MarketplaceFalabella,
		MarketplaceMercadoLibre,
		MarketplaceRipley,
		MarketplaceParis,
		MarketplaceWalmart,
	}
}

// AllMarketplaces returns every known marketplace, the ERP last
func AllMarketplaces() []MarketplaceID {
	return append(SalesChannels(), MarketplaceOdoo)
}

// IsValid returns true if the ID is one of the known marketplaces
func (m MarketplaceID) IsValid() bool {
	switch m {
	case MarketplaceFalabella, MarketplaceMercadoLibre, MarketplaceRipley,
		MarketplaceParis, MarketplaceWalmart, MarketplaceOdoo:
		return true
	default:
		return false
	}
}

// IsSalesChannel returns true for marketplaces that sell to customers (everything but the ERP)
func (m MarketplaceID) IsSalesChannel() bool {
	return m.IsValid() && m != MarketplaceOdoo
}

// String returns the string representation of MarketplaceID
func (m MarketplaceID) String() string {
	return string(m)
}

// DisplayName returns the human-readable name of the marketplace
func (m MarketplaceID) DisplayName() string {
	switch m {
	case MarketplaceFalabella:
		return "Falabella"
	case MarketplaceMercadoLibre:
		return "MercadoLibre"
	case MarketplaceRipley:
		return "Ripley"
	case MarketplaceParis:
		return "Paris"
	case MarketplaceWalmart:
		return "Walmart"
	case MarketplaceOdoo:
		return "Odoo"
	default:
		return string(m)
	}
}

// ParseMarketplaceID normalizes s and returns the matching known marketplace
func ParseMarketplaceID(s string) (MarketplaceID, error) {
	id := MarketplaceID(strings.ToLower(strings.TrimSpace(s)))
	if !id.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMarketplace, s)
	}
	return id, nil
}

// AuthType is the authentication scheme a marketplace API uses
type AuthType string

const (
	AuthTypeOAuth     AuthType = "oauth"
	AuthTypeAPIKey    AuthType = "apikey"
	AuthTypeSignature AuthType = "signature"
)

// MarketplaceConfig describes how a marketplace is reached
type MarketplaceConfig struct {
	// ID is the marketplace identifier
	ID MarketplaceID
	// Name is the display name
	Name string
	// APIURL is the base URL of the marketplace API
	APIURL string
	// Enabled indicates if the marketplace participates in syncs
	Enabled bool
	// AuthType is the authentication scheme
	AuthType AuthType
}
