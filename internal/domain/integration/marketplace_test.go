package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketplaceID_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		id       MarketplaceID
		expected bool
	}{
		{"Falabella valid", MarketplaceFalabella, true},
		{"MercadoLibre valid", MarketplaceMercadoLibre, true},
		{"Ripley valid", MarketplaceRipley, true},
		{"Paris valid", MarketplaceParis, true},
		{"Walmart valid", MarketplaceWalmart, true},
		{"Odoo valid", MarketplaceOdoo, true},
		{"Invalid id", MarketplaceID("amazon"), false},
		{"Empty id", MarketplaceID(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.id.IsValid())
		})
	}
}

func TestMarketplaceID_IsSalesChannel(t *testing.T) {
	for _, id := range SalesChannels() {
		assert.True(t, id.IsSalesChannel(), id)
	}
	assert.False(t, MarketplaceOdoo.IsSalesChannel())
	assert.False(t, MarketplaceID("unknown").IsSalesChannel())
}

func TestMarketplaceID_DisplayName(t *testing.T) {
	tests := []struct {
		id       MarketplaceID
		expected string
	}{
		{MarketplaceFalabella, "Falabella"},
		{MarketplaceMercadoLibre, "MercadoLibre"},
		{MarketplaceRipley, "Ripley"},
		{MarketplaceParis, "Paris"},
		{MarketplaceWalmart, "Walmart"},
		{MarketplaceOdoo, "Odoo"},
		{MarketplaceID("M1"), "M1"},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.id.DisplayName())
		})
	}
}

func TestSalesChannels_Order(t *testing.T) {
	assert.Equal(t, []MarketplaceID{
		MarketplaceFalabella,
		MarketplaceMercadoLibre,
		MarketplaceRipley,
		MarketplaceParis,
		MarketplaceWalmart,
	}, SalesChannels())
	assert.Len(t, AllMarketplaces(), 6)
	assert.Equal(t, MarketplaceOdoo, AllMarketplaces()[5])
}

func TestParseMarketplaceID(t *testing.T) {
	id, err := ParseMarketplaceID("  MercadoLibre ")
	require.NoError(t, err)
	assert.Equal(t, MarketplaceMercadoLibre, id)

	_, err = ParseMarketplaceID("ebay")
	assert.ErrorIs(t, err, ErrInvalidMarketplace)
}
