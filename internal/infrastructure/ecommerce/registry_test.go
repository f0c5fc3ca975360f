package ecommerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

func newTestClient(t *testing.T, id integration.MarketplaceID) *SimulatedClient {
	t.Helper()
	c, err := NewSimulatedClient(SimulatedConfig{Marketplace: id}, nil)
	require.NoError(t, err)
	return c
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterClient(newTestClient(t, integration.MarketplaceRipley)))
	require.NoError(t, r.RegisterClient(newTestClient(t, integration.MarketplaceParis)))
	require.NoError(t, r.RegisterAdapter(NewRipleyAdapter(nil)))

	client, err := r.Client(integration.MarketplaceRipley)
	require.NoError(t, err)
	assert.Equal(t, integration.MarketplaceRipley, client.Marketplace())

	adapter, err := r.Adapter(integration.MarketplaceRipley)
	require.NoError(t, err)
	assert.Equal(t, integration.MarketplaceRipley, adapter.Marketplace())

	assert.Equal(t, []integration.MarketplaceID{integration.MarketplaceRipley, integration.MarketplaceParis}, r.Marketplaces())
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterClient(newTestClient(t, integration.MarketplaceWalmart)))

	err := r.RegisterClient(newTestClient(t, integration.MarketplaceWalmart))
	assert.ErrorIs(t, err, integration.ErrMarketplaceAlreadyRegistered)

	_, err = r.Client(integration.MarketplaceOdoo)
	assert.ErrorIs(t, err, integration.ErrMarketplaceNotFound)

	_, err = r.Adapter(integration.MarketplaceWalmart)
	assert.ErrorIs(t, err, integration.ErrAdapterNotFound)

	assert.ErrorIs(t, r.SetConfig(integration.MarketplaceConfig{}), integration.ErrInvalidMarketplace)
}

func TestRegistry_AcceptsNewMarketplace(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterClient(newTestClient(t, "linio")))
	assert.Equal(t, []integration.MarketplaceID{"linio"}, r.Marketplaces())
}

func TestNewSimulatedRegistry(t *testing.T) {
	r, odoo, err := NewSimulatedRegistry(nil, nil)
	require.NoError(t, err)
	require.NotNil(t, odoo)

	assert.Equal(t, integration.AllMarketplaces(), r.Marketplaces())
	for _, id := range integration.AllMarketplaces() {
		_, err := r.Adapter(id)
		assert.NoError(t, err, id)
		cfg, ok := r.Config(id)
		assert.True(t, ok, id)
		assert.Equal(t, id.DisplayName(), cfg.Name)
	}

	odooClient, err := r.Client(integration.MarketplaceOdoo)
	require.NoError(t, err)
	assert.Same(t, odoo, odooClient)
}
