package bulksync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/infrastructure/store"
)

func seedCatalog(t *testing.T, skus ...string) *store.ProductRepository {
	t.Helper()
	repo := store.NewProductRepository()
	for _, sku := range skus {
		require.NoError(t, repo.Save(context.Background(), &integration.Product{SKU: sku, Name: sku, Stock: 50}))
	}
	return repo
}

func stockOf(t *testing.T, repo *store.ProductRepository, sku string) int {
	t.Helper()
	p, err := repo.FindBySKU(context.Background(), sku)
	require.NoError(t, err)
	return p.Stock
}

func TestStockProjector_AppliesFinishedRun(t *testing.T) {
	repo := seedCatalog(t, "A", "B")
	p := NewStockProjector(repo, nil)

	ev := newRunFinished("run-1", integration.BulkUploadResult{Total: 4, Success: 3, Failed: 1}, []integration.BulkUploadItem{
		{SKU: "A", Quantity: 5},
		{SKU: "B", Quantity: 0},
		{SKU: "GHOST", Quantity: 9},
		{SKU: "A", Quantity: 7},
	})

	require.NoError(t, p.Handle(context.Background(), ev))

	assert.Equal(t, 7, stockOf(t, repo, "A"))
	assert.Equal(t, 0, stockOf(t, repo, "B"))
	_, err := repo.FindBySKU(context.Background(), "GHOST")
	assert.ErrorIs(t, err, integration.ErrProductNotFound)
}

func TestStockProjector_IgnoresOtherEvents(t *testing.T) {
	repo := seedCatalog(t, "A")
	p := NewStockProjector(repo, nil)

	require.NoError(t, p.Handle(context.Background(), newRunCancelled("run-1", 1, 2)))
	require.NoError(t, p.Handle(context.Background(), newRunStarted("run-1", []integration.MarketplaceID{m1}, 1)))

	assert.Equal(t, 50, stockOf(t, repo, "A"))
	assert.Equal(t, []string{EventTypeRunFinished}, p.EventTypes())
}

func TestStockProjector_FinishedRunUpdatesCatalog(t *testing.T) {
	repo := seedCatalog(t, "A", "B")
	pub := &recordingPublisher{}
	o := NewOrchestrator(newFakeRegistry(&fakeClient{id: m1}), nil, DefaultConfig(), WithPublisher(pub))

	r, err := o.Start(context.Background(), []integration.BulkUploadItem{{SKU: "A", Quantity: 3}, {SKU: "B", Quantity: 12}}, []integration.MarketplaceID{m1})
	require.NoError(t, err)
	waitDone(t, r)

	var finished *RunFinishedEvent
	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		for _, e := range pub.events {
			if ev, ok := e.(*RunFinishedEvent); ok {
				finished = ev
				return true
			}
		}
		return false
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, NewStockProjector(repo, nil).Handle(context.Background(), finished))
	assert.Equal(t, 3, stockOf(t, repo, "A"))
	assert.Equal(t, 12, stockOf(t, repo, "B"))
}
