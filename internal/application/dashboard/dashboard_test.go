package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpc/marketsync/internal/application/bulksync"
	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/shared"
	"github.com/hyperpc/marketsync/internal/infrastructure/store"
)

var day = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func order(id string, m integration.MarketplaceID, status integration.OrderStatus, total int64, at time.Time) integration.Order {
	item, _ := integration.NewOrderItem("ZOR553", "PC Gamer", 1, decimal.NewFromInt(total))
	o := integration.Order{
		ID:          id,
		Marketplace: m,
		Items:       []integration.OrderItem{item},
		Status:      status,
		CreatedAt:   at,
		Currency:    integration.SettlementCurrency,
	}
	o.RecalculateTotal()
	return o
}

func intPtr(n int) *int { return &n }

// ---------------------------------------------------------------------------
// Aggregation
// ---------------------------------------------------------------------------

func TestCompute(t *testing.T) {
	orders := []integration.Order{
		order("1", integration.MarketplaceFalabella, integration.OrderStatusPending, 1000, day),
		order("2", integration.MarketplaceFalabella, integration.OrderStatusProcessing, 2500, day),
		order("3", integration.MarketplaceRipley, integration.OrderStatusError, 300, day),
		order("4", integration.MarketplaceParis, integration.OrderStatusCompleted, 200, day),
		order("5", integration.MarketplaceParis, integration.OrderStatusCancelled, 0, day),
	}

	s := Compute(orders)
	assert.Equal(t, 5, s.TotalSales)
	assert.True(t, decimal.NewFromInt(4000).Equal(s.TotalAmount))
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 2, s.PendingOrders)
	assert.Equal(t, map[integration.MarketplaceID]int{
		integration.MarketplaceFalabella: 2,
		integration.MarketplaceRipley:    1,
		integration.MarketplaceParis:     2,
	}, s.OrdersByMarketplace)

	// recomputing from the same input gives the same answer
	again := Compute(orders)
	assert.Equal(t, s.TotalSales, again.TotalSales)
	assert.True(t, s.TotalAmount.Equal(again.TotalAmount))
	assert.Equal(t, s.OrdersByMarketplace, again.OrdersByMarketplace)
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil)
	assert.Zero(t, s.TotalSales)
	assert.True(t, s.TotalAmount.IsZero())
	assert.Empty(t, s.OrdersByMarketplace)
}

func TestFilterByDate(t *testing.T) {
	orders := []integration.Order{
		order("1", integration.MarketplaceWalmart, integration.OrderStatusPending, 10, day.Add(9*time.Hour)),
		order("2", integration.MarketplaceWalmart, integration.OrderStatusPending, 10, day.Add(-time.Hour)),
		order("3", integration.MarketplaceWalmart, integration.OrderStatusPending, 10, day.Add(23*time.Hour+59*time.Minute)),
	}

	t.Run("matches calendar day", func(t *testing.T) {
		got, matched := FilterByDate(orders, day)
		assert.True(t, matched)
		require.Len(t, got, 2)
		assert.Equal(t, "1", got[0].ID)
		assert.Equal(t, "3", got[1].ID)
	})

	t.Run("falls back to all orders", func(t *testing.T) {
		got, matched := FilterByDate(orders, day.AddDate(0, 0, 5))
		assert.False(t, matched)
		assert.Len(t, got, 3)
	})

	t.Run("evaluates the day in its own location", func(t *testing.T) {
		loc := time.FixedZone("CLT", -3*3600)
		local := time.Date(2026, 3, 13, 0, 0, 0, 0, loc)
		got, matched := FilterByDate(orders, local)
		assert.True(t, matched)
		require.Len(t, got, 1)
		assert.Equal(t, "2", got[0].ID)
	})
}

func TestFilterAndCountByStatus(t *testing.T) {
	orders := []integration.Order{
		order("1", integration.MarketplaceRipley, integration.OrderStatusError, 10, day),
		order("2", integration.MarketplaceParis, integration.OrderStatusError, 10, day),
		order("3", integration.MarketplaceParis, integration.OrderStatusCompleted, 10, day),
	}

	got := Filter(orders, integration.OrderFilter{Status: integration.OrderStatusError, Marketplace: integration.MarketplaceParis})
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	counts := CountByStatus(orders)
	assert.Equal(t, 2, counts[integration.OrderStatusError])
	assert.Equal(t, 1, counts[integration.OrderStatusCompleted])
}

func TestLowStockCount(t *testing.T) {
	products := []integration.Product{
		{SKU: "A", Stock: 2, MinStock: intPtr(3)},
		{SKU: "B", Stock: 10, MinStock: intPtr(3)},
		{SKU: "C", Stock: 5},
		{SKU: "D", Stock: 6},
	}
	assert.Equal(t, 2, LowStockCount(products, 5))
	assert.Equal(t, 1, LowStockCount(products, 0))
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

func newService(t *testing.T) (*Service, *store.OrderRepository) {
	t.Helper()
	ctx := context.Background()
	orders := store.NewOrderRepository()
	products := store.NewProductRepository()

	for _, o := range []integration.Order{
		order("1", integration.MarketplaceFalabella, integration.OrderStatusPending, 1000, day.Add(10*time.Hour)),
		order("2", integration.MarketplaceRipley, integration.OrderStatusError, 500, day.Add(11*time.Hour)),
		order("3", integration.MarketplaceRipley, integration.OrderStatusCompleted, 700, day.AddDate(0, 0, -1)),
	} {
		_, err := orders.Save(ctx, &o)
		require.NoError(t, err)
	}
	require.NoError(t, products.Save(ctx, &integration.Product{SKU: "ZOR553", Name: "PC", Stock: 1, MinStock: intPtr(2)}))
	require.NoError(t, products.Save(ctx, &integration.Product{SKU: "MOU-123", Name: "Mouse", Stock: 40}))

	svc := NewService(orders, products, nil, WithNow(func() time.Time { return day.Add(12 * time.Hour) }))
	return svc, orders
}

func TestService_Summary(t *testing.T) {
	svc, _ := newService(t)

	s, err := svc.Summary(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, s.DateMatched)
	assert.Equal(t, 2, s.TotalSales)
	assert.True(t, decimal.NewFromInt(1500).Equal(s.TotalAmount))
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 1, s.PendingOrders)
	assert.Equal(t, 1, s.LowStockCount)
	assert.Nil(t, s.LastSync)

	other := day.AddDate(0, 1, 0)
	s, err = svc.Summary(context.Background(), &other)
	require.NoError(t, err)
	assert.False(t, s.DateMatched)
	assert.Equal(t, 3, s.TotalSales)
}

func TestService_LowStock(t *testing.T) {
	svc, _ := newService(t)

	got, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ZOR553", got[0].SKU)
}

func TestService_LastSyncFromEvents(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	ev := &bulksync.RunFinishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(bulksync.EventTypeRunFinished, bulksync.AggregateType, "run-1"),
	}
	require.NoError(t, svc.Handle(ctx, ev))

	last := svc.LastSync()
	require.NotNil(t, last)
	assert.Equal(t, ev.OccurredAt(), *last)

	// an older pull does not move lastSync backwards
	svc.MarkSynced(ev.OccurredAt().Add(-time.Hour))
	assert.Equal(t, ev.OccurredAt(), *svc.LastSync())

	pulled := integration.NewMarketplacePulledEvent(integration.MarketplaceRipley, 3, 1, 4)
	pulled.Timestamp = ev.OccurredAt().Add(time.Minute)
	require.NoError(t, svc.Handle(ctx, pulled))
	assert.Equal(t, pulled.Timestamp, *svc.LastSync())

	assert.ElementsMatch(t, []string{bulksync.EventTypeRunFinished, integration.EventTypeMarketplacePulled}, svc.EventTypes())
}
