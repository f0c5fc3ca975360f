package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpc/marketsync/internal/application/dashboard"
	"github.com/hyperpc/marketsync/internal/application/synclog"
	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/infrastructure/store"
	"github.com/hyperpc/marketsync/internal/interfaces/http/dto"
)

var dashboardDay = time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC)

func testOrder(t *testing.T, m integration.MarketplaceID, id string, status integration.OrderStatus, createdAt time.Time, price int64) integration.Order {
	t.Helper()
	item, err := integration.NewOrderItem("SKU-"+id, "Item "+id, 1, decimal.NewFromInt(price))
	require.NoError(t, err)
	o := integration.Order{
		ID:          id,
		Marketplace: m,
		Customer:    integration.Customer{Name: "Cliente " + id},
		Items:       []integration.OrderItem{item},
		Currency:    integration.SettlementCurrency,
		Status:      status,
		CreatedAt:   createdAt,
	}
	o.RecalculateTotal()
	return o
}

func newDashboardRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ctx := context.Background()
	orders := store.NewOrderRepository()
	products := store.NewProductRepository()

	for _, o := range []integration.Order{
		testOrder(t, integration.MarketplaceMercadoLibre, "1", integration.OrderStatusCompleted, dashboardDay, 1000),
		testOrder(t, integration.MarketplaceMercadoLibre, "2", integration.OrderStatusPending, dashboardDay.Add(time.Hour), 500),
		testOrder(t, integration.MarketplaceRipley, "3", integration.OrderStatusError, dashboardDay.Add(-2*time.Hour), 250),
		testOrder(t, integration.MarketplaceParis, "4", integration.OrderStatusCompleted, dashboardDay.AddDate(0, 0, -3), 4000),
	} {
		_, err := orders.Save(ctx, &o)
		require.NoError(t, err)
	}

	minStock := 10
	for _, p := range []integration.Product{
		{ID: "p1", SKU: "LOW-1", Name: "Low", Price: decimal.NewFromInt(10), Stock: 2},
		{ID: "p2", SKU: "OK-1", Name: "Fine", Price: decimal.NewFromInt(10), Stock: 50},
		{ID: "p3", SKU: "MIN-1", Name: "Below min", Price: decimal.NewFromInt(10), Stock: 8, MinStock: &minStock},
	} {
		require.NoError(t, products.Save(ctx, &p))
	}

	svc := dashboard.NewService(orders, products, nil,
		dashboard.WithLowStockThreshold(5),
		dashboard.WithNow(func() time.Time { return dashboardDay }),
	)
	h := NewDashboardHandler(svc)

	r := gin.New()
	r.GET("/dashboard/stats", h.Stats)
	r.GET("/dashboard/orders", h.Orders)
	r.GET("/dashboard/low-stock", h.LowStock)
	return r
}

func TestDashboardHandler_Stats(t *testing.T) {
	r := newDashboardRouter(t)

	tests := []struct {
		name        string
		query       string
		wantDate    string
		wantMatched bool
		wantSales   int
		wantAmount  string
	}{
		{"today by default", "", "2026-03-12", true, 3, "1750"},
		{"explicit day", "?date=2026-03-09", "2026-03-09", true, 1, "4000"},
		{"no orders falls back to all", "?date=2026-01-01", "2026-01-01", false, 4, "5750"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, httptest.NewRequest(http.MethodGet, "/dashboard/stats"+tt.query, nil))

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var stats dto.StatsResponse
			decodeData(t, w, &stats)
			assert.Equal(t, tt.wantDate, stats.Date)
			assert.Equal(t, tt.wantMatched, stats.DateMatched)
			assert.Equal(t, tt.wantSales, stats.TotalSales)
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(stats.TotalAmount), stats.TotalAmount.String())
			assert.Equal(t, 2, stats.LowStockCount)
		})
	}

	t.Run("counts for the day", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/dashboard/stats?date=2026-03-12", nil))
		var stats dto.StatsResponse
		decodeData(t, w, &stats)
		assert.Equal(t, 1, stats.Errors)
		assert.Equal(t, 1, stats.PendingOrders)
		assert.Equal(t, map[string]int{"mercadolibre": 2, "ripley": 1}, stats.OrdersByMarketplace)
	})

	t.Run("malformed date", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/dashboard/stats?date=12-03-2026", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
	})
}

func TestDashboardHandler_Orders(t *testing.T) {
	r := newDashboardRouter(t)

	t.Run("newest first with meta", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/dashboard/orders?page_size=2", nil))

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(4), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.TotalPages)

		var orders []dto.OrderResponse
		decodeData(t, w, &orders)
		require.Len(t, orders, 2)
		assert.Equal(t, "2", orders[0].ID)
		assert.Equal(t, "1", orders[1].ID)
	})

	t.Run("second page", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/dashboard/orders?page=2&page_size=3", nil))
		var orders []dto.OrderResponse
		decodeData(t, w, &orders)
		require.Len(t, orders, 1)
		assert.Equal(t, "4", orders[0].ID)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/dashboard/orders?page=9", nil))
		var orders []dto.OrderResponse
		decodeData(t, w, &orders)
		assert.Empty(t, orders)
	})

	t.Run("filters", func(t *testing.T) {
		tests := []struct {
			query string
			want  []string
		}{
			{"?status=completed", []string{"1", "4"}},
			{"?marketplace=MercadoLibre", []string{"2", "1"}},
			{"?status=error&marketplace=ripley", []string{"3"}},
			{"?status=cancelled", []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.query, func(t *testing.T) {
				w := serve(r, httptest.NewRequest(http.MethodGet, "/dashboard/orders"+tt.query, nil))
				require.Equal(t, http.StatusOK, w.Code)
				var orders []dto.OrderResponse
				decodeData(t, w, &orders)
				ids := make([]string, 0, len(orders))
				for _, o := range orders {
					ids = append(ids, o.ID)
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})

	t.Run("invalid filters", func(t *testing.T) {
		for _, q := range []string{"?status=shipped", "?marketplace=amazon", "?page_size=1000"} {
			w := serve(r, httptest.NewRequest(http.MethodGet, "/dashboard/orders"+q, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})
}

func TestDashboardHandler_LowStock(t *testing.T) {
	r := newDashboardRouter(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/dashboard/low-stock", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var products []dto.ProductResponse
	decodeData(t, w, &products)
	skus := make([]string, 0, len(products))
	for _, p := range products {
		skus = append(skus, p.SKU)
	}
	assert.ElementsMatch(t, []string{"LOW-1", "MIN-1"}, skus)
}

func TestLogHandler_List(t *testing.T) {
	journal := synclog.NewJournal(10, nil)
	journal.Append(synclog.Entry{ID: "1", Marketplace: integration.MarketplaceRipley, Action: synclog.ActionUpdateStock, Status: synclog.StatusError, Message: "rejected"})
	journal.Append(synclog.Entry{ID: "2", Action: synclog.ActionBulkSync, Status: synclog.StatusSuccess, Message: "done"})
	journal.Append(synclog.Entry{ID: "3", Marketplace: integration.MarketplaceParis, Action: synclog.ActionUpdateStock, Status: synclog.StatusError, Message: "rejected"})

	r := gin.New()
	r.GET("/logs", NewLogHandler(journal).List)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"3", "2", "1"}},
		{"?status=error", []string{"3", "1"}},
		{"?status=error&marketplace=ripley", []string{"1"}},
		{"?limit=1", []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := serve(r, httptest.NewRequest(http.MethodGet, "/logs"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)
			var entries []dto.LogEntryResponse
			decodeData(t, w, &entries)
			ids := make([]string, 0, len(entries))
			for _, e := range entries {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/logs?status=fatal", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
