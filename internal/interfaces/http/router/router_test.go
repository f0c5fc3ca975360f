package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpc/marketsync/internal/application/bulksync"
	"github.com/hyperpc/marketsync/internal/application/dashboard"
	"github.com/hyperpc/marketsync/internal/application/synclog"
	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/saleflow"
	"github.com/hyperpc/marketsync/internal/infrastructure/ecommerce"
	"github.com/hyperpc/marketsync/internal/infrastructure/scheduler"
	"github.com/hyperpc/marketsync/internal/infrastructure/store"
	"github.com/hyperpc/marketsync/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("sync", "/sync")
		assert.Equal(t, "sync", g.Name())
		assert.Equal(t, "/sync", g.Prefix())
	})

	t.Run("methods", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "list") })
		g.POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			want   int
		}{
			{http.MethodGet, http.StatusOK},
			{http.MethodPost, http.StatusCreated},
			{http.MethodPut, http.StatusNotFound},
		}
		for _, tt := range tests {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, "/api/v1/test/items", nil))
			assert.Equal(t, tt.want, w.Code, tt.method)
		}
	})

	t.Run("middleware applies to the group only", func(t *testing.T) {
		engine := gin.New()
		api := engine.Group("/api/v1")

		guarded := NewDomainGroup("guarded", "/guarded")
		guarded.Use(func(c *gin.Context) {
			c.Header("X-Guarded", "yes")
			c.Next()
		})
		guarded.GET("/a", func(c *gin.Context) { c.Status(http.StatusOK) })
		guarded.RegisterRoutes(api)

		open := NewDomainGroup("open", "/open")
		open.GET("/b", func(c *gin.Context) { c.Status(http.StatusOK) })
		open.RegisterRoutes(api)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/guarded/a", nil))
		assert.Equal(t, "yes", w.Header().Get("X-Guarded"))

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/open/b", nil))
		assert.Empty(t, w.Header().Get("X-Guarded"))
	})

	t.Run("nested groups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("orders", "/orders")
		g.Group("flow", "/:id/flow").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, c.Param("id"))
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/ripley:R-1/flow", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ripley:R-1", w.Body.String())
	})
}

func newMountedEngine(t *testing.T) *gin.Engine {
	t.Helper()
	configs := make(map[integration.MarketplaceID]ecommerce.SimulatedConfig)
	for _, id := range integration.AllMarketplaces() {
		configs[id] = ecommerce.SimulatedConfig{Marketplace: id}
	}
	registry, odoo, err := ecommerce.NewSimulatedRegistry(configs, nil)
	require.NoError(t, err)

	orchestrator := bulksync.NewOrchestrator(registry, nil, bulksync.DefaultConfig())
	t.Cleanup(func() { _ = orchestrator.Shutdown(context.Background()) })

	orders := store.NewOrderRepository()
	products := store.NewProductRepository()
	tracker := saleflow.NewTracker(store.NewFlowRepository())
	executor := scheduler.NewPullExecutor(registry, orders, products, nil, scheduler.WithTracker(tracker))
	cfg := scheduler.DefaultConfig()
	cfg.Enabled = false
	pulls, err := scheduler.NewScheduler(cfg, executor, registry, nil)
	require.NoError(t, err)

	engine := gin.New()
	Mount(NewRouter(engine), Handlers{
		Sync:        handler.NewSyncHandler(orchestrator, nil),
		Dashboard:   handler.NewDashboardHandler(dashboard.NewService(orders, products, nil)),
		Logs:        handler.NewLogHandler(synclog.NewJournal(10, nil)),
		Marketplace: handler.NewMarketplaceHandler(registry, executor, pulls),
		OrderFlow:   handler.NewOrderFlowHandler(tracker, odoo),
		Products:    handler.NewProductHandler(products, 5),
		System:      handler.NewSystemHandler("marketsync", "test"),
	})
	return engine
}

func TestMount(t *testing.T) {
	engine := newMountedEngine(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/api/v1/system/ping", "", http.StatusOK},
		{http.MethodGet, "/api/v1/system/info", "", http.StatusOK},
		{http.MethodGet, "/api/v1/system/health", "", http.StatusOK},
		{http.MethodGet, "/api/v1/sync/status", "", http.StatusOK},
		{http.MethodPost, "/api/v1/sync/preview", "sku,quantity\nA,1\n", http.StatusOK},
		{http.MethodPost, "/api/v1/sync/cancel", "", http.StatusUnprocessableEntity},
		{http.MethodPost, "/api/v1/sync/reset", "", http.StatusOK},
		{http.MethodGet, "/api/v1/dashboard/stats", "", http.StatusOK},
		{http.MethodGet, "/api/v1/dashboard/orders", "", http.StatusOK},
		{http.MethodGet, "/api/v1/dashboard/low-stock", "", http.StatusOK},
		{http.MethodGet, "/api/v1/logs", "", http.StatusOK},
		{http.MethodGet, "/api/v1/marketplaces", "", http.StatusOK},
		{http.MethodGet, "/api/v1/marketplaces/pulls", "", http.StatusOK},
		{http.MethodPost, "/api/v1/marketplaces/ripley/orders", "[]", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/marketplaces/ripley/products", "[]", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/products", "", http.StatusOK},
		{http.MethodGet, "/api/v1/products/MISSING", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/orders/ripley:R-1/flow", "", http.StatusNotFound},
		{http.MethodPost, "/api/v1/orders/ripley:R-1/flow/steps", `{"step":"order_received","status":"success"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/orders/ripley:R-1/flow/retry", `{"step":"order_received"}`, http.StatusUnprocessableEntity},
		{http.MethodPost, "/api/v1/orders/ripley:R-1/flow/confirm", `{"sale_order_id":"missing"}`, http.StatusNotFound},
		{http.MethodGet, "/api/v1/flows/unhealthy", "", http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			switch {
			case strings.HasPrefix(tt.path, "/api/v1/sync/preview"):
				req.Header.Set("Content-Type", "text/csv")
			case tt.body != "":
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}
