package router

import (
	"github.com/hyperpc/marketsync/internal/interfaces/http/handler"
)

// Handlers holds every HTTP handler mounted by Mount
type Handlers struct {
	Sync        *handler.SyncHandler
	Dashboard   *handler.DashboardHandler
	Logs        *handler.LogHandler
	Marketplace *handler.MarketplaceHandler
	OrderFlow   *handler.OrderFlowHandler
	Products    *handler.ProductHandler
	System      *handler.SystemHandler
}

// Mount registers the API groups under /api/{version} and the root health
// endpoint, then sets up the engine.
func Mount(r *Router, h Handlers) {
	syncRoutes := NewDomainGroup("sync", "/sync")
	syncRoutes.POST("/preview", h.Sync.Preview)
	syncRoutes.POST("/runs", h.Sync.StartRun)
	syncRoutes.GET("/status", h.Sync.GetStatus)
	syncRoutes.GET("/events", h.Sync.Events)
	syncRoutes.POST("/cancel", h.Sync.Cancel)
	syncRoutes.POST("/reset", h.Sync.Reset)

	dashboardRoutes := NewDomainGroup("dashboard", "/dashboard")
	dashboardRoutes.GET("/stats", h.Dashboard.Stats)
	dashboardRoutes.GET("/orders", h.Dashboard.Orders)
	dashboardRoutes.GET("/low-stock", h.Dashboard.LowStock)

	logRoutes := NewDomainGroup("logs", "/logs")
	logRoutes.GET("", h.Logs.List)

	marketplaceRoutes := NewDomainGroup("marketplaces", "/marketplaces")
	marketplaceRoutes.GET("", h.Marketplace.List)
	marketplaceRoutes.POST("/pull", h.Marketplace.Pull)
	marketplaceRoutes.GET("/pulls", h.Marketplace.PullHistory)
	marketplaceRoutes.POST("/:id/orders", h.Marketplace.IngestOrders)
	marketplaceRoutes.POST("/:id/products", h.Marketplace.IngestProducts)

	productRoutes := NewDomainGroup("products", "/products")
	productRoutes.GET("", h.Products.List)
	productRoutes.GET("/:sku", h.Products.Get)

	orderRoutes := NewDomainGroup("orders", "/orders")
	flowRoutes := orderRoutes.Group("flow", "/:id/flow")
	flowRoutes.GET("", h.OrderFlow.GetFlow)
	flowRoutes.POST("/steps", h.OrderFlow.RecordStep)
	flowRoutes.POST("/retry", h.OrderFlow.RetryStep)
	flowRoutes.POST("/confirm", h.OrderFlow.ConfirmSaleOrder)

	flowListRoutes := NewDomainGroup("flows", "/flows")
	flowListRoutes.GET("/unhealthy", h.OrderFlow.ListUnhealthy)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.System.GetSystemInfo)
	systemRoutes.GET("/ping", h.System.Ping)
	systemRoutes.GET("/health", h.System.Health)

	r.Register(syncRoutes).
		Register(dashboardRoutes).
		Register(logRoutes).
		Register(marketplaceRoutes).
		Register(productRoutes).
		Register(orderRoutes).
		Register(flowListRoutes).
		Register(systemRoutes)
	r.Setup()

	// Probes hit the unversioned path
	r.engine.GET("/health", h.System.Health)
}
