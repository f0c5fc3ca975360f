package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hyperpc/marketsync/internal/application/dashboard"
	"github.com/hyperpc/marketsync/internal/application/synclog"
	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/interfaces/http/dto"
	"github.com/hyperpc/marketsync/internal/interfaces/http/middleware"
)

// DashboardService is the read side behind the dashboard endpoints
type DashboardService interface {
	Location() *time.Location
	Summary(ctx context.Context, day *time.Time) (*dashboard.Summary, error)
	Orders(ctx context.Context, filter integration.OrderFilter) ([]integration.Order, error)
	LowStock(ctx context.Context) ([]integration.Product, error)
}

// DashboardHandler serves dashboard stats and listings
type DashboardHandler struct {
	BaseHandler
	svc DashboardService
}

// NewDashboardHandler creates a DashboardHandler
func NewDashboardHandler(svc DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Stats returns the summary of one day, today by default.
// GET /dashboard/stats?date=YYYY-MM-DD
func (h *DashboardHandler) Stats(c *gin.Context) {
	var req dto.StatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	var day *time.Time
	if req.Date != "" {
		d, err := time.ParseInLocation(time.DateOnly, req.Date, h.svc.Location())
		if err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFormat, "date must be formatted as YYYY-MM-DD")
			return
		}
		day = &d
	}

	summary, err := h.svc.Summary(c.Request.Context(), day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewStatsResponse(summary))
}

// Orders lists orders newest first, filtered by status and marketplace.
// GET /dashboard/orders?status=&marketplace=&page=&page_size=
func (h *DashboardHandler) Orders(c *gin.Context) {
	var req dto.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := integration.OrderFilter{Status: integration.OrderStatus(req.Status)}
	if req.Marketplace != "" {
		id, err := integration.ParseMarketplaceID(req.Marketplace)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		filter.Marketplace = id
	}

	orders, err := h.svc.Orders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	start, end := req.Normalize(len(orders))
	h.SuccessWithMeta(c, dto.NewOrderResponses(orders[start:end]), int64(len(orders)), req.Page, req.PageSize)
}

// LowStock lists products at or below their reorder threshold.
// GET /dashboard/low-stock
func (h *DashboardHandler) LowStock(c *gin.Context) {
	products, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewProductResponses(products))
}

// LogReader lists sync log entries
type LogReader interface {
	List(f synclog.Filter) []synclog.Entry
}

// LogHandler serves the sync log
type LogHandler struct {
	BaseHandler
	journal LogReader
}

// NewLogHandler creates a LogHandler
func NewLogHandler(journal LogReader) *LogHandler {
	return &LogHandler{journal: journal}
}

// List returns log entries newest first.
// GET /logs?status=&marketplace=&limit=
func (h *LogHandler) List(c *gin.Context) {
	var req dto.LogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := synclog.Filter{Status: synclog.Status(req.Status), Limit: req.Limit}
	if req.Marketplace != "" {
		id, err := integration.ParseMarketplaceID(req.Marketplace)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		filter.Marketplace = id
	}
	h.Success(c, dto.NewLogEntryResponses(h.journal.List(filter)))
}
