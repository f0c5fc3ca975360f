package dto

import (
	"time"

	"github.com/hyperpc/marketsync/internal/application/dashboard"
	"github.com/hyperpc/marketsync/internal/application/synclog"
	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/saleflow"
	"github.com/hyperpc/marketsync/internal/infrastructure/scheduler"
	"github.com/shopspring/decimal"
)

// StatsRequest selects the dashboard day
type StatsRequest struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// OrderListRequest filters and pages the order listing
type OrderListRequest struct {
	PageRequest
	Status      string `form:"status" binding:"omitempty,oneof=pending processing completed cancelled error"`
	Marketplace string `form:"marketplace"`
}

// StatsResponse is the dashboard summary
type StatsResponse struct {
	Date                string          `json:"date"`
	DateMatched         bool            `json:"date_matched"`
	TotalSales          int             `json:"total_sales"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	Errors              int             `json:"errors"`
	PendingOrders       int             `json:"pending_orders"`
	LowStockCount       int             `json:"low_stock_count"`
	OrdersByMarketplace map[string]int  `json:"orders_by_marketplace"`
	LastSync            *time.Time      `json:"last_sync"`
}

// NewStatsResponse converts a dashboard summary
func NewStatsResponse(s *dashboard.Summary) StatsResponse {
	byMarketplace := make(map[string]int, len(s.OrdersByMarketplace))
	for id, n := range s.OrdersByMarketplace {
		byMarketplace[string(id)] = n
	}
	return StatsResponse{
		Date:                s.Date.Format(time.DateOnly),
		DateMatched:         s.DateMatched,
		TotalSales:          s.TotalSales,
		TotalAmount:         s.TotalAmount,
		Errors:              s.Errors,
		PendingOrders:       s.PendingOrders,
		LowStockCount:       s.LowStockCount,
		OrdersByMarketplace: byMarketplace,
		LastSync:            s.LastSync,
	}
}

// OrderItemResponse is one order line
type OrderItemResponse struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// OrderResponse is a canonical order
type OrderResponse struct {
	ID              string              `json:"id"`
	ExternalOrderID string              `json:"external_order_id"`
	Marketplace     string              `json:"marketplace"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	Total           decimal.Decimal     `json:"total"`
	Currency        string              `json:"currency"`
	Status          string              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       *time.Time          `json:"updated_at,omitempty"`
}

// NewOrderResponse converts a canonical order
func NewOrderResponse(o *integration.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{SKU: it.SKU, Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Total: it.Total}
	}
	return OrderResponse{
		ID:              o.ID,
		ExternalOrderID: o.ExternalOrderID,
		Marketplace:     string(o.Marketplace),
		CustomerName:    o.Customer.Name,
		CustomerEmail:   o.Customer.Email,
		Items:           items,
		Total:           o.Total,
		Currency:        o.Currency,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// NewOrderResponses converts a slice of orders
func NewOrderResponses(orders []integration.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = NewOrderResponse(&orders[i])
	}
	return out
}

// ProductResponse is a canonical product
type ProductResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	MinStock     *int            `json:"min_stock,omitempty"`
	Status       string          `json:"status"`
	Marketplaces []string        `json:"marketplaces"`
}

// NewProductResponse converts a canonical product
func NewProductResponse(p *integration.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Category:     p.Category,
		Price:        p.Price,
		Stock:        p.Stock,
		MinStock:     p.MinStock,
		Status:       string(p.Status),
		Marketplaces: marketplaceStrings(p.Marketplaces),
	}
}

// NewProductResponses converts a slice of products
func NewProductResponses(products []integration.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = NewProductResponse(&products[i])
	}
	return out
}

// ProductListRequest searches and pages the catalog
type ProductListRequest struct {
	PageRequest
	Query       string `form:"q" binding:"omitempty,max=100"`
	Marketplace string `form:"marketplace"`
}

// CatalogProductResponse is a catalog entry with its low stock flag
type CatalogProductResponse struct {
	ProductResponse
	LowStock bool `json:"low_stock"`
}

// NewCatalogProductResponse converts a product, flagging low stock against
// MinStock or threshold when MinStock is unset
func NewCatalogProductResponse(p *integration.Product, threshold int) CatalogProductResponse {
	return CatalogProductResponse{
		ProductResponse: NewProductResponse(p),
		LowStock:        p.IsLowStock(threshold),
	}
}

// NewCatalogProductResponses converts a slice of catalog products
func NewCatalogProductResponses(products []integration.Product, threshold int) []CatalogProductResponse {
	out := make([]CatalogProductResponse, len(products))
	for i := range products {
		out[i] = NewCatalogProductResponse(&products[i], threshold)
	}
	return out
}

// LogListRequest filters the sync log
type LogListRequest struct {
	Status      string `form:"status" binding:"omitempty,oneof=success error warning"`
	Marketplace string `form:"marketplace"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// LogEntryResponse is one sync log entry
type LogEntryResponse struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Marketplace string    `json:"marketplace,omitempty"`
	Action      string    `json:"action"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Detail      string    `json:"detail,omitempty"`
}

// NewLogEntryResponses converts journal entries
func NewLogEntryResponses(entries []synclog.Entry) []LogEntryResponse {
	out := make([]LogEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = LogEntryResponse{
			ID:          e.ID,
			Timestamp:   e.Timestamp,
			Marketplace: string(e.Marketplace),
			Action:      e.Action,
			Status:      string(e.Status),
			Message:     e.Message,
			Detail:      e.Detail,
		}
	}
	return out
}

// MarketplaceResponse describes one registered marketplace
type MarketplaceResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	APIURL       string `json:"api_url,omitempty"`
	Enabled      bool   `json:"enabled"`
	AuthType     string `json:"auth_type,omitempty"`
	SalesChannel bool   `json:"sales_channel"`
}

// NewMarketplaceResponse converts a marketplace and its optional config
func NewMarketplaceResponse(id integration.MarketplaceID, cfg integration.MarketplaceConfig, ok bool) MarketplaceResponse {
	resp := MarketplaceResponse{
		ID:           string(id),
		Name:         id.DisplayName(),
		Enabled:      true,
		SalesChannel: id.IsSalesChannel(),
	}
	if ok {
		if cfg.Name != "" {
			resp.Name = cfg.Name
		}
		resp.APIURL = cfg.APIURL
		resp.Enabled = cfg.Enabled
		resp.AuthType = string(cfg.AuthType)
	}
	return resp
}

// IngestResponse reports a native payload ingestion
type IngestResponse struct {
	Marketplace string `json:"marketplace"`
	Accepted    int    `json:"accepted"`
	Created     int    `json:"created"`
}

// StepStateResponse is one step of a sale flow
type StepStateResponse struct {
	Step        string     `json:"step"`
	Status      string     `json:"status"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	ErrorDetail string     `json:"error_detail,omitempty"`
	DurationMs  int64      `json:"duration_ms,omitempty"`
}

// FlowResponse is the sale flow of one order
type FlowResponse struct {
	OrderID     string              `json:"order_id"`
	CurrentStep string              `json:"current_step"`
	Healthy     bool                `json:"healthy"`
	Complete    bool                `json:"complete"`
	Steps       []StepStateResponse `json:"steps"`
}

// NewFlowResponse converts a sale flow
func NewFlowResponse(f *saleflow.Flow) FlowResponse {
	states := f.States()
	steps := make([]StepStateResponse, len(states))
	for i, s := range states {
		steps[i] = StepStateResponse{
			Step:        string(s.Step),
			Status:      string(s.Status),
			Timestamp:   s.Timestamp,
			ErrorDetail: s.ErrorDetail,
			DurationMs:  s.Duration.Milliseconds(),
		}
	}
	return FlowResponse{
		OrderID:     f.OrderID,
		CurrentStep: string(f.CurrentStep()),
		Healthy:     f.IsHealthy(),
		Complete:    f.IsComplete(),
		Steps:       steps,
	}
}

// RecordStepRequest records the outcome of one sale flow step
type RecordStepRequest struct {
	Step   string `json:"step" binding:"required,oneof=order_received odoo_processing stock_deducted marketplaces_synced"`
	Status string `json:"status" binding:"required,oneof=success error"`
	Detail string `json:"detail" binding:"max=500"`
}

// PullJobResponse is one order pull job
type PullJobResponse struct {
	ID          string     `json:"id"`
	Marketplace string     `json:"marketplace"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RetryCount  int        `json:"retry_count"`
	Orders      int        `json:"orders"`
	NewOrders   int        `json:"new_orders"`
	Products    int        `json:"products"`
	FailedCount int        `json:"failed_count"`
}

// NewPullJobResponses converts scheduler jobs
func NewPullJobResponses(jobs []*scheduler.PullJob) []PullJobResponse {
	out := make([]PullJobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = PullJobResponse{
			ID:          j.ID.String(),
			Marketplace: string(j.Marketplace),
			Status:      string(j.Status),
			Error:       j.Error,
			StartedAt:   j.StartedAt,
			CompletedAt: j.CompletedAt,
			RetryCount:  j.RetryCount,
			Orders:      j.Orders,
			NewOrders:   j.NewOrders,
			Products:    j.Products,
			FailedCount: j.FailedCount,
		}
	}
	return out
}

// PullHistoryRequest filters the pull job history
type PullHistoryRequest struct {
	Marketplace string `form:"marketplace"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

// RetryStepRequest returns a failed sale flow step to pending
type RetryStepRequest struct {
	Step string `json:"step" binding:"required,oneof=order_received odoo_processing stock_deducted marketplaces_synced"`
}

// ConfirmSaleOrderRequest names the ERP sale order backing a marketplace order
type ConfirmSaleOrderRequest struct {
	SaleOrderID string `json:"sale_order_id" binding:"required,max=128"`
}
