package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/saleflow"
	"github.com/hyperpc/marketsync/internal/infrastructure/logger"
	"github.com/hyperpc/marketsync/internal/interfaces/http/dto"
	"github.com/hyperpc/marketsync/internal/interfaces/http/middleware"
)

// FlowTracker records and reads per-order sale flows
type FlowTracker interface {
	Flow(ctx context.Context, orderID string) (*saleflow.Flow, error)
	Record(ctx context.Context, orderID string, step saleflow.Step, status saleflow.StepStatus, detail string) (*saleflow.Flow, error)
	Retry(ctx context.Context, orderID string, step saleflow.Step) (*saleflow.Flow, error)
	Unhealthy(ctx context.Context) ([]*saleflow.Flow, error)
}

// SaleOrderConfirmer confirms sale orders in the ERP
type SaleOrderConfirmer interface {
	ConfirmSaleOrder(ctx context.Context, orderID string) (*integration.SyncResult, error)
}

// OrderFlowHandler exposes the sale flow of each order
type OrderFlowHandler struct {
	BaseHandler
	tracker FlowTracker
	erp     SaleOrderConfirmer
}

// NewOrderFlowHandler creates an OrderFlowHandler. erp may be nil, in which
// case sale order confirmation is unavailable.
func NewOrderFlowHandler(tracker FlowTracker, erp SaleOrderConfirmer) *OrderFlowHandler {
	return &OrderFlowHandler{tracker: tracker, erp: erp}
}

// orderKey resolves the order of the path. The id is either a full order key
// ("mercadolibre:ML-1001") or a native id qualified by ?marketplace=.
func (h *OrderFlowHandler) orderKey(c *gin.Context) (string, error) {
	id := c.Param("id")
	m := c.Query("marketplace")
	if m == "" || strings.Contains(id, ":") {
		return id, nil
	}
	marketplace, err := integration.ParseMarketplaceID(m)
	if err != nil {
		return "", err
	}
	return integration.OrderKey(marketplace, id), nil
}

// GetFlow returns the sale flow of an order.
// GET /orders/:id/flow
func (h *OrderFlowHandler) GetFlow(c *gin.Context) {
	key, err := h.orderKey(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	flow, err := h.tracker.Flow(c.Request.Context(), key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewFlowResponse(flow))
}

// ListUnhealthy returns every flow with a failed step.
// GET /flows/unhealthy
func (h *OrderFlowHandler) ListUnhealthy(c *gin.Context) {
	flows, err := h.tracker.Unhealthy(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]dto.FlowResponse, len(flows))
	for i, f := range flows {
		out[i] = dto.NewFlowResponse(f)
	}
	h.Success(c, out)
}

// RecordStep records the outcome of one step reported by the order pipeline.
// POST /orders/:id/flow/steps
func (h *OrderFlowHandler) RecordStep(c *gin.Context) {
	key, err := h.orderKey(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req dto.RecordStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	flow, err := h.tracker.Record(c.Request.Context(), key,
		saleflow.Step(req.Step), saleflow.StepStatus(req.Status), req.Detail)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewFlowResponse(flow))
}

// RetryStep returns a failed step to pending so the pipeline can run it again.
// POST /orders/:id/flow/retry
func (h *OrderFlowHandler) RetryStep(c *gin.Context) {
	key, err := h.orderKey(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req dto.RetryStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	flow, err := h.tracker.Retry(c.Request.Context(), key, saleflow.Step(req.Step))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewFlowResponse(flow))
}

// ConfirmSaleOrder confirms the ERP sale order of an order and records the
// odoo_processing step with the outcome.
// POST /orders/:id/flow/confirm
func (h *OrderFlowHandler) ConfirmSaleOrder(c *gin.Context) {
	if h.erp == nil {
		h.Unavailable(c, "ERP is not configured")
		return
	}
	key, err := h.orderKey(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req dto.ConfirmSaleOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	ctx := c.Request.Context()
	result, err := h.erp.ConfirmSaleOrder(ctx, req.SaleOrderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	status, detail := saleflow.StatusSuccess, ""
	if !result.Success {
		status, detail = saleflow.StatusError, result.Detail
		if detail == "" {
			detail = result.Message
		}
	}
	flow, err := h.tracker.Record(ctx, key, saleflow.StepOdooProcessing, status, detail)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.GetGinLogger(c).Info("Sale order confirmation recorded",
		zap.String("order_key", key),
		zap.String("sale_order_id", req.SaleOrderID),
		zap.Bool("success", result.Success),
	)
	h.Success(c, dto.NewFlowResponse(flow))
}
