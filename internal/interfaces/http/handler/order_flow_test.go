package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/saleflow"
	"github.com/hyperpc/marketsync/internal/infrastructure/ecommerce"
	"github.com/hyperpc/marketsync/internal/infrastructure/store"
	"github.com/hyperpc/marketsync/internal/interfaces/http/dto"
)

const flowKey = "mercadolibre:ML-1001"

func newFlowRouter(t *testing.T, withERP bool) (*gin.Engine, *saleflow.Tracker) {
	t.Helper()
	tracker := saleflow.NewTracker(store.NewFlowRepository())

	var erp SaleOrderConfirmer
	if withERP {
		so := testOrder(t, integration.MarketplaceOdoo, "SO-1", integration.OrderStatusPending, dashboardDay, 1000)
		client, err := ecommerce.NewOdooClient(ecommerce.SimulatedConfig{}, nil, ecommerce.WithOrders(so))
		require.NoError(t, err)
		erp = client
	}

	h := NewOrderFlowHandler(tracker, erp)
	r := gin.New()
	r.GET("/orders/:id/flow", h.GetFlow)
	r.POST("/orders/:id/flow/steps", h.RecordStep)
	r.POST("/orders/:id/flow/retry", h.RetryStep)
	r.POST("/orders/:id/flow/confirm", h.ConfirmSaleOrder)
	r.GET("/flows/unhealthy", h.ListUnhealthy)
	return r, tracker
}

func record(t *testing.T, tracker *saleflow.Tracker, key string, step saleflow.Step, status saleflow.StepStatus) {
	t.Helper()
	_, err := tracker.Record(context.Background(), key, step, status, "boom")
	require.NoError(t, err)
}

func TestOrderFlowHandler_GetFlow(t *testing.T) {
	r, tracker := newFlowRouter(t, false)
	record(t, tracker, flowKey, saleflow.StepOrderReceived, saleflow.StatusSuccess)

	for _, path := range []string{
		"/orders/" + flowKey + "/flow",
		"/orders/ML-1001/flow?marketplace=mercadolibre",
	} {
		t.Run(path, func(t *testing.T) {
			w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var flow dto.FlowResponse
			decodeData(t, w, &flow)
			assert.Equal(t, flowKey, flow.OrderID)
			assert.Equal(t, string(saleflow.StepOdooProcessing), flow.CurrentStep)
			assert.True(t, flow.Healthy)
			assert.False(t, flow.Complete)
			require.Len(t, flow.Steps, 4)
			assert.Equal(t, "success", flow.Steps[0].Status)
			assert.NotNil(t, flow.Steps[0].Timestamp)
			assert.Equal(t, "pending", flow.Steps[1].Status)
		})
	}

	t.Run("unknown order", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/orders/ripley:R-404/flow", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)
	})

	t.Run("unknown marketplace qualifier", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/orders/ML-1001/flow?marketplace=amazon", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderFlowHandler_RecordStep(t *testing.T) {
	r, _ := newFlowRouter(t, false)
	path := "/orders/" + flowKey + "/flow/steps"

	w := serve(r, jsonRequest(http.MethodPost, path, `{"step":"order_received","status":"success"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(r, jsonRequest(http.MethodPost, path, `{"step":"odoo_processing","status":"error","detail":"partner missing"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var flow dto.FlowResponse
	decodeData(t, w, &flow)
	assert.False(t, flow.Healthy)
	assert.Equal(t, "partner missing", flow.Steps[1].ErrorDetail)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"next step blocked by failure", `{"step":"stock_deducted","status":"success"}`, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"already recorded", `{"step":"order_received","status":"success"}`, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"unknown step", `{"step":"shipped","status":"success"}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"pending is not a recordable status", `{"step":"odoo_processing","status":"pending"}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"malformed body", `{"step":`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, jsonRequest(http.MethodPost, path, tt.body))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestOrderFlowHandler_RetryStep(t *testing.T) {
	r, tracker := newFlowRouter(t, false)
	record(t, tracker, flowKey, saleflow.StepOrderReceived, saleflow.StatusSuccess)
	record(t, tracker, flowKey, saleflow.StepOdooProcessing, saleflow.StatusError)
	path := "/orders/" + flowKey + "/flow/retry"

	w := serve(r, jsonRequest(http.MethodPost, path, `{"step":"odoo_processing"}`))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var flow dto.FlowResponse
	decodeData(t, w, &flow)
	assert.True(t, flow.Healthy)
	assert.Equal(t, "pending", flow.Steps[1].Status)

	t.Run("step that has not failed", func(t *testing.T) {
		w := serve(r, jsonRequest(http.MethodPost, path, `{"step":"order_received"}`))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("missing step", func(t *testing.T) {
		w := serve(r, jsonRequest(http.MethodPost, path, `{}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
	})
}

func TestOrderFlowHandler_ListUnhealthy(t *testing.T) {
	r, tracker := newFlowRouter(t, false)
	record(t, tracker, "ripley:R-1", saleflow.StepOrderReceived, saleflow.StatusSuccess)
	record(t, tracker, "ripley:R-2", saleflow.StepOrderReceived, saleflow.StatusError)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/flows/unhealthy", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var flows []dto.FlowResponse
	decodeData(t, w, &flows)
	require.Len(t, flows, 1)
	assert.Equal(t, "ripley:R-2", flows[0].OrderID)
	assert.Equal(t, "boom", flows[0].Steps[0].ErrorDetail)
}

func TestOrderFlowHandler_ConfirmSaleOrder(t *testing.T) {
	path := "/orders/" + flowKey + "/flow/confirm"

	t.Run("confirmed", func(t *testing.T) {
		r, tracker := newFlowRouter(t, true)
		record(t, tracker, flowKey, saleflow.StepOrderReceived, saleflow.StatusSuccess)

		w := serve(r, jsonRequest(http.MethodPost, path, `{"sale_order_id":"SO-1"}`))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var flow dto.FlowResponse
		decodeData(t, w, &flow)
		assert.Equal(t, "success", flow.Steps[1].Status)
		assert.Equal(t, string(saleflow.StepStockDeducted), flow.CurrentStep)
	})

	t.Run("unknown sale order records nothing", func(t *testing.T) {
		r, tracker := newFlowRouter(t, true)
		record(t, tracker, flowKey, saleflow.StepOrderReceived, saleflow.StatusSuccess)

		w := serve(r, jsonRequest(http.MethodPost, path, `{"sale_order_id":"SO-404"}`))

		assert.Equal(t, http.StatusNotFound, w.Code)
		step, err := tracker.CurrentStep(context.Background(), flowKey)
		require.NoError(t, err)
		assert.Equal(t, saleflow.StepOdooProcessing, step)
		healthy, err := tracker.IsHealthy(context.Background(), flowKey)
		require.NoError(t, err)
		assert.True(t, healthy)
	})

	t.Run("order not received yet", func(t *testing.T) {
		r, _ := newFlowRouter(t, true)
		w := serve(r, jsonRequest(http.MethodPost, path, `{"sale_order_id":"SO-1"}`))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("missing sale order id", func(t *testing.T) {
		r, _ := newFlowRouter(t, true)
		w := serve(r, jsonRequest(http.MethodPost, path, `{}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no erp", func(t *testing.T) {
		r, _ := newFlowRouter(t, false)
		w := serve(r, jsonRequest(http.MethodPost, path, `{"sale_order_id":"SO-1"}`))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodeUnavailable, decodeResponse(t, w).Error.Code)
	})
}
