package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/infrastructure/logger"
	"github.com/hyperpc/marketsync/internal/infrastructure/scheduler"
	"github.com/hyperpc/marketsync/internal/interfaces/http/dto"
	"github.com/hyperpc/marketsync/internal/interfaces/http/middleware"
)

// Ingestor stores canonical entities decoded from pushed payloads
type Ingestor interface {
	IngestOrders(ctx context.Context, marketplace integration.MarketplaceID, orders []integration.Order) (int, error)
	IngestProducts(ctx context.Context, products []integration.Product) error
}

// PullService triggers and reports order pulls
type PullService interface {
	PullNow(ctx context.Context) []*scheduler.PullJob
	GetJobHistory(limit int) []*scheduler.PullJob
	GetJobHistoryByMarketplace(marketplace integration.MarketplaceID, limit int) []*scheduler.PullJob
}

// MarketplaceHandler lists marketplaces and ingests their native payloads
type MarketplaceHandler struct {
	BaseHandler
	registry integration.MarketplaceRegistry
	ingestor Ingestor
	pulls    PullService
}

// NewMarketplaceHandler creates a MarketplaceHandler. pulls may be nil when
// the scheduler is not configured.
func NewMarketplaceHandler(registry integration.MarketplaceRegistry, ingestor Ingestor, pulls PullService) *MarketplaceHandler {
	return &MarketplaceHandler{registry: registry, ingestor: ingestor, pulls: pulls}
}

// List returns every registered marketplace with its connection settings.
// GET /marketplaces
func (h *MarketplaceHandler) List(c *gin.Context) {
	ids := h.registry.Marketplaces()
	out := make([]dto.MarketplaceResponse, len(ids))
	for i, id := range ids {
		cfg, ok := h.registry.Config(id)
		out[i] = dto.NewMarketplaceResponse(id, cfg, ok)
	}
	h.Success(c, out)
}

// IngestOrders decodes native order payloads of one marketplace and stores them.
// The body is a single payload object or an array of them.
// POST /marketplaces/:id/orders
func (h *MarketplaceHandler) IngestOrders(c *gin.Context) {
	id, adapter, payloads, ok := h.readPayloads(c)
	if !ok {
		return
	}

	orders := make([]integration.Order, 0, len(payloads))
	var details []dto.ValidationDetail
	for i, raw := range payloads {
		order, err := adapter.DecodeOrder(raw)
		if err != nil {
			details = append(details, payloadDetail(i, err))
			continue
		}
		orders = append(orders, *order)
	}
	if len(details) > 0 {
		h.ValidationError(c, "Invalid order payload", details)
		return
	}

	created, err := h.ingestor.IngestOrders(c.Request.Context(), id, orders)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.GetGinLogger(c).Info("Orders ingested",
		zap.String("marketplace", string(id)),
		zap.Int("accepted", len(orders)),
		zap.Int("created", created),
	)
	h.Success(c, dto.IngestResponse{Marketplace: string(id), Accepted: len(orders), Created: created})
}

// IngestProducts decodes native product payloads of one marketplace and merges
// them into the catalog.
// POST /marketplaces/:id/products
func (h *MarketplaceHandler) IngestProducts(c *gin.Context) {
	id, adapter, payloads, ok := h.readPayloads(c)
	if !ok {
		return
	}

	products := make([]integration.Product, 0, len(payloads))
	var details []dto.ValidationDetail
	for i, raw := range payloads {
		product, err := adapter.DecodeProduct(raw)
		if err != nil {
			details = append(details, payloadDetail(i, err))
			continue
		}
		products = append(products, *product)
	}
	if len(details) > 0 {
		h.ValidationError(c, "Invalid product payload", details)
		return
	}

	if err := h.ingestor.IngestProducts(c.Request.Context(), products); err != nil {
		h.HandleError(c, err)
		return
	}

	logger.GetGinLogger(c).Info("Products ingested",
		zap.String("marketplace", string(id)),
		zap.Int("accepted", len(products)),
	)
	h.Success(c, dto.IngestResponse{Marketplace: string(id), Accepted: len(products)})
}

// Pull pulls every marketplace now and returns the finished jobs.
// POST /marketplaces/pull
func (h *MarketplaceHandler) Pull(c *gin.Context) {
	if h.pulls == nil {
		h.Unavailable(c, "Order pulls are not configured")
		return
	}
	h.Success(c, dto.NewPullJobResponses(h.pulls.PullNow(c.Request.Context())))
}

// PullHistory returns recent pull jobs, newest first.
// GET /marketplaces/pulls?marketplace=&limit=
func (h *MarketplaceHandler) PullHistory(c *gin.Context) {
	if h.pulls == nil {
		h.Unavailable(c, "Order pulls are not configured")
		return
	}

	var req dto.PullHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if req.Marketplace == "" {
		h.Success(c, dto.NewPullJobResponses(h.pulls.GetJobHistory(req.Limit)))
		return
	}
	id, err := integration.ParseMarketplaceID(req.Marketplace)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewPullJobResponses(h.pulls.GetJobHistoryByMarketplace(id, req.Limit)))
}

// readPayloads resolves the marketplace of the path and splits the body into
// raw payloads. It writes the error response and returns false on failure.
func (h *MarketplaceHandler) readPayloads(c *gin.Context) (integration.MarketplaceID, integration.PayloadAdapter, []json.RawMessage, bool) {
	id, err := integration.ParseMarketplaceID(c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return "", nil, nil, false
	}
	adapter, err := h.registry.Adapter(id)
	if err != nil {
		h.HandleError(c, err)
		return "", nil, nil, false
	}

	body, err := c.GetRawData()
	if err != nil {
		h.HandleError(c, err)
		return "", nil, nil, false
	}
	payloads, err := splitPayloads(body)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, err.Error())
		return "", nil, nil, false
	}
	return id, adapter, payloads, true
}

// splitPayloads accepts one JSON object or an array of objects
func splitPayloads(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("request body is empty")
	}
	if body[0] != '[' {
		if !json.Valid(body) {
			return nil, errors.New("request body is not valid JSON")
		}
		return []json.RawMessage{body}, nil
	}

	var payloads []json.RawMessage
	if err := json.Unmarshal(body, &payloads); err != nil {
		return nil, fmt.Errorf("request body is not valid JSON: %w", err)
	}
	if len(payloads) == 0 {
		return nil, errors.New("request body contains no payloads")
	}
	return payloads, nil
}

func payloadDetail(index int, err error) dto.ValidationDetail {
	return dto.ValidationDetail{Field: "[" + strconv.Itoa(index) + "]", Message: err.Error()}
}
