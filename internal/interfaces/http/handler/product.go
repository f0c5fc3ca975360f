package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/interfaces/http/dto"
	"github.com/hyperpc/marketsync/internal/interfaces/http/middleware"
)

// ProductReader is the catalog read side
type ProductReader interface {
	FindAll(ctx context.Context) ([]integration.Product, error)
	FindBySKU(ctx context.Context, sku string) (*integration.Product, error)
}

// ProductHandler serves the canonical catalog
type ProductHandler struct {
	BaseHandler
	products          ProductReader
	lowStockThreshold int
}

// NewProductHandler creates a ProductHandler. lowStockThreshold flags
// products without a MinStock of their own.
func NewProductHandler(products ProductReader, lowStockThreshold int) *ProductHandler {
	return &ProductHandler{products: products, lowStockThreshold: lowStockThreshold}
}

// List searches the catalog by SKU or name and by marketplace listing.
// GET /products?q=&marketplace=&page=&page_size=
func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := integration.ProductFilter{Query: req.Query}
	if req.Marketplace != "" {
		id, err := integration.ParseMarketplaceID(req.Marketplace)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		filter.Marketplace = id
	}

	all, err := h.products.FindAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	matched := make([]integration.Product, 0, len(all))
	for i := range all {
		if filter.Matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}

	start, end := req.Normalize(len(matched))
	h.SuccessWithMeta(c, dto.NewCatalogProductResponses(matched[start:end], h.lowStockThreshold),
		int64(len(matched)), req.Page, req.PageSize)
}

// Get returns one catalog entry.
// GET /products/:sku
func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.products.FindBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewCatalogProductResponse(p, h.lowStockThreshold))
}
