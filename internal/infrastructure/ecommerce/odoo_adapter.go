package ecommerce

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

var odooStatuses = statusTable{
	"draft":  integration.OrderStatusPending,
	"sent":   integration.OrderStatusProcessing,
	"sale":   integration.OrderStatusCompleted,
	"done":   integration.OrderStatusCompleted,
	"cancel": integration.OrderStatusCancelled,
}

// OdooAdapter translates Odoo ERP records
type OdooAdapter struct {
	adapterBase
}

// NewOdooAdapter creates a new Odoo adapter
func NewOdooAdapter(logger *zap.Logger) *OdooAdapter {
	return &OdooAdapter{
		adapterBase: newAdapterBase(integration.MarketplaceOdoo, logger, odooStatuses),
	}
}

// AdaptProduct converts a product.product record
func (a *OdooAdapter) AdaptProduct(p OdooProduct) integration.Product {
	return integration.Product{
		ID:           strconv.FormatInt(p.ID, 10),
		SKU:          p.DefaultCode,
		Name:         p.Name,
		Price:        p.ListPrice,
		Stock:        a.clampStock(p.DefaultCode, p.QtyAvailable),
		Status:       integration.ProductStatusActive,
		Marketplaces: []integration.MarketplaceID{integration.MarketplaceOdoo},
	}
}

// AdaptOrder converts a sale.order record. Line SKUs are the Odoo product ids.
func (a *OdooAdapter) AdaptOrder(o OdooSaleOrder) (*integration.Order, error) {
	id := strconv.FormatInt(o.ID, 10)
	items := make([]integration.OrderItem, 0, len(o.OrderLine))
	for _, line := range o.OrderLine {
		qty, err := wholeUnits(line.ProductUOMQty)
		if err != nil {
			return nil, fmt.Errorf("odoo order %s: %w", id, err)
		}
		sku := strconv.FormatInt(line.ProductID.ID, 10)
		item, err := integration.NewOrderItem(sku, line.ProductID.Name, qty, line.PriceUnit)
		if err != nil {
			return nil, fmt.Errorf("odoo order %s: %w", id, err)
		}
		items = append(items, item)
	}

	order := &integration.Order{
		ID:              id,
		ExternalOrderID: o.Name,
		Marketplace:     integration.MarketplaceOdoo,
		Customer:        integration.Customer{Name: o.PartnerID.Name},
		Items:           items,
		Status:          a.MapStatus(o.State),
		CreatedAt:       a.createdAt(o.DateOrder),
	}
	return a.finishOrder(order, o.AmountTotal), nil
}

// DecodeProduct decodes and adapts a raw product.product record
func (a *OdooAdapter) DecodeProduct(raw []byte) (*integration.Product, error) {
	var p OdooProduct
	if err := decodePayload(a.marketplace, raw, &p); err != nil {
		return nil, err
	}
	product := a.AdaptProduct(p)
	return &product, nil
}

// DecodeOrder decodes and adapts a raw sale.order record
func (a *OdooAdapter) DecodeOrder(raw []byte) (*integration.Order, error) {
	var o OdooSaleOrder
	if err := decodePayload(a.marketplace, raw, &o); err != nil {
		return nil, err
	}
	return a.AdaptOrder(o)
}

var _ integration.PayloadAdapter = (*OdooAdapter)(nil)
