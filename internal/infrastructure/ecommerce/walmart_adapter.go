package ecommerce

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// walmartPublished is the published_status of a live listing
const walmartPublished = "PUBLISHED"

var walmartStatuses = statusTable{
	// Purchase orders without a status have already been settled
	"":             integration.OrderStatusCompleted,
	"Created":      integration.OrderStatusPending,
	"Acknowledged": integration.OrderStatusProcessing,
	"Shipped":      integration.OrderStatusCompleted,
	"Delivered":    integration.OrderStatusCompleted,
	"Cancelled":    integration.OrderStatusCancelled,
}

// WalmartAdapter translates Walmart payloads
type WalmartAdapter struct {
	adapterBase
}

// NewWalmartAdapter creates a new Walmart adapter
func NewWalmartAdapter(logger *zap.Logger) *WalmartAdapter {
	return &WalmartAdapter{
		adapterBase: newAdapterBase(integration.MarketplaceWalmart, logger, walmartStatuses),
	}
}

// AdaptProduct converts a catalog item. The UPC is the product id.
func (a *WalmartAdapter) AdaptProduct(p WalmartItem) integration.Product {
	return integration.Product{
		ID:           p.UPC,
		SKU:          p.SKU,
		Name:         p.ProductName,
		Price:        p.Price,
		Stock:        a.clampStock(p.SKU, p.InventoryCount),
		Status:       integration.StatusFromActive(p.PublishedStatus == walmartPublished),
		Marketplaces: []integration.MarketplaceID{integration.MarketplaceWalmart},
	}
}

// AdaptOrder converts a purchase order
func (a *WalmartAdapter) AdaptOrder(o WalmartOrder) (*integration.Order, error) {
	items := make([]integration.OrderItem, 0, len(o.OrderLines))
	for _, line := range o.OrderLines {
		qty, err := wholeUnits(line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("walmart order %s: %w", o.PurchaseOrderID, err)
		}
		item, err := integration.NewOrderItem(line.ItemID, line.ProductName, qty, line.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("walmart order %s: %w", o.PurchaseOrderID, err)
		}
		items = append(items, item)
	}

	order := &integration.Order{
		ID:              o.PurchaseOrderID,
		ExternalOrderID: o.CustomerOrderID,
		Marketplace:     integration.MarketplaceWalmart,
		Customer: integration.Customer{
			Name:  o.CustomerName,
			Email: o.CustomerEmail,
		},
		Items:     items,
		Status:    a.MapStatus(o.Status),
		CreatedAt: a.createdAt(o.OrderDate),
	}
	return a.finishOrder(order, o.OrderTotal), nil
}

// DecodeProduct decodes and adapts a raw item payload
func (a *WalmartAdapter) DecodeProduct(raw []byte) (*integration.Product, error) {
	var p WalmartItem
	if err := decodePayload(a.marketplace, raw, &p); err != nil {
		return nil, err
	}
	product := a.AdaptProduct(p)
	return &product, nil
}

// DecodeOrder decodes and adapts a raw purchase order payload
func (a *WalmartAdapter) DecodeOrder(raw []byte) (*integration.Order, error) {
	var o WalmartOrder
	if err := decodePayload(a.marketplace, raw, &o); err != nil {
		return nil, err
	}
	return a.AdaptOrder(o)
}

var _ integration.PayloadAdapter = (*WalmartAdapter)(nil)
