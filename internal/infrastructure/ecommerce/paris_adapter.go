package ecommerce

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

var parisStatuses = statusTable{
	"draft":     integration.OrderStatusPending,
	"confirmed": integration.OrderStatusProcessing,
	"done":      integration.OrderStatusCompleted,
	"cancel":    integration.OrderStatusCancelled,
}

// ParisAdapter translates Paris payloads
type ParisAdapter struct {
	adapterBase
}

// NewParisAdapter creates a new Paris adapter
func NewParisAdapter(logger *zap.Logger) *ParisAdapter {
	return &ParisAdapter{
		adapterBase: newAdapterBase(integration.MarketplaceParis, logger, parisStatuses),
	}
}

// AdaptProduct converts a catalog entry
func (a *ParisAdapter) AdaptProduct(p ParisProduct) integration.Product {
	return integration.Product{
		ID:           p.ID,
		SKU:          p.Reference,
		Name:         p.Designation,
		Price:        p.SalePrice,
		Stock:        a.clampStock(p.Reference, p.Stock),
		Status:       integration.StatusFromActive(p.Active),
		Marketplaces: []integration.MarketplaceID{integration.MarketplaceParis},
	}
}

// AdaptOrder converts an order
func (a *ParisAdapter) AdaptOrder(o ParisOrder) (*integration.Order, error) {
	items := make([]integration.OrderItem, 0, len(o.Lines))
	for _, line := range o.Lines {
		qty, err := wholeUnits(line.Qty)
		if err != nil {
			return nil, fmt.Errorf("paris order %s: %w", o.ID, err)
		}
		item, err := integration.NewOrderItem(line.ProductRef, line.ProductName, qty, line.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("paris order %s: %w", o.ID, err)
		}
		items = append(items, item)
	}

	order := &integration.Order{
		ID:              o.ID,
		ExternalOrderID: o.Reference,
		Marketplace:     integration.MarketplaceParis,
		Customer: integration.Customer{
			Name:  o.ClientName,
			Email: o.ClientEmail,
		},
		Items:     items,
		Status:    a.MapStatus(o.State),
		CreatedAt: a.createdAt(o.DateOrder),
	}
	return a.finishOrder(order, o.Total), nil
}

// DecodeProduct decodes and adapts a raw catalog payload
func (a *ParisAdapter) DecodeProduct(raw []byte) (*integration.Product, error) {
	var p ParisProduct
	if err := decodePayload(a.marketplace, raw, &p); err != nil {
		return nil, err
	}
	product := a.AdaptProduct(p)
	return &product, nil
}

// DecodeOrder decodes and adapts a raw order payload
func (a *ParisAdapter) DecodeOrder(raw []byte) (*integration.Order, error) {
	var o ParisOrder
	if err := decodePayload(a.marketplace, raw, &o); err != nil {
		return nil, err
	}
	return a.AdaptOrder(o)
}

var _ integration.PayloadAdapter = (*ParisAdapter)(nil)
