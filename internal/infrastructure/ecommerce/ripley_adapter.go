package ecommerce

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

var ripleyStatuses = statusTable{
	"pending":    integration.OrderStatusPending,
	"processing": integration.OrderStatusProcessing,
	"shipped":    integration.OrderStatusCompleted,
	"delivered":  integration.OrderStatusCompleted,
	"cancelled":  integration.OrderStatusCancelled,
}

// RipleyAdapter translates Ripley payloads
type RipleyAdapter struct {
	adapterBase
}

// NewRipleyAdapter creates a new Ripley adapter
func NewRipleyAdapter(logger *zap.Logger) *RipleyAdapter {
	return &RipleyAdapter{
		adapterBase: newAdapterBase(integration.MarketplaceRipley, logger, ripleyStatuses),
	}
}

// AdaptProduct converts a catalog offer
func (a *RipleyAdapter) AdaptProduct(p RipleyProduct) integration.Product {
	return integration.Product{
		ID:           p.ProductID,
		SKU:          p.SKU,
		Name:         p.Name,
		Price:        p.Price,
		Stock:        a.clampStock(p.SKU, p.StockQuantity),
		Status:       integration.StatusFromActive(p.Status == "active"),
		Marketplaces: []integration.MarketplaceID{integration.MarketplaceRipley},
	}
}

// AdaptOrder converts an order
func (a *RipleyAdapter) AdaptOrder(o RipleyOrder) (*integration.Order, error) {
	items := make([]integration.OrderItem, 0, len(o.Items))
	for _, line := range o.Items {
		qty, err := wholeUnits(line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("ripley order %s: %w", o.OrderID, err)
		}
		item, err := integration.NewOrderItem(line.SKU, line.Name, qty, line.Price)
		if err != nil {
			return nil, fmt.Errorf("ripley order %s: %w", o.OrderID, err)
		}
		items = append(items, item)
	}

	order := &integration.Order{
		ID:              o.OrderID,
		ExternalOrderID: o.OrderNumber,
		Marketplace:     integration.MarketplaceRipley,
		Customer: integration.Customer{
			Name:  o.CustomerName,
			Email: o.CustomerEmail,
		},
		Items:     items,
		Status:    a.MapStatus(o.Status),
		CreatedAt: a.createdAt(o.CreatedAt),
	}
	return a.finishOrder(order, o.TotalAmount), nil
}

// DecodeProduct decodes and adapts a raw offer payload
func (a *RipleyAdapter) DecodeProduct(raw []byte) (*integration.Product, error) {
	var p RipleyProduct
	if err := decodePayload(a.marketplace, raw, &p); err != nil {
		return nil, err
	}
	product := a.AdaptProduct(p)
	return &product, nil
}

// DecodeOrder decodes and adapts a raw order payload
func (a *RipleyAdapter) DecodeOrder(raw []byte) (*integration.Order, error) {
	var o RipleyOrder
	if err := decodePayload(a.marketplace, raw, &o); err != nil {
		return nil, err
	}
	return a.AdaptOrder(o)
}

var _ integration.PayloadAdapter = (*RipleyAdapter)(nil)
