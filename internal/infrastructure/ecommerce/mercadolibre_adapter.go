package ecommerce

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

var mercadoLibreStatuses = statusTable{
	"paid":      integration.OrderStatusProcessing,
	"confirmed": integration.OrderStatusProcessing,
	"shipped":   integration.OrderStatusCompleted,
	"cancelled": integration.OrderStatusCancelled,
	"pending":   integration.OrderStatusPending,
}

// MercadoLibreAdapter translates MercadoLibre payloads into canonical records
type MercadoLibreAdapter struct {
	adapterBase
}

// NewMercadoLibreAdapter creates a new MercadoLibre adapter
func NewMercadoLibreAdapter(logger *zap.Logger) *MercadoLibreAdapter {
	return &MercadoLibreAdapter{
		adapterBase: newAdapterBase(integration.MarketplaceMercadoLibre, logger, mercadoLibreStatuses),
	}
}

// AdaptProduct converts a listing. The listing id stands in for a missing seller SKU.
func (a *MercadoLibreAdapter) AdaptProduct(item MercadoLibreItem) integration.Product {
	sku := item.SKU
	if sku == "" {
		sku = item.ID
	}
	return integration.Product{
		ID:           item.ID,
		SKU:          sku,
		Name:         item.Title,
		Price:        item.Price,
		Stock:        a.clampStock(sku, item.AvailableQuantity),
		Status:       integration.ProductStatusActive,
		Marketplaces: []integration.MarketplaceID{integration.MarketplaceMercadoLibre},
	}
}

// AdaptOrder converts an order. Item SKUs are the listing ids.
func (a *MercadoLibreAdapter) AdaptOrder(o MercadoLibreOrder) (*integration.Order, error) {
	items := make([]integration.OrderItem, 0, len(o.OrderItems))
	for _, line := range o.OrderItems {
		qty, err := wholeUnits(line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("mercadolibre order %s: %w", o.ID, err)
		}
		item, err := integration.NewOrderItem(line.Item.ID, line.Item.Title, qty, line.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("mercadolibre order %s: %w", o.ID, err)
		}
		items = append(items, item)
	}

	order := &integration.Order{
		ID:              o.ID,
		ExternalOrderID: o.ID,
		Marketplace:     integration.MarketplaceMercadoLibre,
		Customer: integration.Customer{
			Name:  o.Buyer.Nickname,
			Email: o.Buyer.Email,
		},
		Items:     items,
		Status:    a.MapStatus(o.Status),
		CreatedAt: a.createdAt(o.DateCreated),
	}
	return a.finishOrder(order, o.TotalAmount), nil
}

// DecodeProduct decodes and adapts a raw listing payload
func (a *MercadoLibreAdapter) DecodeProduct(raw []byte) (*integration.Product, error) {
	var item MercadoLibreItem
	if err := decodePayload(a.marketplace, raw, &item); err != nil {
		return nil, err
	}
	p := a.AdaptProduct(item)
	return &p, nil
}

// DecodeOrder decodes and adapts a raw order payload
func (a *MercadoLibreAdapter) DecodeOrder(raw []byte) (*integration.Order, error) {
	var o MercadoLibreOrder
	if err := decodePayload(a.marketplace, raw, &o); err != nil {
		return nil, err
	}
	return a.AdaptOrder(o)
}

var _ integration.PayloadAdapter = (*MercadoLibreAdapter)(nil)
