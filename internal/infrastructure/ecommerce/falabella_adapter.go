package ecommerce

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// falabellaPricePlaces is the precision of derived per-unit prices
const falabellaPricePlaces = 2

var falabellaStatuses = statusTable{
	"pending":       integration.OrderStatusPending,
	"ready_to_ship": integration.OrderStatusProcessing,
	"shipped":       integration.OrderStatusCompleted,
	"delivered":     integration.OrderStatusCompleted,
	"cancelled":     integration.OrderStatusCancelled,
}

// FalabellaAdapter translates Falabella Seller Center payloads
type FalabellaAdapter struct {
	adapterBase
}

// NewFalabellaAdapter creates a new Falabella adapter
func NewFalabellaAdapter(logger *zap.Logger) *FalabellaAdapter {
	return &FalabellaAdapter{
		adapterBase: newAdapterBase(integration.MarketplaceFalabella, logger, falabellaStatuses),
	}
}

// AdaptProduct converts a Seller Center product. Listed products are always active.
func (a *FalabellaAdapter) AdaptProduct(p FalabellaProduct) integration.Product {
	return integration.Product{
		ID:           p.ItemID,
		SKU:          p.SellerSKU,
		Name:         p.Name,
		Price:        p.Price,
		Stock:        a.clampStock(p.SellerSKU, p.Quantity),
		Status:       integration.ProductStatusActive,
		Marketplaces: []integration.MarketplaceID{integration.MarketplaceFalabella},
	}
}

// AdaptOrder converts an order. Falabella only reports an order-level price, so
// each line gets the order price spread evenly over all units.
func (a *FalabellaAdapter) AdaptOrder(o FalabellaOrder) (*integration.Order, error) {
	orderPrice, err := decimal.NewFromString(strings.TrimSpace(o.Price))
	if err != nil {
		return nil, fmt.Errorf("%w: falabella order %s price %q", integration.ErrInvalidPrice, o.OrderID, o.Price)
	}

	quantities := make([]int, len(o.Items))
	totalUnits := 0
	for i, line := range o.Items {
		qty, err := wholeUnits(line.Qty)
		if err != nil {
			return nil, fmt.Errorf("falabella order %s: %w", o.OrderID, err)
		}
		quantities[i] = qty
		totalUnits += qty
	}
	if len(o.Items) > 0 && totalUnits <= 0 {
		return nil, fmt.Errorf("%w: falabella order %s", integration.ErrZeroQuantity, o.OrderID)
	}

	unitPrice := decimal.Zero
	if totalUnits > 0 {
		unitPrice = orderPrice.DivRound(decimal.NewFromInt(int64(totalUnits)), falabellaPricePlaces)
	}

	items := make([]integration.OrderItem, 0, len(o.Items))
	for i, line := range o.Items {
		item, err := integration.NewOrderItem(line.SKU, line.Name, quantities[i], unitPrice)
		if err != nil {
			return nil, fmt.Errorf("falabella order %s: %w", o.OrderID, err)
		}
		items = append(items, item)
	}

	name := strings.TrimSpace(o.CustomerFirstName + " " + o.CustomerLastName)
	order := &integration.Order{
		ID:              o.OrderID,
		ExternalOrderID: o.OrderNumber,
		Marketplace:     integration.MarketplaceFalabella,
		Customer:        integration.Customer{Name: name},
		Items:           items,
		Status:          a.MapStatus(o.Status),
		CreatedAt:       a.createdAt(o.CreatedAt),
	}
	return a.finishOrder(order, &orderPrice), nil
}

// DecodeProduct decodes and adapts a raw product payload
func (a *FalabellaAdapter) DecodeProduct(raw []byte) (*integration.Product, error) {
	var p FalabellaProduct
	if err := decodePayload(a.marketplace, raw, &p); err != nil {
		return nil, err
	}
	product := a.AdaptProduct(p)
	return &product, nil
}

// DecodeOrder decodes and adapts a raw order payload
func (a *FalabellaAdapter) DecodeOrder(raw []byte) (*integration.Order, error) {
	var o FalabellaOrder
	if err := decodePayload(a.marketplace, raw, &o); err != nil {
		return nil, err
	}
	return a.AdaptOrder(o)
}

var _ integration.PayloadAdapter = (*FalabellaAdapter)(nil)
