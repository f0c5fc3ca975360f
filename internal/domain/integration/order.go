package integration

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SettlementCurrency is the single currency all amounts are normalized to
const SettlementCurrency = "CLP"

// OrderStatus represents the canonical order status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusError      OrderStatus = "error"
)

// IsValid returns true if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusError:
		return true
	default:
		return false
	}
}

// IsOpen returns true while the order still awaits fulfilment
func (s OrderStatus) IsOpen() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// Customer is the buyer of an order
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Address is a postal address attached to an order
type Address struct {
	Name     string
	Address1 string
	Address2 string
	City     string
	Region   string
	Postcode string
	Country  string
	Phone    string
}

// OrderItem is one line of an order. Total is always Quantity * UnitPrice.
type OrderItem struct {
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// NewOrderItem creates an order line, computing its total
func NewOrderItem(sku, name string, quantity int, unitPrice decimal.Decimal) (OrderItem, error) {
	if quantity <= 0 {
		return OrderItem{}, fmt.Errorf("%w: sku %s has quantity %d", ErrInvalidQuantity, sku, quantity)
	}
	if unitPrice.IsNegative() {
		return OrderItem{}, fmt.Errorf("%w: sku %s", ErrNegativePrice, sku)
	}
	return OrderItem{
		SKU:       sku,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// Order is the canonical order. Total always equals the sum of item totals.
type Order struct {
	// ID is the internal identifier
	ID string
	// ExternalOrderID is the order number on the source marketplace
	ExternalOrderID string
	// Marketplace is the source marketplace
	Marketplace MarketplaceID
	// Customer is the buyer
	Customer Customer
	// Items are the order lines, in source order
	Items []OrderItem
	// Total is the sum of item totals
	Total decimal.Decimal
	// Currency is the settlement currency
	Currency string
	// Status is the canonical status
	Status OrderStatus
	// CreatedAt is when the order was placed
	CreatedAt time.Time
	// UpdatedAt is when the order last changed, if known
	UpdatedAt *time.Time
	// ShippingAddress is optional
	ShippingAddress *Address
	// BillingAddress is optional
	BillingAddress *Address
}

// RecalculateTotal sets Total to the sum of item totals and returns it
func (o *Order) RecalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Total)
	}
	o.Total = total
	return total
}

// Validate checks the order invariants
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	sum := decimal.Zero
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: sku %s", ErrInvalidQuantity, item.SKU)
		}
		if !item.Total.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			return fmt.Errorf("integration: item %s total does not match quantity * unit price", item.SKU)
		}
		sum = sum.Add(item.Total)
	}
	if !sum.Equal(o.Total) {
		return fmt.Errorf("integration: order %s total %s does not match item sum %s", o.ID, o.Total, sum)
	}
	return nil
}

// UnitCount returns the total quantity across all items
func (o *Order) UnitCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// Key identifies the order across marketplaces, since native ids are only unique per marketplace
func (o *Order) Key() string {
	return OrderKey(o.Marketplace, o.ID)
}

// OrderKey builds the cross-marketplace key of an order
func OrderKey(marketplace MarketplaceID, id string) string {
	return string(marketplace) + ":" + id
}
