package ecommerce

import "github.com/shopspring/decimal"

// ---------------------------------------------------------------------------
// Ripley marketplace payloads
// ---------------------------------------------------------------------------

// RipleyProduct is an offer in the Ripley catalog
type RipleyProduct struct {
	ProductID     string          `json:"product_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity float64         `json:"stock_quantity"`
	Status        string          `json:"status"` // "active" or anything else
}

// RipleyOrderItem is an order line
type RipleyOrderItem struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Quantity float64         `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// RipleyOrder is an order as returned by the Ripley API
type RipleyOrder struct {
	OrderID       string            `json:"order_id"`
	OrderNumber   string            `json:"order_number"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	TotalAmount   *decimal.Decimal  `json:"total_amount"`
	Status        string            `json:"status"` // pending, processing, shipped, delivered, cancelled
	CreatedAt     string            `json:"created_at"`
	Items         []RipleyOrderItem `json:"items"`
}
