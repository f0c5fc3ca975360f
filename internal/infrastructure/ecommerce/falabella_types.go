package ecommerce

import "github.com/shopspring/decimal"

// ---------------------------------------------------------------------------
// Falabella Seller Center payloads
// ---------------------------------------------------------------------------

// FalabellaProduct is a product as returned by Seller Center
type FalabellaProduct struct {
	ItemID    string          `json:"item_id"`
	SellerSKU string          `json:"seller_sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  float64         `json:"quantity"`
}

// FalabellaOrderItem is an order line. Falabella reports no per-line price.
type FalabellaOrderItem struct {
	SKU  string  `json:"sku"`
	Name string  `json:"name"`
	Qty  float64 `json:"qty"`
}

// FalabellaOrder is an order as returned by Seller Center
type FalabellaOrder struct {
	OrderID           string               `json:"order_id"`
	OrderNumber       string               `json:"order_number"`
	CustomerFirstName string               `json:"customer_first_name"`
	CustomerLastName  string               `json:"customer_last_name"`
	Price             string               `json:"price"`  // Order total as a decimal string
	Status            string               `json:"status"` // pending, ready_to_ship, shipped, delivered, cancelled
	CreatedAt         string               `json:"created_at"`
	Items             []FalabellaOrderItem `json:"items"`
}
