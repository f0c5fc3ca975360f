package ecommerce

import "github.com/shopspring/decimal"

// ---------------------------------------------------------------------------
// Walmart marketplace payloads
// ---------------------------------------------------------------------------

// WalmartItem is a catalog item
type WalmartItem struct {
	UPC             string          `json:"upc"`
	SKU             string          `json:"sku"`
	ProductName     string          `json:"product_name"`
	Price           decimal.Decimal `json:"price"`
	InventoryCount  float64         `json:"inventory_count"`
	PublishedStatus string          `json:"published_status"` // PUBLISHED, UNPUBLISHED, ...
}

// WalmartOrderLine is a purchase order line
type WalmartOrderLine struct {
	ItemID      string          `json:"item_id"`
	ProductName string          `json:"product_name"`
	Quantity    float64         `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// WalmartOrder is a purchase order
type WalmartOrder struct {
	PurchaseOrderID string             `json:"purchase_order_id"`
	CustomerOrderID string             `json:"customer_order_id"`
	CustomerEmail   string             `json:"customer_email,omitempty"`
	CustomerName    string             `json:"customer_name"`
	OrderTotal      *decimal.Decimal   `json:"order_total"`
	OrderDate       string             `json:"order_date"`
	Status          string             `json:"status,omitempty"` // Absent on settled purchase orders
	OrderLines      []WalmartOrderLine `json:"order_lines"`
}
