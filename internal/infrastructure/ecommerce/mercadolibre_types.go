package ecommerce

import "github.com/shopspring/decimal"

// ---------------------------------------------------------------------------
// MercadoLibre payloads
// ---------------------------------------------------------------------------

// MercadoLibreItem is a listing as returned by the items API
type MercadoLibreItem struct {
	ID                string          `json:"id"`                // MLC listing id, e.g. MLC123456
	Title             string          `json:"title"`             // Listing title
	Price             decimal.Decimal `json:"price"`             // Listing price in CLP
	AvailableQuantity float64         `json:"available_quantity"` // Units available
	SKU               string          `json:"sku,omitempty"`     // Seller SKU, empty when the seller never set one
}

// MercadoLibreBuyer is the buyer block of an order
type MercadoLibreBuyer struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email,omitempty"`
}

// MercadoLibreOrderItem is a single line of an order
type MercadoLibreOrderItem struct {
	Item      MercadoLibreItemRef `json:"item"`
	Quantity  float64         `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// MercadoLibreItemRef identifies the listing an order line was bought from
type MercadoLibreItemRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MercadoLibreOrder is an order as returned by the orders API
type MercadoLibreOrder struct {
	ID          string                  `json:"id"`
	Status      string                  `json:"status"`       // paid, confirmed, shipped, cancelled, pending
	TotalAmount *decimal.Decimal        `json:"total_amount"` // Order total reported by MercadoLibre
	DateCreated string                  `json:"date_created,omitempty"`
	Buyer       MercadoLibreBuyer       `json:"buyer"`
	OrderItems  []MercadoLibreOrderItem `json:"order_items"`
}
