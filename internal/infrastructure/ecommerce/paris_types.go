package ecommerce

import "github.com/shopspring/decimal"

// ---------------------------------------------------------------------------
// Paris marketplace payloads
// ---------------------------------------------------------------------------

// ParisProduct is a catalog entry
type ParisProduct struct {
	ID          string          `json:"id"`
	Reference   string          `json:"reference"`   // Seller reference, used as SKU
	Designation string          `json:"designation"` // Product name
	SalePrice   decimal.Decimal `json:"sale_price"`
	Stock       float64         `json:"stock"`
	Active      bool            `json:"active"`
}

// ParisOrderLine is an order line
type ParisOrderLine struct {
	ProductRef  string          `json:"product_ref"`
	ProductName string          `json:"product_name"`
	Qty         float64         `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ParisOrder is an order as returned by the Paris API
type ParisOrder struct {
	ID          string           `json:"id"`
	Reference   string           `json:"reference"`
	ClientName  string           `json:"client_name"`
	ClientEmail string           `json:"client_email"`
	Total       *decimal.Decimal `json:"total"`
	State       string           `json:"state"` // draft, confirmed, done, cancel
	DateOrder   string           `json:"date_order"`
	Lines       []ParisOrderLine `json:"lines"`
}
