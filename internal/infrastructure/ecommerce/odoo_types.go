package ecommerce

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Odoo JSON-RPC payloads
// ---------------------------------------------------------------------------

// OdooMany2One is an Odoo relational field encoded as [id, display_name].
// Odoo sends false when the relation is empty.
type OdooMany2One struct {
	ID   int64
	Name string
}

// UnmarshalJSON decodes [id, name] or false
func (m *OdooMany2One) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("false")) || bytes.Equal(data, []byte("null")) {
		*m = OdooMany2One{}
		return nil
	}
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("odoo many2one: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("odoo many2one: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &m.ID); err != nil {
		return fmt.Errorf("odoo many2one id: %w", err)
	}
	if err := json.Unmarshal(pair[1], &m.Name); err != nil {
		return fmt.Errorf("odoo many2one name: %w", err)
	}
	return nil
}

// MarshalJSON encodes the relation as [id, name]
func (m OdooMany2One) MarshalJSON() ([]byte, error) {
	if m.ID == 0 && m.Name == "" {
		return []byte("false"), nil
	}
	return json.Marshal([]any{m.ID, m.Name})
}

// OdooProduct is a product.product record
type OdooProduct struct {
	ID           int64           `json:"id"`
	DefaultCode  string          `json:"default_code"` // Internal reference, used as SKU
	Name         string          `json:"name"`
	ListPrice    decimal.Decimal `json:"list_price"`
	QtyAvailable float64         `json:"qty_available"`
}

// OdooOrderLine is a sale.order.line record
type OdooOrderLine struct {
	ProductID     OdooMany2One    `json:"product_id"`
	ProductUOMQty float64         `json:"product_uom_qty"`
	PriceUnit     decimal.Decimal `json:"price_unit"`
}

// OdooSaleOrder is a sale.order record
type OdooSaleOrder struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"` // Order reference, e.g. S00042
	PartnerID   OdooMany2One     `json:"partner_id"`
	AmountTotal *decimal.Decimal `json:"amount_total"`
	State       string           `json:"state"` // draft, sent, sale, done, cancel
	DateOrder   string           `json:"date_order,omitempty"`
	OrderLine   []OdooOrderLine  `json:"order_line"`
}
