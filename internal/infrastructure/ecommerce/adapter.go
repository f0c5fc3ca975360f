package ecommerce

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// nativeTimeLayouts lists the timestamp formats seen across marketplace payloads
var nativeTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// statusTable maps a marketplace's native order status to the canonical status
type statusTable map[string]integration.OrderStatus

// adapterBase carries the dependencies every payload adapter shares
type adapterBase struct {
	marketplace integration.MarketplaceID
	logger      *zap.Logger
	now         func() time.Time
	statuses    statusTable
}

func newAdapterBase(marketplace integration.MarketplaceID, logger *zap.Logger, statuses statusTable) adapterBase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return adapterBase{
		marketplace: marketplace,
		logger:      logger.With(zap.String("marketplace", string(marketplace))),
		now:         time.Now,
		statuses:    statuses,
	}
}

// Marketplace returns the marketplace the adapter translates for
func (a *adapterBase) Marketplace() integration.MarketplaceID {
	return a.marketplace
}

// SetClock overrides the clock used for payloads without a native creation date
func (a *adapterBase) SetClock(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}

// MapStatus translates a native order status. Unknown values map to pending.
func (a *adapterBase) MapStatus(native string) integration.OrderStatus {
	if status, ok := a.statuses[native]; ok {
		return status
	}
	a.logger.Warn("Unknown native order status, defaulting to pending",
		zap.String("native_status", native))
	return integration.OrderStatusPending
}

// createdAt parses a native timestamp, falling back to the adapter clock
func (a *adapterBase) createdAt(native string) time.Time {
	if native != "" {
		for _, layout := range nativeTimeLayouts {
			if t, err := time.Parse(layout, native); err == nil {
				return t
			}
		}
		a.logger.Debug("Unparseable native timestamp, using current time",
			zap.String("native_time", native))
	}
	return a.now()
}

// finishOrder recomputes the order total from its items and warns on drift
func (a *adapterBase) finishOrder(order *integration.Order, nativeTotal *decimal.Decimal) *integration.Order {
	order.Currency = integration.SettlementCurrency
	order.RecalculateTotal()
	if nativeTotal != nil {
		if reported := *nativeTotal; !reported.Equal(order.Total) {
			a.logger.Debug("Native order total differs from item sum",
				zap.String("order_id", order.ID),
				zap.String("native_total", reported.String()),
				zap.String("item_total", order.Total.String()))
		}
	}
	return order
}

// decodePayload unmarshals a raw payload, tagging failures as invalid payloads
func decodePayload(marketplace integration.MarketplaceID, raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", integration.ErrInvalidPayload, marketplace, err)
	}
	return nil
}

// maxUnits bounds native quantities so conversion to int never overflows
const maxUnits = math.MaxInt32

// wholeUnits converts a native quantity to whole units.
// Fractional quantities are rejected since stock is counted in units.
func wholeUnits(qty float64) (int, error) {
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty != math.Trunc(qty) {
		return 0, fmt.Errorf("%w: %v is not a whole number", integration.ErrInvalidQuantity, qty)
	}
	if math.Abs(qty) > maxUnits {
		return 0, fmt.Errorf("%w: %v exceeds %d units", integration.ErrInvalidQuantity, qty, maxUnits)
	}
	return int(qty), nil
}

// clampStock floors catalog stock into [0, maxUnits]
func (a *adapterBase) clampStock(sku string, stock float64) int {
	if stock <= 0 || math.IsNaN(stock) {
		if stock < 0 {
			a.logger.Warn("Negative native stock clamped to zero",
				zap.String("sku", sku), zap.Float64("stock", stock))
		}
		return 0
	}
	if stock > maxUnits {
		a.logger.Warn("Native stock clamped to maximum",
			zap.String("sku", sku), zap.Float64("stock", stock))
		return maxUnits
	}
	return int(math.Floor(stock))
}
