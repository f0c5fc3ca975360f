// Package dashboard derives summary statistics from the canonical order and product sets.
package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// Stats summarizes a set of orders
type Stats struct {
	TotalSales          int
	TotalAmount         decimal.Decimal
	Errors              int
	PendingOrders       int
	OrdersByMarketplace map[integration.MarketplaceID]int
}

// Compute reduces orders into Stats. It has no side effects and depends
// only on its input.
func Compute(orders []integration.Order) Stats {
	s := Stats{
		TotalSales:          len(orders),
		TotalAmount:         decimal.Zero,
		OrdersByMarketplace: make(map[integration.MarketplaceID]int),
	}
	for i := range orders {
		o := &orders[i]
		s.TotalAmount = s.TotalAmount.Add(o.Total)
		switch {
		case o.Status == integration.OrderStatusError:
			s.Errors++
		case o.Status.IsOpen():
			s.PendingOrders++
		}
		s.OrdersByMarketplace[o.Marketplace]++
	}
	return s
}

// SameDay reports whether t falls on the calendar day of day, in day's location
func SameDay(t, day time.Time) bool {
	t = t.In(day.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// FilterByDate returns the orders created on day. When none match, every
// order is returned and the second result is false.
func FilterByDate(orders []integration.Order, day time.Time) ([]integration.Order, bool) {
	out := make([]integration.Order, 0, len(orders))
	for _, o := range orders {
		if SameDay(o.CreatedAt, day) {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return orders, false
	}
	return out, true
}

// Filter returns the orders matching f
func Filter(orders []integration.Order, f integration.OrderFilter) []integration.Order {
	out := make([]integration.Order, 0, len(orders))
	for i := range orders {
		if f.Matches(&orders[i]) {
			out = append(out, orders[i])
		}
	}
	return out
}

// CountByStatus groups orders by canonical status
func CountByStatus(orders []integration.Order) map[integration.OrderStatus]int {
	out := make(map[integration.OrderStatus]int)
	for _, o := range orders {
		out[o.Status]++
	}
	return out
}

// LowStockCount counts products at or below their reorder threshold.
// threshold applies to products without MinStock.
func LowStockCount(products []integration.Product, threshold int) int {
	n := 0
	for i := range products {
		if products[i].IsLowStock(threshold) {
			n++
		}
	}
	return n
}
