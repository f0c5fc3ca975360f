package integration

import "github.com/hyperpc/marketsync/internal/domain/shared"

// AggregateTypeMarketplace is the aggregate type of marketplace pull events
const AggregateTypeMarketplace = "Marketplace"

// Marketplace pull event types
const (
	EventTypeMarketplacePulled     = "MarketplacePulled"
	EventTypeMarketplacePullFailed = "MarketplacePullFailed"
)

// MarketplacePulledEvent is published after orders and products were pulled from a marketplace
type MarketplacePulledEvent struct {
	shared.BaseDomainEvent
	Marketplace MarketplaceID
	Orders      int
	NewOrders   int
	Products    int
}

// NewMarketplacePulledEvent creates a pull success event
func NewMarketplacePulledEvent(m MarketplaceID, orders, newOrders, products int) *MarketplacePulledEvent {
	return &MarketplacePulledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMarketplacePulled, AggregateTypeMarketplace, string(m)),
		Marketplace:     m,
		Orders:          orders,
		NewOrders:       newOrders,
		Products:        products,
	}
}

// MarketplacePullFailedEvent is published when a pull exhausted its retries
type MarketplacePullFailedEvent struct {
	shared.BaseDomainEvent
	Marketplace MarketplaceID
	Attempts    int
	Error       string
}

// NewMarketplacePullFailedEvent creates a pull failure event
func NewMarketplacePullFailedEvent(m MarketplaceID, attempts int, err error) *MarketplacePullFailedEvent {
	return &MarketplacePullFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMarketplacePullFailed, AggregateTypeMarketplace, string(m)),
		Marketplace:     m,
		Attempts:        attempts,
		Error:           err.Error(),
	}
}
