package ecommerce

import (
	"errors"
	"time"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// Simulated client configuration errors
var (
	ErrSimulatedMarketplaceRequired = errors.New("ecommerce: simulated client marketplace is required")
	ErrSimulatedFailureRateRange    = errors.New("ecommerce: simulated failure rate must be within [0, 1]")
	ErrSimulatedLatencyNegative     = errors.New("ecommerce: simulated latency cannot be negative")
)

// SimulatedConfig holds the behavior of one simulated marketplace
type SimulatedConfig struct {
	// Marketplace is the marketplace the client stands in for
	Marketplace integration.MarketplaceID
	// FailureRate is the probability that a stock update is rejected
	FailureRate float64
	// Latency is the delay applied before every call
	Latency time.Duration
	// Seed seeds the random source deciding rejections
	Seed uint64
}

// Validate validates the configuration
func (c *SimulatedConfig) Validate() error {
	if c.Marketplace == "" {
		return ErrSimulatedMarketplaceRequired
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return ErrSimulatedFailureRateRange
	}
	if c.Latency < 0 {
		return ErrSimulatedLatencyNegative
	}
	return nil
}

// DefaultFailureRates returns the observed rejection rate of each marketplace's stock API
func DefaultFailureRates() map[integration.MarketplaceID]float64 {
	return map[integration.MarketplaceID]float64{
		integration.MarketplaceMercadoLibre: 0.10,
		integration.MarketplaceRipley:       0.08,
		integration.MarketplaceParis:        0.07,
		integration.MarketplaceFalabella:    0.05,
		integration.MarketplaceWalmart:      0.06,
		integration.MarketplaceOdoo:         0,
	}
}

// DefaultSimulatedConfig returns the default configuration for a marketplace
func DefaultSimulatedConfig(id integration.MarketplaceID) SimulatedConfig {
	return SimulatedConfig{
		Marketplace: id,
		FailureRate: DefaultFailureRates()[id],
	}
}
