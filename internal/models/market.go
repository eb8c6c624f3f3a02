package models

import (
	"math"
	"time"
)

// MarketSnapshot is the market state supplied with each tick
type MarketSnapshot struct {
	Spot float64 `json:"spot" csv:"spot"`
	// Volatility is the annualized volatility proxy as a decimal (0.15 = 15%).
	Volatility float64   `json:"volatility" csv:"volatility"`
	Timestamp  time.Time `json:"timestamp" csv:"timestamp"`
}

// HasSpot reports whether the spot price is usable
func (m MarketSnapshot) HasSpot() bool {
	return usable(m.Spot)
}

// HasVolatility reports whether the volatility proxy is usable
func (m MarketSnapshot) HasVolatility() bool {
	return usable(m.Volatility)
}

// StampedAt returns the snapshot with a missing timestamp set to now.
// Pricing and firing times both read the stamped value.
func (m MarketSnapshot) StampedAt(now time.Time) MarketSnapshot {
	if m.Timestamp.IsZero() {
		m.Timestamp = now.UTC()
	}
	return m
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// Scenario is an optional what-if shift applied to the theoretical valuation
type Scenario struct {
	HoursForward     float64 `json:"hours_forward" yaml:"hours_forward"`
	VolatilityOffset float64 `json:"volatility_offset" yaml:"volatility_offset"`
	SpotOffset       float64 `json:"spot_offset" yaml:"spot_offset"`
}

// Apply returns the effective spot and volatility under the scenario.
// Volatility never goes negative.
func (s Scenario) Apply(m MarketSnapshot) (spot, vol float64) {
	spot = m.Spot + s.SpotOffset
	vol = math.Max(0, m.Volatility+s.VolatilityOffset)
	return spot, vol
}

// PnLPoint is one sample of a P&L curve
type PnLPoint struct {
	Price float64 `json:"price"`
	PnL   float64 `json:"pnl"`
}

// PnLCurve is an ordered sequence of samples by ascending price
type PnLCurve []PnLPoint

// Breakeven is a price where the aggregate P&L crosses zero
type Breakeven float64
