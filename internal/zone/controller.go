// Package zone implements the profit-protection corridor used by dynamic_zone alerts.
//
// Once profit reaches a fraction of the entry debit, a price corridor is opened
// around the effective spot. While the corridor is active it only ever widens.
// Leaving the corridor is the firing signal; dropping back under the profit
// threshold discards the corridor.
package zone

import (
	"fmt"
	"math"

	"github.com/eddiefleurent/scranton_spreads/internal/config"
	"github.com/eddiefleurent/scranton_spreads/internal/models"
	"github.com/eddiefleurent/scranton_spreads/internal/pricing"
)

// State is the corridor carried between ticks
type State struct {
	Active              bool
	Low                 float64
	High                float64
	HighWaterMarkProfit float64
	// HighWaterMarkProfitSet is false until the first valid tick.
	HighWaterMarkProfitSet bool
}

// Input is everything the controller needs for one tick
type Input struct {
	Structure     models.StructureType
	EffectiveSpot float64
	// Profit is the per-share theoretical P&L at the effective spot.
	Profit float64
	Debit  float64
	// Threshold is the activation fraction of debit; zero uses the configured default.
	Threshold    float64
	DTE          int
	HoursForward float64
}

// Outcome reports what the tick decided
type Outcome struct {
	Fire           bool
	OtherSide      bool
	ProfitFraction float64
	HalfWidth      float64
}

// Controller sizes and tracks corridors. It is stateless; State travels with the alert.
type Controller struct {
	cfg config.ZoneConfig
}

// NewController returns a Controller for the zone configuration
func NewController(cfg config.ZoneConfig) Controller {
	return Controller{cfg: cfg}
}

// TimeFactor shrinks the corridor as expiration approaches
func (c Controller) TimeFactor(effectiveDays float64) float64 {
	f := math.Sqrt(math.Max(0, effectiveDays)) * c.cfg.TimeScale
	return math.Min(c.cfg.TimeFactorMax, math.Max(c.cfg.TimeFactorMin, f))
}

// GammaFactor narrows the corridor for structures with more gamma near the strike
func (c Controller) GammaFactor(structure models.StructureType) float64 {
	switch structure {
	case models.StructureButterfly:
		return c.cfg.Gamma.Butterfly
	case models.StructureVertical:
		return c.cfg.Gamma.Vertical
	default:
		return c.cfg.Gamma.Single
	}
}

// ProfitBuffer widens the corridor with accumulated profit, only with more than a day left
func (c Controller) ProfitBuffer(effectiveDays, profitFraction float64) float64 {
	if effectiveDays <= 1 {
		return 1
	}
	return 1 + math.Max(0, profitFraction)*c.cfg.ProfitBufferScale
}

// HalfWidth returns the corridor half width, floored at the configured minimum
func (c Controller) HalfWidth(structure models.StructureType, effectiveDays, profitFraction float64) float64 {
	w := c.cfg.BaseHalfWidth *
		c.TimeFactor(effectiveDays) *
		c.GammaFactor(structure) *
		c.ProfitBuffer(effectiveDays, profitFraction)
	return math.Max(c.cfg.MinHalfWidth, w)
}

// Step advances the corridor by one tick.
// The exit test uses the bounds held before this tick; a tick that exits does not widen.
func (c Controller) Step(s State, in Input) (State, Outcome, error) {
	if math.IsNaN(in.Debit) || in.Debit <= 0 {
		return s, Outcome{}, fmt.Errorf("zone needs a positive debit (current: %.2f): %w",
			in.Debit, models.ErrInvalidStrategyParameters)
	}
	if math.IsNaN(in.Profit) || math.IsInf(in.Profit, 0) ||
		math.IsNaN(in.EffectiveSpot) || math.IsInf(in.EffectiveSpot, 0) {
		return s, Outcome{}, models.ErrMissingMarketData
	}

	threshold := in.Threshold
	if threshold <= 0 {
		threshold = c.cfg.DefaultThreshold
	}

	out := Outcome{ProfitFraction: in.Profit / in.Debit}
	if !s.HighWaterMarkProfitSet || in.Profit > s.HighWaterMarkProfit {
		s.HighWaterMarkProfit = in.Profit
		s.HighWaterMarkProfitSet = true
	}

	if out.ProfitFraction < threshold {
		s.Active = false
		s.Low, s.High = 0, 0
		return s, out, nil
	}

	days := pricing.EffectiveDaysRemaining(in.DTE, in.HoursForward)
	out.HalfWidth = c.HalfWidth(in.Structure, days, out.ProfitFraction)
	low, high := in.EffectiveSpot-out.HalfWidth, in.EffectiveSpot+out.HalfWidth

	if !s.Active {
		s.Active = true
		s.Low, s.High = low, high
		out.OtherSide = true
		return s, out, nil
	}

	if in.EffectiveSpot < s.Low || in.EffectiveSpot > s.High {
		out.Fire = true
		return s, out, nil
	}

	s.Low = math.Min(s.Low, low)
	s.High = math.Max(s.High, high)
	out.OtherSide = true
	return s, out, nil
}
