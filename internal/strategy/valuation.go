// Package strategy values single, vertical and butterfly structures.
package strategy

import (
	"math"

	"github.com/eddiefleurent/scranton_spreads/internal/models"
	"github.com/eddiefleurent/scranton_spreads/internal/pricing"
)

// Valuation is the value of one position at one underlying price
type Valuation struct {
	// Value is the per-share structure value, clamped to its payoff bounds.
	Value float64
	// PnL is the dollar P&L: (Value - debit) * multiplier, clamped.
	PnL float64
}

// Valuer prices positions. It holds no mutable state and is safe for concurrent use.
type Valuer struct {
	Multiplier float64
	Rate       float64
}

// NewValuer returns a Valuer, defaulting the multiplier to 100 shares per contract
func NewValuer(multiplier, rate float64) Valuer {
	if multiplier <= 0 {
		multiplier = models.SharesPerContract
	}
	return Valuer{Multiplier: multiplier, Rate: rate}
}

// leg is one option in a structure; qty is positive for long legs
type leg struct {
	strike float64
	qty    float64
}

func legs(pos models.StrategyPosition) []leg {
	switch pos.Structure {
	case models.StructureVertical:
		short := pos.Strike + pos.Width
		if pos.Side == models.SidePut {
			short = pos.Strike - pos.Width
		}
		return []leg{{pos.Strike, 1}, {short, -1}}
	case models.StructureButterfly:
		return []leg{{pos.Strike - pos.Width, 1}, {pos.Strike, -2}, {pos.Strike + pos.Width, 1}}
	default:
		return []leg{{pos.Strike, 1}}
	}
}

// Intrinsic values the position as if it expired at price
func (v Valuer) Intrinsic(pos models.StrategyPosition, price float64) (Valuation, error) {
	return v.Theoretical(pos, price, 0, 0)
}

// Theoretical values the position with the given years to expiration and volatility.
// At years <= 0 the result equals Intrinsic exactly.
func (v Valuer) Theoretical(pos models.StrategyPosition, price, years, vol float64) (Valuation, error) {
	if err := pos.Validate(); err != nil {
		return Valuation{}, err
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return Valuation{}, models.ErrMissingMarketData
	}
	price = math.Max(0, price)

	raw := 0.0
	for _, l := range legs(pos) {
		raw += l.qty * pricing.Price(pricing.OptionInput{
			Spot:   price,
			Strike: l.strike,
			Years:  years,
			Rate:   v.Rate,
			Vol:    vol,
			Side:   pos.Side,
		})
	}
	return v.settle(pos, raw), nil
}

// settle clamps the structure value and converts it to dollar P&L
func (v Valuer) settle(pos models.StrategyPosition, raw float64) Valuation {
	debit := pos.EffectiveDebit()
	multiplier := v.multiplier()
	floor := -debit * multiplier

	if pos.Structure == models.StructureSingle {
		value := math.Max(0, raw)
		return Valuation{Value: value, PnL: math.Max(floor, (value-debit)*multiplier)}
	}

	width := pos.EffectiveWidth()
	value := clamp(raw, 0, width)
	ceiling := math.Max(floor, (width-debit)*multiplier)
	return Valuation{Value: value, PnL: clamp((value-debit)*multiplier, floor, ceiling)}
}

func (v Valuer) multiplier() float64 {
	if v.Multiplier <= 0 {
		return models.SharesPerContract
	}
	return v.Multiplier
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}
