// Package pricing provides closed-form option valuation and time-to-expiration helpers.
package pricing

import (
	"math"

	"github.com/eddiefleurent/scranton_spreads/internal/models"
)

// Abramowitz & Stegun 7.1.26 coefficients, |error| <= 1.5e-7
const (
	erfP  = 0.3275911
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
)

// NormCDF returns the standard normal cumulative distribution at x
func NormCDF(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	z := math.Abs(x) / math.Sqrt2
	t := 1.0 / (1.0 + erfP*z)
	y := 1.0 - (((((erfA5*t+erfA4)*t)+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-z*z)
	return 0.5 * (1.0 + sign*y)
}

// OptionInput holds the Black-Scholes inputs for one option
type OptionInput struct {
	Spot   float64
	Strike float64
	// Years is the time to expiration in years; <= 0 means expired.
	Years float64
	Rate  float64
	Vol   float64
	Side  models.OptionSide
}

// Intrinsic returns the option value at immediate expiration
func Intrinsic(spot, strike float64, side models.OptionSide) float64 {
	if side == models.SidePut {
		return math.Max(0, strike-spot)
	}
	return math.Max(0, spot-strike)
}

// Price returns the Black-Scholes value of a European option.
// Expired or degenerate inputs return intrinsic value.
func Price(in OptionInput) float64 {
	if in.Years <= 0 || !finitePositive(in.Vol) || !finitePositive(in.Spot) || !finitePositive(in.Strike) ||
		math.IsNaN(in.Years) || math.IsNaN(in.Rate) {
		return Intrinsic(in.Spot, in.Strike, in.Side)
	}

	sqrtT := math.Sqrt(in.Years)
	d1 := (math.Log(in.Spot/in.Strike) + (in.Rate+0.5*in.Vol*in.Vol)*in.Years) / (in.Vol * sqrtT)
	d2 := d1 - in.Vol*sqrtT
	discount := math.Exp(-in.Rate * in.Years)

	var price float64
	if in.Side == models.SidePut {
		price = in.Strike*discount*NormCDF(-d2) - in.Spot*NormCDF(-d1)
	} else {
		price = in.Spot*NormCDF(d1) - in.Strike*discount*NormCDF(d2)
	}
	// The CDF approximation can leave tiny negative values deep out of the money
	return math.Max(0, price)
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
