// Package util provides the price rounding used when reporting values.
package util

import (
	"math"
	"strconv"
)

// CentTick is the display increment for prices and P&L
const CentTick = 0.01

// RoundToTick rounds x to the nearest tick increment, ties away from zero.
// A non-positive tick or a non-finite x returns x unchanged. Results that
// round to zero are returned as positive zero.
func RoundToTick(x, tick float64) float64 {
	if tick <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r := math.Round(x/tick) * tick
	if r == 0 {
		return 0
	}
	return r
}

// FormatPrice renders x rounded to tick with two decimals
func FormatPrice(x, tick float64) string {
	return strconv.FormatFloat(RoundToTick(x, tick), 'f', 2, 64)
}
