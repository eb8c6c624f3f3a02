package strategy

import (
	"github.com/eddiefleurent/scranton_spreads/internal/models"
)

// PnLFunc values one position at one price
type PnLFunc func(pos models.StrategyPosition, price float64) (Valuation, error)

// IntrinsicFunc returns a PnLFunc for the at-expiration payoff
func (v Valuer) IntrinsicFunc() PnLFunc {
	return v.Intrinsic
}

// TheoreticalFunc returns a PnLFunc using a fixed time and volatility.
// Every position is valued with the same years; use TheoreticalByDTE when
// positions have different expirations.
func (v Valuer) TheoreticalFunc(years, vol float64) PnLFunc {
	return func(pos models.StrategyPosition, price float64) (Valuation, error) {
		return v.Theoretical(pos, price, years, vol)
	}
}

// TheoreticalByDTE returns a PnLFunc that looks up each position's time to expiration
func (v Valuer) TheoreticalByDTE(yearsFor func(dte int) float64, vol float64) PnLFunc {
	return func(pos models.StrategyPosition, price float64) (Valuation, error) {
		return v.Theoretical(pos, price, yearsFor(pos.DTE), vol)
	}
}

// Aggregate sums the P&L of every visible position at price.
// Positions that cannot be valued are skipped and their IDs returned.
func Aggregate(strategies []models.StrategyPosition, price float64, fn PnLFunc) (total float64, skipped []string) {
	for _, pos := range strategies {
		if !pos.Visible {
			continue
		}
		val, err := fn(pos, price)
		if err != nil {
			skipped = append(skipped, pos.ID)
			continue
		}
		total += val.PnL
	}
	return total, skipped
}
