package surface

import (
	"github.com/montanaflynn/stats"

	"github.com/eddiefleurent/scranton_spreads/internal/models"
)

// Breakevens walks consecutive samples and linearly interpolates every zero crossing.
// A sample that is exactly zero is reported once, at its own price.
func Breakevens(curve models.PnLCurve) []models.Breakeven {
	var out []models.Breakeven
	for i, p := range curve {
		if p.PnL == 0 {
			if i == 0 || curve[i-1].PnL != 0 {
				out = append(out, models.Breakeven(p.Price))
			}
			continue
		}
		if i == 0 {
			continue
		}
		prev := curve[i-1]
		if prev.PnL == 0 || (prev.PnL < 0) == (p.PnL < 0) {
			continue
		}
		x := prev.Price + (0-prev.PnL)*(p.Price-prev.Price)/(p.PnL-prev.PnL)
		out = append(out, models.Breakeven(x))
	}
	return out
}

// Extent is the vertical P&L range used to scale a chart
type Extent struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	OK  bool    `json:"ok"`
}

// ViewportExtent returns the min and max P&L of samples inside the viewport only,
// so off-screen padding never distorts the vertical scale.
func ViewportExtent(curve models.PnLCurve, viewport Range) Extent {
	inside := make(stats.Float64Data, 0, len(curve))
	for _, p := range curve {
		if viewport.Contains(p.Price) {
			inside = append(inside, p.PnL)
		}
	}
	lo, err := stats.Min(inside)
	if err != nil {
		return Extent{}
	}
	hi, err := stats.Max(inside)
	if err != nil {
		return Extent{}
	}
	return Extent{Min: lo, Max: hi, OK: true}
}
