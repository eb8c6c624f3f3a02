// Package surface samples aggregate P&L across a price grid and solves for breakevens.
package surface

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eddiefleurent/scranton_spreads/internal/config"
	"github.com/eddiefleurent/scranton_spreads/internal/models"
	"github.com/eddiefleurent/scranton_spreads/internal/pricing"
	"github.com/eddiefleurent/scranton_spreads/internal/strategy"
)

// ErrNoVisibleStrategies is returned when nothing in the book can be drawn
var ErrNoVisibleStrategies = errors.New("no visible strategies")

// Range is a closed price interval
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether price lies inside the range
func (r Range) Contains(price float64) bool {
	return price >= r.Low && price <= r.High
}

// Ranges are the strike range of the visible strategies and the two derived sample windows
type Ranges struct {
	Strikes  Range `json:"strikes"`
	Full     Range `json:"full"`
	Viewport Range `json:"viewport"`
}

// Surface is the sampled P&L of a book
type Surface struct {
	Ranges
	AtExpiration          models.PnLCurve    `json:"at_expiration"`
	Theoretical           models.PnLCurve    `json:"theoretical,omitempty"`
	ExpirationBreakevens  []models.Breakeven `json:"expiration_breakevens"`
	TheoreticalBreakevens []models.Breakeven `json:"theoretical_breakevens,omitempty"`
	ExpirationExtent      Extent             `json:"expiration_extent"`
	TheoreticalExtent     Extent             `json:"theoretical_extent"`
	// EffectiveSpot is the spot after the scenario's offset.
	EffectiveSpot float64 `json:"effective_spot"`
	// Skipped lists strategies that could not be valued.
	Skipped []string `json:"skipped,omitempty"`
}

// Sampler builds surfaces. It is safe for concurrent use.
type Sampler struct {
	Valuer strategy.Valuer
	Clock  pricing.ExpiryClock
	Config config.SurfaceConfig
	// Now stamps snapshots without a timestamp; nil means time.Now.
	Now func() time.Time
}

// NewSampler builds a Sampler from the engine configuration
func NewSampler(cfg *config.Config) Sampler {
	return Sampler{
		Valuer: strategy.NewValuer(cfg.Valuation.Multiplier, cfg.Pricing.RiskFreeRate),
		Clock:  pricing.NewExpiryClock(cfg.Pricing.Timezone, cfg.Pricing.MarketClose),
		Config: cfg.Surface,
	}
}

// StrikeRange returns the combined leg-strike range of the valid visible strategies
func StrikeRange(strategies []models.StrategyPosition) (Range, bool) {
	r := Range{Low: math.Inf(1), High: math.Inf(-1)}
	found := false
	for _, pos := range strategies {
		if !pos.Visible || pos.Validate() != nil {
			continue
		}
		low, high := pos.StrikeBounds()
		r.Low = math.Min(r.Low, low)
		r.High = math.Max(r.High, high)
		found = true
	}
	return r, found
}

// ComputeRanges pads a strike range proportionally into the full and viewport windows.
// Both windows are centered on the strike range unless that would put the low
// edge below zero; such a window is shifted up to start at zero and keeps its width.
func ComputeRanges(strikes Range, cfg config.SurfaceConfig) Ranges {
	span := math.Max(strikes.High-strikes.Low, cfg.MinSpan)
	center := (strikes.Low + strikes.High) / 2
	window := func(padding float64) Range {
		half := span/2 + span*padding
		r := Range{Low: center - half, High: center + half}
		if r.Low < 0 {
			r.High -= r.Low
			r.Low = 0
		}
		return r
	}
	return Ranges{
		Strikes:  strikes,
		Full:     window(cfg.FullPadding),
		Viewport: window(cfg.ViewportPadding),
	}
}

// SamplePrices returns n evenly spaced prices across r, endpoints included
func SamplePrices(r Range, n int) []float64 {
	if n < 2 {
		n = 2
	}
	step := (r.High - r.Low) / float64(n-1)
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = r.Low + float64(i)*step
	}
	prices[n-1] = r.High
	return prices
}

// Build samples the at-expiration and theoretical aggregate P&L of the book's visible strategies.
// The theoretical curve is omitted when the snapshot has no usable volatility.
func (s Sampler) Build(
	ctx context.Context,
	book models.Book,
	snapshot models.MarketSnapshot,
	scenario models.Scenario,
) (*Surface, error) {
	visible := book.VisibleStrategies()
	strikes, ok := StrikeRange(visible)
	if !ok {
		return nil, ErrNoVisibleStrategies
	}

	now := s.Now
	if now == nil {
		now = time.Now
	}
	snapshot = snapshot.StampedAt(now())

	surf := &Surface{Ranges: ComputeRanges(strikes, s.Config)}
	prices := SamplePrices(surf.Full, s.samples())
	spot, vol := scenario.Apply(snapshot)
	surf.EffectiveSpot = spot
	theoretical := snapshot.HasVolatility() && vol > 0

	type column struct {
		expiration  []float64
		theoretical []float64
		err         error
	}
	columns := make([]column, len(visible))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for i, pos := range visible {
		i, pos := i, pos
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			col := column{expiration: make([]float64, len(prices))}
			years := s.Clock.YearsToExpiration(snapshot.Timestamp, pos.DTE, scenario.HoursForward)
			if theoretical {
				col.theoretical = make([]float64, len(prices))
			}
			for j, price := range prices {
				exp, err := s.Valuer.Intrinsic(pos, price)
				if err != nil {
					col.err = err
					break
				}
				col.expiration[j] = exp.PnL
				if theoretical {
					th, err := s.Valuer.Theoretical(pos, price, years, vol)
					if err != nil {
						col.err = err
						break
					}
					col.theoretical[j] = th.PnL
				}
			}
			columns[i] = col
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sampling surface: %w", err)
	}

	// Sum in book order so results do not depend on scheduling
	surf.AtExpiration = make(models.PnLCurve, len(prices))
	if theoretical {
		surf.Theoretical = make(models.PnLCurve, len(prices))
	}
	for j, price := range prices {
		surf.AtExpiration[j].Price = price
		if theoretical {
			surf.Theoretical[j].Price = price
		}
	}
	for i, col := range columns {
		if col.err != nil {
			surf.Skipped = append(surf.Skipped, visible[i].ID)
			continue
		}
		for j := range prices {
			surf.AtExpiration[j].PnL += col.expiration[j]
			if theoretical {
				surf.Theoretical[j].PnL += col.theoretical[j]
			}
		}
	}

	surf.ExpirationBreakevens = Breakevens(surf.AtExpiration)
	surf.ExpirationExtent = ViewportExtent(surf.AtExpiration, surf.Viewport)
	if theoretical {
		surf.TheoreticalBreakevens = Breakevens(surf.Theoretical)
		surf.TheoreticalExtent = ViewportExtent(surf.Theoretical, surf.Viewport)
	}
	return surf, nil
}

func (s Sampler) samples() int {
	if s.Config.Samples < 2 {
		return 400
	}
	return s.Config.Samples
}

func (s Sampler) workers() int {
	if s.Config.Workers <= 0 {
		return 1
	}
	return s.Config.Workers
}
