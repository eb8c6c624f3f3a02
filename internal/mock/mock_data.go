// Package mock generates synthetic market ticks for replays without a recorded tape.
package mock

import (
	"crypto/rand"
	"math"
	"math/big"
	"time"

	"github.com/eddiefleurent/scranton_spreads/internal/models"
)

// TickGenerator walks spot and volatility from a starting snapshot
type TickGenerator struct {
	current  models.MarketSnapshot
	interval time.Duration
	// SpotStep is the largest absolute spot move per tick.
	SpotStep float64
	// VolStep is the largest absolute volatility move per tick.
	VolStep float64
	random  func() float64
}

// secureFloat64 generates a cryptographically secure random float64 between 0 and 1
func secureFloat64() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<53))
	if err != nil {
		// Fallback to a reasonable default if crypto/rand fails
		return 0.5
	}
	return float64(n.Int64()) / (1 << 53)
}

// NewTickGenerator starts a walk at start. A zero interval means one minute.
func NewTickGenerator(start models.MarketSnapshot, interval time.Duration) *TickGenerator {
	if interval <= 0 {
		interval = time.Minute
	}
	if start.Timestamp.IsZero() {
		start.Timestamp = time.Now().UTC().Truncate(time.Minute)
	}
	return &TickGenerator{
		current:  start,
		interval: interval,
		SpotStep: 2,
		VolStep:  0.002,
		random:   secureFloat64,
	}
}

// WithSource replaces the random source, e.g. with a seeded math/rand for reproducible tapes
func (g *TickGenerator) WithSource(random func() float64) *TickGenerator {
	g.random = random
	return g
}

// Next advances the walk by one tick
func (g *TickGenerator) Next() models.MarketSnapshot {
	// Simulate small price movements
	g.current.Spot += (g.random() - 0.5) * 2 * g.SpotStep
	g.current.Spot = math.Max(0.01, g.current.Spot)

	g.current.Volatility += (g.random() - 0.5) * 2 * g.VolStep
	g.current.Volatility = math.Max(0.01, math.Min(2, g.current.Volatility)) // Keep between 1%-200%

	g.current.Timestamp = g.current.Timestamp.Add(g.interval)
	return g.current
}

// Take returns the next n ticks
func (g *TickGenerator) Take(n int) []models.MarketSnapshot {
	if n <= 0 {
		return nil
	}
	out := make([]models.MarketSnapshot, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}
