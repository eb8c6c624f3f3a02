// Package models provides the data structures shared by the valuation and alert packages.
package models

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// SharesPerContract is the default contract multiplier for equity index options.
const SharesPerContract = 100.0

// StructureType identifies the shape of a long options structure.
type StructureType string

const (
	// StructureSingle is one long option
	StructureSingle StructureType = "single"
	// StructureVertical is a long debit spread
	StructureVertical StructureType = "vertical"
	// StructureButterfly is a long 1-2-1 butterfly centered on the strike
	StructureButterfly StructureType = "butterfly"
)

// Valid returns true if the StructureType is one of the defined constants
func (s StructureType) Valid() bool {
	switch s {
	case StructureSingle, StructureVertical, StructureButterfly:
		return true
	default:
		return false
	}
}

// OptionSide is the option class of every leg in a structure.
type OptionSide string

const (
	// SideCall builds the structure from calls
	SideCall OptionSide = "call"
	// SidePut builds the structure from puts
	SidePut OptionSide = "put"
)

// Valid returns true if the OptionSide is one of the defined constants
func (s OptionSide) Valid() bool {
	return s == SideCall || s == SidePut
}

// StrategyPosition is a long options structure held in a Book.
// All fields are comparable so two positions can be checked with ==.
type StrategyPosition struct {
	ID        string        `json:"id" yaml:"id"`
	Structure StructureType `json:"structure" yaml:"structure"`
	Side      OptionSide    `json:"side" yaml:"side"`
	Strike    float64       `json:"strike" yaml:"strike"`
	Width     float64       `json:"width" yaml:"width"`
	DTE       int           `json:"dte" yaml:"dte"`
	// Debit is the per-share premium paid; unset is treated as zero.
	Debit   float64 `json:"debit" yaml:"debit"`
	Visible bool    `json:"visible" yaml:"visible"`
}

// NewStrategyPosition creates a visible position with a generated ID.
func NewStrategyPosition(structure StructureType, side OptionSide, strike, width float64, dte int, debit float64) StrategyPosition {
	return StrategyPosition{
		ID:        uuid.New().String(),
		Structure: structure,
		Side:      side,
		Strike:    strike,
		Width:     width,
		DTE:       dte,
		Debit:     debit,
		Visible:   true,
	}
}

// EffectiveDebit returns the debit used for valuation. Negative or NaN debits count as zero.
func (p StrategyPosition) EffectiveDebit() float64 {
	if math.IsNaN(p.Debit) || p.Debit < 0 {
		return 0
	}
	return p.Debit
}

// EffectiveWidth returns the width that bounds the structure's value.
// Singles have no width.
func (p StrategyPosition) EffectiveWidth() float64 {
	if p.Structure == StructureSingle {
		return 0
	}
	return p.Width
}

// Validate reports whether the position can be valued.
func (p StrategyPosition) Validate() error {
	if !p.Structure.Valid() {
		return fmt.Errorf("position %s: unknown structure %q: %w", p.ID, p.Structure, ErrInvalidStrategyParameters)
	}
	if !p.Side.Valid() {
		return fmt.Errorf("position %s: unknown side %q: %w", p.ID, p.Side, ErrInvalidStrategyParameters)
	}
	if math.IsNaN(p.Strike) || math.IsInf(p.Strike, 0) || p.Strike <= 0 {
		return fmt.Errorf("position %s: strike must be > 0 (current: %.2f): %w", p.ID, p.Strike, ErrInvalidStrategyParameters)
	}
	if p.Structure != StructureSingle && (math.IsNaN(p.Width) || math.IsInf(p.Width, 0) || p.Width <= 0) {
		return fmt.Errorf("position %s: width must be > 0 for %s (current: %.2f): %w",
			p.ID, p.Structure, p.Width, ErrInvalidStrategyParameters)
	}
	if p.DTE < 0 {
		return fmt.Errorf("position %s: dte cannot be negative (current: %d): %w", p.ID, p.DTE, ErrInvalidStrategyParameters)
	}
	return nil
}

// StrikeBounds returns the lowest and highest leg strikes.
func (p StrategyPosition) StrikeBounds() (low, high float64) {
	switch p.Structure {
	case StructureVertical:
		if p.Side == SidePut {
			return p.Strike - p.Width, p.Strike
		}
		return p.Strike, p.Strike + p.Width
	case StructureButterfly:
		return p.Strike - p.Width, p.Strike + p.Width
	default:
		return p.Strike, p.Strike
	}
}

// MaxLoss returns the worst-case dollar loss (a negative number) for the given multiplier.
func (p StrategyPosition) MaxLoss(multiplier float64) float64 {
	return -p.EffectiveDebit() * multiplier
}

// MaxProfit returns the best-case dollar P&L for spreads.
// Singles are unbounded and report +Inf.
func (p StrategyPosition) MaxProfit(multiplier float64) float64 {
	if p.Structure == StructureSingle {
		return math.Inf(1)
	}
	return math.Max(p.MaxLoss(multiplier), (p.EffectiveWidth()-p.EffectiveDebit())*multiplier)
}

// ProfitPercent returns P&L as a fraction of the dollar debit. Zero debit reports zero.
func (p StrategyPosition) ProfitPercent(pnl, multiplier float64) float64 {
	denom := p.EffectiveDebit() * multiplier
	if denom == 0 {
		return 0
	}
	return pnl / denom
}
