package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// AlertType selects the evaluator used for an alert
type AlertType string

const (
	AlertPrice        AlertType = "price"         // Live spot vs target
	AlertDebit        AlertType = "debit"         // Current structure value vs target
	AlertProfitTarget AlertType = "profit_target" // Entry debit minus current debit
	AlertTrailingStop AlertType = "trailing_stop" // Current debit vs lowest observed debit
	AlertDynamicZone  AlertType = "dynamic_zone"  // Profit-protection corridor exit
)

// Valid returns true if the AlertType is one of the defined constants
func (t AlertType) Valid() bool {
	switch t {
	case AlertPrice, AlertDebit, AlertProfitTarget, AlertTrailingStop, AlertDynamicZone:
		return true
	default:
		return false
	}
}

// Condition is the comparison operator of price and debit alerts
type Condition string

const (
	ConditionAbove Condition = "above" // value >= target
	ConditionBelow Condition = "below" // value <= target
	ConditionAt    Condition = "at"    // |value-target| < tolerance
)

// Valid returns true if the Condition is one of the defined constants
func (c Condition) Valid() bool {
	return c == ConditionAbove || c == ConditionBelow || c == ConditionAt
}

// Behavior controls what happens to an alert after it fires
type Behavior string

const (
	FireOnce      Behavior = "fire_once"       // Fires at most once
	FireRepeat    Behavior = "fire_repeat"     // Re-armed by the other-side predicate
	FireAndRemove Behavior = "fire_and_remove" // Fires once, then leaves the book
)

// Valid returns true if the Behavior is one of the defined constants
func (b Behavior) Valid() bool {
	return b == FireOnce || b == FireRepeat || b == FireAndRemove
}

// AlertDefinition is a trader-defined alert bound to one StrategyPosition.
// The runtime fields are rewritten by the alert engine every tick. All fields
// are comparable, so an unchanged alert compares equal to its previous value.
type AlertDefinition struct {
	ID         string    `json:"id" yaml:"id"`
	Type       AlertType `json:"type" yaml:"type"`
	Condition  Condition `json:"condition" yaml:"condition"`
	Target     float64   `json:"target" yaml:"target"`
	Behavior   Behavior  `json:"behavior" yaml:"behavior"`
	Enabled    bool      `json:"enabled" yaml:"enabled"`
	StrategyID string    `json:"strategy_id" yaml:"strategy_id"`

	// ReferenceDebit is the entry debit profit_target alerts measure against.
	// Zero means the bound strategy's debit.
	ReferenceDebit float64 `json:"reference_debit,omitempty" yaml:"reference_debit,omitempty"`
	// MinProfitThreshold is the dynamic_zone activation fraction. Zero means the configured default.
	MinProfitThreshold float64 `json:"min_profit_threshold,omitempty" yaml:"min_profit_threshold,omitempty"`

	// Runtime
	Triggered           bool      `json:"triggered" yaml:"triggered"`
	FiredAt             time.Time `json:"fired_at,omitempty" yaml:"fired_at,omitempty"`
	HighWaterMark       float64   `json:"high_water_mark" yaml:"high_water_mark"`
	HighWaterMarkSet    bool      `json:"high_water_mark_set" yaml:"high_water_mark_set"`
	OnOtherSide         bool      `json:"on_other_side" yaml:"on_other_side"`
	ZoneLow             float64   `json:"zone_low" yaml:"zone_low"`
	ZoneHigh            float64   `json:"zone_high" yaml:"zone_high"`
	ZoneActive          bool      `json:"zone_active" yaml:"zone_active"`
	HighWaterMarkProfit float64   `json:"high_water_mark_profit" yaml:"high_water_mark_profit"`
	// HighWaterMarkProfitSet is false until a dynamic_zone tick has observed a profit.
	HighWaterMarkProfitSet bool `json:"high_water_mark_profit_set" yaml:"high_water_mark_profit_set"`
}

// NewAlert creates an enabled alert with a generated ID bound to strategyID.
func NewAlert(alertType AlertType, condition Condition, target float64, behavior Behavior, strategyID string) AlertDefinition {
	return AlertDefinition{
		ID:         uuid.New().String(),
		Type:       alertType,
		Condition:  condition,
		Target:     target,
		Behavior:   behavior,
		Enabled:    true,
		StrategyID: strategyID,
	}
}

// Validate checks the user-supplied fields of the alert
func (a AlertDefinition) Validate() error {
	if !a.Type.Valid() {
		return fmt.Errorf("alert %s: unknown type %q", a.ID, a.Type)
	}
	if !a.Behavior.Valid() {
		return fmt.Errorf("alert %s: unknown behavior %q", a.ID, a.Behavior)
	}
	if (a.Type == AlertPrice || a.Type == AlertDebit) && !a.Condition.Valid() {
		return fmt.Errorf("alert %s: unknown condition %q", a.ID, a.Condition)
	}
	if math.IsNaN(a.Target) || math.IsInf(a.Target, 0) {
		return fmt.Errorf("alert %s: target must be finite", a.ID)
	}
	if a.MinProfitThreshold < 0 {
		return fmt.Errorf("alert %s: min_profit_threshold cannot be negative (current: %.2f)", a.ID, a.MinProfitThreshold)
	}
	if a.StrategyID == "" && a.Type != AlertPrice {
		return fmt.Errorf("alert %s: %s alerts must be bound to a strategy", a.ID, a.Type)
	}
	return nil
}

// State returns the lifecycle state derived from the runtime fields
func (a AlertDefinition) State() AlertState {
	if a.Triggered {
		return AlertStateTriggered
	}
	return AlertStateIdle
}

// ResetRuntime clears every runtime field, returning the alert to a fresh idle state.
func (a AlertDefinition) ResetRuntime() AlertDefinition {
	a.Triggered = false
	a.FiredAt = time.Time{}
	a.HighWaterMark = 0
	a.HighWaterMarkSet = false
	a.OnOtherSide = false
	a.ZoneLow = 0
	a.ZoneHigh = 0
	a.ZoneActive = false
	a.HighWaterMarkProfit = 0
	a.HighWaterMarkProfitSet = false
	return a
}

// Snapshot returns the host-facing view of the alert's current state
func (a AlertDefinition) Snapshot() AlertSnapshot {
	return AlertSnapshot{
		ID:                     a.ID,
		Type:                   a.Type,
		State:                  a.State(),
		Triggered:              a.Triggered,
		FiredAt:                a.FiredAt,
		HighWaterMark:          a.HighWaterMark,
		ZoneActive:             a.ZoneActive,
		ZoneLow:                a.ZoneLow,
		ZoneHigh:               a.ZoneHigh,
		HighWaterMarkProfit:    a.HighWaterMarkProfit,
		HighWaterMarkSet:       a.HighWaterMarkSet,
		HighWaterMarkProfitSet: a.HighWaterMarkProfitSet,
	}
}

// AlertSnapshot is the per-alert state exposed to the host
type AlertSnapshot struct {
	ID                     string     `json:"id"`
	Type                   AlertType  `json:"type"`
	State                  AlertState `json:"state"`
	Triggered              bool       `json:"triggered"`
	FiredAt                time.Time  `json:"fired_at,omitempty"`
	HighWaterMark          float64    `json:"high_water_mark"`
	ZoneActive             bool       `json:"zone_active"`
	ZoneLow                float64    `json:"zone_low"`
	ZoneHigh               float64    `json:"zone_high"`
	HighWaterMarkProfit    float64    `json:"high_water_mark_profit"`
	HighWaterMarkSet       bool       `json:"high_water_mark_set"`
	HighWaterMarkProfitSet bool       `json:"high_water_mark_profit_set"`
}

// Fired is emitted once per alert firing
type Fired struct {
	AlertID    string    `json:"alert_id"`
	StrategyID string    `json:"strategy_id,omitempty"`
	Type       AlertType `json:"type"`
	FiredAt    time.Time `json:"fired_at"`
	// Value is the observed quantity that satisfied the condition (spot, debit or profit).
	Value float64 `json:"value"`
	// Removed is true for fire_and_remove alerts, which are no longer in the book.
	Removed bool `json:"removed"`
}

// String formats the event for logs and notifications
func (f Fired) String() string {
	return fmt.Sprintf("alert %s (%s) fired at %s value=%.2f",
		f.AlertID, f.Type, f.FiredAt.UTC().Format(time.RFC3339), f.Value)
}
