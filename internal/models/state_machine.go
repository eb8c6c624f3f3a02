package models

import "fmt"

// AlertState represents the lifecycle state of an alert
type AlertState string

const (
	AlertStateIdle      AlertState = "idle"      // Armed, waiting for its condition
	AlertStateTriggered AlertState = "triggered" // Fired; waiting to re-arm or forever latched
	AlertStateRemoved   AlertState = "removed"   // Fired and left the book
)

// AlertTransition defines a valid alert state transition
type AlertTransition struct {
	From        AlertState
	To          AlertState
	Behavior    Behavior
	Condition   string
	Description string
}

// Transition conditions
const (
	ConditionMet = "condition_met"
	OtherSide    = "other_side"
	Scheduled    = "scheduled_removal"
)

// ValidAlertTransitions lists every transition the alert engine may perform
var ValidAlertTransitions = []AlertTransition{
	{AlertStateIdle, AlertStateTriggered, FireOnce, ConditionMet, "Condition matched, latched forever"},
	{AlertStateIdle, AlertStateTriggered, FireRepeat, ConditionMet, "Condition matched while armed"},
	{AlertStateIdle, AlertStateTriggered, FireAndRemove, ConditionMet, "Condition matched, removal pending"},

	// Re-arm
	{AlertStateTriggered, AlertStateIdle, FireRepeat, OtherSide, "Value moved back past the other-side band"},

	// Removal
	{AlertStateTriggered, AlertStateRemoved, FireAndRemove, Scheduled, "Fired alert removed from the book"},
}

// ValidateAlertTransition checks if a transition is defined for the behavior
func ValidateAlertTransition(behavior Behavior, from, to AlertState, condition string) error {
	for _, t := range ValidAlertTransitions {
		if t.Behavior == behavior && t.From == from && t.To == to && t.Condition == condition {
			return nil
		}
	}
	return fmt.Errorf("invalid alert transition from %s to %s for %s with condition '%s'",
		from, to, behavior, condition)
}

// Description returns a human-readable description of the state
func (s AlertState) Description() string {
	switch s {
	case AlertStateIdle:
		return "Armed: waiting for the condition to match"
	case AlertStateTriggered:
		return "Triggered: fired and waiting to re-arm (repeat alerts only)"
	case AlertStateRemoved:
		return "Removed after firing"
	default:
		return "Unknown state"
	}
}
