package alerts

import (
	"math"

	"github.com/eddiefleurent/scranton_spreads/internal/models"
)

// observation is what one evaluator saw on a tick
type observation struct {
	value     float64
	condition bool
	otherSide bool
}

// matches applies the operator: above is >=, below is <=, at is |diff| < tolerance
func matches(cond models.Condition, value, target, tolerance float64) bool {
	switch cond {
	case models.ConditionAbove:
		return value >= target
	case models.ConditionBelow:
		return value <= target
	case models.ConditionAt:
		return math.Abs(value-target) < tolerance
	default:
		return false
	}
}

// onOtherSide is the hysteresis predicate that re-arms repeat alerts.
// For above and below it is the strict opposite side of the target; for at
// the value must be at least band away.
func onOtherSide(cond models.Condition, value, target, band float64) bool {
	switch cond {
	case models.ConditionAbove:
		return value < target
	case models.ConditionBelow:
		return value > target
	case models.ConditionAt:
		return math.Abs(value-target) >= band
	default:
		return false
	}
}
