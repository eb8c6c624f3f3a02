// Package alerts evaluates trader-defined alerts against market ticks.
//
// Evaluate is a pure function of (book, tick). It never mutates the input
// book: when no alert changes, the returned book shares the input's alert
// slice, so hosts can detect updates by identity.
package alerts

import (
	"fmt"
	"time"

	"github.com/eddiefleurent/scranton_spreads/internal/config"
	"github.com/eddiefleurent/scranton_spreads/internal/models"
	"github.com/eddiefleurent/scranton_spreads/internal/pricing"
	"github.com/eddiefleurent/scranton_spreads/internal/strategy"
	"github.com/eddiefleurent/scranton_spreads/internal/zone"
)

// Tick is one market update plus the optional what-if scenario
type Tick struct {
	Snapshot models.MarketSnapshot
	Scenario models.Scenario
}

// Skip records an alert that could not be evaluated this tick
type Skip struct {
	AlertID string
	Reason  error
}

// Result is the outcome of one evaluation pass
type Result struct {
	Book    models.Book
	Fired   []models.Fired
	Removed []string
	Skipped []Skip
	// Changed is false when Book.Alerts is the input slice.
	Changed bool
}

// Engine holds the evaluation constants. It has no mutable state.
type Engine struct {
	cfg    config.AlertsConfig
	valuer strategy.Valuer
	clock  pricing.ExpiryClock
	zone   zone.Controller
	// now stamps snapshots that arrive without a timestamp.
	now func() time.Time
}

// NewEngine builds an Engine from the configuration
func NewEngine(cfg *config.Config) Engine {
	return Engine{
		cfg:    cfg.Alerts,
		valuer: strategy.NewValuer(cfg.Valuation.Multiplier, cfg.Pricing.RiskFreeRate),
		clock:  pricing.NewExpiryClock(cfg.Pricing.Timezone, cfg.Pricing.MarketClose),
		zone:   zone.NewController(cfg.Zone),
		now:    time.Now,
	}
}

// Evaluate runs every enabled alert once against the tick
func (e Engine) Evaluate(book models.Book, tick Tick) Result {
	res := Result{Book: book}
	now := e.now
	if now == nil {
		now = time.Now
	}
	tick.Snapshot = tick.Snapshot.StampedAt(now())
	firedAt := tick.Snapshot.Timestamp

	var next []models.AlertDefinition
	for i, alert := range book.Alerts {
		updated, fired, err := e.evaluateOne(book, alert, tick, firedAt)
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{AlertID: alert.ID, Reason: err})
			updated, fired = alert, nil
		}

		removed := fired != nil && models.ValidateAlertTransition(alert.Behavior,
			models.AlertStateTriggered, models.AlertStateRemoved, models.Scheduled) == nil
		if next == nil && (removed || updated != alert) {
			next = make([]models.AlertDefinition, i, len(book.Alerts))
			copy(next, book.Alerts[:i])
		}
		if fired != nil {
			fired.Removed = removed
			res.Fired = append(res.Fired, *fired)
		}
		if removed {
			res.Removed = append(res.Removed, alert.ID)
			continue
		}
		if next != nil {
			next = append(next, updated)
		}
	}

	if next != nil {
		res.Book.Alerts = next
		res.Changed = true
	}
	return res
}

func (e Engine) evaluateOne(
	book models.Book,
	alert models.AlertDefinition,
	tick Tick,
	firedAt time.Time,
) (models.AlertDefinition, *models.Fired, error) {
	if !alert.Enabled {
		return alert, nil, nil
	}
	if !tick.Snapshot.HasSpot() {
		return alert, nil, fmt.Errorf("spot %.2f: %w", tick.Snapshot.Spot, models.ErrMissingMarketData)
	}

	var (
		obs observation
		err error
	)
	switch alert.Type {
	case models.AlertPrice:
		obs = e.observePrice(alert, tick)
	case models.AlertDebit:
		obs, err = e.observeDebit(book, alert, tick)
	case models.AlertProfitTarget:
		obs, err = e.observeProfitTarget(book, alert, tick)
	case models.AlertTrailingStop:
		alert, obs, err = e.observeTrailingStop(book, alert, tick)
	case models.AlertDynamicZone:
		alert, obs, err = e.observeDynamicZone(book, alert, tick)
	default:
		return alert, nil, fmt.Errorf("alert %s: unknown type %q", alert.ID, alert.Type)
	}
	if err != nil {
		return alert, nil, err
	}

	return applyBehavior(alert, obs, firedAt)
}

// applyBehavior runs the idle/triggered state machine for one observation
func applyBehavior(
	alert models.AlertDefinition,
	obs observation,
	firedAt time.Time,
) (models.AlertDefinition, *models.Fired, error) {
	alert.OnOtherSide = obs.otherSide

	if alert.Triggered && obs.otherSide && !obs.condition && alert.Behavior == models.FireRepeat {
		if err := models.ValidateAlertTransition(alert.Behavior,
			models.AlertStateTriggered, models.AlertStateIdle, models.OtherSide); err != nil {
			return alert, nil, err
		}
		alert.Triggered = false
	}

	if alert.Triggered || !obs.condition {
		return alert, nil, nil
	}

	if err := models.ValidateAlertTransition(alert.Behavior,
		models.AlertStateIdle, models.AlertStateTriggered, models.ConditionMet); err != nil {
		return alert, nil, err
	}
	alert.Triggered = true
	alert.FiredAt = firedAt

	return alert, &models.Fired{
		AlertID:    alert.ID,
		StrategyID: alert.StrategyID,
		Type:       alert.Type,
		FiredAt:    firedAt,
		Value:      obs.value,
	}, nil
}
