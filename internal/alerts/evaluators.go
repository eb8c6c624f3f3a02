package alerts

import (
	"fmt"

	"github.com/eddiefleurent/scranton_spreads/internal/models"
	"github.com/eddiefleurent/scranton_spreads/internal/zone"
)

func (e Engine) observePrice(alert models.AlertDefinition, tick Tick) observation {
	spot := tick.Snapshot.Spot
	return observation{
		value:     spot,
		condition: matches(alert.Condition, spot, alert.Target, e.cfg.PriceTolerance),
		otherSide: onOtherSide(alert.Condition, spot, alert.Target, e.cfg.PriceBand),
	}
}

// boundStrategy resolves the alert's strategy; a missing one is a stale binding
func boundStrategy(book models.Book, alert models.AlertDefinition) (models.StrategyPosition, error) {
	pos, ok := book.Strategy(alert.StrategyID)
	if !ok {
		return pos, fmt.Errorf("alert %s bound to %s: %w", alert.ID, alert.StrategyID, models.ErrStaleBinding)
	}
	return pos, nil
}

// currentDebit is the live theoretical value of the bound structure per share
func (e Engine) currentDebit(book models.Book, alert models.AlertDefinition, tick Tick) (models.StrategyPosition, float64, error) {
	pos, err := boundStrategy(book, alert)
	if err != nil {
		return pos, 0, err
	}
	if !tick.Snapshot.HasVolatility() {
		return pos, 0, fmt.Errorf("volatility %.4f: %w", tick.Snapshot.Volatility, models.ErrMissingMarketData)
	}
	years := e.clock.YearsToExpiration(tick.Snapshot.Timestamp, pos.DTE, 0)
	val, err := e.valuer.Theoretical(pos, tick.Snapshot.Spot, years, tick.Snapshot.Volatility)
	if err != nil {
		return pos, 0, err
	}
	return pos, val.Value, nil
}

func (e Engine) observeDebit(book models.Book, alert models.AlertDefinition, tick Tick) (observation, error) {
	_, debit, err := e.currentDebit(book, alert, tick)
	if err != nil {
		return observation{}, err
	}
	return observation{
		value:     debit,
		condition: matches(alert.Condition, debit, alert.Target, e.cfg.DebitTolerance),
		otherSide: onOtherSide(alert.Condition, debit, alert.Target, e.cfg.DebitBand),
	}, nil
}

// observeProfitTarget measures profit as the reference entry debit minus the current debit
func (e Engine) observeProfitTarget(book models.Book, alert models.AlertDefinition, tick Tick) (observation, error) {
	pos, debit, err := e.currentDebit(book, alert, tick)
	if err != nil {
		return observation{}, err
	}
	reference := alert.ReferenceDebit
	if reference <= 0 {
		reference = pos.EffectiveDebit()
	}
	profit := reference - debit
	return observation{
		value:     profit,
		condition: profit >= alert.Target,
		otherSide: profit < alert.Target*e.cfg.ProfitRearmRatio,
	}, nil
}

// observeTrailingStop tracks the lowest observed debit and fires once the debit
// has risen target above it.
func (e Engine) observeTrailingStop(
	book models.Book,
	alert models.AlertDefinition,
	tick Tick,
) (models.AlertDefinition, observation, error) {
	_, debit, err := e.currentDebit(book, alert, tick)
	if err != nil {
		return alert, observation{}, err
	}
	if !alert.HighWaterMarkSet || debit < alert.HighWaterMark {
		alert.HighWaterMark = debit
		alert.HighWaterMarkSet = true
	}
	return alert, observation{
		value:     debit,
		condition: debit >= alert.HighWaterMark+alert.Target,
		otherSide: debit < alert.HighWaterMark+alert.Target*e.cfg.TrailingRearmRatio,
	}, nil
}

// observeDynamicZone values the bound structure at the scenario-adjusted spot and
// steps the corridor. Hidden strategies are not tracked.
func (e Engine) observeDynamicZone(
	book models.Book,
	alert models.AlertDefinition,
	tick Tick,
) (models.AlertDefinition, observation, error) {
	pos, err := boundStrategy(book, alert)
	if err != nil {
		return alert, observation{}, err
	}
	if !pos.Visible {
		return alert, observation{}, fmt.Errorf("strategy %s hidden: %w", pos.ID, models.ErrMissingMarketData)
	}
	if !tick.Snapshot.HasVolatility() {
		return alert, observation{}, fmt.Errorf("volatility %.4f: %w", tick.Snapshot.Volatility, models.ErrMissingMarketData)
	}

	spot, vol := tick.Scenario.Apply(tick.Snapshot)
	years := e.clock.YearsToExpiration(tick.Snapshot.Timestamp, pos.DTE, tick.Scenario.HoursForward)
	val, err := e.valuer.Theoretical(pos, spot, years, vol)
	if err != nil {
		return alert, observation{}, err
	}

	state := zone.State{
		Active:                 alert.ZoneActive,
		Low:                    alert.ZoneLow,
		High:                   alert.ZoneHigh,
		HighWaterMarkProfit:    alert.HighWaterMarkProfit,
		HighWaterMarkProfitSet: alert.HighWaterMarkProfitSet,
	}
	state, out, err := e.zone.Step(state, zone.Input{
		Structure:     pos.Structure,
		EffectiveSpot: spot,
		Profit:        val.PnL / e.valuer.Multiplier,
		Debit:         pos.EffectiveDebit(),
		Threshold:     alert.MinProfitThreshold,
		DTE:           pos.DTE,
		HoursForward:  tick.Scenario.HoursForward,
	})
	if err != nil {
		return alert, observation{}, err
	}

	alert.ZoneActive = state.Active
	alert.ZoneLow = state.Low
	alert.ZoneHigh = state.High
	alert.HighWaterMarkProfit = state.HighWaterMarkProfit
	alert.HighWaterMarkProfitSet = state.HighWaterMarkProfitSet
	return alert, observation{value: spot, condition: out.Fire, otherSide: out.OtherSide}, nil
}
