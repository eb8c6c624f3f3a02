package models

import "fmt"

// Book is the aggregate of strategies and the alerts bound to them.
// Mutations return a new Book and never modify the receiver's slices in place,
// so a caller holding a previous Book can detect changes by slice identity.
type Book struct {
	Strategies []StrategyPosition `json:"strategies" yaml:"strategies"`
	Alerts     []AlertDefinition  `json:"alerts" yaml:"alerts"`
}

// Strategy returns the position with the given ID
func (b Book) Strategy(id string) (StrategyPosition, bool) {
	for _, s := range b.Strategies {
		if s.ID == id {
			return s, true
		}
	}
	return StrategyPosition{}, false
}

// Alert returns the alert with the given ID
func (b Book) Alert(id string) (AlertDefinition, bool) {
	for _, a := range b.Alerts {
		if a.ID == id {
			return a, true
		}
	}
	return AlertDefinition{}, false
}

// VisibleStrategies returns the strategies shown on the payoff diagram
func (b Book) VisibleStrategies() []StrategyPosition {
	out := make([]StrategyPosition, 0, len(b.Strategies))
	for _, s := range b.Strategies {
		if s.Visible {
			out = append(out, s)
		}
	}
	return out
}

// AddStrategy appends a validated position
func (b Book) AddStrategy(pos StrategyPosition) (Book, error) {
	if err := pos.Validate(); err != nil {
		return b, err
	}
	if _, exists := b.Strategy(pos.ID); exists {
		return b, fmt.Errorf("strategy %s already exists", pos.ID)
	}
	b.Strategies = append(cloneStrategies(b.Strategies), pos)
	return b, nil
}

// CorrectDebit replaces the entry debit of a position
func (b Book) CorrectDebit(id string, debit float64) (Book, error) {
	return b.updateStrategy(id, func(s *StrategyPosition) { s.Debit = debit })
}

// SetVisible toggles whether a position contributes to the aggregate P&L
func (b Book) SetVisible(id string, visible bool) (Book, error) {
	return b.updateStrategy(id, func(s *StrategyPosition) { s.Visible = visible })
}

// RemoveStrategy deletes a position. Alerts bound to it stay in the book and
// are skipped as stale bindings until removed.
func (b Book) RemoveStrategy(id string) (Book, error) {
	idx := -1
	for i, s := range b.Strategies {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return b, fmt.Errorf("strategy %s: %w", id, ErrNotFound)
	}
	next := make([]StrategyPosition, 0, len(b.Strategies)-1)
	next = append(next, b.Strategies[:idx]...)
	b.Strategies = append(next, b.Strategies[idx+1:]...)
	return b, nil
}

// AddAlert appends a validated alert. Alerts must be bound to an existing strategy
// unless they are price alerts.
func (b Book) AddAlert(alert AlertDefinition) (Book, error) {
	if err := alert.Validate(); err != nil {
		return b, err
	}
	if _, exists := b.Alert(alert.ID); exists {
		return b, fmt.Errorf("alert %s already exists", alert.ID)
	}
	if alert.StrategyID != "" {
		if _, ok := b.Strategy(alert.StrategyID); !ok {
			return b, fmt.Errorf("alert %s bound to strategy %s: %w", alert.ID, alert.StrategyID, ErrNotFound)
		}
	}
	b.Alerts = append(cloneAlerts(b.Alerts), alert)
	return b, nil
}

// RemoveAlert deletes an alert
func (b Book) RemoveAlert(id string) (Book, error) {
	idx := -1
	for i, a := range b.Alerts {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return b, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	next := make([]AlertDefinition, 0, len(b.Alerts)-1)
	next = append(next, b.Alerts[:idx]...)
	b.Alerts = append(next, b.Alerts[idx+1:]...)
	return b, nil
}

// SetAlertEnabled enables or disables an alert. Re-enabling clears the runtime state.
func (b Book) SetAlertEnabled(id string, enabled bool) (Book, error) {
	for i, a := range b.Alerts {
		if a.ID != id {
			continue
		}
		if a.Enabled == enabled {
			return b, nil
		}
		a.Enabled = enabled
		if enabled {
			a = a.ResetRuntime()
		}
		b.Alerts = cloneAlerts(b.Alerts)
		b.Alerts[i] = a
		return b, nil
	}
	return b, fmt.Errorf("alert %s: %w", id, ErrNotFound)
}

// Snapshots returns the host-facing state of every alert
func (b Book) Snapshots() []AlertSnapshot {
	out := make([]AlertSnapshot, len(b.Alerts))
	for i, a := range b.Alerts {
		out[i] = a.Snapshot()
	}
	return out
}

func (b Book) updateStrategy(id string, fn func(*StrategyPosition)) (Book, error) {
	for i := range b.Strategies {
		if b.Strategies[i].ID != id {
			continue
		}
		next := cloneStrategies(b.Strategies)
		fn(&next[i])
		if err := next[i].Validate(); err != nil {
			return b, err
		}
		b.Strategies = next
		return b, nil
	}
	return b, fmt.Errorf("strategy %s: %w", id, ErrNotFound)
}

func cloneStrategies(in []StrategyPosition) []StrategyPosition {
	out := make([]StrategyPosition, len(in), len(in)+1)
	copy(out, in)
	return out
}

func cloneAlerts(in []AlertDefinition) []AlertDefinition {
	out := make([]AlertDefinition, len(in), len(in)+1)
	copy(out, in)
	return out
}
