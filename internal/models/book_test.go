package models

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func testStrategy(id string) StrategyPosition {
	return StrategyPosition{
		ID:        id,
		Structure: StructureVertical,
		Side:      SideCall,
		Strike:    6000,
		Width:     10,
		Debit:     3,
		Visible:   true,
	}
}

func TestStrategyPosition_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *StrategyPosition)
		valid  bool
	}{
		{"valid vertical", func(*StrategyPosition) {}, true},
		{"single ignores width", func(p *StrategyPosition) { p.Structure = StructureSingle; p.Width = 0 }, true},
		{"unknown structure", func(p *StrategyPosition) { p.Structure = "condor" }, false},
		{"unknown side", func(p *StrategyPosition) { p.Side = "straddle" }, false},
		{"zero strike", func(p *StrategyPosition) { p.Strike = 0 }, false},
		{"NaN strike", func(p *StrategyPosition) { p.Strike = math.NaN() }, false},
		{"zero width spread", func(p *StrategyPosition) { p.Width = 0 }, false},
		{"negative dte", func(p *StrategyPosition) { p.DTE = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testStrategy("s")
			tt.mutate(&p)
			err := p.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidStrategyParameters) {
				t.Errorf("Expected ErrInvalidStrategyParameters, got %v", err)
			}
		})
	}
}

func TestStrategyPosition_Bounds(t *testing.T) {
	call := testStrategy("c")
	if lo, hi := call.StrikeBounds(); lo != 6000 || hi != 6010 {
		t.Errorf("Call vertical bounds = %.0f-%.0f, want 6000-6010", lo, hi)
	}
	put := testStrategy("p")
	put.Side = SidePut
	if lo, hi := put.StrikeBounds(); lo != 5990 || hi != 6000 {
		t.Errorf("Put vertical bounds = %.0f-%.0f, want 5990-6000", lo, hi)
	}
	fly := testStrategy("f")
	fly.Structure = StructureButterfly
	if lo, hi := fly.StrikeBounds(); lo != 5990 || hi != 6010 {
		t.Errorf("Butterfly bounds = %.0f-%.0f, want 5990-6010", lo, hi)
	}

	if call.MaxLoss(SharesPerContract) != -300 {
		t.Errorf("MaxLoss = %.2f, want -300", call.MaxLoss(SharesPerContract))
	}
	if call.MaxProfit(SharesPerContract) != 700 {
		t.Errorf("MaxProfit = %.2f, want 700", call.MaxProfit(SharesPerContract))
	}
	if got := call.ProfitPercent(150, SharesPerContract); got != 0.5 {
		t.Errorf("ProfitPercent = %.2f, want 0.5", got)
	}

	call.Debit = math.NaN()
	if call.EffectiveDebit() != 0 {
		t.Errorf("NaN debit should count as zero")
	}
	if call.ProfitPercent(100, SharesPerContract) != 0 {
		t.Errorf("Zero debit should report zero profit percent")
	}
}

func TestBook_MutationsDoNotAlias(t *testing.T) {
	var book Book
	book, err := book.AddStrategy(testStrategy("a"))
	if err != nil {
		t.Fatal(err)
	}
	before := book

	after, err := book.CorrectDebit("a", 4.5)
	if err != nil {
		t.Fatal(err)
	}
	if before.Strategies[0].Debit != 3 {
		t.Errorf("CorrectDebit mutated the previous book")
	}
	if after.Strategies[0].Debit != 4.5 {
		t.Errorf("Debit = %.2f, want 4.5", after.Strategies[0].Debit)
	}

	hidden, err := after.SetVisible("a", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(hidden.VisibleStrategies()) != 0 || len(after.VisibleStrategies()) != 1 {
		t.Errorf("SetVisible should only affect the returned book")
	}

	if _, err := after.CorrectDebit("missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBook_AddStrategyRejectsInvalidAndDuplicates(t *testing.T) {
	book, err := Book{}.AddStrategy(testStrategy("a"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := book.AddStrategy(testStrategy("a")); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected duplicate rejection, got %v", err)
	}
	bad := testStrategy("b")
	bad.Width = -1
	if _, err := book.AddStrategy(bad); !errors.Is(err, ErrInvalidStrategyParameters) {
		t.Errorf("Expected invalid parameters, got %v", err)
	}
}

func TestBook_Alerts(t *testing.T) {
	book, err := Book{}.AddStrategy(testStrategy("a"))
	if err != nil {
		t.Fatal(err)
	}

	unbound := NewAlert(AlertDebit, ConditionBelow, 1, FireOnce, "")
	if _, err := book.AddAlert(unbound); err == nil {
		t.Error("Debit alerts must be bound to a strategy")
	}
	dangling := NewAlert(AlertDebit, ConditionBelow, 1, FireOnce, "nope")
	if _, err := book.AddAlert(dangling); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown strategy, got %v", err)
	}
	badCond := NewAlert(AlertPrice, "near", 6000, FireOnce, "")
	if _, err := book.AddAlert(badCond); err == nil {
		t.Error("Expected unknown condition to be rejected")
	}

	alert := NewAlert(AlertTrailingStop, "", 2, FireRepeat, "a")
	book, err = book.AddAlert(alert)
	if err != nil {
		t.Fatal(err)
	}

	// Removing the strategy leaves the alert behind as a stale binding
	book, err = book.RemoveStrategy("a")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := book.Alert(alert.ID); !ok {
		t.Error("Alert should survive strategy removal")
	}

	book, err = book.RemoveAlert(alert.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(book.Alerts) != 0 {
		t.Errorf("Expected no alerts, got %d", len(book.Alerts))
	}
}

func TestBook_SetAlertEnabledResetsRuntime(t *testing.T) {
	book, _ := Book{}.AddStrategy(testStrategy("a"))
	alert := NewAlert(AlertTrailingStop, "", 2, FireOnce, "a")
	alert.Triggered = true
	alert.FiredAt = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	alert.HighWaterMark = 1.5
	alert.HighWaterMarkSet = true
	book, err := book.AddAlert(alert)
	if err != nil {
		t.Fatal(err)
	}

	disabled, err := book.SetAlertEnabled(alert.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := disabled.Alert(alert.ID)
	if got.Enabled || !got.Triggered {
		t.Errorf("Disabling should keep runtime state, got %+v", got)
	}

	enabled, err := disabled.SetAlertEnabled(alert.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	got, _ = enabled.Alert(alert.ID)
	if !got.Enabled || got.Triggered || got.HighWaterMarkSet || !got.FiredAt.IsZero() {
		t.Errorf("Re-enabling should reset runtime state, got %+v", got)
	}

	same, err := enabled.SetAlertEnabled(alert.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if &same.Alerts[0] != &enabled.Alerts[0] {
		t.Error("No-op enable should not copy the alert slice")
	}

	snaps := enabled.Snapshots()
	if len(snaps) != 1 || snaps[0].State != AlertStateIdle {
		t.Errorf("Unexpected snapshots %+v", snaps)
	}
}

func TestScenario_Apply(t *testing.T) {
	m := MarketSnapshot{Spot: 6000, Volatility: 0.15}
	spot, vol := Scenario{SpotOffset: -25, VolatilityOffset: -0.2}.Apply(m)
	if spot != 5975 {
		t.Errorf("Spot = %.2f, want 5975", spot)
	}
	if vol != 0 {
		t.Errorf("Volatility should floor at zero, got %.4f", vol)
	}
	if (MarketSnapshot{Spot: math.NaN()}).HasSpot() {
		t.Error("NaN spot should be unusable")
	}
}

func TestFired_String(t *testing.T) {
	f := Fired{AlertID: "x", Type: AlertPrice, FiredAt: time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC), Value: 6060}
	want := "alert x (price) fired at 2026-10-19T15:00:00Z value=6060.00"
	if f.String() != want {
		t.Errorf("String() = %q, want %q", f.String(), want)
	}
}
