package models

import "testing"

func TestValidateAlertTransition(t *testing.T) {
	tests := []struct {
		name      string
		behavior  Behavior
		from      AlertState
		to        AlertState
		condition string
		valid     bool
	}{
		{"fire once fires", FireOnce, AlertStateIdle, AlertStateTriggered, ConditionMet, true},
		{"fire once never re-arms", FireOnce, AlertStateTriggered, AlertStateIdle, OtherSide, false},
		{"repeat fires", FireRepeat, AlertStateIdle, AlertStateTriggered, ConditionMet, true},
		{"repeat re-arms on other side", FireRepeat, AlertStateTriggered, AlertStateIdle, OtherSide, true},
		{"repeat is never removed", FireRepeat, AlertStateTriggered, AlertStateRemoved, Scheduled, false},
		{"remove fires", FireAndRemove, AlertStateIdle, AlertStateTriggered, ConditionMet, true},
		{"remove leaves the book", FireAndRemove, AlertStateTriggered, AlertStateRemoved, Scheduled, true},
		{"remove cannot skip firing", FireAndRemove, AlertStateIdle, AlertStateRemoved, Scheduled, false},
		{"wrong condition", FireRepeat, AlertStateIdle, AlertStateTriggered, OtherSide, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAlertTransition(tt.behavior, tt.from, tt.to, tt.condition)
			if tt.valid && err != nil {
				t.Errorf("Expected valid transition, got: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected %s -> %s for %s to be rejected", tt.from, tt.to, tt.behavior)
			}
		})
	}
}

func TestAlertState_Description(t *testing.T) {
	for _, s := range []AlertState{AlertStateIdle, AlertStateTriggered, AlertStateRemoved} {
		if s.Description() == "Unknown state" {
			t.Errorf("State %s has no description", s)
		}
	}
	if AlertState("bogus").Description() != "Unknown state" {
		t.Error("Unknown states should say so")
	}
}

func TestAlertDefinition_StateAndReset(t *testing.T) {
	a := NewAlert(AlertTrailingStop, "", 2, FireRepeat, "s1")
	if a.State() != AlertStateIdle {
		t.Fatalf("New alert should be idle, got %s", a.State())
	}

	a.Triggered = true
	a.HighWaterMark = 3.2
	a.HighWaterMarkSet = true
	a.ZoneActive = true
	a.ZoneLow, a.ZoneHigh = 1, 2
	a.HighWaterMarkProfit = -0.4
	a.HighWaterMarkProfitSet = true
	if a.State() != AlertStateTriggered {
		t.Errorf("Triggered alert should report triggered, got %s", a.State())
	}

	reset := a.ResetRuntime()
	fresh := NewAlert(AlertTrailingStop, "", 2, FireRepeat, "s1")
	fresh.ID = a.ID
	if reset != fresh {
		t.Errorf("Reset should clear every runtime field:\n got  %+v\n want %+v", reset, fresh)
	}
}
