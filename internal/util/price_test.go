package util

import (
	"math"
	"testing"
)

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		tick     float64
		expected float64
	}{
		{
			name:     "basic rounding down",
			x:        1.2345,
			tick:     0.01,
			expected: 1.23,
		},
		{
			name:     "tie rounds away from zero",
			x:        1.235,
			tick:     0.01,
			expected: 1.24,
		},
		{
			name:     "negative basic rounding",
			x:        -1.2345,
			tick:     0.01,
			expected: -1.23,
		},
		{
			name:     "larger tick size",
			x:        1.27,
			tick:     0.05,
			expected: 1.25,
		},
		{
			name:     "breakeven near a strike",
			x:        5984.999999997,
			tick:     CentTick,
			expected: 5985,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToTick(tt.x, tt.tick)
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("RoundToTick(%v, %v) = %v, expected %v", tt.x, tt.tick, result, tt.expected)
			}
		})
	}
}

func TestTickRoundingEdgeCases(t *testing.T) {
	t.Run("zero tick returns input", func(t *testing.T) {
		input := 1.2345
		if result := RoundToTick(input, 0); result != input {
			t.Errorf("RoundToTick(%v, 0) = %v, expected %v", input, result, input)
		}
	})

	t.Run("NaN and infinite inputs return unchanged", func(t *testing.T) {
		if result := RoundToTick(math.NaN(), 0.01); !math.IsNaN(result) {
			t.Errorf("RoundToTick(NaN, 0.01) = %v, expected NaN", result)
		}
		if result := RoundToTick(math.Inf(1), 0.01); !math.IsInf(result, 1) {
			t.Errorf("RoundToTick(+Inf, 0.01) = %v, expected +Inf", result)
		}
	})

	t.Run("negative zero is normalized", func(t *testing.T) {
		if result := RoundToTick(-0.001, 0.01); math.Signbit(result) {
			t.Errorf("RoundToTick(-0.001, 0.01) = %v, expected +0", result)
		}
	})
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		x    float64
		want string
	}{
		{6000, "6000.00"},
		{-0.004, "0.00"},
		{-499.996, "-500.00"},
		{1.2345, "1.23"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.x, CentTick); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.x, got, tt.want)
		}
	}
}
