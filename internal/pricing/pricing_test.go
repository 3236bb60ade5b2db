package pricing

import "testing"

func TestEstimate(t *testing.T) {
	tests := []struct {
		seconds float64
		want    float64
	}{
		{0, 0},
		{-5, 0},
		{1, PricePerMinute},
		{59.9, PricePerMinute},
		{60, PricePerMinute},
		{61, 2 * PricePerMinute},
		{600, 10 * PricePerMinute},
		{5400, 90 * PricePerMinute},
	}

	for _, tt := range tests {
		got := Estimate(tt.seconds)
		if got != tt.want {
			t.Errorf("Estimate(%v) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}

func TestEstimate_Monotone(t *testing.T) {
	durations := []float64{0, 0.5, 30, 59, 60, 60.1, 61, 120, 599, 600, 3600}
	for i := 1; i < len(durations); i++ {
		lo, hi := Estimate(durations[i-1]), Estimate(durations[i])
		if lo > hi {
			t.Errorf("Estimate(%v)=%v > Estimate(%v)=%v",
				durations[i-1], lo, durations[i], hi)
		}
	}
}
