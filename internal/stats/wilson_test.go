package stats_test

import (
	"math"
	"testing"

	"github.com/growth-engine/growth-engine/internal/stats"
)

func TestWilsonInterval_50PercentConversion(t *testing.T) {
	// 50 successes out of 100 trials
	lower, upper := stats.WilsonInterval(50, 100, 0.95)

	// Expected: approximately [0.40, 0.60] with some tolerance
	if lower < 0.38 || lower > 0.42 {
		t.Errorf("lower bound %f not in expected range [0.38, 0.42]", lower)
	}
	if upper < 0.58 || upper > 0.62 {
		t.Errorf("upper bound %f not in expected range [0.58, 0.62]", upper)
	}
}

func TestWilsonInterval_ZeroTrials(t *testing.T) {
	lower, upper := stats.WilsonInterval(0, 0, 0.95)

	if lower != 0 || upper != 0 {
		t.Errorf("expected (0, 0) for zero trials, got (%f, %f)", lower, upper)
	}
}

func TestWilsonInterval_ZeroSuccesses(t *testing.T) {
	lower, upper := stats.WilsonInterval(0, 100, 0.95)

	if lower != 0 {
		t.Errorf("expected lower bound 0, got %f", lower)
	}
	if upper < 0.01 || upper > 0.05 {
		t.Errorf("upper bound %f not in expected range [0.01, 0.05]", upper)
	}
}

func TestWilsonInterval_SmallSample(t *testing.T) {
	// Small sample size should have a wider interval
	lower, upper := stats.WilsonInterval(5, 10, 0.95)

	width := upper - lower
	if width < 0.3 {
		t.Errorf("interval width %f too narrow for small sample", width)
	}
}

func TestNormalMargin(t *testing.T) {
	// p=0.5, n=100 at 95%: 1.96*sqrt(0.25/100) = 0.098
	margin := stats.NormalMargin(0.5, 100, 0.95)
	if math.Abs(margin-0.098) > 0.001 {
		t.Errorf("margin = %f, want ~0.098", margin)
	}
}

func TestNormalMargin_ZeroTrials(t *testing.T) {
	if margin := stats.NormalMargin(0.5, 0, 0.95); margin != 0 {
		t.Errorf("expected 0 margin for zero trials, got %f", margin)
	}
}

func TestZScore(t *testing.T) {
	tests := []struct {
		confidence float64
		expected   float64
		tolerance  float64
	}{
		{0.90, 1.645, 0.01},
		{0.95, 1.96, 0.01},
		{0.99, 2.576, 0.01},
	}

	for _, tt := range tests {
		z := stats.ZScore(tt.confidence)
		if math.Abs(z-tt.expected) > tt.tolerance {
			t.Errorf("ZScore(%f) = %f, want %f (tolerance %f)", tt.confidence, z, tt.expected, tt.tolerance)
		}
	}
}
