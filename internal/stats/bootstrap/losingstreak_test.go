package bootstrap

import (
	"testing"
	"time"

	"qcat/internal/stats/decimal"
	"qcat/internal/stats/position"
	"qcat/internal/stats/rng"
)

// closedLongTrade builds a single closed long trade whose percent return has
// the given sign (positive entry->exit move for a win, negative for a loss).
func closedLongTrade(t *testing.T, day int, win bool) *position.ClosedPosition {
	t.Helper()
	entry := decimal.NewFromInt(100)
	open, err := position.NewOpenPosition(position.Long, time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC), entry, nil, nil)
	if err != nil {
		t.Fatalf("NewOpenPosition: %v", err)
	}
	exit := decimal.NewFromInt(105)
	if !win {
		exit = decimal.NewFromInt(95)
	}
	return open.Close(time.Date(2024, 1, day+1, 0, 0, 0, 0, time.UTC), exit)
}

func buildHistory(t *testing.T, pattern []bool) *position.ClosedPositionHistory {
	t.Helper()
	positions := make([]*position.ClosedPosition, len(pattern))
	for i, win := range pattern {
		positions[i] = closedLongTrade(t, i*2+1, win)
	}
	return position.NewClosedPositionHistory(positions)
}

func TestLongestLosingStreak_ObservedStreak(t *testing.T) {
	// win, loss, loss, loss, win, loss -> longest losing streak is 3.
	history := buildHistory(t, []bool{true, false, false, false, true, false})

	bound := NewMetaLosingStreakBootstrapBound(LosingStreakOptions{}, nil, nil)
	if got := bound.ObservedStreak(history); got != 3 {
		t.Errorf("expected observed streak 3, got %d", got)
	}
}

func TestMetaLosingStreakBootstrapBound_UpperBoundAtLeastObserved(t *testing.T) {
	pattern := make([]bool, 40)
	for i := range pattern {
		// A single loss followed by two wins, repeated, to create some
		// streak structure for the stationary block sampler to preserve.
		pattern[i] = i%3 != 0
	}
	history := buildHistory(t, pattern)

	bound := NewMetaLosingStreakBootstrapBound(LosingStreakOptions{B: 2000, Alpha: 0.05}, nil, nil)

	observed := bound.ObservedStreak(history)
	upper, err := bound.ComputeUpperBound(history, rng.NewFromSeed(11))
	if err != nil {
		t.Fatalf("ComputeUpperBound: %v", err)
	}

	if upper < observed {
		t.Errorf("expected bootstrap upper bound >= observed streak (%d), got %d", observed, upper)
	}
}

func TestMetaLosingStreakBootstrapBound_EmptyHistory(t *testing.T) {
	history := position.NewClosedPositionHistory(nil)
	bound := NewMetaLosingStreakBootstrapBound(LosingStreakOptions{}, nil, nil)

	upper, err := bound.ComputeUpperBound(history, rng.NewFromSeed(1))
	if err != nil {
		t.Fatalf("ComputeUpperBound: %v", err)
	}
	if upper != 0 {
		t.Errorf("expected upper bound 0 for empty history, got %d", upper)
	}
}

func TestStationaryTradeBlockSampler_ProducesRequestedLength(t *testing.T) {
	sampler := StationaryTradeBlockSampler{BlockLen: 4}
	in := []float64{1, -1, -1, 2, -2, 3}
	out := sampler.Sample(in, 20, rng.NewFromSeed(5))
	if len(out) != 20 {
		t.Errorf("expected sample length 20, got %d", len(out))
	}
}

func TestClampTradeM_SampleFraction(t *testing.T) {
	if m := clampTradeM(100, 0.5); m != 50 {
		t.Errorf("expected m=50, got %d", m)
	}
	if m := clampTradeM(100, 0); m != 100 {
		t.Errorf("expected default fraction 1.0 to yield m=100, got %d", m)
	}
	if m := clampTradeM(0, 0.5); m != 0 {
		t.Errorf("expected m=0 for empty series, got %d", m)
	}
}
