package statistic

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestGeoMeanNoWinsorMatchesArithmeticMeanOfLogGrowth(t *testing.T) {
	r := []float64{0.02, -0.01, 0.03, -0.02, 0.015}
	w := AdaptiveWinsorizer{Mode: WinsorNone}
	got := GeoMean(r, DefaultRuinEps, w)

	logBars := MakeLogGrowthSeries(r, DefaultRuinEps)
	var sum float64
	for _, l := range logBars {
		sum += l
	}
	want := math.Exp(sum/float64(len(logBars))) - 1
	approxEqual(t, got, want, 1e-12, "unwinsorized geomean")
}

// TestStrongLogGrowthLaw verifies SPEC_FULL.md's StrongLogGrowth property:
// GeoMean(returns) must equal GeoMeanFromLogBars(MakeLogGrowthSeries(returns,
// eps)) for any winsorizer configuration, since the latter is defined as the
// former composed with the shared log-growth transform.
func TestStrongLogGrowthLaw(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	r := make([]float64, 40)
	for i := range r {
		r[i] = rng.Float64()*0.1 - 0.05
	}

	configs := []AdaptiveWinsorizer{
		{Mode: WinsorNone},
		{Mode: WinsorFixed, FixedK: 2},
		DefaultAdaptiveWinsorizer(),
	}
	for _, w := range configs {
		direct := GeoMean(r, DefaultRuinEps, w)
		viaLogBars := GeoMeanFromLogBars(MakeLogGrowthSeries(r, DefaultRuinEps), w)
		approxEqual(t, viaLogBars, direct, 1e-12, "StrongLogGrowth law")
	}
}

func TestAdaptiveWinsorizerPreservesSampleSize(t *testing.T) {
	r := make([]float64, 30)
	for i := range r {
		r[i] = 0.01
	}
	r[0] = -0.9
	r[1] = 0.9
	logBars := MakeLogGrowthSeries(r, DefaultRuinEps)
	w := DefaultAdaptiveWinsorizer()
	out := w.Apply(logBars)
	if len(out) != len(logBars) {
		t.Fatalf("winsorizing must preserve sample size: got %d want %d", len(out), len(logBars))
	}
}

func TestWinsorFixedClipsExtremes(t *testing.T) {
	logBars := []float64{-5, -1, 0, 0.1, 0.2, 1, 5}
	w := AdaptiveWinsorizer{Mode: WinsorFixed, FixedK: 1, KMax: 3}
	out := w.Apply(logBars)
	if out[0] == -5 || out[len(out)-1] == 5 {
		t.Fatalf("expected extreme values clipped, got %v", out)
	}
}

func TestGeoMeanStatAdapter(t *testing.T) {
	stat := GeoMeanStat(DefaultRuinEps, AdaptiveWinsorizer{Mode: WinsorNone})
	r := []float64{0.01, 0.02, -0.01}
	got := stat.Compute(r)
	want := GeoMean(r, DefaultRuinEps, AdaptiveWinsorizer{Mode: WinsorNone})
	approxEqual(t, got, want, 1e-12, "geomean stat adapter")
	if stat.IsRatioStatistic() {
		t.Fatalf("geomean is not a ratio statistic")
	}
}
