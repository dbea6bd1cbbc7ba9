package statistic

import "testing"

func TestBuildStatisticalContextBasicFields(t *testing.T) {
	r := []float64{0.01, -0.02, 0.03, -0.01, 0.02, -0.015, 0.025, -0.005}
	ctx := BuildStatisticalContext(r, 252, 0)
	if ctx.N != len(r) {
		t.Fatalf("expected N=%d, got %d", len(r), ctx.N)
	}
	if ctx.StdDev <= 0 {
		t.Fatalf("expected positive stddev, got %v", ctx.StdDev)
	}
	if ctx.AnnualizedStdDev <= ctx.StdDev {
		t.Fatalf("annualized stddev should exceed per-period stddev for periodsPerYear>1")
	}
}

func TestBuildStatisticalContextHeavyTailFlag(t *testing.T) {
	r := []float64{-0.01, -0.02, -0.015, -0.03, -0.012, -0.018, -0.025, -0.04, 0.05, 0.02}
	ctx := BuildStatisticalContext(r, 252, 5)
	if ctx.HillTailIndex > 0 && ctx.HillTailIndex <= HeavyTailAlphaThreshold && !ctx.HasHeavyTails {
		t.Fatalf("expected HasHeavyTails set for alpha=%v", ctx.HillTailIndex)
	}
}
