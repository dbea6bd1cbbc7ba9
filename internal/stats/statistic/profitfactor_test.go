package statistic

import (
	"math"
	"testing"
)

func approxEqual(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s: got %v want %v", msg, got, want)
	}
}

func TestComputeProfitFactorUncompressed(t *testing.T) {
	r := []float64{0.02, -0.01, 0.03, -0.02}
	got := ComputeProfitFactor(r, false)
	want := 0.05 / 0.03
	approxEqual(t, got, want, 1e-9, "plain PF")
}

func TestComputeProfitFactorNoLossesSentinel(t *testing.T) {
	r := []float64{0.01, 0.02, 0.03}
	got := ComputeProfitFactor(r, false)
	approxEqual(t, got, ProfitFactorSentinel, 1e-9, "sentinel PF")
}

func TestComputeProfitFactorCompressedIsLogOfUncompressed(t *testing.T) {
	r := []float64{0.02, -0.01, 0.03, -0.02}
	raw := ComputeProfitFactor(r, false)
	compressed := ComputeProfitFactor(r, true)
	approxEqual(t, compressed, math.Log(1+raw), 1e-9, "compressed PF")
}

func TestComputeLogProfitFactorSkipsRuinousBars(t *testing.T) {
	r := []float64{0.1, -1.5, -0.1}
	got := ComputeLogProfitFactor(r, false)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("expected finite log PF skipping -1.5 bar, got %v", got)
	}
}

func TestComputeLogProfitFactorRobustPositive(t *testing.T) {
	r := []float64{0.05, -0.02, 0.03, -0.01, 0.04}
	got := ComputeLogProfitFactorRobust(r, false, DefaultRuinEps, DefaultDenomFloor, DefaultPriorStrength, 0)
	if got <= 0 {
		t.Fatalf("expected positive robust PF, got %v", got)
	}
}

func TestComputeLogProfitFactorRobustNoLossesUsesDefaultPrior(t *testing.T) {
	r := []float64{0.01, 0.02, 0.015}
	got := ComputeLogProfitFactorRobust(r, false, DefaultRuinEps, DefaultDenomFloor, DefaultPriorStrength, 0)
	if got <= 0 || math.IsInf(got, 0) {
		t.Fatalf("expected finite positive PF with no losses, got %v", got)
	}
}

func TestComputeLogProfitFactorRobustFromLogBarsMatchesDirect(t *testing.T) {
	r := []float64{0.05, -0.02, 0.03, -0.01, 0.04, -0.03}
	logBars := MakeLogGrowthSeries(r, DefaultRuinEps)
	signs := make([]float64, len(r))
	for i, x := range r {
		signs[i] = x
	}
	direct := ComputeLogProfitFactorRobust(r, false, DefaultRuinEps, DefaultDenomFloor, DefaultPriorStrength, 0)
	fromBars := ComputeLogProfitFactorRobustFromLogBars(logBars, signs, false, DefaultDenomFloor, DefaultPriorStrength, 0)
	approxEqual(t, fromBars, direct, 1e-9, "robust PF from log bars vs direct")
}

func TestComputeLogProfitFactorRobustLogPFWithStopLossPrior(t *testing.T) {
	r := []float64{0.05, -0.02, 0.03, -0.01, 0.04}
	opts := DefaultLogPFOptions()
	opts.StopLossReturnSpace = 0.02
	opts.ProfitTargetReturnSpace = 0.04
	got := ComputeLogProfitFactorRobustLogPF(r, opts)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("expected finite log PF, got %v", got)
	}
}

func TestComputeLogProfitFactorRobustLogPFAdaptivePriorStrength(t *testing.T) {
	r := []float64{0.05, -0.02, 0.03, -0.01, 0.04}
	opts := DefaultLogPFOptions()
	opts.PriorStrength = -1
	got := ComputeLogProfitFactorRobustLogPF(r, opts)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("expected finite log PF under adaptive prior strength, got %v", got)
	}
}

func TestComputeLogProfitFactorRobustLogPFFromLogBarsMatchesDirect(t *testing.T) {
	r := []float64{0.05, -0.02, 0.03, -0.01, 0.04, -0.03}
	logBars := MakeLogGrowthSeries(r, DefaultRuinEps)
	signs := append([]float64(nil), r...)
	opts := DefaultLogPFOptions()
	direct := ComputeLogProfitFactorRobustLogPF(r, opts)
	fromBars := ComputeLogProfitFactorRobustLogPFFromLogBars(logBars, signs, opts)
	approxEqual(t, fromBars, direct, 1e-9, "log PF from log bars vs direct")
}

func TestMakeLogGrowthSeriesFloorsRuin(t *testing.T) {
	out := MakeLogGrowthSeries([]float64{-2.0}, 1e-8)
	approxEqual(t, out[0], math.Log(1e-8), 1e-12, "ruin floor")
}
