package bootstrap

import (
	"testing"

	"qcat/internal/stats/rng"
)

// equalWeightBuilder combines resampled component series into a per-period
// equal-weight meta return series.
func equalWeightBuilder(components [][]float64) []float64 {
	if len(components) == 0 {
		return nil
	}
	m := len(components[0])
	out := make([]float64, m)
	for t := 0; t < m; t++ {
		var sum float64
		for _, c := range components {
			sum += c[t]
		}
		out[t] = sum / float64(len(components))
	}
	return out
}

func positiveComponentSeries(n int, base float64) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = base
	}
	return out
}

func TestMetaSelectionBootstrap_EqualWeightTwoComponents(t *testing.T) {
	components := [][]float64{
		positiveComponentSeries(100, 0.01),
		positiveComponentSeries(100, 0.012),
	}

	boot, err := NewMetaSelectionBootstrap(400, 0.95, 4, 252)
	if err != nil {
		t.Fatalf("NewMetaSelectionBootstrap: %v", err)
	}

	result, err := boot.Run(components, equalWeightBuilder, rng.NewFromSeed(9))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.EffectiveB+0 == 0 {
		t.Fatal("expected at least one usable replicate")
	}
	if result.EffectiveB > result.B {
		t.Errorf("expected effective_B <= B, got %d > %d", result.EffectiveB, result.B)
	}
	if result.LowerBoundPerPeriod <= -1 {
		t.Errorf("expected per-period lower bound in valid growth-factor domain, got %v", result.LowerBoundPerPeriod)
	}
}

func TestMetaSelectionBootstrap_RejectsTooFewComponents(t *testing.T) {
	boot, err := NewMetaSelectionBootstrap(400, 0.95, 4, 252)
	if err != nil {
		t.Fatalf("NewMetaSelectionBootstrap: %v", err)
	}
	if _, err := boot.Run(nil, equalWeightBuilder, rng.NewFromSeed(1)); err == nil {
		t.Error("expected an error for an empty component matrix")
	}
}

func TestMetaSelectionBootstrap_RejectsShortComponent(t *testing.T) {
	boot, err := NewMetaSelectionBootstrap(400, 0.95, 4, 252)
	if err != nil {
		t.Fatalf("NewMetaSelectionBootstrap: %v", err)
	}
	components := [][]float64{{0.01}}
	if _, err := boot.Run(components, equalWeightBuilder, rng.NewFromSeed(1)); err == nil {
		t.Error("expected an error for a component with fewer than 2 observations")
	}
}

func TestMetaSelectionBootstrap_RNGPathAndCRNPathAgree(t *testing.T) {
	components := [][]float64{
		positiveComponentSeries(60, 0.008),
		positiveComponentSeries(60, 0.009),
	}

	boot, err := NewMetaSelectionBootstrap(400, 0.9, 3, 12)
	if err != nil {
		t.Fatalf("NewMetaSelectionBootstrap: %v", err)
	}

	const masterSeed = uint64(777)

	rngResult, err := boot.Run(components, equalWeightBuilder, rng.NewFromSeed(masterSeed))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	seeds := rng.PrecomputeSeeds(rng.NewFromSeed(masterSeed), 400)
	provider := seedVectorProvider{seeds: seeds}
	crnResult, err := boot.RunCRN(components, equalWeightBuilder, provider)
	if err != nil {
		t.Fatalf("RunCRN: %v", err)
	}

	if rngResult.LowerBoundPerPeriod != crnResult.LowerBoundPerPeriod {
		t.Errorf("expected RNG-path and CRN-path per-period bounds to match, got %v vs %v",
			rngResult.LowerBoundPerPeriod, crnResult.LowerBoundPerPeriod)
	}
	if rngResult.LowerBoundAnnual != crnResult.LowerBoundAnnual {
		t.Errorf("expected RNG-path and CRN-path annualized bounds to match, got %v vs %v",
			rngResult.LowerBoundAnnual, crnResult.LowerBoundAnnual)
	}
}
