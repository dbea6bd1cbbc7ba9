package bootstrap

import (
	"math"
	"testing"

	"qcat/internal/stats/rng"
	"qcat/internal/stats/statistic"
)

func meanStatistic() statistic.Statistic {
	return statistic.Func{
		Fn: func(sample []float64) float64 {
			mean, _ := statistic.MeanVariance(sample)
			return mean
		},
		SupportDescriptor: statistic.Unbounded(),
	}
}

// longBiasedSeries returns n strictly positive per-period returns with mild
// dispersion, used to exercise a bootstrap whose lower bound must stay
// positive (SPEC_FULL.md §8 scenario 6).
func longBiasedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		// Deterministic pseudo-noise in [0.006, 0.014), always positive.
		frac := math.Mod(float64(i)*0.6180339887, 1.0)
		out[i] = 0.01 + 0.008*(frac-0.5)
	}
	return out
}

func TestMOutOfNFixedRatio_LongBiasedSeries(t *testing.T) {
	x := longBiasedSeries(120)

	boot, err := CreateFixedRatio(400, 0.95, 0.75, IIDResampler{})
	if err != nil {
		t.Fatalf("CreateFixedRatio: %v", err)
	}

	engine := rng.NewFromSeed(42)
	result, err := boot.Run(x, meanStatistic(), engine, 0, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Lower <= 0 {
		t.Errorf("expected lower bound > 0 for a strictly positive return series, got %v", result.Lower)
	}
	if !(result.Lower <= result.Mean && result.Mean <= result.Upper) {
		t.Errorf("expected lower <= mean <= upper, got lower=%v mean=%v upper=%v", result.Lower, result.Mean, result.Upper)
	}
	if result.EffectiveB+result.Skipped != 400 {
		t.Errorf("expected effective_B + skipped == 400, got %d + %d", result.EffectiveB, result.Skipped)
	}
	if result.B != 400 {
		t.Errorf("expected B == 400, got %d", result.B)
	}
}

func TestMOutOfN_RNGPathAndCRNPathAreBitIdentical(t *testing.T) {
	x := longBiasedSeries(80)

	boot, err := CreateFixedRatio(400, 0.9, 0.7, IIDResampler{})
	if err != nil {
		t.Fatalf("CreateFixedRatio: %v", err)
	}
	stat := meanStatistic()

	const masterSeed = uint64(12345)

	callerEngine := rng.NewFromSeed(masterSeed)
	rngResult, err := boot.Run(x, stat, callerEngine, 0, nil)
	if err != nil {
		t.Fatalf("Run (RNG-path): %v", err)
	}

	seeds := rng.PrecomputeSeeds(rng.NewFromSeed(masterSeed), 400)
	provider := seedVectorProvider{seeds: seeds}
	crnResult, err := boot.RunCRN(x, stat, provider, 0, nil)
	if err != nil {
		t.Fatalf("RunCRN: %v", err)
	}

	if rngResult.Lower != crnResult.Lower || rngResult.Upper != crnResult.Upper || rngResult.Mean != crnResult.Mean {
		t.Errorf("expected RNG-path and CRN-path results to be bit-identical, got %+v vs %+v", rngResult, crnResult)
	}
	if rngResult.EffectiveB != crnResult.EffectiveB || rngResult.Skipped != crnResult.Skipped {
		t.Errorf("expected identical effective_B/skipped, got %+v vs %+v", rngResult, crnResult)
	}
}

// seedVectorProvider replays a precomputed seed vector as a CRNEngineProvider,
// making the RNG-path and CRN-path equivalent when driven from the same
// master seed (SPEC_FULL.md §4.2 ordering guarantee).
type seedVectorProvider struct {
	seeds []uint64
}

func (p seedVectorProvider) MakeEngine(b int) *rng.Rng {
	return rng.NewFromSeed(p.seeds[b])
}

func TestMOutOfN_SingleThreadAndWorkerPoolExecutorsAgree(t *testing.T) {
	x := longBiasedSeries(100)
	stat := meanStatistic()

	single, err := CreateFixedRatio(400, 0.95, 0.6, IIDResampler{}, WithExecutor(SingleThreadExecutor{}))
	if err != nil {
		t.Fatalf("CreateFixedRatio (single): %v", err)
	}
	pooled, err := CreateFixedRatio(400, 0.95, 0.6, IIDResampler{}, WithExecutor(WorkerPoolExecutor{Workers: 4}))
	if err != nil {
		t.Fatalf("CreateFixedRatio (pooled): %v", err)
	}

	singleResult, err := single.Run(x, stat, rng.NewFromSeed(7), 0, nil)
	if err != nil {
		t.Fatalf("Run (single): %v", err)
	}
	pooledResult, err := pooled.Run(x, stat, rng.NewFromSeed(7), 0, nil)
	if err != nil {
		t.Fatalf("Run (pooled): %v", err)
	}

	if singleResult.Lower != pooledResult.Lower || singleResult.Upper != pooledResult.Upper || singleResult.Mean != pooledResult.Mean {
		t.Errorf("expected SingleThreadExecutor and WorkerPoolExecutor to agree, got %+v vs %+v", singleResult, pooledResult)
	}
}

func TestMOutOfNFixedRatio_DegenerateReplicatesFail(t *testing.T) {
	constStat := statistic.Func{
		Fn: func([]float64) float64 { return math.NaN() },
	}

	boot, err := CreateFixedRatio(400, 0.95, 0.6, IIDResampler{})
	if err != nil {
		t.Fatalf("CreateFixedRatio: %v", err)
	}

	_, err = boot.Run(longBiasedSeries(50), constStat, rng.NewFromSeed(1), 0, nil)
	if err == nil {
		t.Fatal("expected an error when every replicate is degenerate")
	}
}

func TestCreateFixedRatio_RejectsSmallB(t *testing.T) {
	if _, err := CreateFixedRatio(10, 0.95, 0.5, IIDResampler{}); err == nil {
		t.Error("expected B < 400 to be rejected")
	}
}

func TestCreateAdaptive_UsesDefaultPolicy(t *testing.T) {
	boot, err := CreateAdaptive(400, 0.95, IIDResampler{})
	if err != nil {
		t.Fatalf("CreateAdaptive: %v", err)
	}
	if !boot.IsAdaptiveMode() {
		t.Error("expected adaptive mode")
	}

	x := longBiasedSeries(90)
	result, err := boot.Run(x, meanStatistic(), rng.NewFromSeed(3), 0, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ComputedRatio <= 0 || result.ComputedRatio >= 1 {
		t.Errorf("expected adaptive ratio in (0,1), got %v", result.ComputedRatio)
	}
	if result.MSub < 2 || result.MSub >= result.N {
		t.Errorf("expected m_sub in [2,n), got %d for n=%d", result.MSub, result.N)
	}
}
