package statistic

import "math"

// StatisticalContext caches the derived quantities an adaptive ratio policy
// and the meta bootstrap variants need about a series, computed once per
// series rather than once per replicate (SPEC_FULL.md §3, StatisticalContext).
type StatisticalContext struct {
	N                  int
	Mean               float64
	StdDev             float64
	AnnualizedStdDev   float64
	Skew               float64
	ExcessKurtosis     float64
	FisherSkew         float64
	FisherExcessKurt   float64
	HillTailIndex      float64
	HasHeavyTails      bool
	HasStrongAsymmetry bool
}

// HeavyTailAlphaThreshold at or below which a valid Hill tail index sets
// HasHeavyTails. alpha<=2 corresponds to infinite variance under a Pareto
// tail model.
const HeavyTailAlphaThreshold = 2.0

// StrongAsymmetryBowleyThreshold at or above which |Bowley skew| sets
// HasStrongAsymmetry.
const StrongAsymmetryBowleyThreshold = 0.30

// StrongAsymmetryTailRatioThreshold at or above which the quantile tail-span
// ratio marks the series quantile-heavy; HasHeavyTails is set when either
// this or the Hill threshold fires.
const StrongAsymmetryTailRatioThreshold = 1.5

// BuildStatisticalContext computes a StatisticalContext from a return series
// and its periods-per-year annualization factor. hillK selects the Hill
// estimator's tail order (0 uses the library default).
func BuildStatisticalContext(returns []float64, periodsPerYear float64, hillK int) StatisticalContext {
	n := len(returns)
	mean, variance := MeanVariance(returns)
	sd := sqrtNonNeg(variance)

	skew, excessKurt := ComputeSkewAndExcessKurtosis(returns)
	fisherSkew, fisherKurt := FisherSkewAndExcessKurtosis(returns)
	alpha := EstimateLeftTailIndexHill(returns, hillK)

	shape := ComputeQuantileShape(returns, StrongAsymmetryBowleyThreshold, StrongAsymmetryTailRatioThreshold)

	return StatisticalContext{
		N:                  n,
		Mean:               mean,
		StdDev:             sd,
		AnnualizedStdDev:   sd * math.Sqrt(periodsPerYear),
		Skew:               skew,
		ExcessKurtosis:     excessKurt,
		FisherSkew:         fisherSkew,
		FisherExcessKurt:   fisherKurt,
		HillTailIndex:      alpha,
		HasHeavyTails:      shape.HasHeavyTails || (alpha > 0 && alpha <= HeavyTailAlphaThreshold),
		HasStrongAsymmetry: shape.HasStrongAsymmetry,
	}
}
