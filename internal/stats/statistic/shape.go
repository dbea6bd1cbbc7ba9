package statistic

import (
	"math"
	"sort"
)

// quantileContinuous is the generic linear-interpolation quantile used
// internally by the shape statistics below (Bowley, Moors, tail-span). It is
// a separate continuous-index formula from Type7Sorted in the reference
// implementation, but SPEC_FULL.md names type-7 as the quantile used
// throughout the core, so every shape statistic here is built on
// Type7Unsorted rather than carrying a second quantile definition.
func quantileContinuous(data []float64, p float64) float64 {
	q, _ := Type7Unsorted(data, p)
	return q
}

// GetBowleySkewness computes the quantile-based Bowley skewness. Requires
// n>=4; returns 0 otherwise or when the interquartile range is numerically
// tiny.
func GetBowleySkewness(v []float64) float64 {
	if len(v) < 4 {
		return 0
	}
	q1 := quantileContinuous(v, 0.25)
	q2 := quantileContinuous(v, 0.50)
	q3 := quantileContinuous(v, 0.75)
	denom := q3 - q1
	if denom == 0 || math.Abs(denom) < 1e-12 {
		return 0
	}
	return (q1 + q3 - 2*q2) / denom
}

// NormalMoorsKurtosis is the Moors kurtosis of a standard normal
// distribution, subtracted to produce an excess-kurtosis statistic.
const NormalMoorsKurtosis = 1.233

// GetMoorsKurtosis computes the quantile-based Moors excess kurtosis.
// Requires n>=7; returns 0 otherwise or when the interquartile range is
// zero.
func GetMoorsKurtosis(v []float64) float64 {
	if len(v) < 7 {
		return 0
	}
	q1 := quantileContinuous(v, 0.25)
	q3 := quantileContinuous(v, 0.75)
	o1 := quantileContinuous(v, 0.125)
	o3 := quantileContinuous(v, 0.375)
	o5 := quantileContinuous(v, 0.625)
	o7 := quantileContinuous(v, 0.875)

	denom := q3 - q1
	if denom == 0 {
		return 0
	}
	numer := (o7 - o5) + (o3 - o1)
	return numer/denom - NormalMoorsKurtosis
}

// GetTailSpanRatio compares the spread of the upper and lower tails around
// the median. Requires n>=8; returns 1.0 (symmetric) otherwise or when
// either span is numerically tiny.
func GetTailSpanRatio(v []float64, pLow, pHigh float64) float64 {
	if len(v) < 8 {
		return 1.0
	}
	qLow := quantileContinuous(v, pLow)
	qMed := quantileContinuous(v, 0.50)
	qHigh := quantileContinuous(v, pHigh)

	lowerSpan := qMed - qLow
	upperSpan := qHigh - qMed

	tiny := 1e-12 * math.Max(1, math.Abs(qMed))
	if lowerSpan <= tiny || upperSpan <= tiny {
		return 1.0
	}
	if upperSpan > lowerSpan {
		return upperSpan / lowerSpan
	}
	return lowerSpan / upperSpan
}

// QuantileShape summarizes asymmetry and tail weight via quantiles.
type QuantileShape struct {
	BowleySkew         float64
	TailRatio          float64
	HasStrongAsymmetry bool
	HasHeavyTails      bool
}

// ComputeQuantileShape requires n>=8; returns the default (symmetric,
// light-tailed) shape otherwise.
func ComputeQuantileShape(v []float64, bowleyThreshold, tailRatioThreshold float64) QuantileShape {
	if len(v) < 8 {
		return QuantileShape{TailRatio: 1.0}
	}
	bowley := GetBowleySkewness(v)
	tailRatio := GetTailSpanRatio(v, 0.10, 0.90)
	return QuantileShape{
		BowleySkew:         bowley,
		TailRatio:          tailRatio,
		HasStrongAsymmetry: math.Abs(bowley) >= bowleyThreshold,
		HasHeavyTails:      tailRatio >= tailRatioThreshold,
	}
}

// ComputeSkewAndExcessKurtosis is the primary, quantile-based shape pair fed
// into StatisticalContext. Requires n>=7; returns {0,0} otherwise.
func ComputeSkewAndExcessKurtosis(v []float64) (skew, excessKurtosis float64) {
	if len(v) < 7 {
		return 0, 0
	}
	return GetBowleySkewness(v), GetMoorsKurtosis(v)
}

// FisherSkewAndExcessKurtosis is the classical moment-based, bias-corrected
// skew/excess-kurtosis pair. Requires n>=4; returns {0,0} otherwise or when
// variance is non-positive. It is an alternate shape estimator exposed for
// diagnostics/reporting callers; StatisticalContext uses the quantile-based
// pair above (see SPEC_FULL.md §4.3.6 expansion).
func FisherSkewAndExcessKurtosis(v []float64) (skew, excessKurtosis float64) {
	n := len(v)
	if n < 4 {
		return 0, 0
	}
	mean, variance := MeanVariance(v)
	if variance <= 0 {
		return 0, 0
	}
	s := math.Sqrt(variance)
	nf := float64(n)

	var m3, m4 float64
	for _, x := range v {
		d := x - mean
		m3 += d * d * d
		m4 += d * d * d * d
	}
	m3 /= nf
	m4 /= nf

	g1 := (nf / ((nf - 1) * (nf - 2))) * (m3 / (s * s * s))

	if n < 4 {
		return g1, 0
	}
	g2 := (nf*(nf+1))/((nf-1)*(nf-2)*(nf-3))*(m4/(s*s*s*s)) -
		3*(nf-1)*(nf-1)/((nf-2)*(nf-3))

	return g1, g2
}

// EstimateLeftTailIndexHill estimates the Pareto tail index alpha of the
// left tail (losses) using the Hill estimator over the k largest loss
// magnitudes. Returns -1 when fewer than max(k+1, 8) losses exist, when the
// k-th threshold loss is non-positive, or when the resulting Hill mean is
// non-positive.
func EstimateLeftTailIndexHill(returns []float64, k int) float64 {
	if k <= 0 {
		k = 5
	}
	losses := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			losses = append(losses, -r)
		}
	}

	const minLossesForHill = 8
	minNeeded := k + 1
	if minLossesForHill > minNeeded {
		minNeeded = minLossesForHill
	}
	if len(losses) < minNeeded {
		return -1.0
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(losses)))

	if k > len(losses)-1 {
		k = len(losses) - 1
	}
	xk := losses[k]
	if xk <= 0 {
		return -1.0
	}

	var sumLog float64
	for i := 0; i < k; i++ {
		sumLog += math.Log(losses[i] / xk)
	}
	hill := sumLog / float64(k)
	if hill <= 0 {
		return -1.0
	}
	return 1.0 / hill
}
