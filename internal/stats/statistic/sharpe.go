package statistic

import "math"

// Sharpe computes the unannualized Sharpe ratio: mean(r) / stddev(r). Returns
// 0 when variance is non-positive, matching the reference's degenerate-input
// handling rather than returning NaN/Inf.
func Sharpe(r []float64) float64 {
	mean, variance := MeanVariance(r)
	if variance <= 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}

// AnnualizedSharpe scales the per-period Sharpe ratio by sqrt(periodsPerYear),
// the standard square-root-of-time convention.
func AnnualizedSharpe(r []float64, periodsPerYear float64) float64 {
	return Sharpe(r) * math.Sqrt(periodsPerYear)
}

// SharpeStat adapts Sharpe into a Statistic.
func SharpeStat() Statistic {
	return Func{
		Fn:                Sharpe,
		RatioStatistic:    false,
		SupportDescriptor: Unbounded(),
	}
}

// AnnualizedSharpeStat adapts AnnualizedSharpe into a Statistic for a given
// bars-per-year convention (e.g. 252 for daily bars).
func AnnualizedSharpeStat(periodsPerYear float64) Statistic {
	return Func{
		Fn:                func(sample []float64) float64 { return AnnualizedSharpe(sample, periodsPerYear) },
		RatioStatistic:    false,
		SupportDescriptor: Unbounded(),
	}
}
