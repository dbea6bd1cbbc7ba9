package statistic

import "math"

// MeanVariance computes the mean and unbiased (n-1 denominator) sample
// variance of data in a single pass using Welford's algorithm. Returns
// {0, 0} for an empty slice; variance is 0 for n < 2.
func MeanVariance(data []float64) (mean, variance float64) {
	n := 0
	var m2 float64
	for _, x := range data {
		n++
		delta := x - mean
		mean += delta / float64(n)
		delta2 := x - mean
		m2 += delta * delta2
	}
	if n < 2 {
		return mean, 0
	}
	return mean, m2 / float64(n-1)
}

// Skewness computes the population third standardized moment (m3/se^3) over
// the supplied values, matching the reference bootstrap diagnostics'
// skew_boot computation: population (not bias-corrected) third moment
// divided by the sample standard deviation cubed. Requires n > 2 and a
// positive standard deviation; returns 0 otherwise.
func Skewness(data []float64) float64 {
	n := len(data)
	if n <= 2 {
		return 0
	}
	mean, variance := MeanVariance(data)
	se := sqrtNonNeg(variance)
	if se <= 0 {
		return 0
	}
	var m3 float64
	for _, x := range data {
		d := x - mean
		m3 += d * d * d
	}
	m3 /= float64(n)
	return m3 / (se * se * se)
}

func sqrtNonNeg(x float64) float64 {
	if x < 0 {
		return 0
	}
	return math.Sqrt(x)
}
