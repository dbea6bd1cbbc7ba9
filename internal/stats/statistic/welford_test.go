package statistic

import "testing"

func TestMeanVarianceMatchesKnownSample(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean, variance := MeanVariance(data)
	approxEqual(t, mean, 5.0, 1e-9, "mean")
	approxEqual(t, variance, 32.0/7.0, 1e-9, "unbiased variance")
}

func TestMeanVarianceSingleElement(t *testing.T) {
	mean, variance := MeanVariance([]float64{3.5})
	approxEqual(t, mean, 3.5, 1e-12, "single-element mean")
	approxEqual(t, variance, 0, 1e-12, "single-element variance")
}

func TestMeanVarianceEmpty(t *testing.T) {
	mean, variance := MeanVariance(nil)
	approxEqual(t, mean, 0, 1e-12, "empty mean")
	approxEqual(t, variance, 0, 1e-12, "empty variance")
}

func TestSkewnessSymmetricSampleNearZero(t *testing.T) {
	data := []float64{-2, -1, 0, 1, 2}
	approxEqual(t, Skewness(data), 0, 1e-9, "symmetric skew")
}

func TestSkewnessRequiresMoreThanTwoPoints(t *testing.T) {
	approxEqual(t, Skewness([]float64{1, 2}), 0, 1e-12, "n<=2 skew")
}
