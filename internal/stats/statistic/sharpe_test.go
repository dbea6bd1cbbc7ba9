package statistic

import (
	"math"
	"testing"
)

func TestSharpeMatchesMeanOverStdDev(t *testing.T) {
	r := []float64{0.01, 0.02, -0.01, 0.03, 0.0}
	mean, variance := MeanVariance(r)
	want := mean / math.Sqrt(variance)
	approxEqual(t, Sharpe(r), want, 1e-12, "sharpe")
}

func TestSharpeZeroVarianceReturnsZero(t *testing.T) {
	r := []float64{0.01, 0.01, 0.01}
	approxEqual(t, Sharpe(r), 0, 1e-12, "zero-variance sharpe")
}

func TestAnnualizedSharpeScalesBySqrtPeriods(t *testing.T) {
	r := []float64{0.01, 0.02, -0.01, 0.03, 0.0}
	base := Sharpe(r)
	got := AnnualizedSharpe(r, 252)
	approxEqual(t, got, base*math.Sqrt(252), 1e-12, "annualized sharpe")
}
