package bootstrap

import (
	"qcat/internal/stats/resample"
	"qcat/internal/stats/rng"
)

// Resampler draws a length-m subsample of x for one bootstrap replicate
// (SPEC_FULL.md §4.4) and reports the mean block length L it used, which the
// bootstrap engine echoes back on Result.L.
type Resampler interface {
	Sample(x []float64, m int, engine *rng.Rng) []float64
	L() int
}

// IIDResampler draws m observations with replacement from x, independently
// per output position.
type IIDResampler struct{}

// Sample implements Resampler.
func (IIDResampler) Sample(x []float64, m int, engine *rng.Rng) []float64 {
	idx := resample.IIDFrom(engine, m, len(x))
	return resample.Gather(x, idx)
}

// L implements Resampler; IID sampling has no serial structure.
func (IIDResampler) L() int { return 1 }

// StationaryBlockResampler draws m observations via the Politis-Romano
// stationary block bootstrap, preserving short-range serial dependence
// through circular blocks with geometric length (mean MeanBlockLength).
type StationaryBlockResampler struct {
	MeanBlockLength float64
}

// Sample implements Resampler.
func (r StationaryBlockResampler) Sample(x []float64, m int, engine *rng.Rng) []float64 {
	idx := resample.Stationary(engine, m, len(x), r.MeanBlockLength)
	return resample.Gather(x, idx)
}

// L implements Resampler, rounding the configured mean block length to the
// nearest integer (Result.L is reported as an integer diagnostic field).
func (r StationaryBlockResampler) L() int {
	l := int(r.MeanBlockLength + 0.5)
	if l < 1 {
		l = 1
	}
	return l
}
