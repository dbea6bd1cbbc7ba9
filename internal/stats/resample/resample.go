// Package resample implements the index-level resampling schemes consumed
// by the bootstrap engines in internal/stats/bootstrap: IID with-replacement
// sampling and the Politis-Romano stationary block bootstrap, expressed as a
// restart-mask so several series (returns, trade identifiers) can be
// resampled under the same block structure in one bootstrap replicate.
package resample

import "qcat/internal/stats/rng"

// IID draws n indices uniformly with replacement from [0, n) using engine.
func IID(engine *rng.Rng, n int) []int {
	return IIDFrom(engine, n, n)
}

// IIDFrom draws m indices uniformly with replacement from [0, srcN), used by
// the m-out-of-n bootstrap where the subsample length m differs from the
// source series length srcN.
func IIDFrom(engine *rng.Rng, m, srcN int) []int {
	out := make([]int, m)
	for i := range out {
		out[i] = rng.GetRandomIndex(engine, srcN)
	}
	return out
}

// RestartMask marks, for each output position, whether a new block starts
// there. mask[0] is always true. Mask construction is itself a draw against
// engine and is the unit of sharing across multiple resamplers run under
// Common Random Numbers: two components sampled with the same mask see the
// same block boundaries, differing only in which source index each block
// restarts from.
type RestartMask struct {
	Starts []bool
}

// MeanBlockLengthToRestartProb converts a target mean block length L into
// the per-position restart probability p=1/L used by the geometric block
// length implicit in the stationary bootstrap.
func MeanBlockLengthToRestartProb(meanBlockLength float64) float64 {
	if meanBlockLength < 1 {
		meanBlockLength = 1
	}
	return 1.0 / meanBlockLength
}

// BuildRestartMask draws a length-n restart mask with per-position restart
// probability p (Politis & Romano 1994 stationary bootstrap). p=1
// degenerates to IID sampling (every position restarts); p near 0 produces
// long blocks approaching a single circular rotation.
func BuildRestartMask(engine *rng.Rng, n int, p float64) RestartMask {
	starts := make([]bool, n)
	if n == 0 {
		return RestartMask{Starts: starts}
	}
	starts[0] = true
	for i := 1; i < n; i++ {
		starts[i] = rng.Bernoulli(engine, p)
	}
	return RestartMask{Starts: starts}
}

// StationaryIndices realizes a restart mask into a length-n index sequence
// into a source series of length srcN: each block start draws a fresh
// uniform source index; non-start positions continue circularly from the
// previous position's source index.
func StationaryIndices(engine *rng.Rng, mask RestartMask, srcN int) []int {
	n := len(mask.Starts)
	out := make([]int, n)
	if srcN == 0 {
		return out
	}
	cur := rng.GetRandomIndex(engine, srcN)
	for i := 0; i < n; i++ {
		if mask.Starts[i] {
			cur = rng.GetRandomIndex(engine, srcN)
		} else {
			cur = (cur + 1) % srcN
		}
		out[i] = cur
	}
	return out
}

// Stationary draws a length-n stationary-bootstrap index sequence into a
// source of length srcN in one call, building and discarding its own mask.
// Use BuildRestartMask + StationaryIndices directly when the mask must be
// shared across multiple series in the same replicate.
func Stationary(engine *rng.Rng, n, srcN int, meanBlockLength float64) []int {
	mask := BuildRestartMask(engine, n, MeanBlockLengthToRestartProb(meanBlockLength))
	return StationaryIndices(engine, mask, srcN)
}

// Gather builds out[i] = data[indices[i]] for a float64 series.
func Gather(data []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = data[idx]
	}
	return out
}

// GatherInt builds out[i] = data[indices[i]] for an int series, used to
// resample trade/position identifiers under the same index sequence as a
// parallel return series.
func GatherInt(data []int, indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = data[idx]
	}
	return out
}
