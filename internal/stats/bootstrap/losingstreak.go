package bootstrap

import (
	"sort"

	"qcat/internal/stats/position"
	"qcat/internal/stats/rng"
)

// TradeSampler draws a length-m trade-ordered resample of in for one
// losing-streak bootstrap replicate (SPEC_FULL.md §4.5.4).
type TradeSampler interface {
	Sample(in []float64, m int, engine *rng.Rng) []float64
}

// StationaryTradeBlockSampler resamples trades via the stationary bootstrap
// at the trade level: block starts are drawn uniformly, each block continues
// circularly with a geometric stopping rule of mean length BlockLen.
type StationaryTradeBlockSampler struct {
	// BlockLen is the expected block length in trades. <= 0 defaults to 4.
	BlockLen int
}

// Sample implements TradeSampler.
func (s StationaryTradeBlockSampler) Sample(in []float64, m int, engine *rng.Rng) []float64 {
	n := len(in)
	out := make([]float64, 0, m)
	if n == 0 || m == 0 {
		return out
	}

	blockLen := s.BlockLen
	if blockLen <= 0 {
		blockLen = 4
	}
	pStop := 1.0 / float64(blockLen)

	for len(out) < m {
		start := rng.GetRandomIndex(engine, n)
		out = append(out, in[start])
		j := (start + 1) % n

		for len(out) < m {
			if rng.GetRandomUniform01(engine) < pStop {
				break
			}
			out = append(out, in[j])
			j = (j + 1) % n
		}
	}
	return out
}

// LosingStreakOptions configures MetaLosingStreakBootstrapBound.
type LosingStreakOptions struct {
	// B is the number of bootstrap replicates. Default 5000 if zero.
	B int
	// Alpha selects the (1-Alpha) upper bound. Default 0.05 if zero.
	Alpha float64
	// SampleFraction enables m-out-of-n sampling: m = floor(SampleFraction*n).
	// Values outside (0,1] are treated as 1.0 (full resample).
	SampleFraction float64
	// TreatZeroAsLoss counts an exactly-zero trade return as a loss.
	TreatZeroAsLoss bool
}

func (o LosingStreakOptions) normalized() LosingStreakOptions {
	out := o
	if out.B <= 0 {
		out.B = 5000
	}
	if out.Alpha <= 0 {
		out.Alpha = 0.05
	}
	if out.SampleFraction <= 0 || out.SampleFraction > 1.0 {
		out.SampleFraction = 1.0
	}
	return out
}

// MetaLosingStreakBootstrapBound estimates a (1-alpha) upper confidence
// bound on the longest consecutive run of losing trades by resampling the
// trade-ordered return series at the trade level (SPEC_FULL.md §4.5.4),
// preserving any serial dependence in win/loss streaks through a stationary
// trade-block sampler.
type MetaLosingStreakBootstrapBound struct {
	opts     LosingStreakOptions
	sampler  TradeSampler
	executor Executor
}

// NewMetaLosingStreakBootstrapBound constructs the bound estimator. A nil
// sampler defaults to StationaryTradeBlockSampler{BlockLen: 4}; a nil
// executor defaults to SingleThreadExecutor.
func NewMetaLosingStreakBootstrapBound(opts LosingStreakOptions, sampler TradeSampler, executor Executor) *MetaLosingStreakBootstrapBound {
	if sampler == nil {
		sampler = StationaryTradeBlockSampler{BlockLen: 4}
	}
	if executor == nil {
		executor = SingleThreadExecutor{}
	}
	return &MetaLosingStreakBootstrapBound{opts: opts.normalized(), sampler: sampler, executor: executor}
}

// ObservedStreak returns the longest consecutive losing-trade run actually
// realized in history.
func (m *MetaLosingStreakBootstrapBound) ObservedStreak(history *position.ClosedPositionHistory) int {
	return longestLosingStreak(history.PercentReturns(), m.opts.TreatZeroAsLoss)
}

// ComputeUpperBound returns the (1-alpha) bootstrap upper bound on the
// longest losing streak, seeding per-replicate engines from engine via
// rng.PrecomputeSeeds so the parallel replicate loop never shares RNG state.
func (m *MetaLosingStreakBootstrapBound) ComputeUpperBound(history *position.ClosedPositionHistory, engine *rng.Rng) (int, error) {
	pnl := history.PercentReturns()
	n := len(pnl)
	if n == 0 {
		return 0, nil
	}

	mSub := clampTradeM(n, m.opts.SampleFraction)

	seeds := rng.PrecomputeSeeds(engine, m.opts.B)
	stats := make([]int, m.opts.B)

	m.executor.Run(m.opts.B, 0, func(b int) {
		localEngine := rng.NewFromSeed(seeds[b])
		boot := m.sampler.Sample(pnl, mSub, localEngine)
		stats[b] = longestLosingStreak(boot, m.opts.TreatZeroAsLoss)
	})

	sort.Ints(stats)
	k := int(float64(m.opts.B-1) * (1.0 - m.opts.Alpha))
	if k < 0 {
		k = 0
	}
	if k >= len(stats) {
		k = len(stats) - 1
	}
	return stats[k], nil
}

func longestLosingStreak(pnl []float64, treatZeroAsLoss bool) int {
	cur, best := 0, 0
	for _, x := range pnl {
		isLoss := x < 0 || (treatZeroAsLoss && x == 0)
		if isLoss {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 0
		}
	}
	return best
}

func clampTradeM(n int, frac float64) int {
	if n == 0 {
		return 0
	}
	if frac <= 0 || frac > 1.0 {
		frac = 1.0
	}
	m := int(frac * float64(n))
	if m == 0 {
		if n < 1 {
			return n
		}
		return 1
	}
	return m
}
