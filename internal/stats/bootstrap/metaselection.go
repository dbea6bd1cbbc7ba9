package bootstrap

import (
	"math"
	"sort"

	apperrors "qcat/internal/errors"
	"qcat/internal/stats/resample"
	"qcat/internal/stats/rng"
	"qcat/internal/stats/statistic"
)

// MetaBuilder rebuilds a meta-strategy's per-period return series from a set
// of resampled component series (SPEC_FULL.md §4.5.3), e.g. an equal-weight
// or selection-rule combination of constituent strategies.
type MetaBuilder func(resampledComponents [][]float64) []float64

// MetaSelectionResult is the outcome of one MetaSelectionBootstrap run.
type MetaSelectionResult struct {
	LowerBoundPerPeriod float64
	LowerBoundAnnual    float64
	CL                  float64
	B                   int
	EffectiveB          int
}

// MetaSelectionBootstrap is a selection-aware outer bootstrap for a
// meta-strategy built from several component return series (SPEC_FULL.md
// §4.5.3). Each replicate draws ONE shared stationary-bootstrap restart mask
// of length m = min_i n_i and realizes it independently against every
// component series (each with its own uniform start at every restart),
// preserving cross-component co-movement in block timing that an
// independent per-component resample would destroy.
type MetaSelectionBootstrap struct {
	b               int
	cl              float64
	meanBlockLength float64
	periodsPerYear  float64
	winsorizer      statistic.AdaptiveWinsorizer
	ruinEps         float64
}

// NewMetaSelectionBootstrap constructs a MetaSelectionBootstrap. meanBlockLength
// must be >= 1; periodsPerYear must be > 0.
func NewMetaSelectionBootstrap(b int, cl, meanBlockLength, periodsPerYear float64) (*MetaSelectionBootstrap, error) {
	if b < minReplicatesB {
		return nil, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "meta selection bootstrap: B should be >= 400", nil)
	}
	if !(cl > 0.5 && cl < 1.0) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "meta selection bootstrap: CL must be in (0.5,1)", nil)
	}
	if meanBlockLength < 1 {
		return nil, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "meta selection bootstrap: mean block length must be >= 1", nil)
	}
	if !(periodsPerYear > 0) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "meta selection bootstrap: periodsPerYear must be > 0", nil)
	}
	return &MetaSelectionBootstrap{
		b:               b,
		cl:              cl,
		meanBlockLength: meanBlockLength,
		periodsPerYear:  periodsPerYear,
		winsorizer:      statistic.DefaultAdaptiveWinsorizer(),
		ruinEps:         1e-8,
	}, nil
}

// WithWinsorizer overrides the default adaptive winsorizer used by the
// inner per-period geometric-mean statistic.
func (m *MetaSelectionBootstrap) WithWinsorizer(w statistic.AdaptiveWinsorizer) *MetaSelectionBootstrap {
	m.winsorizer = w
	return m
}

// WithRuinFloor overrides the default 1e-8 ruin floor applied to 1+r before
// taking logs.
func (m *MetaSelectionBootstrap) WithRuinFloor(eps float64) *MetaSelectionBootstrap {
	m.ruinEps = eps
	return m
}

// Run executes the bootstrap against a matrix of component return series,
// rebuilding the meta-series from each replicate's resampled components via
// builder, and seeding per-replicate engines from engine via
// rng.PrecomputeSeeds (SPEC_FULL.md §4.2's RNG-path).
func (m *MetaSelectionBootstrap) Run(componentReturns [][]float64, builder MetaBuilder, engine *rng.Rng) (MetaSelectionResult, error) {
	seeds := rng.PrecomputeSeeds(engine, m.b)
	return m.runCore(componentReturns, builder, func(b int) *rng.Rng { return rng.NewFromSeed(seeds[b]) })
}

// RunCRN executes the bootstrap via a Common Random Numbers provider.
func (m *MetaSelectionBootstrap) RunCRN(componentReturns [][]float64, builder MetaBuilder, provider rng.CRNEngineProvider) (MetaSelectionResult, error) {
	return m.runCore(componentReturns, builder, provider.MakeEngine)
}

func (m *MetaSelectionBootstrap) runCore(componentReturns [][]float64, builder MetaBuilder, makeEngine func(int) *rng.Rng) (MetaSelectionResult, error) {
	if len(componentReturns) == 0 {
		return MetaSelectionResult{}, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "meta selection bootstrap: no components", nil)
	}

	mLen := math.MaxInt
	for _, s := range componentReturns {
		if len(s) < 2 {
			return MetaSelectionResult{}, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "meta selection bootstrap: component too short", nil)
		}
		if len(s) < mLen {
			mLen = len(s)
		}
	}
	if mLen < 2 {
		return MetaSelectionResult{}, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "meta selection bootstrap: insufficient common length", nil)
	}

	k := len(componentReturns)
	geoStat := statistic.GeoMeanStat(m.ruinEps, m.winsorizer)

	stats := make([]float64, 0, m.b)
	resampledBuf := make([][]float64, k)
	for i := range resampledBuf {
		resampledBuf[i] = make([]float64, mLen)
	}

	for b := 0; b < m.b; b++ {
		engine := makeEngine(b)

		mask := resample.BuildRestartMask(engine, mLen, resample.MeanBlockLengthToRestartProb(m.meanBlockLength))

		degenerate := false
		for i, src := range componentReturns {
			nI := len(src)
			if nI == 0 {
				degenerate = true
				break
			}
			idx := resample.StationaryIndices(engine, mask, nI)
			for t, srcIdx := range idx {
				resampledBuf[i][t] = src[srcIdx]
			}
		}
		if degenerate {
			continue
		}

		meta := builder(resampledBuf)
		if len(meta) < 2 {
			continue
		}

		stats = append(stats, geoStat.Compute(meta))
	}

	if len(stats) < m.b/2 {
		return MetaSelectionResult{}, apperrors.NewAppError(apperrors.ErrCodeStatsDegenerateReplicates,
			"meta selection bootstrap: too many degenerate replicates", nil)
	}

	sort.Float64s(stats)
	alpha := 1.0 - m.cl
	lbPer, err := statistic.Type7Sorted(stats, alpha)
	if err != nil {
		return MetaSelectionResult{}, err
	}

	annual := math.Exp(m.periodsPerYear*math.Log1p(lbPer)) - 1.0

	return MetaSelectionResult{
		LowerBoundPerPeriod: lbPer,
		LowerBoundAnnual:    annual,
		CL:                  m.cl,
		B:                   m.b,
		EffectiveB:          len(stats),
	}, nil
}
