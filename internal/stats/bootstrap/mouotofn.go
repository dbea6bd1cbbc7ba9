// Package bootstrap implements the m-out-of-n percentile bootstrap and its
// auxiliary meta bootstraps (SPEC_FULL.md §4.5): subsample B replicates of a
// return series, evaluate a plug-in statistic per replicate, and report a
// percentile confidence interval together with replicate diagnostics.
package bootstrap

import (
	"math"
	"sort"
	"sync"

	apperrors "qcat/internal/errors"
	"qcat/internal/logger"
	"qcat/internal/stats/rng"
	"qcat/internal/stats/statistic"
)

const minReplicatesB = 400

// MOutOfNPercentileBootstrap performs a conservative percentile bootstrap by
// drawing m=floor(rho*n) observations (with replacement via a Resampler)
// from a length-n sample for each of B replicates, computing a caller's
// statistic on each subsample, and returning a CL-level confidence interval
// using type-7 quantiles of the replicate distribution.
//
// Concurrent calls to Run/RunCRN on the same instance are not supported;
// diagnostics from the most recent run are cached under a mutex.
type MOutOfNPercentileBootstrap struct {
	b            int
	cl           float64
	ratio        float64 // < 0 means adaptive mode
	resampler    Resampler
	ratioPolicy  RatioPolicy
	executor     Executor
	chunkHint    int
	rescaleToN   bool
	intervalType IntervalType

	diagMu    sync.Mutex
	diagStats []float64
	diagMean  float64
	diagVar   float64
	diagSe    float64
	diagSkew  float64
	diagValid bool
}

// Option configures optional MOutOfNPercentileBootstrap behavior beyond the
// constructor's required parameters.
type Option func(*MOutOfNPercentileBootstrap)

// WithExecutor overrides the default SingleThreadExecutor.
func WithExecutor(e Executor) Option {
	return func(m *MOutOfNPercentileBootstrap) { m.executor = e }
}

// WithChunkSizeHint sets the executor's preferred chunk size.
func WithChunkSizeHint(c int) Option {
	return func(m *MOutOfNPercentileBootstrap) { m.chunkHint = c }
}

// WithRescaleToN enables rescaling the interval toward the point estimate by
// sqrt(m_sub/n), producing a CI calibrated for the full sample size rather
// than the subsample.
func WithRescaleToN(v bool) Option {
	return func(m *MOutOfNPercentileBootstrap) { m.rescaleToN = v }
}

// WithIntervalType selects a one-sided or two-sided interval.
func WithIntervalType(t IntervalType) Option {
	return func(m *MOutOfNPercentileBootstrap) { m.intervalType = t }
}

func validateCommon(b int, cl float64) error {
	if b == 0 {
		return apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "bootstrap: B must be > 0", nil)
	}
	if b < minReplicatesB {
		return apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "bootstrap: B should be >= 400 for reliable intervals", nil)
	}
	if !(cl > 0.5 && cl < 1.0) {
		return apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "bootstrap: CL must be in (0.5,1)", nil)
	}
	return nil
}

// CreateFixedRatio builds a bootstrap with a constant subsample ratio.
func CreateFixedRatio(b int, cl, ratio float64, resampler Resampler, opts ...Option) (*MOutOfNPercentileBootstrap, error) {
	if err := validateCommon(b, cl); err != nil {
		return nil, err
	}
	if !(ratio > 0.0 && ratio < 1.0) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "bootstrap: ratio must be in (0,1)", nil)
	}
	m := &MOutOfNPercentileBootstrap{b: b, cl: cl, ratio: ratio, resampler: resampler}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// CreateAdaptiveWithPolicy builds a bootstrap that derives its ratio per run
// from a caller-supplied policy.
func CreateAdaptiveWithPolicy(b int, cl float64, resampler Resampler, policy RatioPolicy, opts ...Option) (*MOutOfNPercentileBootstrap, error) {
	if err := validateCommon(b, cl); err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "bootstrap: adaptive policy cannot be nil", nil)
	}
	m := &MOutOfNPercentileBootstrap{b: b, cl: cl, ratio: -1.0, resampler: resampler, ratioPolicy: policy}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// CreateAdaptive builds a bootstrap using the default
// TailVolatilityAdaptivePolicy.
func CreateAdaptive(b int, cl float64, resampler Resampler, opts ...Option) (*MOutOfNPercentileBootstrap, error) {
	return CreateAdaptiveWithPolicy(b, cl, resampler, NewTailVolatilityAdaptivePolicy(), opts...)
}

// IsAdaptiveMode reports whether the ratio is resolved per-run by a policy.
func (m *MOutOfNPercentileBootstrap) IsAdaptiveMode() bool { return m.ratio < 0.0 }

// B, CL, Ratio expose the instance's configuration.
func (m *MOutOfNPercentileBootstrap) B() int          { return m.b }
func (m *MOutOfNPercentileBootstrap) CL() float64     { return m.cl }
func (m *MOutOfNPercentileBootstrap) Ratio() float64  { return m.ratio }
func (m *MOutOfNPercentileBootstrap) Resampler() Resampler { return m.resampler }

// Run executes the bootstrap using a plain Rng: per-replicate seeds are
// precomputed on the calling goroutine (never touching engine from inside
// the parallel region), then realized into independent engines.
func (m *MOutOfNPercentileBootstrap) Run(x []float64, stat statistic.Statistic, engine *rng.Rng, mSubOverride int, diagLog logger.Logger) (Result, error) {
	seeds := rng.PrecomputeSeeds(engine, m.b)
	makeEngine := func(b int) *rng.Rng { return rng.NewFromSeed(seeds[b]) }
	return m.runCore(x, stat, mSubOverride, makeEngine, diagLog)
}

// RunCRN executes the bootstrap using a Common Random Numbers provider: the
// engine for replicate b is provider.MakeEngine(b), letting several
// bootstrap instances share replicate-indexed randomness deterministically.
func (m *MOutOfNPercentileBootstrap) RunCRN(x []float64, stat statistic.Statistic, provider rng.CRNEngineProvider, mSubOverride int, diagLog logger.Logger) (Result, error) {
	return m.runCore(x, stat, mSubOverride, provider.MakeEngine, diagLog)
}

// RunWithRefinement resolves the subsample ratio through a
// RefiningRatioPolicy's stability-based refinement stage (active for
// n in [15,60]) before running the main bootstrap via a CRN provider.
func (m *MOutOfNPercentileBootstrap) RunWithRefinement(x []float64, stat statistic.Statistic, provider rng.CRNEngineProvider, probeMaker ProbeEngineMaker, periodsPerYear float64, hillK int, diagLog logger.Logger) (Result, error) {
	n := len(x)
	if n < 3 {
		m.invalidate()
		return Result{}, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "bootstrap: n must be >= 3", nil)
	}

	ctx := statistic.BuildStatisticalContext(x, periodsPerYear, hillK)

	refiner, ok := m.ratioPolicy.(RefiningRatioPolicy)
	if !ok {
		refiner = &refinementFallback{NewTailVolatilityAdaptivePolicy()}
	}
	ratio := refiner.ComputeRatioWithRefinement(x, ctx, m.cl, m.b, stat, probeMaker, diagLog)

	mSub := int(math.Floor(ratio * float64(n)))
	if mSub < 2 {
		mSub = 2
	}
	if mSub >= n {
		mSub = n - 1
	}

	return m.RunCRN(x, stat, provider, mSub, diagLog)
}

// refinementFallback adapts the default policy when the configured
// RatioPolicy does not itself implement RefiningRatioPolicy, mirroring the
// reference implementation's fall-back-to-default behavior.
type refinementFallback struct {
	*TailVolatilityAdaptivePolicy
}

func (m *MOutOfNPercentileBootstrap) invalidate() {
	m.diagMu.Lock()
	m.diagValid = false
	m.diagMu.Unlock()
}

func (m *MOutOfNPercentileBootstrap) runCore(x []float64, stat statistic.Statistic, mSubOverride int, makeEngine func(int) *rng.Rng, diagLog logger.Logger) (Result, error) {
	n := len(x)
	if n < 3 {
		m.invalidate()
		return Result{}, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, "bootstrap: n must be >= 3", nil)
	}

	mSub, reportedRatio, err := m.resolveMSub(x, stat, mSubOverride, diagLog)
	if err != nil {
		m.invalidate()
		return Result{}, err
	}

	thetaHat := stat.Compute(x)

	thetas := make([]float64, m.b)
	for i := range thetas {
		thetas[i] = math.NaN()
	}

	exec := m.executor
	if exec == nil {
		exec = SingleThreadExecutor{}
	}

	resampler := m.resampler
	exec.Run(m.b, m.chunkHint, func(i int) {
		engine := makeEngine(i)
		y := resampler.Sample(x, mSub, engine)
		v := stat.Compute(y)
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			thetas[i] = v
		}
	})

	usable := make([]float64, 0, m.b)
	for _, v := range thetas {
		if !math.IsNaN(v) {
			usable = append(usable, v)
		}
	}
	skipped := m.b - len(usable)

	if len(usable) < int(float64(m.b)*(1.0-MaxDegenerateFraction)) {
		m.invalidate()
		return Result{}, apperrors.NewAppError(apperrors.ErrCodeStatsDegenerateReplicates,
			"bootstrap: too many degenerate replicates", nil)
	}

	meanBoot, varBoot := statistic.MeanVariance(usable)
	seBoot := math.Sqrt(varBoot)
	skewBoot := statistic.Skewness(usable)

	sort.Float64s(usable)

	lower, upper, err := m.quantiles(usable)
	if err != nil {
		m.invalidate()
		return Result{}, err
	}

	if m.rescaleToN {
		shrink := math.Sqrt(float64(mSub) / float64(n))
		lower = thetaHat + (lower-thetaHat)*shrink
		upper = thetaHat + (upper-thetaHat)*shrink
	}

	m.diagMu.Lock()
	m.diagStats = append([]float64(nil), usable...)
	m.diagMean = meanBoot
	m.diagVar = varBoot
	m.diagSe = seBoot
	m.diagSkew = skewBoot
	m.diagValid = true
	m.diagMu.Unlock()

	return Result{
		Mean:          thetaHat,
		Lower:         lower,
		Upper:         upper,
		CL:            m.cl,
		B:             m.b,
		EffectiveB:    len(usable),
		Skipped:       skipped,
		N:             n,
		MSub:          mSub,
		L:             resampler.L(),
		ComputedRatio: reportedRatio,
		SkewBoot:      skewBoot,
	}, nil
}

func (m *MOutOfNPercentileBootstrap) resolveMSub(x []float64, stat statistic.Statistic, mSubOverride int, diagLog logger.Logger) (mSub int, reportedRatio float64, err error) {
	n := len(x)

	switch {
	case mSubOverride > 0:
		mSub = mSubOverride
		reportedRatio = float64(mSub) / float64(n)
	case m.IsAdaptiveMode():
		if m.ratioPolicy == nil {
			return 0, 0, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument,
				"bootstrap: adaptive mode enabled but no policy set", nil)
		}
		ctx := statistic.BuildStatisticalContext(x, 252, 0)
		ratio := m.ratioPolicy.ComputeRatio(x, ctx, m.cl, m.b, stat, diagLog)
		mSub = int(math.Floor(ratio * float64(n)))
		reportedRatio = ratio
	default:
		mSub = int(math.Floor(m.ratio * float64(n)))
		reportedRatio = m.ratio
	}

	if mSub < 2 {
		mSub = 2
	}
	if mSub >= n {
		mSub = n - 1
	}
	return mSub, reportedRatio, nil
}

func (m *MOutOfNPercentileBootstrap) quantiles(sortedUsable []float64) (lower, upper float64, err error) {
	alpha := 1.0 - m.cl
	switch m.intervalType {
	case OneSidedLower:
		if lower, err = statistic.Type7Sorted(sortedUsable, 1.0-m.cl); err != nil {
			return 0, 0, err
		}
		upper, err = statistic.Type7Sorted(sortedUsable, 1.0)
	case OneSidedUpper:
		if lower, err = statistic.Type7Sorted(sortedUsable, 0.0); err != nil {
			return 0, 0, err
		}
		upper, err = statistic.Type7Sorted(sortedUsable, m.cl)
	default:
		if lower, err = statistic.Type7Sorted(sortedUsable, alpha/2.0); err != nil {
			return 0, 0, err
		}
		upper, err = statistic.Type7Sorted(sortedUsable, 1.0-alpha/2.0)
	}
	return lower, upper, err
}

// HasDiagnostics reports whether Run/RunCRN has completed at least once.
func (m *MOutOfNPercentileBootstrap) HasDiagnostics() bool {
	m.diagMu.Lock()
	defer m.diagMu.Unlock()
	return m.diagValid
}

// BootstrapStatistics returns a copy of the most recent run's usable
// replicate values.
func (m *MOutOfNPercentileBootstrap) BootstrapStatistics() []float64 {
	m.diagMu.Lock()
	defer m.diagMu.Unlock()
	return append([]float64(nil), m.diagStats...)
}

// BootstrapMean, BootstrapVariance, BootstrapSe, BootstrapSkewness expose the
// most recent run's replicate diagnostics.
func (m *MOutOfNPercentileBootstrap) BootstrapMean() float64 {
	m.diagMu.Lock()
	defer m.diagMu.Unlock()
	return m.diagMean
}

func (m *MOutOfNPercentileBootstrap) BootstrapVariance() float64 {
	m.diagMu.Lock()
	defer m.diagMu.Unlock()
	return m.diagVar
}

func (m *MOutOfNPercentileBootstrap) BootstrapSe() float64 {
	m.diagMu.Lock()
	defer m.diagMu.Unlock()
	return m.diagSe
}

func (m *MOutOfNPercentileBootstrap) BootstrapSkewness() float64 {
	m.diagMu.Lock()
	defer m.diagMu.Unlock()
	return m.diagSkew
}

// DefaultProbeEngineMaker implements ProbeEngineMaker by running a small
// CRN-seeded m-out-of-n bootstrap at each candidate ratio the refinement
// stage proposes, deriving each probe's engines from the same
// (MasterSeed, StageTag, Fold) triple so repeated refinement runs are
// reproducible.
type DefaultProbeEngineMaker struct {
	Resampler  Resampler
	Stat       statistic.Statistic
	MasterSeed uint64
	StageTag   int64
	Fold       int64
	CL         float64
}

// RunProbe implements ProbeEngineMaker.
func (p DefaultProbeEngineMaker) RunProbe(data []float64, ratio float64, bProbe int) CandidateScore {
	probe, err := CreateFixedRatio(bProbe, p.CL, ratio, p.Resampler)
	if err != nil {
		return CandidateScore{Ratio: ratio, Instability: math.Inf(1)}
	}

	provider := rng.FactoryProvider{Factory: rng.EngineFactory{
		MasterSeed: p.MasterSeed,
		StageTag:   p.StageTag,
		Fold:       p.Fold,
	}}

	result, err := probe.RunCRN(data, p.Stat, provider, 0, nil)
	if err != nil {
		return CandidateScore{Ratio: ratio, Instability: math.Inf(1)}
	}

	width := result.Upper - result.Lower
	z := zForConfidence(p.CL)
	var sigma float64
	if z > 0 {
		sigma = width / (2 * z)
	}

	var instability float64
	if result.Lower != 0 {
		instability = math.Abs(sigma / result.Lower)
	} else {
		instability = sigma
	}

	return CandidateScore{Ratio: ratio, LowerBound: result.Lower, Sigma: sigma, Instability: instability}
}
