package bootstrap

// IntervalType selects which side(s) of the bootstrap distribution a
// confidence interval is built from (SPEC_FULL.md §4.5.1 step 7).
type IntervalType int

const (
	// TwoSided builds a symmetric two-tailed interval.
	TwoSided IntervalType = iota
	// OneSidedLower reports only a lower confidence bound; the upper bound
	// is the maximum observed replicate.
	OneSidedLower
	// OneSidedUpper reports only an upper confidence bound; the lower
	// bound is the minimum observed replicate.
	OneSidedUpper
)

// MaxDegenerateFraction is the maximum tolerated fraction of replicates that
// may evaluate to a non-finite statistic before a run fails with
// DegenerateReplicates (SPEC_FULL.md §6.5).
const MaxDegenerateFraction = 0.5

// Result is the immutable outcome of one m-out-of-n bootstrap run
// (SPEC_FULL.md §3, BootstrapResult).
type Result struct {
	Mean          float64
	Lower         float64
	Upper         float64
	CL            float64
	B             int
	EffectiveB    int
	Skipped       int
	N             int
	MSub          int
	L             int
	ComputedRatio float64
	SkewBoot      float64
}
