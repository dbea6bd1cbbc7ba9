package statistic

import "math"

const (
	// DefaultRuinEps floors 1+r before taking a log so a single
	// catastrophic loss cannot produce -Inf.
	DefaultRuinEps = 1e-8
	// DefaultDenomFloor prevents the robust PF's denominator from
	// collapsing to (near) zero on loss-free samples.
	DefaultDenomFloor = 1e-6
	// DefaultPriorStrength scales the regularizing loss-magnitude prior.
	DefaultPriorStrength = 0.5
	// DefaultCompress is the default post-compression setting for the
	// plain profit-factor statistics.
	DefaultCompress = true
	// ProfitFactorSentinel is returned by ComputeProfitFactor when the
	// sample has no losses, in place of +Inf.
	ProfitFactorSentinel = 100.0
)

func logGrowthOf(r, ruinEps float64) float64 {
	growth := 1 + r
	if growth <= 0 {
		growth = ruinEps
	}
	return math.Log(growth)
}

// MakeLogGrowthSeries builds l_i = log(max(1+r_i, ruinEps)) for each return,
// the canonical log-growth series reused across many bootstrap replicates.
func MakeLogGrowthSeries(returns []float64, ruinEps float64) []float64 {
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = logGrowthOf(r, ruinEps)
	}
	return out
}

func compressIf(value float64, compress bool) float64 {
	if compress {
		return math.Log(1 + value)
	}
	return value
}

// ComputeProfitFactor sums positive returns over the absolute sum of
// negative returns. Returns ProfitFactorSentinel in place of +Inf when there
// are no losses.
func ComputeProfitFactor(r []float64, compress bool) float64 {
	var gains, losses float64
	for _, x := range r {
		if x > 0 {
			gains += x
		} else {
			losses += x
		}
	}
	return computeFactor(gains, losses, compress)
}

func computeFactor(gains, losses float64, compress bool) float64 {
	var pf float64
	if losses == 0 {
		pf = ProfitFactorSentinel
	} else {
		pf = gains / math.Abs(losses)
	}
	return compressIf(pf, compress)
}

// ComputeLogProfitFactor sums log(1+r) over wins and losses separately,
// skipping any sample where 1+r<=0 rather than clipping it — the only
// statistic in this family that skips instead of clips.
func ComputeLogProfitFactor(r []float64, compress bool) float64 {
	var sumLogWins, sumLogLosses float64
	for _, x := range r {
		growth := 1 + x
		if growth <= 0 {
			continue
		}
		lr := math.Log(growth)
		if x > 0 {
			sumLogWins += lr
		} else if x < 0 {
			sumLogLosses += lr
		}
	}
	return computeFactor(sumLogWins, sumLogLosses, compress)
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	cp := sortedCopy(values)
	n := len(cp)
	mid := n / 2
	// The reference implementation takes the simple upper-median
	// (cp[n/2]) rather than averaging the middle pair for even n.
	return cp[mid]
}

func computeRobustPFFromSums(sumLogWins, sumLogLosses float64, lossMagnitudes []float64, compress bool, ruinEps, denomFloor, priorStrength, defaultLossMagnitude float64) float64 {
	var priorLossMag float64
	if len(lossMagnitudes) > 0 {
		priorLossMag = medianOf(lossMagnitudes) * priorStrength
	} else {
		var assumedMag float64
		if defaultLossMagnitude > 0 {
			assumedMag = defaultLossMagnitude
		} else {
			assumedMag = math.Max(-math.Log(ruinEps), denomFloor)
		}
		priorLossMag = assumedMag * priorStrength
	}

	denom := math.Abs(sumLogLosses) + priorLossMag
	if denom < denomFloor {
		denom = denomFloor
	}

	var pf float64
	if denom > 0 {
		pf = sumLogWins / denom
	}
	return compressIf(pf, compress)
}

// ComputeLogProfitFactorRobust builds log-growth per element, accumulates
// win/loss sums, and regularizes the denominator with a median-based loss
// prior scaled by priorStrength (SPEC_FULL.md §4.3.3). priorStrength=1.0 is
// deliberately not a no-op.
func ComputeLogProfitFactorRobust(r []float64, compress bool, ruinEps, denomFloor, priorStrength, defaultLossMagnitude float64) float64 {
	sumLogWins, sumLogLosses, lossMagnitudes := robustSumsFromReturns(r, ruinEps)
	return computeRobustPFFromSums(sumLogWins, sumLogLosses, lossMagnitudes, compress, ruinEps, denomFloor, priorStrength, defaultLossMagnitude)
}

// ComputeLogProfitFactorRobustFromLogBars is the log-space companion of
// ComputeLogProfitFactorRobust, taking pre-logged growth values and skipping
// the per-replicate log pass.
func ComputeLogProfitFactorRobustFromLogBars(logBars []float64, originalSigns []float64, compress bool, denomFloor, priorStrength, defaultLossMagnitude float64) float64 {
	sumLogWins, sumLogLosses, lossMagnitudes := robustSumsFromLogBars(logBars, originalSigns)
	return computeRobustPFFromSums(sumLogWins, sumLogLosses, lossMagnitudes, compress, DefaultRuinEps, denomFloor, priorStrength, defaultLossMagnitude)
}

func robustSumsFromReturns(r []float64, ruinEps float64) (sumLogWins, sumLogLosses float64, lossMagnitudes []float64) {
	lossMagnitudes = make([]float64, 0, len(r)/2)
	for _, x := range r {
		lr := logGrowthOf(x, ruinEps)
		if x > 0 {
			sumLogWins += lr
		} else if x < 0 {
			sumLogLosses += lr
			lossMagnitudes = append(lossMagnitudes, -lr)
		}
	}
	return
}

func robustSumsFromLogBars(logBars, originalSigns []float64) (sumLogWins, sumLogLosses float64, lossMagnitudes []float64) {
	lossMagnitudes = make([]float64, 0, len(logBars)/2)
	for i, lr := range logBars {
		sign := originalSigns[i]
		if sign > 0 {
			sumLogWins += lr
		} else if sign < 0 {
			sumLogLosses += lr
			lossMagnitudes = append(lossMagnitudes, -lr)
		}
	}
	return
}

const (
	// AdaptivePriorStrengthCap bounds the adaptive prior strength used by
	// ComputeLogProfitFactorRobustLogPF when priorStrength is supplied
	// negative.
	AdaptivePriorStrengthCap = 1.0
	// AdaptivePriorStrengthK scales the adaptive prior strength inversely
	// with the observed loss count.
	AdaptivePriorStrengthK = 4.0
)

func logPFFromSums(sumLogWins, sumLossMag, ruinEps, denomFloor, priorStrength, stopLossReturnSpace, profitTargetReturnSpace, tinyWinFraction, tinyWinMinReturn float64, numLosses int) float64 {
	effectiveStrength := priorStrength
	if priorStrength < 0 {
		if numLosses > 0 {
			effectiveStrength = math.Min(AdaptivePriorStrengthCap, AdaptivePriorStrengthK/float64(numLosses))
		} else {
			effectiveStrength = AdaptivePriorStrengthCap
		}
	}

	var priorLossMag float64
	if stopLossReturnSpace > 0 {
		growthSL := 1 - math.Abs(stopLossReturnSpace)
		if growthSL <= 0 {
			growthSL = ruinEps
		}
		lrSL := math.Log(growthSL)
		stopLossLogMag := -lrSL
		priorLossMag = stopLossLogMag * effectiveStrength
	} else {
		priorLossMag = math.Max(-math.Log(ruinEps), denomFloor) * effectiveStrength
	}

	denom := sumLossMag + priorLossMag
	if denom < denomFloor {
		denom = denomFloor
	}

	var scale float64
	switch {
	case stopLossReturnSpace > 0 && profitTargetReturnSpace > 0:
		scale = math.Min(math.Abs(stopLossReturnSpace), math.Abs(profitTargetReturnSpace))
	case stopLossReturnSpace > 0:
		scale = math.Abs(stopLossReturnSpace)
	case profitTargetReturnSpace > 0:
		scale = math.Abs(profitTargetReturnSpace)
	}

	tinyWinReturn := math.Max(tinyWinMinReturn, tinyWinFraction*scale)
	numerFloor := math.Log(1 + tinyWinReturn)
	numer := math.Max(sumLogWins, numerFloor)

	return math.Log(numer) - math.Log(denom)
}

// LogPFOptions carries the tunable knobs for ComputeLogProfitFactorRobustLogPF.
type LogPFOptions struct {
	RuinEps                 float64
	DenomFloor              float64
	PriorStrength           float64
	StopLossReturnSpace     float64
	ProfitTargetReturnSpace float64
	TinyWinFraction         float64
	TinyWinMinReturn        float64
}

// DefaultLogPFOptions returns the reference defaults for LogPFOptions.
func DefaultLogPFOptions() LogPFOptions {
	return LogPFOptions{
		RuinEps:          DefaultRuinEps,
		DenomFloor:       DefaultDenomFloor,
		PriorStrength:    DefaultPriorStrength,
		TinyWinFraction:  0.05,
		TinyWinMinReturn: 1e-4,
	}
}

// ComputeLogProfitFactorRobustLogPF returns log(PF) = log(numer) - log(denom)
// with an in-sample stop-loss-derived prior, chosen for bootstrap inference
// because it is additive and more symmetric under resampling than plain PF
// (SPEC_FULL.md §4.3.3). A negative PriorStrength requests an adaptive
// strength derived from the observed loss count.
func ComputeLogProfitFactorRobustLogPF(r []float64, opts LogPFOptions) float64 {
	var sumLogWins, sumLossMag float64
	numLosses := 0
	for _, x := range r {
		lr := logGrowthOf(x, opts.RuinEps)
		if x > 0 {
			sumLogWins += lr
		} else if x < 0 {
			sumLossMag += -lr
			numLosses++
		}
	}
	return logPFFromSums(sumLogWins, sumLossMag, opts.RuinEps, opts.DenomFloor, opts.PriorStrength,
		opts.StopLossReturnSpace, opts.ProfitTargetReturnSpace, opts.TinyWinFraction, opts.TinyWinMinReturn, numLosses)
}

// ComputeLogProfitFactorRobustLogPFFromLogBars is the log-space companion of
// ComputeLogProfitFactorRobustLogPF.
func ComputeLogProfitFactorRobustLogPFFromLogBars(logBars, originalSigns []float64, opts LogPFOptions) float64 {
	var sumLogWins, sumLossMag float64
	numLosses := 0
	for i, lr := range logBars {
		sign := originalSigns[i]
		if sign > 0 {
			sumLogWins += lr
		} else if sign < 0 {
			sumLossMag += -lr
			numLosses++
		}
	}
	return logPFFromSums(sumLogWins, sumLossMag, opts.RuinEps, opts.DenomFloor, opts.PriorStrength,
		opts.StopLossReturnSpace, opts.ProfitTargetReturnSpace, opts.TinyWinFraction, opts.TinyWinMinReturn, numLosses)
}
