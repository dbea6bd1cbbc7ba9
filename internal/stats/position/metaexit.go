package position

import (
	"math"
	"sort"
)

// BarAgeSnapshot captures one position's state after a fixed number of bars
// held since entry (bar age, zero-indexed: age 0 is the first bar after
// entry), used to build the survival/hazard aggregates in
// MetaExitAnalytics.
type BarAgeSnapshot struct {
	barAge            int
	pnlRTargetAtClose float64
	hasTargetR        bool
	targetTouchedByT  bool
	stopTouchedByT    bool
}

func (s BarAgeSnapshot) BarAge() int                { return s.barAge }
func (s BarAgeSnapshot) PnlRTargetAtClose() float64 { return s.pnlRTargetAtClose }
func (s BarAgeSnapshot) HasTargetR() bool           { return s.hasTargetR }
func (s BarAgeSnapshot) TargetTouchedByT() bool     { return s.targetTouchedByT }
func (s BarAgeSnapshot) StopTouchedByT() bool       { return s.stopTouchedByT }

// BarAgeAggregate summarizes all positions still open going into a given
// bar age: the fraction of the original cohort surviving to that age, the
// hazard of touching target or stop exactly on the next bar, the fraction
// of survivors sitting at a non-positive mark-to-target P&L at that age's
// close, and the median R-multiple MFE accumulated so far among survivors.
type BarAgeAggregate struct {
	barAge            int
	survival          float64
	fracNonPositive   float64
	probTargetNextBar float64
	probStopNextBar   float64
	medianMfeRSoFar   float64
}

func (a BarAgeAggregate) BarAge() int              { return a.barAge }
func (a BarAgeAggregate) Survival() float64        { return a.survival }
func (a BarAgeAggregate) FracNonPositive() float64 { return a.fracNonPositive }
func (a BarAgeAggregate) ProbTargetNextBar() float64 { return a.probTargetNextBar }
func (a BarAgeAggregate) ProbStopNextBar() float64   { return a.probStopNextBar }
func (a BarAgeAggregate) MedianMfeRSoFar() float64   { return a.medianMfeRSoFar }

// perPositionScan is the per-position working state MetaExitAnalytics scans
// bar-by-bar, counting bar age 0 from the first bar after entry (the entry
// bar itself, Bars()[0], is excluded).
type perPositionScan struct {
	barsHeld       int
	firstTargetIdx int // post-entry index, -1 if never touched
	firstStopIdx   int
	hasTargetR     bool
	rTarget        float64
	entry          float64
	directionSign  float64
	mfeAbsUpTo     []float64
	closes         []float64
}

func scanPosition(p TradingPosition) (perPositionScan, bool) {
	bars := p.Bars()
	if len(bars) < 2 {
		return perPositionScan{}, false
	}
	postEntry := bars[1:]

	pathStats, err := BuildPathStats(p)
	if err != nil {
		return perPositionScan{}, false
	}
	toPostEntry := func(fullIdx int) int {
		if fullIdx < 1 {
			return -1
		}
		return fullIdx - 1
	}

	target, hasTarget := p.ProfitTarget()
	entry := p.EntryPrice().ToFloat64()
	sign := p.Direction().sign()

	var rTarget float64
	if hasTarget && target.IsPositive() {
		resolved := resolveBracket(p.EntryPrice(), target, p.Direction(), true).ToFloat64()
		rTarget = (resolved - entry) * sign
		if rTarget < 0 {
			rTarget = 0
		}
	}

	scan := perPositionScan{
		barsHeld:       len(postEntry),
		firstTargetIdx: toPostEntry(pathStats.FirstTargetIdx()),
		firstStopIdx:   toPostEntry(pathStats.FirstStopIdx()),
		hasTargetR:     hasTarget && rTarget > 0,
		rTarget:        rTarget,
		entry:          entry,
		directionSign:  sign,
		mfeAbsUpTo:     make([]float64, len(postEntry)),
		closes:         make([]float64, len(postEntry)),
	}

	mfe := 0.0
	for i, b := range postEntry {
		favorableExtreme := b.High.ToFloat64()
		if p.Direction() == Short {
			favorableExtreme = b.Low.ToFloat64()
		}
		excursion := (favorableExtreme - entry) * sign
		if excursion < 0 {
			excursion = 0
		}
		if excursion > mfe {
			mfe = excursion
		}
		scan.mfeAbsUpTo[i] = mfe
		scan.closes[i] = b.Close.ToFloat64()
	}

	return scan, true
}

// MetaExitAnalytics computes bar-age survival and hazard aggregates over a
// closed-position history, answering questions like "of trades still open
// after N bars, what fraction hit their stop on the next bar?"
type MetaExitAnalytics struct {
	history *ClosedPositionHistory
}

// NewMetaExitAnalytics wraps a closed-position history.
func NewMetaExitAnalytics(history *ClosedPositionHistory) *MetaExitAnalytics {
	return &MetaExitAnalytics{history: history}
}

// BuildBarAgeSnapshots returns, for every position and every bar age from 0
// up to min(barsHeld, maxBars)-1, a BarAgeSnapshot describing that
// position's state at that age.
func (m *MetaExitAnalytics) BuildBarAgeSnapshots(maxBars int) []BarAgeSnapshot {
	var out []BarAgeSnapshot
	for _, p := range m.history.Positions() {
		scan, ok := scanPosition(p)
		if !ok {
			continue
		}
		limit := scan.barsHeld
		if maxBars > 0 && maxBars < limit {
			limit = maxBars
		}
		for t := 0; t < limit; t++ {
			snap := BarAgeSnapshot{
				barAge:           t,
				hasTargetR:       scan.hasTargetR,
				targetTouchedByT: scan.firstTargetIdx >= 0 && scan.firstTargetIdx <= t,
				stopTouchedByT:   scan.firstStopIdx >= 0 && scan.firstStopIdx <= t,
			}
			if scan.hasTargetR {
				pnl := (scan.closes[t] - scan.entry) * scan.directionSign
				snap.pnlRTargetAtClose = pnl / scan.rTarget
			}
			out = append(out, snap)
		}
	}
	return out
}

func medianOrNaN(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	cp := append([]float64(nil), values...)
	sort.Float64s(cp)
	if n%2 == 1 {
		return cp[n/2]
	}
	return (cp[n/2-1] + cp[n/2]) / 2
}

// SummarizeByBarAge aggregates per-position scans into a BarAgeAggregate per
// bar age t (zero-indexed). A position is a survivor going into age t if it
// has at least t+1 post-entry bars and was not already stopped or
// target-hit strictly before age t. The next-bar hazard at age t is the
// fraction of that survivor cohort whose first touch lands exactly at
// age t+1.
func (m *MetaExitAnalytics) SummarizeByBarAge(maxBars int) []BarAgeAggregate {
	scans := make([]perPositionScan, 0, m.history.Len())
	for _, p := range m.history.Positions() {
		if scan, ok := scanPosition(p); ok {
			scans = append(scans, scan)
		}
	}
	total := len(scans)
	if total == 0 {
		return nil
	}

	limit := maxBars
	if limit <= 0 {
		for _, s := range scans {
			if s.barsHeld > limit {
				limit = s.barsHeld
			}
		}
	}

	out := make([]BarAgeAggregate, 0, limit)
	for t := 0; t < limit; t++ {
		var survivors int
		var nonPositive int
		var targetNextCount int
		var stopNextCount int
		var mfeR []float64

		for _, s := range scans {
			exitedBeforeT := (s.firstStopIdx >= 0 && s.firstStopIdx < t) ||
				(s.firstTargetIdx >= 0 && s.firstTargetIdx < t)
			if exitedBeforeT || s.barsHeld <= t {
				continue
			}
			survivors++

			if s.hasTargetR {
				pnl := (s.closes[t] - s.entry) * s.directionSign
				if pnl/s.rTarget <= 0 {
					nonPositive++
				}
				mfeR = append(mfeR, s.mfeAbsUpTo[t]/s.rTarget)
			}

			if s.firstStopIdx == t+1 {
				stopNextCount++
			}
			if s.firstTargetIdx == t+1 {
				targetNextCount++
			}
		}

		if survivors == 0 {
			continue
		}

		agg := BarAgeAggregate{
			barAge:            t,
			survival:          float64(survivors) / float64(total),
			probTargetNextBar: float64(targetNextCount) / float64(survivors),
			probStopNextBar:   float64(stopNextCount) / float64(survivors),
			medianMfeRSoFar:   medianOrNaN(mfeR),
		}
		if len(mfeR) > 0 {
			agg.fracNonPositive = float64(nonPositive) / float64(len(mfeR))
		}
		out = append(out, agg)
	}
	return out
}
