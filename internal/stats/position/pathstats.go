package position

import "qcat/internal/stats/decimal"

// percentVsAbsoluteThreshold: a profit target or stop loss supplied below
// entry*0.8 is assumed to be a fractional percent (e.g. 0.05 for 5%) rather
// than an absolute price level, and is converted to an absolute level before
// use. Mirrors the reference PathStats::buildFromPosition heuristic.
const percentVsAbsoluteThreshold = 0.8

func nonNegative(d decimal.Decimal) decimal.Decimal {
	return decimal.NonNegative(d)
}

func resolveBracket(entry, raw decimal.Decimal, dir Direction, favorable bool) decimal.Decimal {
	entryF := entry.ToFloat64()
	rawF := raw.ToFloat64()
	if entryF > 0 && rawF < entryF*percentVsAbsoluteThreshold {
		sign := 1.0
		if (dir == Long) != favorable {
			sign = -1.0
		}
		return entry.Mul(decimal.One.Add(decimal.NewFromFloat64(sign * rawF)))
	}
	return raw
}

// resolvedBrackets computes the absolute target/stop price levels for a
// position, applying the percent-vs-absolute heuristic.
func resolvedBrackets(p TradingPosition) (targetAbs, stopAbs decimal.Decimal, hasTarget, hasStop bool) {
	target, okT := p.ProfitTarget()
	stop, okS := p.StopLoss()
	dir := p.Direction()
	entry := p.EntryPrice()
	if okT && target.IsPositive() {
		targetAbs = resolveBracket(entry, target, dir, true)
		hasTarget = true
	}
	if okS && stop.IsPositive() {
		stopAbs = resolveBracket(entry, stop, dir, false)
		hasStop = true
	}
	return
}

// PathStats is the immutable per-position path summary built by
// BuildPathStats: running MFE, first-touch bar indices for stop and target
// with same-bar stop-first precedence, a gap-at-open flag for each, and
// drawdown measured from the MFE peak back to the terminal price.
type PathStats struct {
	direction Direction
	entry     decimal.Decimal
	target    decimal.Decimal
	stop      decimal.Decimal
	hasTarget bool
	hasStop   bool

	mfeAbs decimal.Decimal

	firstTargetIdx     int // -1 if never touched; indexes Bars() including the entry bar
	firstStopIdx       int
	targetTouchedAtOpen bool
	stopTouchedAtOpen   bool

	terminalPrice decimal.Decimal
	ddAbs         decimal.Decimal
	ddFrac        decimal.Decimal
}

// ErrMissingBracket is returned by BuildPathStats when a position has
// neither a positive profit target nor a positive stop loss recorded;
// path stats require at least one directional bracket to be meaningful.
type ErrMissingBracket struct{}

func (e *ErrMissingBracket) Error() string {
	return "position: profit target and stop loss are both unset or non-positive"
}

// BuildPathStats computes PathStats for a single position, walking its bar
// history (including the entry bar at index 0) to find the running MFE,
// the first bar at which the stop and target were each touched, whether
// that touch already held at the bar's open (a gap through the level), and
// the drawdown from the MFE peak to the terminal price (exit price if
// closed, else the last recorded close). When both a stop and target are
// touched on the same bar, the stop is recorded as touching first.
func BuildPathStats(p TradingPosition) (PathStats, error) {
	targetAbs, stopAbs, hasTarget, hasStop := resolvedBrackets(p)
	if !hasTarget && !hasStop {
		return PathStats{}, &ErrMissingBracket{}
	}

	dir := p.Direction()
	entry := p.EntryPrice()
	bars := p.Bars()
	sign := dir.sign()

	mfeAbs := decimal.Zero
	firstTargetIdx := -1
	firstStopIdx := -1
	var targetTouchedAtOpen, stopTouchedAtOpen bool

	for i, b := range bars {
		favorableExtreme := b.High
		adverseExtreme := b.Low
		if dir == Short {
			favorableExtreme = b.Low
			adverseExtreme = b.High
		}

		excursion := nonNegative(favorableExtreme.Sub(entry).Mul(decimal.NewFromFloat64(sign)))
		if excursion.GreaterThan(mfeAbs) {
			mfeAbs = excursion
		}

		stopTouched := false
		stopAtOpen := false
		if hasStop {
			if dir == Long {
				stopTouched = adverseExtreme.LessEqual(stopAbs)
				stopAtOpen = b.Open.LessEqual(stopAbs)
			} else {
				stopTouched = adverseExtreme.GreaterEqual(stopAbs)
				stopAtOpen = b.Open.GreaterEqual(stopAbs)
			}
		}
		targetTouched := false
		targetAtOpen := false
		if hasTarget {
			if dir == Long {
				targetTouched = favorableExtreme.GreaterEqual(targetAbs)
				targetAtOpen = b.Open.GreaterEqual(targetAbs)
			} else {
				targetTouched = favorableExtreme.LessEqual(targetAbs)
				targetAtOpen = b.Open.LessEqual(targetAbs)
			}
		}

		// Same-bar precedence: a bar that touches both records the stop
		// first, since a stop loss is a risk-control trigger and is
		// assumed to execute before a profit target within the same bar.
		if stopTouched && firstStopIdx == -1 {
			firstStopIdx = i
			stopTouchedAtOpen = stopAtOpen
		}
		if targetTouched && firstTargetIdx == -1 && !(stopTouched && firstStopIdx == i) {
			firstTargetIdx = i
			targetTouchedAtOpen = targetAtOpen
		}
	}

	var terminal decimal.Decimal
	if exitPrice, ok := p.ExitPrice(); ok {
		terminal = exitPrice
	} else if len(bars) > 0 {
		terminal = bars[len(bars)-1].Close
	} else {
		terminal = entry
	}

	favorablePeakPrice := entry.Add(mfeAbs.Mul(decimal.NewFromFloat64(sign)))
	ddAbs := nonNegative(favorablePeakPrice.Sub(terminal).Mul(decimal.NewFromFloat64(sign)))
	var ddFrac decimal.Decimal
	if mfeAbs.IsPositive() {
		ddFrac = ddAbs.Div(mfeAbs)
	}

	return PathStats{
		direction:           dir,
		entry:               entry,
		target:              targetAbs,
		stop:                stopAbs,
		hasTarget:           hasTarget,
		hasStop:             hasStop,
		mfeAbs:              mfeAbs,
		firstTargetIdx:      firstTargetIdx,
		firstStopIdx:        firstStopIdx,
		targetTouchedAtOpen: targetTouchedAtOpen,
		stopTouchedAtOpen:   stopTouchedAtOpen,
		terminalPrice:       terminal,
		ddAbs:               ddAbs,
		ddFrac:              ddFrac,
	}, nil
}

func (s PathStats) MfeAbs() decimal.Decimal        { return s.mfeAbs }
func (s PathStats) FirstTargetIdx() int            { return s.firstTargetIdx }
func (s PathStats) FirstStopIdx() int              { return s.firstStopIdx }
func (s PathStats) TargetTouchedAtOpen() bool      { return s.targetTouchedAtOpen }
func (s PathStats) StopTouchedAtOpen() bool        { return s.stopTouchedAtOpen }
func (s PathStats) TerminalPrice() decimal.Decimal { return s.terminalPrice }
func (s PathStats) DrawdownAbs() decimal.Decimal   { return s.ddAbs }
func (s PathStats) DrawdownFrac() decimal.Decimal  { return s.ddFrac }
func (s PathStats) HasTarget() bool                { return s.hasTarget }
func (s PathStats) HasStop() bool                  { return s.hasStop }
