package position

import "qcat/internal/stats/decimal"

// MfeMae holds the maximum favorable and adverse excursion of a position
// (measured against the entry price, independent of any stop/target
// bracket), in absolute price terms and, when a profit target or stop loss
// is known, in R-multiples (fractions of the target/stop distance from
// entry).
type MfeMae struct {
	mfeAbs    decimal.Decimal
	maeAbs    decimal.Decimal
	mfeR      decimal.Decimal
	maeR      decimal.Decimal
	hasTarget bool
	hasStop   bool
}

// NewMfeMaeAbs builds an MfeMae with only absolute excursions known.
func NewMfeMaeAbs(mfeAbs, maeAbs decimal.Decimal) MfeMae {
	return MfeMae{mfeAbs: nonNegative(mfeAbs), maeAbs: nonNegative(maeAbs)}
}

// NewMfeMaeWithR builds an MfeMae with both absolute and R-unit excursions,
// where rDenomTarget/rDenomStop are the absolute entry-to-target and
// entry-to-stop distances (non-positive denominators leave the respective
// R field at zero and its has-flag false).
func NewMfeMaeWithR(mfeAbs, maeAbs, rDenomTarget, rDenomStop decimal.Decimal) MfeMae {
	m := NewMfeMaeAbs(mfeAbs, maeAbs)
	if rDenomTarget.IsPositive() {
		m.mfeR = m.mfeAbs.Div(rDenomTarget)
		m.hasTarget = true
	}
	if rDenomStop.IsPositive() {
		m.maeR = m.maeAbs.Div(rDenomStop)
		m.hasStop = true
	}
	return m
}

func (m MfeMae) MfeAbs() decimal.Decimal { return m.mfeAbs }
func (m MfeMae) MaeAbs() decimal.Decimal { return m.maeAbs }

func (m MfeMae) MfeR() (decimal.Decimal, bool) {
	if !m.hasTarget {
		return decimal.Zero, false
	}
	return m.mfeR, true
}

func (m MfeMae) MaeR() (decimal.Decimal, bool) {
	if !m.hasStop {
		return decimal.Zero, false
	}
	return m.maeR, true
}

func (m MfeMae) HasTargetR() bool { return m.hasTarget }
func (m MfeMae) HasStopR() bool   { return m.hasStop }

// ComputeMfeMae walks a position's bar history (including the entry bar)
// tracking the running maximum favorable and adverse price excursion from
// entry, then expresses both in R-multiples of the position's target/stop
// distance when a bracket is set.
func ComputeMfeMae(p TradingPosition) MfeMae {
	dir := p.Direction()
	entry := p.EntryPrice()
	sign := dir.sign()

	mfeAbs := decimal.Zero
	maeAbs := decimal.Zero
	for _, b := range p.Bars() {
		favorableExtreme := b.High
		adverseExtreme := b.Low
		if dir == Short {
			favorableExtreme = b.Low
			adverseExtreme = b.High
		}

		favorableExcursion := nonNegative(favorableExtreme.Sub(entry).Mul(decimal.NewFromFloat64(sign)))
		if favorableExcursion.GreaterThan(mfeAbs) {
			mfeAbs = favorableExcursion
		}

		adverseExcursion := nonNegative(entry.Sub(adverseExtreme).Mul(decimal.NewFromFloat64(sign)))
		if adverseExcursion.GreaterThan(maeAbs) {
			maeAbs = adverseExcursion
		}
	}

	targetAbs, stopAbs, hasTarget, hasStop := resolvedBrackets(p)
	var rDenomTarget, rDenomStop decimal.Decimal
	if hasTarget {
		rDenomTarget = nonNegative(targetAbs.Sub(entry).Mul(decimal.NewFromFloat64(sign)))
	}
	if hasStop {
		rDenomStop = nonNegative(entry.Sub(stopAbs).Mul(decimal.NewFromFloat64(sign)))
	}

	return NewMfeMaeWithR(mfeAbs, maeAbs, rDenomTarget, rDenomStop)
}
