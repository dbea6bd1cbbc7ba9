// Package decimal provides a fixed-precision signed decimal used throughout
// the statistics and bootstrap engines. It wraps shopspring/decimal and pins
// every arithmetic result to a single package-wide scale so that results are
// reproducible across platforms regardless of how intermediate values were
// derived.
package decimal

import (
	"fmt"
	"math"

	shopspring "github.com/shopspring/decimal"
)

// Scale is the fixed number of digits after the decimal point every Decimal
// value is rounded to. Go has no const-generic scale parameter, so this is
// pinned package-wide rather than made a type parameter; see SPEC_FULL.md's
// Open Question decisions.
const Scale = 8

// Decimal is a fixed-precision signed rational at Scale digits.
type Decimal struct {
	v shopspring.Decimal
}

// Zero, One and Hundred are commonly used constants.
var (
	Zero    = Decimal{v: shopspring.Zero}
	One     = Decimal{v: shopspring.New(1, 0)}
	Hundred = Decimal{v: shopspring.New(100, 0)}
)

// OverflowKind is returned when a transcendental round-trip cannot be
// represented at Scale.
type OverflowKind struct {
	Op    string
	Value float64
}

func (e *OverflowKind) Error() string {
	return fmt.Sprintf("decimal: %s result %g cannot be represented at scale %d", e.Op, e.Value, Scale)
}

func round(d shopspring.Decimal) Decimal {
	return Decimal{v: d.Round(Scale)}
}

// NewFromFloat64 builds a Decimal from a float64, rounding to Scale.
func NewFromFloat64(f float64) Decimal {
	return round(shopspring.NewFromFloat(f))
}

// NewFromInt builds a Decimal from an integer value.
func NewFromInt(i int64) Decimal {
	return Decimal{v: shopspring.New(i, 0)}
}

// MustParse parses a decimal literal, panicking on malformed input. Intended
// for use with compile-time literals in tests and table data.
func MustParse(s string) Decimal {
	d, err := shopspring.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return round(d)
}

// ToFloat64 demotes the Decimal to a float64. Used pervasively by statistics
// that aggregate in floating point per SPEC_FULL.md C1.
func (d Decimal) ToFloat64() float64 {
	f, _ := d.v.Float64()
	return f
}

func (d Decimal) Add(o Decimal) Decimal { return round(d.v.Add(o.v)) }
func (d Decimal) Sub(o Decimal) Decimal { return round(d.v.Sub(o.v)) }
func (d Decimal) Mul(o Decimal) Decimal { return round(d.v.Mul(o.v)) }

// Div divides d by o, rounding to Scale. Division by zero panics, matching
// the reference implementation's treatment of division as a programmer
// error guarded by callers (profit-factor callers always check for a zero
// denominator before dividing).
func (d Decimal) Div(o Decimal) Decimal {
	if o.v.IsZero() {
		panic("decimal: division by zero")
	}
	return round(d.v.DivRound(o.v, Scale))
}

func (d Decimal) Neg() Decimal { return Decimal{v: d.v.Neg()} }
func (d Decimal) Abs() Decimal { return Decimal{v: d.v.Abs()} }

func (d Decimal) Cmp(o Decimal) int    { return d.v.Cmp(o.v) }
func (d Decimal) Equal(o Decimal) bool { return d.v.Equal(o.v) }
func (d Decimal) LessThan(o Decimal) bool    { return d.v.LessThan(o.v) }
func (d Decimal) LessEqual(o Decimal) bool   { return d.v.LessThanOrEqual(o.v) }
func (d Decimal) GreaterThan(o Decimal) bool { return d.v.GreaterThan(o.v) }
func (d Decimal) GreaterEqual(o Decimal) bool {
	return d.v.GreaterThanOrEqual(o.v)
}
func (d Decimal) IsZero() bool     { return d.v.IsZero() }
func (d Decimal) IsNegative() bool { return d.v.IsNegative() }
func (d Decimal) IsPositive() bool { return d.v.IsPositive() }

func (d Decimal) String() string { return d.v.StringFixed(Scale) }

// Max and Min are non-negative-clamp style helpers used throughout C6.
func Max(a, b Decimal) Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func Min(a, b Decimal) Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// NonNegative clamps a Decimal at zero, mirroring MfeMae/PathStats's
// nonNegative helper.
func NonNegative(d Decimal) Decimal {
	if d.IsNegative() {
		return Zero
	}
	return d
}

// Log promotes d to float64, applies math.Log and demotes the result back to
// Scale, failing with OverflowKind when d is not positive or the result is
// NaN or ±Inf.
func Log(d Decimal) (Decimal, error) {
	f := d.ToFloat64()
	if f <= 0 {
		return Zero, &OverflowKind{Op: "log", Value: f}
	}
	r := math.Log(f)
	return demote("log", r)
}

// Exp promotes d to float64, applies math.Exp and demotes back.
func Exp(d Decimal) (Decimal, error) {
	r := math.Exp(d.ToFloat64())
	return demote("exp", r)
}

// Sqrt promotes d to float64, applies math.Sqrt and demotes back.
func Sqrt(d Decimal) (Decimal, error) {
	f := d.ToFloat64()
	if f < 0 {
		return Zero, &OverflowKind{Op: "sqrt", Value: f}
	}
	r := math.Sqrt(f)
	return demote("sqrt", r)
}

func demote(op string, r float64) (Decimal, error) {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return Zero, &OverflowKind{Op: op, Value: r}
	}
	return NewFromFloat64(r), nil
}
