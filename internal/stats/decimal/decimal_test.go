package decimal

import "testing"

func TestArithmetic(t *testing.T) {
	a := MustParse("1.5")
	b := MustParse("0.25")

	if got := a.Add(b).String(); got != "1.75000000" {
		t.Fatalf("Add: got %s", got)
	}
	if got := a.Sub(b).String(); got != "1.25000000" {
		t.Fatalf("Sub: got %s", got)
	}
	if got := a.Mul(b).String(); got != "0.37500000" {
		t.Fatalf("Mul: got %s", got)
	}
	if got := a.Div(b).String(); got != "6.00000000" {
		t.Fatalf("Div: got %s", got)
	}
}

func TestDivByZeroPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic dividing by zero")
		}
	}()
	One.Div(Zero)
}

func TestNonNegative(t *testing.T) {
	if got := NonNegative(MustParse("-3.5")); !got.IsZero() {
		t.Fatalf("expected clamp to zero, got %s", got)
	}
	if got := NonNegative(MustParse("3.5")); got.ToFloat64() != 3.5 {
		t.Fatalf("expected passthrough, got %s", got)
	}
}

func TestLogExpRoundTrip(t *testing.T) {
	d := MustParse("1.2")
	l, err := Log(d)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	back, err := Exp(l)
	if err != nil {
		t.Fatalf("Exp: %v", err)
	}
	if diff := back.ToFloat64() - 1.2; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("round trip drifted: got %v", back.ToFloat64())
	}
}

func TestLogOfNonPositiveOverflows(t *testing.T) {
	if _, err := Log(Zero); err == nil {
		t.Fatalf("expected OverflowKind for log(0)")
	}
	var ok *OverflowKind
	_, err := Log(MustParse("-1"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !isOverflowKind(err, &ok) {
		t.Fatalf("expected *OverflowKind, got %T", err)
	}
}

func isOverflowKind(err error, target **OverflowKind) bool {
	ok, isOverflow := err.(*OverflowKind)
	if isOverflow {
		*target = ok
	}
	return isOverflow
}

func TestSqrtNegativeOverflows(t *testing.T) {
	if _, err := Sqrt(MustParse("-4")); err == nil {
		t.Fatalf("expected OverflowKind for sqrt of negative")
	}
}

func TestMaxMin(t *testing.T) {
	a, b := MustParse("3"), MustParse("5")
	if Max(a, b) != b {
		t.Fatalf("Max wrong")
	}
	if Min(a, b) != a {
		t.Fatalf("Min wrong")
	}
}
