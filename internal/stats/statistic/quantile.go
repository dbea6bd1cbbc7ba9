// Package statistic implements the scalar statistics consumed by the
// bootstrap engines: type-7 quantiles, Welford mean/variance, the
// profit-factor family, geometric-mean family, Sharpe ratio, and
// quantile/moment-based shape statistics.
package statistic

import (
	"fmt"
	"sort"
)

// Type7Sorted computes the Hyndman-Fan type-7 quantile of an already sorted
// ascending slice at probability p, clamping at p<=0 and p>=1.
func Type7Sorted(sorted []float64, p float64) (float64, error) {
	n := len(sorted)
	if n == 0 {
		return 0, fmt.Errorf("statistic: Type7Sorted on empty input")
	}
	if p <= 0 {
		return sorted[0], nil
	}
	if p >= 1 {
		return sorted[n-1], nil
	}

	h := float64(n-1)*p + 1.0
	i := int(h) // floor, h > 0 here
	frac := h - float64(i)
	x0 := sorted[i-1]
	x1 := sorted[i]
	return x0 + (x1-x0)*frac, nil
}

// Type7Unsorted computes the same quantile without mutating the caller's
// slice, copying internally before sorting. The reference implementation
// uses two nth_element partial sorts to avoid a full O(n log n) sort; Go's
// standard library has no exposed partial-sort primitive, so a full sort of
// a copy is used instead and documented as the stdlib fallback.
func Type7Unsorted(data []float64, p float64) (float64, error) {
	cp := append([]float64(nil), data...)
	sort.Float64s(cp)
	return Type7Sorted(cp, p)
}

func sortedCopy(data []float64) []float64 {
	cp := append([]float64(nil), data...)
	sort.Float64s(cp)
	return cp
}
