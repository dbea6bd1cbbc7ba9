package statistic

import "testing"

// TestType7SortedScenario1 is the literal scenario from SPEC_FULL.md §8:
// quantileType7Sorted([0,10,20,30], 0.25) = 7.5.
func TestType7SortedScenario1(t *testing.T) {
	got, err := Type7Sorted([]float64{0, 10, 20, 30}, 0.25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approxEqual(t, got, 7.5, 1e-12, "type-7 quantile scenario 1")
}

func TestType7SortedBoundaries(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	lo, _ := Type7Sorted(sorted, 0)
	hi, _ := Type7Sorted(sorted, 1)
	approxEqual(t, lo, 1, 1e-12, "p=0")
	approxEqual(t, hi, 5, 1e-12, "p=1")
}

func TestType7SortedMedianOddLength(t *testing.T) {
	got, _ := Type7Sorted([]float64{1, 2, 3, 4, 5}, 0.5)
	approxEqual(t, got, 3, 1e-12, "median of odd-length series")
}

func TestType7UnsortedDoesNotMutateInput(t *testing.T) {
	data := []float64{30, 10, 0, 20}
	cp := append([]float64(nil), data...)
	if _, err := Type7Unsorted(data, 0.25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range data {
		if data[i] != cp[i] {
			t.Fatalf("Type7Unsorted mutated caller slice: got %v want %v", data, cp)
		}
	}
}

func TestType7SortedEmptyErrors(t *testing.T) {
	if _, err := Type7Sorted(nil, 0.5); err == nil {
		t.Fatalf("expected error on empty input")
	}
}
