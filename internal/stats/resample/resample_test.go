package resample

import (
	"testing"

	"qcat/internal/stats/rng"
)

func TestIIDIndicesInBounds(t *testing.T) {
	engine := rng.NewFromSeed(1)
	indices := IID(engine, 20)
	if len(indices) != 20 {
		t.Fatalf("expected 20 indices, got %d", len(indices))
	}
	for _, idx := range indices {
		if idx < 0 || idx >= 20 {
			t.Fatalf("index %d out of bounds [0,20)", idx)
		}
	}
}

func TestIIDDeterministicUnderSameSeed(t *testing.T) {
	a := IID(rng.NewFromSeed(42), 10)
	b := IID(rng.NewFromSeed(42), 10)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected determinism at %d: %d != %d", i, a[i], b[i])
		}
	}
}

func TestBuildRestartMaskFirstPositionAlwaysStarts(t *testing.T) {
	engine := rng.NewFromSeed(7)
	mask := BuildRestartMask(engine, 15, 0.2)
	if len(mask.Starts) != 15 {
		t.Fatalf("expected mask length 15, got %d", len(mask.Starts))
	}
	if !mask.Starts[0] {
		t.Fatalf("expected mask[0] to always be a restart")
	}
}

func TestBuildRestartMaskProbabilityOneIsAllStarts(t *testing.T) {
	engine := rng.NewFromSeed(3)
	mask := BuildRestartMask(engine, 10, 1.0)
	for i, s := range mask.Starts {
		if !s {
			t.Fatalf("expected all positions to restart at p=1, position %d did not", i)
		}
	}
}

func TestStationaryIndicesInBounds(t *testing.T) {
	engine := rng.NewFromSeed(11)
	indices := Stationary(engine, 50, 12, 4.0)
	if len(indices) != 50 {
		t.Fatalf("expected 50 indices, got %d", len(indices))
	}
	for _, idx := range indices {
		if idx < 0 || idx >= 12 {
			t.Fatalf("index %d out of bounds [0,12)", idx)
		}
	}
}

func TestStationaryIndicesWraparoundIsCircular(t *testing.T) {
	engine := rng.NewFromSeed(5)
	mask := RestartMask{Starts: []bool{true, false, false, false}}
	indices := StationaryIndices(engine, mask, 3)
	for i := 1; i < len(indices); i++ {
		want := (indices[i-1] + 1) % 3
		if indices[i] != want {
			t.Fatalf("expected circular continuation at %d: got %d want %d", i, indices[i], want)
		}
	}
}

func TestSharedMaskGivesSameBlockStructureAcrossSeries(t *testing.T) {
	engine := rng.NewFromSeed(9)
	mask := BuildRestartMask(engine, 30, MeanBlockLengthToRestartProb(5))

	engineA := rng.NewFromSeed(100)
	engineB := rng.NewFromSeed(100)
	idxA := StationaryIndices(engineA, mask, 20)
	idxB := StationaryIndices(engineB, mask, 20)
	for i := range idxA {
		if idxA[i] != idxB[i] {
			t.Fatalf("expected identical realization from identical (mask, seed) at %d", i)
		}
	}
}

func TestGatherMapsIndices(t *testing.T) {
	data := []float64{10, 20, 30, 40}
	out := Gather(data, []int{3, 0, 0, 2})
	want := []float64{40, 10, 10, 30}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("at %d: got %v want %v", i, out[i], want[i])
		}
	}
}

func TestMeanBlockLengthToRestartProbClampsBelowOne(t *testing.T) {
	if got := MeanBlockLengthToRestartProb(0.5); got != 1.0 {
		t.Fatalf("expected clamp to mean block length 1 => p=1, got %v", got)
	}
}
