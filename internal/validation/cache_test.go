package validation

import "testing"

func TestFingerprintKey_StableForIdenticalInput(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03}
	cfg := BootstrapRequestConfig{Replicates: 400, ConfidenceLevel: 0.95}

	a, err := FingerprintKey("sharpe", returns, cfg)
	if err != nil {
		t.Fatalf("FingerprintKey: %v", err)
	}
	b, err := FingerprintKey("sharpe", returns, cfg)
	if err != nil {
		t.Fatalf("FingerprintKey: %v", err)
	}
	if a != b {
		t.Errorf("expected identical input to hash to the same key, got %q and %q", a, b)
	}
}

func TestFingerprintKey_DiffersOnStatistic(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03}
	cfg := BootstrapRequestConfig{Replicates: 400, ConfidenceLevel: 0.95}

	a, err := FingerprintKey("sharpe", returns, cfg)
	if err != nil {
		t.Fatalf("FingerprintKey: %v", err)
	}
	b, err := FingerprintKey("geomean", returns, cfg)
	if err != nil {
		t.Fatalf("FingerprintKey: %v", err)
	}
	if a == b {
		t.Error("expected different statistics to produce different keys")
	}
}

func TestFingerprintKey_DiffersOnReturns(t *testing.T) {
	cfg := BootstrapRequestConfig{Replicates: 400, ConfidenceLevel: 0.95}

	a, err := FingerprintKey("sharpe", []float64{0.01, -0.02, 0.03}, cfg)
	if err != nil {
		t.Fatalf("FingerprintKey: %v", err)
	}
	b, err := FingerprintKey("sharpe", []float64{0.01, -0.02, 0.04}, cfg)
	if err != nil {
		t.Fatalf("FingerprintKey: %v", err)
	}
	if a == b {
		t.Error("expected different return series to produce different keys")
	}
}
