package validation

import (
	"context"
	"testing"
	"time"

	"qcat/internal/config"
)

// waitForStatus polls Get until the run reaches a terminal status or the
// deadline elapses; the service executes runs on their own goroutine so
// tests cannot assume Submit has finished by the time it returns.
func waitForStatus(t *testing.T, svc *ValidationService, id string, deadline time.Duration) *ValidationRun {
	t.Helper()
	ctx := context.Background()
	cutoff := time.Now().Add(deadline)
	for time.Now().Before(cutoff) {
		run, err := svc.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get(%s): %v", id, err)
		}
		if run.Status == StatusSucceeded || run.Status == StatusFailed {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s did not reach a terminal status within %s", id, deadline)
	return nil
}

func sampleReturns() []float64 {
	returns := make([]float64, 40)
	for i := range returns {
		if i%3 == 0 {
			returns[i] = -0.01
		} else {
			returns[i] = 0.02
		}
	}
	return returns
}

func newTestService() *ValidationService {
	repo := NewMemoryRunRepository()
	broadcaster := NewProgressBroadcaster()
	defaults := config.DefaultBootstrapConfig()
	defaults.DefaultReplicates = 400
	return NewValidationService(repo, nil, broadcaster, defaults, nil, 42, nil)
}

func TestValidationService_SubmitAndGet_Succeeds(t *testing.T) {
	svc := newTestService()

	req := ValidationRequest{
		Symbol: "BTCUSDT", Strategy: "trend-follow", Statistic: "sharpe",
		Returns: sampleReturns(),
	}

	id, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	run := waitForStatus(t, svc, id, 2*time.Second)
	if run.Status != StatusSucceeded {
		t.Fatalf("expected run to succeed, got status=%s error=%s", run.Status, run.Error)
	}
	if run.Result == nil {
		t.Fatal("expected a result on a succeeded run")
	}
	if run.Result.N != len(req.Returns) {
		t.Errorf("expected N=%d, got %d", len(req.Returns), run.Result.N)
	}
}

func TestValidationService_Submit_RejectsUnknownStatistic(t *testing.T) {
	svc := newTestService()

	_, err := svc.Submit(context.Background(), ValidationRequest{
		Symbol: "ETHUSDT", Strategy: "mean-revert", Statistic: "not-a-real-statistic",
		Returns: sampleReturns(),
	})
	if err == nil {
		t.Fatal("expected an error for an unknown statistic")
	}
}

func TestValidationService_Submit_RejectsShortSeries(t *testing.T) {
	svc := newTestService()

	_, err := svc.Submit(context.Background(), ValidationRequest{
		Symbol: "ETHUSDT", Strategy: "mean-revert", Statistic: "sharpe",
		Returns: []float64{0.01, 0.02},
	})
	if err == nil {
		t.Fatal("expected an error for a too-short return series")
	}
}

func TestValidationService_List_FiltersBySymbolAndStrategy(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, sym := range []string{"BTCUSDT", "ETHUSDT"} {
		id, err := svc.Submit(ctx, ValidationRequest{
			Symbol: sym, Strategy: "trend-follow", Statistic: "sharpe", Returns: sampleReturns(),
		})
		if err != nil {
			t.Fatalf("Submit(%s): %v", sym, err)
		}
		waitForStatus(t, svc, id, 2*time.Second)
	}

	runs, err := svc.List(ctx, RunFilter{Symbol: "BTCUSDT"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].Symbol != "BTCUSDT" {
		t.Fatalf("expected exactly one BTCUSDT run, got %+v", runs)
	}
}

