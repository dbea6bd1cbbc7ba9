package validation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"qcat/internal/config"
)

func TestRevalidationScheduler_NeedsRevalidation_NoPriorRun(t *testing.T) {
	svc := newTestService()
	sched := NewRevalidationScheduler(svc, nil, time.Hour, nil)

	target := WatchTarget{Symbol: "BTCUSDT", Strategy: "trend-follow"}
	if !sched.needsRevalidation(context.Background(), target) {
		t.Error("expected a target with no prior runs to need revalidation")
	}
}

func TestRevalidationScheduler_NeedsRevalidation_RecentRunSkipped(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	id, err := svc.Submit(ctx, ValidationRequest{
		Symbol: "BTCUSDT", Strategy: "trend-follow", Statistic: "sharpe", Returns: sampleReturns(),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitForStatus(t, svc, id, 2*time.Second)

	sched := NewRevalidationScheduler(svc, nil, time.Hour, nil)
	target := WatchTarget{Symbol: "BTCUSDT", Strategy: "trend-follow"}
	if sched.needsRevalidation(ctx, target) {
		t.Error("expected a just-completed run not to need revalidation yet")
	}
}

func TestRevalidationScheduler_Tick_SubmitsForStaleTargets(t *testing.T) {
	svc := newTestService()
	var fetchCalls int32

	target := WatchTarget{
		Symbol: "BTCUSDT", Strategy: "trend-follow", Statistic: "sharpe",
		FetchReturns: func(ctx context.Context) ([]float64, error) {
			atomic.AddInt32(&fetchCalls, 1)
			return sampleReturns(), nil
		},
	}
	sched := NewRevalidationScheduler(svc, []WatchTarget{target}, 0, nil)
	sched.tick(context.Background())

	if atomic.LoadInt32(&fetchCalls) != 1 {
		t.Errorf("expected FetchReturns to be called once, got %d", fetchCalls)
	}

	runs, err := svc.List(context.Background(), RunFilter{Symbol: "BTCUSDT", Strategy: "trend-follow"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run submitted by the tick, got %d", len(runs))
	}
}

func TestDefaultBootstrapConfig_HasRevalidationSchedule(t *testing.T) {
	defaults := config.DefaultBootstrapConfig()
	if defaults.RevalidationSchedule == "" {
		t.Error("expected a non-empty default revalidation schedule")
	}
	if defaults.RevalidationMaxAge <= 0 {
		t.Error("expected a positive default revalidation max age")
	}
}
