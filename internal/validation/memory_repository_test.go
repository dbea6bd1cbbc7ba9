package validation

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRunRepository_InsertGetUpdate(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()

	run := &ValidationRun{
		ID: "r1", Symbol: "BTCUSDT", Strategy: "trend-follow", Statistic: "sharpe",
		Status: StatusQueued, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	if err := repo.Insert(ctx, run); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := repo.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusQueued {
		t.Errorf("expected status queued, got %s", got.Status)
	}

	result := &BootstrapResultDTO{Mean: 1.5}
	if err := repo.UpdateStatus(ctx, "r1", StatusSucceeded, result, ""); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	got, err = repo.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.Status != StatusSucceeded || got.Result == nil || got.Result.Mean != 1.5 {
		t.Errorf("unexpected state after update: %+v", got)
	}
}

func TestMemoryRunRepository_GetMissingReturnsError(t *testing.T) {
	repo := NewMemoryRunRepository()
	if _, err := repo.Get(context.Background(), "missing"); err == nil {
		t.Fatal("expected an error for a missing run id")
	}
}

func TestMemoryRunRepository_UpdateStatusMissingReturnsError(t *testing.T) {
	repo := NewMemoryRunRepository()
	err := repo.UpdateStatus(context.Background(), "missing", StatusFailed, nil, "boom")
	if err == nil {
		t.Fatal("expected an error updating a missing run id")
	}
}

func TestMemoryRunRepository_ListFiltersAndOrders(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()

	base := time.Now()
	runs := []*ValidationRun{
		{ID: "a", Symbol: "BTCUSDT", Strategy: "trend-follow", CreatedAt: base},
		{ID: "b", Symbol: "BTCUSDT", Strategy: "mean-revert", CreatedAt: base.Add(time.Second)},
		{ID: "c", Symbol: "ETHUSDT", Strategy: "trend-follow", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, r := range runs {
		if err := repo.Insert(ctx, r); err != nil {
			t.Fatalf("Insert(%s): %v", r.ID, err)
		}
	}

	got, err := repo.List(ctx, RunFilter{Symbol: "BTCUSDT"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 BTCUSDT runs, got %d", len(got))
	}
	if got[0].ID != "b" {
		t.Errorf("expected most recent run first, got %s", got[0].ID)
	}

	got, err = repo.List(ctx, RunFilter{Strategy: "trend-follow", Limit: 1})
	if err != nil {
		t.Fatalf("List with limit: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("expected a single most-recent trend-follow run, got %+v", got)
	}
}
