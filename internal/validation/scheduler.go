package validation

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"qcat/internal/logger"
)

// WatchTarget is one (symbol, strategy) pair the revalidation scheduler
// keeps fresh (SPEC_FULL.md §4.10).
type WatchTarget struct {
	Symbol    string
	Strategy  string
	Statistic string
	// FetchReturns supplies the latest return series for this target at
	// revalidation time (e.g. reading closed trades since the last run).
	FetchReturns func(ctx context.Context) ([]float64, error)
	Bootstrap    BootstrapRequestConfig
}

// RevalidationScheduler periodically resubmits validation requests for a
// watch-list whose most recent run has aged past MaxAge, via a
// robfig/cron/v3 job, so confidence intervals stay current as new trades
// close without a human re-triggering them.
type RevalidationScheduler struct {
	svc     *ValidationService
	targets []WatchTarget
	maxAge  time.Duration
	log     logger.Logger
	cron    *cron.Cron
}

// NewRevalidationScheduler constructs the scheduler. maxAge <= 0 means
// always revalidate on each tick.
func NewRevalidationScheduler(svc *ValidationService, targets []WatchTarget, maxAge time.Duration, log logger.Logger) *RevalidationScheduler {
	return &RevalidationScheduler{svc: svc, targets: targets, maxAge: maxAge, log: log, cron: cron.New()}
}

// Start registers the job under the given standard 5-field cron expression
// (Config.Bootstrap.RevalidationSchedule) and begins running it.
func (s *RevalidationScheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.tick(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron job without blocking; the returned context is done
// once any in-flight tick has finished.
func (s *RevalidationScheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *RevalidationScheduler) tick(ctx context.Context) {
	for _, target := range s.targets {
		if !s.needsRevalidation(ctx, target) {
			continue
		}
		returns, err := target.FetchReturns(ctx)
		if err != nil {
			if s.log != nil {
				s.log.Warn("revalidation fetch failed", "symbol", target.Symbol, "strategy", target.Strategy, "error", err)
			}
			continue
		}
		req := ValidationRequest{
			Symbol: target.Symbol, Strategy: target.Strategy,
			Statistic: target.Statistic, Returns: returns, Bootstrap: target.Bootstrap,
		}
		if _, err := s.svc.Submit(ctx, req); err != nil && s.log != nil {
			s.log.Warn("revalidation submit failed", "symbol", target.Symbol, "strategy", target.Strategy, "error", err)
		}
	}
}

func (s *RevalidationScheduler) needsRevalidation(ctx context.Context, target WatchTarget) bool {
	if s.maxAge <= 0 {
		return true
	}
	runs, err := s.svc.List(ctx, RunFilter{Symbol: target.Symbol, Strategy: target.Strategy, Limit: 1})
	if err != nil || len(runs) == 0 {
		return true
	}
	return time.Since(runs[0].CreatedAt) >= s.maxAge
}
