package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"qcat/internal/config"
	apperrors "qcat/internal/errors"
	"qcat/internal/logger"
	"qcat/internal/monitoring"
	"qcat/internal/stats/bootstrap"
	"qcat/internal/stats/rng"
)

// ValidationService wraps the one-shot m-out-of-n bootstrap engine behind a
// submit/get/list API backed by a repository, a result cache, and a
// progress broadcaster (SPEC_FULL.md §4.8).
type ValidationService struct {
	repo        RunRepository
	cache       ResultCache
	broadcaster *ProgressBroadcaster
	defaults    config.BootstrapConfig
	log         logger.Logger
	metrics     *monitoring.Metrics
	cacheTTL    time.Duration
	masterSeed  uint64
}

// NewValidationService constructs the service. cache may be nil, in which
// case every submission recomputes. masterSeed seeds the per-run RNG
// derivation (SPEC_FULL.md §4.2) unless a request overrides it. metrics may
// be nil, in which case run counters are simply not recorded.
func NewValidationService(repo RunRepository, cache ResultCache, broadcaster *ProgressBroadcaster, defaults config.BootstrapConfig, log logger.Logger, masterSeed uint64, metrics *monitoring.Metrics) *ValidationService {
	return &ValidationService{
		repo:        repo,
		cache:       cache,
		broadcaster: broadcaster,
		defaults:    defaults,
		log:         log,
		metrics:     metrics,
		cacheTTL:    24 * time.Hour,
		masterSeed:  masterSeed,
	}
}

// Submit validates and persists a Queued run, then executes it on a worker
// goroutine so the call returns immediately with the new run id
// (SPEC_FULL.md §4.8). The worker runs on context.Background(), so
// cancelling ctx after Submit returns does not stop a run.
func (s *ValidationService) Submit(ctx context.Context, req ValidationRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument, err.Error(), err)
	}
	if _, err := resolveStatistic(req.Statistic, req.Bootstrap.PeriodsPerYear); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	run := &ValidationRun{
		ID:        uuid.NewString(),
		Symbol:    req.Symbol,
		Strategy:  req.Strategy,
		Statistic: req.Statistic,
		Status:    StatusQueued,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, run); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	s.publish(run.ID, StatusQueued, "")

	go s.execute(context.Background(), run.ID, req)

	return run.ID, nil
}

// execute runs the bootstrap (or serves a cache hit) and records the
// outcome. It runs detached from the originating HTTP request context so a
// client disconnect does not abandon a run already marked Queued.
func (s *ValidationService) execute(ctx context.Context, runID string, req ValidationRequest) {
	s.transition(ctx, runID, StatusRunning, nil, "")

	key, err := FingerprintKey(req.Statistic, req.Returns, req.Bootstrap)
	if err == nil && s.cache != nil {
		if cached, hit, cerr := s.cache.Get(ctx, key); cerr == nil && hit {
			s.transition(ctx, runID, StatusSucceeded, cached, "")
			return
		}
	}

	result, err := s.runBootstrap(req)
	if err != nil {
		s.transition(ctx, runID, StatusFailed, nil, err.Error())
		return
	}

	if key != "" && s.cache != nil {
		_ = s.cache.Set(ctx, key, &result, s.cacheTTL)
	}
	s.transition(ctx, runID, StatusSucceeded, &result, "")
}

func (s *ValidationService) runBootstrap(req ValidationRequest) (BootstrapResultDTO, error) {
	stat, err := resolveStatistic(req.Statistic, req.Bootstrap.PeriodsPerYear)
	if err != nil {
		return BootstrapResultDTO{}, err
	}

	b := req.Bootstrap.Replicates
	if b <= 0 {
		b = s.defaults.DefaultReplicates
	}
	cl := req.Bootstrap.ConfidenceLevel
	if cl <= 0 {
		cl = s.defaults.DefaultConfidenceLevel
	}
	resampler := bootstrap.StationaryBlockResampler{MeanBlockLength: 4}

	var engineCtor func() (*bootstrap.MOutOfNPercentileBootstrap, error)
	policy := req.Bootstrap.RatioPolicy
	if policy == "" {
		policy = s.defaults.DefaultRatioPolicy
	}
	switch policy {
	case "fixed":
		ratio := req.Bootstrap.FixedRatio
		engineCtor = func() (*bootstrap.MOutOfNPercentileBootstrap, error) {
			return bootstrap.CreateFixedRatio(b, cl, ratio, resampler)
		}
	default:
		engineCtor = func() (*bootstrap.MOutOfNPercentileBootstrap, error) {
			return bootstrap.CreateAdaptive(b, cl, resampler)
		}
	}

	engine, err := engineCtor()
	if err != nil {
		return BootstrapResultDTO{}, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = s.masterSeed
	}
	rngEngine := rng.NewFromSeed(seed)

	result, err := engine.Run(req.Returns, stat, rngEngine, 0, s.log)
	if err != nil {
		return BootstrapResultDTO{}, err
	}
	return FromResult(result), nil
}

func (s *ValidationService) transition(ctx context.Context, runID string, status RunStatus, result *BootstrapResultDTO, runErr string) {
	if err := s.repo.UpdateStatus(ctx, runID, status, result, runErr); err != nil && s.log != nil {
		s.log.Error("failed to update validation run status", "run_id", runID, "status", status, "error", err)
	}
	if s.metrics != nil && (status == StatusSucceeded || status == StatusFailed) {
		run, err := s.repo.Get(ctx, runID)
		statistic := ""
		if err == nil {
			statistic = run.Statistic
		}
		s.metrics.RecordValidationRun(statistic, string(status))
		if result != nil {
			s.metrics.RecordBootstrapReplicates(result.B)
		}
	}
	s.publish(runID, status, runErr)
}

func (s *ValidationService) publish(runID string, status RunStatus, message string) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(runID, RunProgress{RunID: runID, Status: status, Message: message, Timestamp: time.Now().UTC()})
}

// Get implements the read side of the service (SPEC_FULL.md §4.8).
func (s *ValidationService) Get(ctx context.Context, id string) (*ValidationRun, error) {
	return s.repo.Get(ctx, id)
}

// List implements the read side of the service (SPEC_FULL.md §4.8).
func (s *ValidationService) List(ctx context.Context, filter RunFilter) ([]*ValidationRun, error) {
	return s.repo.List(ctx, filter)
}

// Subscribe relays progress for a run to the caller (used by the websocket
// streaming handler, SPEC_FULL.md §4.9).
func (s *ValidationService) Subscribe(runID string) (<-chan RunProgress, func()) {
	return s.broadcaster.Subscribe(runID)
}
