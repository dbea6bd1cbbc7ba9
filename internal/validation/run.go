package validation

import (
	"fmt"
	"time"

	"qcat/internal/stats/bootstrap"
)

// RunStatus is the lifecycle state of a ValidationRun.
type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// BootstrapRequestConfig is the wire-level bootstrap configuration a caller
// may supply with a ValidationRequest; zero values fall back to the
// platform's config.BootstrapConfig defaults (SPEC_FULL.md §6.3).
type BootstrapRequestConfig struct {
	Replicates      int     `json:"replicates,omitempty"`
	ConfidenceLevel float64 `json:"confidence_level,omitempty"`
	RatioPolicy     string  `json:"ratio_policy,omitempty"` // "fixed" | "adaptive"
	FixedRatio      float64 `json:"fixed_ratio,omitempty"`
	PeriodsPerYear  float64 `json:"periods_per_year,omitempty"`
}

// ValidationRequest is the input to ValidationService.Submit: a return
// series and the statistic/bootstrap configuration to validate it under.
type ValidationRequest struct {
	Symbol    string                 `json:"symbol" binding:"required"`
	Strategy  string                 `json:"strategy" binding:"required"`
	Statistic string                 `json:"statistic" binding:"required"` // e.g. sharpe, geomean, profit_factor
	Returns   []float64              `json:"returns" binding:"required"`
	Bootstrap BootstrapRequestConfig `json:"bootstrap"`
	Seed      uint64                 `json:"seed,omitempty"`
}

// BootstrapResultDTO is the JSON-serializable mirror of bootstrap.Result
// persisted alongside a ValidationRun once it completes.
type BootstrapResultDTO struct {
	Mean          float64 `json:"mean"`
	Lower         float64 `json:"lower"`
	Upper         float64 `json:"upper"`
	CL            float64 `json:"cl"`
	B             int     `json:"b"`
	EffectiveB    int     `json:"effective_b"`
	Skipped       int     `json:"skipped"`
	N             int     `json:"n"`
	MSub          int     `json:"m_sub"`
	L             int     `json:"l"`
	ComputedRatio float64 `json:"computed_ratio"`
	SkewBoot      float64 `json:"skew_boot"`
}

// FromResult converts an engine Result into its persisted/wire form.
func FromResult(r bootstrap.Result) BootstrapResultDTO {
	return BootstrapResultDTO{
		Mean: r.Mean, Lower: r.Lower, Upper: r.Upper, CL: r.CL,
		B: r.B, EffectiveB: r.EffectiveB, Skipped: r.Skipped,
		N: r.N, MSub: r.MSub, L: r.L,
		ComputedRatio: r.ComputedRatio, SkewBoot: r.SkewBoot,
	}
}

// ValidationRun is the persisted record of one bootstrap validation.
type ValidationRun struct {
	ID        string              `json:"id"`
	Symbol    string              `json:"symbol"`
	Strategy  string              `json:"strategy"`
	Statistic string              `json:"statistic"`
	Status    RunStatus           `json:"status"`
	Request   ValidationRequest   `json:"request"`
	Result    *BootstrapResultDTO `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// RunProgress is one event published to subscribers of a run's status while
// it executes (SPEC_FULL.md §4.10, §6.6).
type RunProgress struct {
	RunID     string    `json:"run_id"`
	Status    RunStatus `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RunFilter narrows ValidationRun.List queries (SPEC_FULL.md §6.6).
type RunFilter struct {
	Symbol   string
	Strategy string
	Limit    int
}

func (r ValidationRequest) validate() error {
	if len(r.Returns) < 3 {
		return fmt.Errorf("returns series must have at least 3 observations, got %d", len(r.Returns))
	}
	if r.Symbol == "" || r.Strategy == "" {
		return fmt.Errorf("symbol and strategy are required")
	}
	if r.Bootstrap.ConfidenceLevel != 0 && (r.Bootstrap.ConfidenceLevel <= 0.5 || r.Bootstrap.ConfidenceLevel >= 1.0) {
		return fmt.Errorf("confidence_level must be in (0.5,1) when set")
	}
	if r.Bootstrap.RatioPolicy == "fixed" && (r.Bootstrap.FixedRatio <= 0 || r.Bootstrap.FixedRatio >= 1.0) {
		return fmt.Errorf("fixed_ratio must be in (0,1) when ratio_policy is fixed")
	}
	return nil
}
