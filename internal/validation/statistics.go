package validation

import (
	"fmt"

	apperrors "qcat/internal/errors"
	"qcat/internal/stats/statistic"
)

// resolveStatistic maps a wire-level statistic name onto one of the
// platform's Statistic plug-ins (SPEC_FULL.md §6.4). periodsPerYear only
// affects annualized_sharpe.
func resolveStatistic(name string, periodsPerYear float64) (statistic.Statistic, error) {
	switch name {
	case "sharpe":
		return statistic.SharpeStat(), nil
	case "annualized_sharpe":
		if periodsPerYear <= 0 {
			periodsPerYear = 252
		}
		return statistic.AnnualizedSharpeStat(periodsPerYear), nil
	case "geomean":
		return statistic.GeoMeanStat(1e-8, statistic.DefaultAdaptiveWinsorizer()), nil
	case "profit_factor":
		return statistic.Func{
			Fn:               func(r []float64) float64 { return statistic.ComputeProfitFactor(r, true) },
			RatioStatistic:   true,
			SupportDescriptor: statistic.NonStrictLowerBound(0, 1e-9),
		}, nil
	default:
		return nil, apperrors.NewAppError(apperrors.ErrCodeStatsInvalidArgument,
			fmt.Sprintf("unknown statistic %q", name), nil)
	}
}
