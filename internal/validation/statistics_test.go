package validation

import "testing"

func TestResolveStatistic_KnownNames(t *testing.T) {
	for _, name := range []string{"sharpe", "annualized_sharpe", "geomean", "profit_factor"} {
		if _, err := resolveStatistic(name, 0); err != nil {
			t.Errorf("resolveStatistic(%q): unexpected error: %v", name, err)
		}
	}
}

func TestResolveStatistic_UnknownNameReturnsAppError(t *testing.T) {
	_, err := resolveStatistic("not-a-statistic", 0)
	if err == nil {
		t.Fatal("expected an error for an unknown statistic name")
	}
}
