package validation

import (
	"testing"

	"qcat/internal/stats/bootstrap"
)

func validRequest() ValidationRequest {
	return ValidationRequest{
		Symbol: "BTCUSDT", Strategy: "trend-follow", Statistic: "sharpe",
		Returns: []float64{0.01, -0.02, 0.03, 0.01},
	}
}

func TestValidationRequest_Validate_AcceptsValidRequest(t *testing.T) {
	if err := validRequest().validate(); err != nil {
		t.Errorf("expected a valid request to pass, got: %v", err)
	}
}

func TestValidationRequest_Validate_RejectsShortSeries(t *testing.T) {
	req := validRequest()
	req.Returns = []float64{0.01, 0.02}
	if err := req.validate(); err == nil {
		t.Error("expected an error for a too-short series")
	}
}

func TestValidationRequest_Validate_RejectsMissingSymbolOrStrategy(t *testing.T) {
	req := validRequest()
	req.Symbol = ""
	if err := req.validate(); err == nil {
		t.Error("expected an error for a missing symbol")
	}

	req = validRequest()
	req.Strategy = ""
	if err := req.validate(); err == nil {
		t.Error("expected an error for a missing strategy")
	}
}

func TestValidationRequest_Validate_RejectsOutOfRangeConfidenceLevel(t *testing.T) {
	req := validRequest()
	req.Bootstrap.ConfidenceLevel = 1.2
	if err := req.validate(); err == nil {
		t.Error("expected an error for a confidence level outside (0.5,1)")
	}
}

func TestValidationRequest_Validate_RejectsFixedRatioOutOfRange(t *testing.T) {
	req := validRequest()
	req.Bootstrap.RatioPolicy = "fixed"
	req.Bootstrap.FixedRatio = 1.5
	if err := req.validate(); err == nil {
		t.Error("expected an error for a fixed_ratio outside (0,1)")
	}
}

func TestFromResult_MapsAllFields(t *testing.T) {
	// bootstrap.Result is exercised end-to-end in service_test.go; this
	// checks the DTO mapping keeps field names aligned by round-tripping
	// the zero value (no field should panic or silently rename).
	dto := FromResult(bootstrap.Result{})
	if dto.N != 0 || dto.B != 0 {
		t.Errorf("expected zero-value mapping, got %+v", dto)
	}
}
