package models

import (
	"github.com/shopspring/decimal"

	"analytics-api/pkg/errors"
)

// BenchmarkRef identifies a market benchmark index
type BenchmarkRef struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// BenchmarkComparison ties an entity to a benchmark over a period.
// Returns are compounded totals in percent; ratio fields with a possible
// zero denominator are nil when undefined.
type BenchmarkComparison struct {
	Entity    EntityRef    `json:"entity"`
	Benchmark BenchmarkRef `json:"benchmark"`
	Period    Period       `json:"period"`

	EntityReturn    float64 `json:"entity_return"`
	BenchmarkReturn float64 `json:"benchmark_return"`

	Alpha            *float64 `json:"alpha"`
	Beta             *float64 `json:"beta"`
	TrackingError    *float64 `json:"tracking_error"`
	Correlation      *float64 `json:"correlation"`
	RSquared         *float64 `json:"r_squared"`
	InformationRatio *float64 `json:"information_ratio"`

	UpCapture   float64 `json:"up_capture"`
	DownCapture float64 `json:"down_capture"`

	Outperforming  bool    `json:"outperforming"`
	Outperformance float64 `json:"outperformance"`

	Observations int `json:"observations"`
}

// StabilityLevel classifies how stable a rolling statistic is over time
type StabilityLevel string

const (
	StabilityHigh   StabilityLevel = "high"
	StabilityMedium StabilityLevel = "medium"
	StabilityLow    StabilityLevel = "low"
)

// RollingSeries is a fixed-window rolling statistic with its stability
// classification
type RollingSeries struct {
	Window    int            `json:"window"`
	Values    []float64      `json:"values"`
	Stability StabilityLevel `json:"stability"`
}

// AdvancedComparison extends BenchmarkComparison with the metrics that need
// a longer aligned history
type AdvancedComparison struct {
	BenchmarkComparison

	TreynorRatio *float64 `json:"treynor_ratio"`
	JensensAlpha *float64 `json:"jensens_alpha"`
	SortinoRatio *float64 `json:"sortino_ratio"`
	CalmarRatio  *float64 `json:"calmar_ratio"`

	// Longest stretch of consecutive periods spent below a running peak
	MaxDrawdownDuration int `json:"max_drawdown_duration"`

	RollingCorrelation RollingSeries `json:"rolling_correlation"`
	RollingBeta        RollingSeries `json:"rolling_beta"`
}

// BenchmarkComponent is one weighted constituent of a custom benchmark
type BenchmarkComponent struct {
	Symbol string          `json:"symbol" validate:"required"`
	Weight decimal.Decimal `json:"weight"`
}

// CustomBenchmark blends several benchmark indices into one synthetic
// series. Component weights must sum to 100 within a hundredth of a point;
// the invariant is enforced at construction time.
type CustomBenchmark struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Components []BenchmarkComponent `json:"components"`
}

// weightSumTolerance bounds the acceptable deviation of the component
// weight sum from 100.
var weightSumTolerance = decimal.NewFromFloat(0.01)

// NewCustomBenchmark validates the component set and constructs the
// benchmark. Violations fail with InvalidInput naming the offending symbol.
func NewCustomBenchmark(id, name string, components []BenchmarkComponent) (*CustomBenchmark, error) {
	if len(components) == 0 {
		return nil, errors.NewInvalidInput("custom benchmark requires at least one component")
	}

	sum := decimal.Zero
	for _, component := range components {
		if component.Symbol == "" {
			return nil, errors.NewInvalidInput("custom benchmark component symbol is required")
		}
		if !component.Weight.IsPositive() {
			return nil, errors.NewInvalidInput("custom benchmark component weight must be positive", component.Symbol)
		}
		sum = sum.Add(component.Weight)
	}

	if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(weightSumTolerance) {
		return nil, errors.NewInvalidInput("custom benchmark weights must sum to 100", sum.String())
	}

	return &CustomBenchmark{
		ID:         id,
		Name:       name,
		Components: components,
	}, nil
}

// BenchmarkData is a benchmark price series with its summary statistics,
// either a real index or a synthetic composite
type BenchmarkData struct {
	Symbol string       `json:"symbol"`
	Name   string       `json:"name"`
	Prices []PricePoint `json:"prices"`

	TotalReturn      float64  `json:"total_return"`
	AnnualizedReturn float64  `json:"annualized_return"`
	Volatility       float64  `json:"volatility"`
	MaxDrawdown      float64  `json:"max_drawdown"`
	SharpeRatio      *float64 `json:"sharpe_ratio"`
}
