package models

// RiskCategory buckets a portfolio's composite risk score
type RiskCategory string

const (
	RiskLow      RiskCategory = "LOW"
	RiskMedium   RiskCategory = "MEDIUM"
	RiskHigh     RiskCategory = "HIGH"
	RiskVeryHigh RiskCategory = "VERY_HIGH"
)

// RiskMetrics is the per-entity risk profile computed from one daily return
// series. Ratio fields with a possible zero denominator are pointers; nil
// means undefined, never NaN. Volatility, drawdowns, tracking error and
// tail-risk figures are percentages.
type RiskMetrics struct {
	Volatility      float64  `json:"volatility"`
	SharpeRatio     *float64 `json:"sharpe_ratio"`
	SortinoRatio    *float64 `json:"sortino_ratio"`
	MaxDrawdown     float64  `json:"max_drawdown"`
	CurrentDrawdown float64  `json:"current_drawdown"`

	// Benchmark-relative, only set when a benchmark series was supplied
	Beta          *float64 `json:"beta"`
	Alpha         *float64 `json:"alpha"`
	Correlation   *float64 `json:"correlation"`
	TrackingError *float64 `json:"tracking_error"`

	VaR95  float64 `json:"var_95"`
	VaR99  float64 `json:"var_99"`
	CVaR95 float64 `json:"cvar_95"`

	RiskScore    float64      `json:"risk_score"`
	RiskCategory RiskCategory `json:"risk_category"`
}
