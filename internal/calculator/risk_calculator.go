// Package calculator computes per-entity risk metrics from daily return
// series. All computations are pure and total: degenerate inputs yield
// zero-valued metrics, zero-denominator ratios resolve to nil.
package calculator

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"analytics-api/internal/models"
	"analytics-api/internal/returns"
)

// TradingDays is the annualization basis for daily observations
const TradingDays = 252

type RiskCalculator struct {
	riskFreeRate float64
}

type RiskCalculatorConfig struct {
	RiskFreeRate float64 `json:"risk_free_rate"`
}

func NewRiskCalculator(config RiskCalculatorConfig) *RiskCalculator {
	return &RiskCalculator{
		riskFreeRate: config.RiskFreeRate,
	}
}

// RiskFreeRate returns the configured annual risk-free rate
func (rc *RiskCalculator) RiskFreeRate() float64 {
	return rc.riskFreeRate
}

// Calculate produces the risk profile of one daily return series. When a
// benchmark series is supplied the benchmark-relative statistics are
// computed over the date-aligned pair. An empty series yields all-zero
// metrics with category LOW; this never fails.
func (rc *RiskCalculator) Calculate(series returns.Series, benchmark *returns.Series) models.RiskMetrics {
	metrics := models.RiskMetrics{
		RiskCategory: models.RiskLow,
	}
	if series.Empty() {
		return metrics
	}

	rets := series.Returns()

	metrics.Volatility = AnnualizedVolatilityPercent(rets)
	metrics.SharpeRatio = rc.SharpeRatio(rets)
	metrics.SortinoRatio = rc.SortinoRatio(rets)

	profile := Drawdowns(rets)
	metrics.MaxDrawdown = profile.MaxPercent
	metrics.CurrentDrawdown = profile.CurrentPercent

	metrics.VaR95 = percentile(rets, 0.05) * 100
	metrics.VaR99 = percentile(rets, 0.01) * 100
	metrics.CVaR95 = cvar(rets, 0.05) * 100

	if benchmark != nil {
		rc.applyBenchmarkMetrics(&metrics, series, *benchmark)
	}

	metrics.RiskScore = rc.riskScore(metrics)
	metrics.RiskCategory = riskCategory(metrics.RiskScore)

	return metrics
}

// SharpeRatio computes the annualized Sharpe ratio over daily returns,
// nil when the excess-return deviation is zero or undefined
func (rc *RiskCalculator) SharpeRatio(rets []float64) *float64 {
	excess := rc.excessReturns(rets)
	if len(excess) < 2 {
		return nil
	}
	sd := stat.StdDev(excess, nil)
	if sd == 0 || !isFinite(sd) {
		return nil
	}
	return finitePtr(stat.Mean(excess, nil) / sd * math.Sqrt(TradingDays))
}

// SortinoRatio divides mean excess return by the annualized downside
// deviation, nil when there are no downside observations or the deviation
// is zero
func (rc *RiskCalculator) SortinoRatio(rets []float64) *float64 {
	var downside []float64
	for _, r := range rets {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return nil
	}
	deviation := stat.StdDev(downside, nil) * math.Sqrt(TradingDays)
	if deviation == 0 || !isFinite(deviation) {
		return nil
	}
	excess := rc.excessReturns(rets)
	return finitePtr(stat.Mean(excess, nil) / deviation)
}

func (rc *RiskCalculator) applyBenchmarkMetrics(metrics *models.RiskMetrics, series, benchmark returns.Series) {
	alignedEntity, alignedBenchmark := returns.Align(series, benchmark)
	if alignedEntity.Len() < 2 {
		return
	}

	entityRets := alignedEntity.Returns()
	benchmarkRets := alignedBenchmark.Returns()

	beta := Beta(entityRets, benchmarkRets)
	metrics.Beta = &beta
	metrics.Alpha = finitePtr(rc.annualAlphaPercent(entityRets, benchmarkRets, beta))

	if corr := stat.Correlation(entityRets, benchmarkRets, nil); isFinite(corr) {
		metrics.Correlation = &corr
	}

	metrics.TrackingError = finitePtr(TrackingErrorPercent(entityRets, benchmarkRets))
}

// annualAlphaPercent is the annualized excess return unexplained by beta
// exposure, in percent
func (rc *RiskCalculator) annualAlphaPercent(entityRets, benchmarkRets []float64, beta float64) float64 {
	meanEntity := stat.Mean(rc.excessReturns(entityRets), nil)
	meanBenchmark := stat.Mean(rc.excessReturns(benchmarkRets), nil)
	return (meanEntity - beta*meanBenchmark) * TradingDays * 100
}

func (rc *RiskCalculator) excessReturns(rets []float64) []float64 {
	daily := rc.riskFreeRate / TradingDays
	excess := make([]float64, len(rets))
	for i, r := range rets {
		excess[i] = r - daily
	}
	return excess
}

// riskScore combines volatility, drawdown and Sharpe penalties into a
// 0-100 composite
func (rc *RiskCalculator) riskScore(metrics models.RiskMetrics) float64 {
	score := math.Min(2*metrics.Volatility, 50)
	score += math.Min(metrics.MaxDrawdown, 30)
	if metrics.SharpeRatio != nil {
		score += math.Max(0, 20-10**metrics.SharpeRatio)
	}
	return clamp(score, 0, 100)
}

func riskCategory(score float64) models.RiskCategory {
	switch {
	case score <= 30:
		return models.RiskLow
	case score <= 60:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// DrawdownProfile summarizes the drawdown walk of a return series
type DrawdownProfile struct {
	// Deepest decline from a running peak, percent, always >= 0
	MaxPercent float64
	// Decline from peak at the final observation, percent
	CurrentPercent float64
	// Longest stretch of consecutive observations below a running peak
	LongestDuration int
}

// Drawdowns walks cumulative wealth over the returns and reports peak
// declines
func Drawdowns(rets []float64) DrawdownProfile {
	if len(rets) == 0 {
		return DrawdownProfile{}
	}

	wealth := 1.0
	peak := 1.0
	minDrawdown := 0.0
	lastDrawdown := 0.0
	run := 0
	longest := 0

	for _, r := range rets {
		wealth *= 1 + r
		if wealth > peak {
			peak = wealth
			run = 0
		} else {
			run++
			if run > longest {
				longest = run
			}
		}
		lastDrawdown = (wealth - peak) / peak
		if lastDrawdown < minDrawdown {
			minDrawdown = lastDrawdown
		}
	}

	return DrawdownProfile{
		MaxPercent:      math.Abs(minDrawdown) * 100,
		CurrentPercent:  math.Abs(lastDrawdown) * 100,
		LongestDuration: longest,
	}
}

// Beta is the regression slope of entity returns on benchmark returns,
// zero when the benchmark variance is zero
func Beta(entityRets, benchmarkRets []float64) float64 {
	if len(entityRets) != len(benchmarkRets) || len(entityRets) < 2 {
		return 0
	}
	variance := stat.Variance(benchmarkRets, nil)
	if variance == 0 || !isFinite(variance) {
		return 0
	}
	beta := stat.Covariance(entityRets, benchmarkRets, nil) / variance
	if !isFinite(beta) {
		return 0
	}
	return beta
}

// TrackingErrorPercent is the annualized deviation of the return
// difference, in percent
func TrackingErrorPercent(entityRets, benchmarkRets []float64) float64 {
	if len(entityRets) != len(benchmarkRets) || len(entityRets) < 2 {
		return 0
	}
	diff := make([]float64, len(entityRets))
	for i := range entityRets {
		diff[i] = entityRets[i] - benchmarkRets[i]
	}
	return stat.StdDev(diff, nil) * math.Sqrt(TradingDays) * 100
}

// CompoundReturn compounds the returns into a total growth fraction
func CompoundReturn(rets []float64) float64 {
	wealth := 1.0
	for _, r := range rets {
		wealth *= 1 + r
	}
	return wealth - 1
}

// AnnualizedReturnPercent compounds daily returns and scales to a yearly
// figure, in percent
func AnnualizedReturnPercent(rets []float64) float64 {
	if len(rets) == 0 {
		return 0
	}
	total := CompoundReturn(rets)
	if total <= -1 {
		return -100
	}
	annualized := math.Pow(1+total, TradingDays/float64(len(rets))) - 1
	return annualized * 100
}

// AnnualizedVolatilityPercent is the annualized deviation of daily
// returns, in percent
func AnnualizedVolatilityPercent(rets []float64) float64 {
	if len(rets) < 2 {
		return 0
	}
	sd := stat.StdDev(rets, nil)
	if !isFinite(sd) {
		return 0
	}
	return sd * math.Sqrt(TradingDays) * 100
}

// percentile returns the p-quantile of the returns using the sorted-index
// convention, zero for empty input
func percentile(rets []float64, p float64) float64 {
	if len(rets) == 0 {
		return 0
	}
	sorted := make([]float64, len(rets))
	copy(sorted, rets)
	sort.Float64s(sorted)

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

// cvar averages every return at or below the p-quantile threshold
func cvar(rets []float64, p float64) float64 {
	if len(rets) == 0 {
		return 0
	}
	threshold := percentile(rets, p)
	var tail []float64
	for _, r := range rets {
		if r <= threshold {
			tail = append(tail, r)
		}
	}
	if len(tail) == 0 {
		return threshold
	}
	return stat.Mean(tail, nil)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// finitePtr guards against NaN and infinity leaking into result objects
func finitePtr(x float64) *float64 {
	if !isFinite(x) {
		return nil
	}
	return &x
}
