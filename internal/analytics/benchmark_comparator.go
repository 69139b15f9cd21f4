// Package analytics holds the benchmark comparison engine, the custom
// benchmark compositor, the allocation and diversification analyzer, and
// the allocation drift detector.
package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"analytics-api/internal/calculator"
	"analytics-api/internal/models"
	"analytics-api/internal/returns"
	"analytics-api/pkg/errors"
)

// BenchmarkComparator computes benchmark-relative statistics over two
// aligned return series
type BenchmarkComparator struct {
	riskCalculator          *calculator.RiskCalculator
	minObservations         int
	advancedMinObservations int
	rollingWindow           int
}

type BenchmarkComparatorConfig struct {
	MinObservations         int `json:"min_observations"`
	AdvancedMinObservations int `json:"advanced_min_observations"`
	RollingWindow           int `json:"rolling_window"`
}

func NewBenchmarkComparator(riskCalculator *calculator.RiskCalculator, config BenchmarkComparatorConfig) *BenchmarkComparator {
	bc := &BenchmarkComparator{
		riskCalculator:          riskCalculator,
		minObservations:         config.MinObservations,
		advancedMinObservations: config.AdvancedMinObservations,
		rollingWindow:           config.RollingWindow,
	}
	if bc.minObservations <= 0 {
		bc.minObservations = 10
	}
	if bc.advancedMinObservations <= 0 {
		bc.advancedMinObservations = 30
	}
	if bc.rollingWindow <= 0 {
		bc.rollingWindow = 30
	}
	return bc
}

// Compare aligns the entity's return series with the benchmark's price
// history and produces the basic comparison. Fails with InsufficientData
// below the minimum aligned count.
func (bc *BenchmarkComparator) Compare(entity models.EntityRef, entitySeries returns.Series, benchmark models.BenchmarkRef, benchmarkPrices []models.PricePoint) (*models.BenchmarkComparison, error) {
	alignedEntity, alignedBenchmark := returns.Align(entitySeries, returns.Build(benchmarkPrices))
	if alignedEntity.Len() < bc.minObservations {
		return nil, errors.NewInsufficientData(
			fmt.Sprintf("benchmark comparison requires at least %d aligned observations", bc.minObservations),
			fmt.Sprintf("%s vs %s: %d", entity.Name, benchmark.Symbol, alignedEntity.Len()))
	}

	comparison := bc.basicComparison(entity, benchmark, alignedEntity, alignedBenchmark)
	return &comparison, nil
}

// CompareAdvanced adds the long-history metrics: Treynor, Jensen's alpha,
// Sortino, Calmar, drawdown duration and rolling stability series.
func (bc *BenchmarkComparator) CompareAdvanced(entity models.EntityRef, entitySeries returns.Series, benchmark models.BenchmarkRef, benchmarkPrices []models.PricePoint) (*models.AdvancedComparison, error) {
	alignedEntity, alignedBenchmark := returns.Align(entitySeries, returns.Build(benchmarkPrices))
	if alignedEntity.Len() < bc.advancedMinObservations {
		return nil, errors.NewInsufficientData(
			fmt.Sprintf("advanced comparison requires at least %d aligned observations", bc.advancedMinObservations),
			fmt.Sprintf("%s vs %s: %d", entity.Name, benchmark.Symbol, alignedEntity.Len()))
	}

	entityRets := alignedEntity.Returns()
	benchmarkRets := alignedBenchmark.Returns()

	advanced := &models.AdvancedComparison{
		BenchmarkComparison: bc.basicComparison(entity, benchmark, alignedEntity, alignedBenchmark),
	}

	annualEntity := calculator.AnnualizedReturnPercent(entityRets)
	annualBenchmark := calculator.AnnualizedReturnPercent(benchmarkRets)
	riskFreePercent := bc.riskCalculator.RiskFreeRate() * 100

	if advanced.Beta != nil && *advanced.Beta != 0 {
		advanced.TreynorRatio = finitePtr((annualEntity - riskFreePercent) / *advanced.Beta)
	}
	if advanced.Beta != nil {
		advanced.JensensAlpha = finitePtr(annualEntity - (riskFreePercent + *advanced.Beta*(annualBenchmark-riskFreePercent)))
	}

	advanced.SortinoRatio = bc.riskCalculator.SortinoRatio(entityRets)

	profile := calculator.Drawdowns(entityRets)
	advanced.MaxDrawdownDuration = profile.LongestDuration
	if profile.MaxPercent != 0 {
		advanced.CalmarRatio = finitePtr(annualEntity / profile.MaxPercent)
	}

	advanced.RollingCorrelation = bc.rollingSeries(entityRets, benchmarkRets, func(e, b []float64) float64 {
		return stat.Correlation(e, b, nil)
	})
	advanced.RollingBeta = bc.rollingSeries(entityRets, benchmarkRets, calculator.Beta)

	return advanced, nil
}

func (bc *BenchmarkComparator) basicComparison(entity models.EntityRef, benchmark models.BenchmarkRef, alignedEntity, alignedBenchmark returns.Series) models.BenchmarkComparison {
	entityRets := alignedEntity.Returns()
	benchmarkRets := alignedBenchmark.Returns()

	comparison := models.BenchmarkComparison{
		Entity:    entity,
		Benchmark: benchmark,
		Period: models.Period{
			Start: alignedEntity.First(),
			End:   alignedEntity.Last(),
		},
		EntityReturn:    calculator.CompoundReturn(entityRets) * 100,
		BenchmarkReturn: calculator.CompoundReturn(benchmarkRets) * 100,
		Observations:    alignedEntity.Len(),
	}

	beta := calculator.Beta(entityRets, benchmarkRets)
	comparison.Beta = &beta
	comparison.Alpha = finitePtr(bc.annualAlphaPercent(entityRets, benchmarkRets, beta))

	if corr := stat.Correlation(entityRets, benchmarkRets, nil); isFinite(corr) {
		comparison.Correlation = &corr
		rsq := corr * corr
		comparison.RSquared = &rsq
	}

	trackingError := calculator.TrackingErrorPercent(entityRets, benchmarkRets)
	comparison.TrackingError = &trackingError
	if trackingError != 0 && comparison.Alpha != nil {
		comparison.InformationRatio = finitePtr(*comparison.Alpha / trackingError)
	}

	comparison.UpCapture = captureRatio(entityRets, benchmarkRets, true)
	comparison.DownCapture = captureRatio(entityRets, benchmarkRets, false)

	comparison.Outperformance = comparison.EntityReturn - comparison.BenchmarkReturn
	comparison.Outperforming = comparison.EntityReturn > comparison.BenchmarkReturn

	return comparison
}

func (bc *BenchmarkComparator) annualAlphaPercent(entityRets, benchmarkRets []float64, beta float64) float64 {
	daily := bc.riskCalculator.RiskFreeRate() / calculator.TradingDays
	excessEntity := stat.Mean(entityRets, nil) - daily
	excessBenchmark := stat.Mean(benchmarkRets, nil) - daily
	return (excessEntity - beta*excessBenchmark) * calculator.TradingDays * 100
}

// captureRatio compares average entity performance against the benchmark
// over the benchmark's up or down periods, zero when no such period exists
func captureRatio(entityRets, benchmarkRets []float64, up bool) float64 {
	var entitySubset, benchmarkSubset []float64
	for i, b := range benchmarkRets {
		if (up && b > 0) || (!up && b < 0) {
			entitySubset = append(entitySubset, entityRets[i])
			benchmarkSubset = append(benchmarkSubset, b)
		}
	}
	if len(benchmarkSubset) == 0 {
		return 0
	}
	benchmarkMean := stat.Mean(benchmarkSubset, nil)
	if benchmarkMean == 0 {
		return 0
	}
	ratio := stat.Mean(entitySubset, nil) / benchmarkMean * 100
	if !isFinite(ratio) {
		return 0
	}
	return ratio
}

// rollingSeries applies the statistic over every fixed-size window of the
// aligned pair and classifies how stable it is
func (bc *BenchmarkComparator) rollingSeries(entityRets, benchmarkRets []float64, compute func(e, b []float64) float64) models.RollingSeries {
	window := bc.rollingWindow
	values := rollingWindow(len(entityRets), window, func(lo, hi int) float64 {
		v := compute(entityRets[lo:hi], benchmarkRets[lo:hi])
		if !isFinite(v) {
			return 0
		}
		return v
	})

	return models.RollingSeries{
		Window:    window,
		Values:    values,
		Stability: stabilityOf(values),
	}
}

// rollingWindow evaluates compute over each [lo,hi) slice of length window;
// the window size is a parameter, not baked-in index arithmetic
func rollingWindow(n, window int, compute func(lo, hi int) float64) []float64 {
	if window <= 0 || n < window {
		return nil
	}
	values := make([]float64, 0, n-window+1)
	for lo := 0; lo+window <= n; lo++ {
		values = append(values, compute(lo, lo+window))
	}
	return values
}

// stabilityOf classifies the deviation of a rolling series; a series too
// short to vary counts as stable
func stabilityOf(values []float64) models.StabilityLevel {
	if len(values) < 2 {
		return models.StabilityHigh
	}
	sd := stat.StdDev(values, nil)
	switch {
	case sd < 0.1:
		return models.StabilityHigh
	case sd < 0.2:
		return models.StabilityMedium
	default:
		return models.StabilityLow
	}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func finitePtr(x float64) *float64 {
	if !isFinite(x) {
		return nil
	}
	return &x
}
