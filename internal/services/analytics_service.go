package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"analytics-api/internal/analytics"
	"analytics-api/internal/calculator"
	"analytics-api/internal/models"
	"analytics-api/internal/returns"
	"analytics-api/pkg/errors"
)

// Interfaces for the upstream data boundary; implementations live with the
// caller, tests use mocks
type PositionProvider interface {
	Pies(ctx context.Context) ([]models.Pie, error)
	UnattachedPositions(ctx context.Context) ([]models.Position, error)
}

type PriceHistoryProvider interface {
	EntityHistory(ctx context.Context, entity models.EntityRef, period models.Period) ([]models.PricePoint, error)
	SymbolHistory(ctx context.Context, symbol string, period models.Period) ([]models.PricePoint, error)
}

type AnalyticsService struct {
	positions   PositionProvider
	prices      PriceHistoryProvider
	risk        *calculator.RiskCalculator
	performance *calculator.PerformanceCalculator
	comparator  *analytics.BenchmarkComparator
	compositor  *analytics.BenchmarkCompositor
	allocation  *analytics.AllocationAnalyzer
	drift       *analytics.DriftDetector
	correlation *analytics.CorrelationAnalyzer
	validate    *validator.Validate
	workers     int
}

func NewAnalyticsService(
	positions PositionProvider,
	prices PriceHistoryProvider,
	risk *calculator.RiskCalculator,
	comparator *analytics.BenchmarkComparator,
	compositor *analytics.BenchmarkCompositor,
	allocation *analytics.AllocationAnalyzer,
	drift *analytics.DriftDetector,
	workers int,
) *AnalyticsService {
	if workers <= 0 {
		workers = 5
	}
	return &AnalyticsService{
		positions:   positions,
		prices:      prices,
		risk:        risk,
		performance: calculator.NewPerformanceCalculator(),
		comparator:  comparator,
		compositor:  compositor,
		allocation:  allocation,
		drift:       drift,
		correlation: analytics.NewCorrelationAnalyzer(),
		validate:    validator.New(),
		workers:     workers,
	}
}

// RiskMetricsRequest asks for the risk profile of one entity, optionally
// against a benchmark for the relative metrics
type RiskMetricsRequest struct {
	Entity    models.EntityRef     `json:"entity" validate:"required"`
	Period    models.Period        `json:"period"`
	Benchmark *models.BenchmarkRef `json:"benchmark,omitempty"`
}

// RiskMetrics builds the entity's return series and computes its risk
// profile. Beta, alpha, correlation and tracking error are only present when
// a benchmark is given.
func (as *AnalyticsService) RiskMetrics(ctx context.Context, req RiskMetricsRequest) (*models.RiskMetrics, error) {
	if err := as.validate.Struct(req); err != nil {
		return nil, errors.NewInvalidInput("invalid risk metrics request", err.Error())
	}

	prices, err := as.prices.EntityHistory(ctx, req.Entity, req.Period)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history for %s: %w", req.Entity.ID, err)
	}
	series := returns.Build(prices)

	var benchmarkSeries *returns.Series
	if req.Benchmark != nil {
		benchmarkPrices, err := as.prices.SymbolHistory(ctx, req.Benchmark.Symbol, req.Period)
		if err != nil {
			return nil, fmt.Errorf("failed to get benchmark history for %s: %w", req.Benchmark.Symbol, err)
		}
		built := returns.Build(benchmarkPrices)
		benchmarkSeries = &built
	}

	metrics := as.risk.Calculate(series, benchmarkSeries)

	logrus.WithFields(logrus.Fields{
		"entity":        req.Entity.ID,
		"observations":  series.Len(),
		"risk_category": metrics.RiskCategory,
	}).Info("Risk metrics calculated")

	return &metrics, nil
}

// CompareRequest asks for a benchmark comparison of one entity
type CompareRequest struct {
	Entity    models.EntityRef    `json:"entity" validate:"required"`
	Benchmark models.BenchmarkRef `json:"benchmark" validate:"required"`
	Period    models.Period       `json:"period"`
	Advanced  bool                `json:"advanced"`
}

// Compare runs the basic benchmark comparison for a single entity
func (as *AnalyticsService) Compare(ctx context.Context, req CompareRequest) (*models.BenchmarkComparison, error) {
	if err := as.validate.Struct(req); err != nil {
		return nil, errors.NewInvalidInput("invalid comparison request", err.Error())
	}
	entitySeries, benchmarkPrices, err := as.comparisonInputs(ctx, req.Entity, req.Benchmark, req.Period)
	if err != nil {
		return nil, err
	}
	return as.comparator.Compare(req.Entity, entitySeries, req.Benchmark, benchmarkPrices)
}

// CompareAdvanced runs the extended comparison for a single entity
func (as *AnalyticsService) CompareAdvanced(ctx context.Context, req CompareRequest) (*models.AdvancedComparison, error) {
	if err := as.validate.Struct(req); err != nil {
		return nil, errors.NewInvalidInput("invalid comparison request", err.Error())
	}
	entitySeries, benchmarkPrices, err := as.comparisonInputs(ctx, req.Entity, req.Benchmark, req.Period)
	if err != nil {
		return nil, err
	}
	return as.comparator.CompareAdvanced(req.Entity, entitySeries, req.Benchmark, benchmarkPrices)
}

func (as *AnalyticsService) comparisonInputs(ctx context.Context, entity models.EntityRef, benchmark models.BenchmarkRef, period models.Period) (returns.Series, []models.PricePoint, error) {
	entityPrices, err := as.prices.EntityHistory(ctx, entity, period)
	if err != nil {
		return returns.Series{}, nil, fmt.Errorf("failed to get price history for %s: %w", entity.ID, err)
	}
	benchmarkPrices, err := as.prices.SymbolHistory(ctx, benchmark.Symbol, period)
	if err != nil {
		return returns.Series{}, nil, fmt.Errorf("failed to get benchmark history for %s: %w", benchmark.Symbol, err)
	}
	return returns.Build(entityPrices), benchmarkPrices, nil
}

// ComparePiesRequest asks for every pie to be compared against one benchmark
type ComparePiesRequest struct {
	Benchmark models.BenchmarkRef `json:"benchmark" validate:"required"`
	Period    models.Period       `json:"period"`
	Advanced  bool                `json:"advanced"`
}

// PieComparisonResult carries one pie's comparison, or the error that kept
// it out of the batch
type PieComparisonResult struct {
	Entity     models.EntityRef            `json:"entity"`
	Comparison *models.BenchmarkComparison `json:"comparison,omitempty"`
	Advanced   *models.AdvancedComparison  `json:"advanced,omitempty"`
	Error      string                      `json:"error,omitempty"`
}

// ComparePies compares every pie against the benchmark concurrently. A pie
// that fails, including for insufficient history, is reported in its result
// slot without aborting the rest of the batch.
func (as *AnalyticsService) ComparePies(ctx context.Context, req ComparePiesRequest) ([]PieComparisonResult, error) {
	if err := as.validate.Struct(req); err != nil {
		return nil, errors.NewInvalidInput("invalid pie comparison request", err.Error())
	}

	pies, err := as.positions.Pies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pies: %w", err)
	}
	benchmarkPrices, err := as.prices.SymbolHistory(ctx, req.Benchmark.Symbol, req.Period)
	if err != nil {
		return nil, fmt.Errorf("failed to get benchmark history for %s: %w", req.Benchmark.Symbol, err)
	}

	results := make([]PieComparisonResult, len(pies))
	semaphore := make(chan struct{}, as.workers)
	var wg sync.WaitGroup

	for i, pie := range pies {
		wg.Add(1)
		go func(i int, pie models.Pie) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			entity := models.EntityRef{Type: models.EntityPie, ID: pie.ID, Name: pie.Name}
			results[i] = as.comparePie(ctx, entity, req, benchmarkPrices)
		}(i, pie)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, result := range results {
		if result.Error != "" {
			failed++
		}
	}
	logrus.WithFields(logrus.Fields{
		"benchmark": req.Benchmark.Symbol,
		"pies":      len(pies),
		"failed":    failed,
	}).Info("Pie comparison batch completed")

	return results, nil
}

func (as *AnalyticsService) comparePie(ctx context.Context, entity models.EntityRef, req ComparePiesRequest, benchmarkPrices []models.PricePoint) PieComparisonResult {
	result := PieComparisonResult{Entity: entity}

	entityPrices, err := as.prices.EntityHistory(ctx, entity, req.Period)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	entitySeries := returns.Build(entityPrices)

	if req.Advanced {
		advanced, err := as.comparator.CompareAdvanced(entity, entitySeries, req.Benchmark, benchmarkPrices)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		result.Advanced = advanced
		return result
	}

	comparison, err := as.comparator.Compare(entity, entitySeries, req.Benchmark, benchmarkPrices)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Comparison = comparison
	return result
}

// ComposeBenchmarkRequest defines a weighted custom benchmark to build
type ComposeBenchmarkRequest struct {
	ID         string                      `json:"id" validate:"required"`
	Name       string                      `json:"name"`
	Components []models.BenchmarkComponent `json:"components" validate:"required,dive"`
	Period     models.Period               `json:"period"`
}

// ComposeBenchmark validates the custom benchmark definition, fetches every
// component's history concurrently, and blends them into one synthetic
// benchmark series with summary statistics.
func (as *AnalyticsService) ComposeBenchmark(ctx context.Context, req ComposeBenchmarkRequest) (*models.BenchmarkData, error) {
	if err := as.validate.Struct(req); err != nil {
		return nil, errors.NewInvalidInput("invalid custom benchmark request", err.Error())
	}
	benchmark, err := models.NewCustomBenchmark(req.ID, req.Name, req.Components)
	if err != nil {
		return nil, err
	}

	componentPrices := make(map[string][]models.PricePoint, len(benchmark.Components))
	componentErrs := make([]error, len(benchmark.Components))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, component := range benchmark.Components {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			prices, err := as.prices.SymbolHistory(ctx, symbol, req.Period)
			if err != nil {
				componentErrs[i] = fmt.Errorf("failed to get history for component %s: %w", symbol, err)
				return
			}
			mu.Lock()
			componentPrices[symbol] = prices
			mu.Unlock()
		}(i, component.Symbol)
	}
	wg.Wait()

	for _, err := range componentErrs {
		if err != nil {
			return nil, err
		}
	}

	return as.compositor.Compose(benchmark, componentPrices)
}

// AllocationReport bundles the breakdowns with concentration and
// diversification analysis
type AllocationReport struct {
	Breakdowns      map[models.Dimension]models.AllocationBreakdown `json:"breakdowns"`
	Concentration   models.ConcentrationReport                      `json:"concentration"`
	Diversification models.DiversificationScore                     `json:"diversification"`
}

// Allocation analyzes the full position set, pies and unattached positions
// together
func (as *AnalyticsService) Allocation(ctx context.Context) (*AllocationReport, error) {
	positions, err := as.allPositions(ctx)
	if err != nil {
		return nil, err
	}
	return &AllocationReport{
		Breakdowns:      as.allocation.Breakdowns(positions),
		Concentration:   as.allocation.Concentration(positions),
		Diversification: as.allocation.DiversificationScore(positions),
	}, nil
}

// DetectDrift compares the current allocation against a target
func (as *AnalyticsService) DetectDrift(ctx context.Context, target models.TargetAllocation) (*models.DriftReport, error) {
	positions, err := as.allPositions(ctx)
	if err != nil {
		return nil, err
	}
	return as.drift.Detect(positions, target)
}

// Summary aggregates market value and unrealized P&L across pies and
// unattached positions
func (as *AnalyticsService) Summary(ctx context.Context) (*calculator.PortfolioSummary, error) {
	pies, err := as.positions.Pies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pies: %w", err)
	}
	unattached, err := as.positions.UnattachedPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get unattached positions: %w", err)
	}
	return as.performance.Summarize(pies, unattached), nil
}

// CorrelationsRequest names the symbols to cross-correlate
type CorrelationsRequest struct {
	Symbols []string      `json:"symbols" validate:"required,min=2,dive,required"`
	Period  models.Period `json:"period"`
}

// Correlations fetches each symbol's history concurrently and computes the
// pairwise correlation matrix
func (as *AnalyticsService) Correlations(ctx context.Context, req CorrelationsRequest) (*analytics.CorrelationMatrix, error) {
	if err := as.validate.Struct(req); err != nil {
		return nil, errors.NewInvalidInput("invalid correlation request", err.Error())
	}

	priceHistory := make(map[string][]models.PricePoint, len(req.Symbols))
	historyErrs := make([]error, len(req.Symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, symbol := range req.Symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			prices, err := as.prices.SymbolHistory(ctx, symbol, req.Period)
			if err != nil {
				historyErrs[i] = fmt.Errorf("failed to get history for %s: %w", symbol, err)
				return
			}
			mu.Lock()
			priceHistory[symbol] = prices
			mu.Unlock()
		}(i, symbol)
	}
	wg.Wait()

	for _, err := range historyErrs {
		if err != nil {
			return nil, err
		}
	}

	return as.correlation.Analyze(priceHistory)
}

func (as *AnalyticsService) allPositions(ctx context.Context) ([]models.Position, error) {
	pies, err := as.positions.Pies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pies: %w", err)
	}
	unattached, err := as.positions.UnattachedPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get unattached positions: %w", err)
	}

	var positions []models.Position
	for _, pie := range pies {
		positions = append(positions, pie.Positions...)
	}
	positions = append(positions, unattached...)

	for i := range positions {
		if err := positions[i].Validate(); err != nil {
			return nil, err
		}
	}
	return positions, nil
}
