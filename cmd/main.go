package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"analytics-api/internal/analytics"
	"analytics-api/internal/calculator"
	"analytics-api/internal/config"
	"analytics-api/internal/models"
	"analytics-api/internal/services"
	"analytics-api/pkg/logger"
)

// request is the batch document: the input data set plus the operations to
// run over it. Entity histories are keyed "type:id", symbol histories by
// symbol.
type request struct {
	Pies                []models.Pie                   `json:"pies"`
	UnattachedPositions []models.Position              `json:"unattached_positions"`
	EntityHistory       map[string][]models.PricePoint `json:"entity_history"`
	SymbolHistory       map[string][]models.PricePoint `json:"symbol_history"`

	RiskMetrics      []services.RiskMetricsRequest     `json:"risk_metrics,omitempty"`
	Compare          []services.CompareRequest         `json:"compare,omitempty"`
	ComparePies      *services.ComparePiesRequest      `json:"compare_pies,omitempty"`
	ComposeBenchmark *services.ComposeBenchmarkRequest `json:"compose_benchmark,omitempty"`
	Allocation       bool                              `json:"allocation,omitempty"`
	Summary          bool                              `json:"summary,omitempty"`
	Correlations     *services.CorrelationsRequest     `json:"correlations,omitempty"`
	DriftTarget      models.TargetAllocation           `json:"drift_target,omitempty"`
}

type response struct {
	RiskMetrics      []operationResult              `json:"risk_metrics,omitempty"`
	Compare          []operationResult              `json:"compare,omitempty"`
	ComparePies      []services.PieComparisonResult `json:"compare_pies,omitempty"`
	ComposeBenchmark *operationResult               `json:"compose_benchmark,omitempty"`
	Allocation       *services.AllocationReport     `json:"allocation,omitempty"`
	Summary          *calculator.PortfolioSummary   `json:"summary,omitempty"`
	Correlations     *analytics.CorrelationMatrix   `json:"correlations,omitempty"`
	Drift            *models.DriftReport            `json:"drift,omitempty"`
	Errors           []string                       `json:"errors,omitempty"`
}

type operationResult struct {
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Logger)
	log := logrus.WithField("service", "analytics-api")

	req, err := readRequest(os.Args[1:])
	if err != nil {
		log.Fatal("Failed to read request: ", err)
	}

	service := buildService(cfg, req)
	resp := run(context.Background(), service, req)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(resp); err != nil {
		log.Fatal("Failed to encode response: ", err)
	}
}

// readRequest decodes the batch document from the file named in args, or
// from stdin when none is given
func readRequest(args []string) (*request, error) {
	var reader io.Reader = os.Stdin
	if len(args) > 0 {
		file, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer file.Close()
		reader = file
	}

	var req request
	if err := json.NewDecoder(reader).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request JSON: %w", err)
	}
	return &req, nil
}

func buildService(cfg *config.Config, req *request) *services.AnalyticsService {
	riskCalculator := calculator.NewRiskCalculator(calculator.RiskCalculatorConfig{
		RiskFreeRate: cfg.Analytics.RiskFreeRate,
	})
	comparator := analytics.NewBenchmarkComparator(riskCalculator, analytics.BenchmarkComparatorConfig{
		MinObservations:         cfg.Analytics.MinObservations,
		AdvancedMinObservations: cfg.Analytics.AdvancedMinObservations,
		RollingWindow:           cfg.Analytics.RollingWindow,
	})
	compositor := analytics.NewBenchmarkCompositor(riskCalculator)
	allocationAnalyzer := analytics.NewAllocationAnalyzer(analytics.AllocationAnalyzerConfig{
		TopHoldings: cfg.Analytics.TopHoldings,
	})
	driftDetector := analytics.NewDriftDetector(allocationAnalyzer, analytics.DriftDetectorConfig{
		Tolerance: cfg.Analytics.DriftTolerance,
	})

	provider := &fileProvider{req: req}
	return services.NewAnalyticsService(
		provider,
		provider,
		riskCalculator,
		comparator,
		compositor,
		allocationAnalyzer,
		driftDetector,
		cfg.Analytics.ComparisonWorkers,
	)
}

func run(ctx context.Context, service *services.AnalyticsService, req *request) *response {
	resp := &response{}

	for _, r := range req.RiskMetrics {
		metrics, err := service.RiskMetrics(ctx, r)
		resp.RiskMetrics = append(resp.RiskMetrics, toResult(metrics, err))
	}

	for _, r := range req.Compare {
		if r.Advanced {
			comparison, err := service.CompareAdvanced(ctx, r)
			resp.Compare = append(resp.Compare, toResult(comparison, err))
			continue
		}
		comparison, err := service.Compare(ctx, r)
		resp.Compare = append(resp.Compare, toResult(comparison, err))
	}

	if req.ComparePies != nil {
		results, err := service.ComparePies(ctx, *req.ComparePies)
		if err != nil {
			resp.Errors = append(resp.Errors, err.Error())
		} else {
			resp.ComparePies = results
		}
	}

	if req.ComposeBenchmark != nil {
		data, err := service.ComposeBenchmark(ctx, *req.ComposeBenchmark)
		result := toResult(data, err)
		resp.ComposeBenchmark = &result
	}

	if req.Allocation {
		report, err := service.Allocation(ctx)
		if err != nil {
			resp.Errors = append(resp.Errors, err.Error())
		} else {
			resp.Allocation = report
		}
	}

	if req.Summary {
		summary, err := service.Summary(ctx)
		if err != nil {
			resp.Errors = append(resp.Errors, err.Error())
		} else {
			resp.Summary = summary
		}
	}

	if req.Correlations != nil {
		matrix, err := service.Correlations(ctx, *req.Correlations)
		if err != nil {
			resp.Errors = append(resp.Errors, err.Error())
		} else {
			resp.Correlations = matrix
		}
	}

	if len(req.DriftTarget) > 0 {
		report, err := service.DetectDrift(ctx, req.DriftTarget)
		if err != nil {
			resp.Errors = append(resp.Errors, err.Error())
		} else {
			resp.Drift = report
		}
	}

	return resp
}

func toResult(result interface{}, err error) operationResult {
	if err != nil {
		return operationResult{Error: err.Error()}
	}
	return operationResult{Result: result}
}

// fileProvider serves positions and price history out of the request
// document itself
type fileProvider struct {
	req *request
}

func (fp *fileProvider) Pies(ctx context.Context) ([]models.Pie, error) {
	return fp.req.Pies, nil
}

func (fp *fileProvider) UnattachedPositions(ctx context.Context) ([]models.Position, error) {
	return fp.req.UnattachedPositions, nil
}

func (fp *fileProvider) EntityHistory(ctx context.Context, entity models.EntityRef, period models.Period) ([]models.PricePoint, error) {
	key := fmt.Sprintf("%s:%s", entity.Type, entity.ID)
	return filterPeriod(fp.req.EntityHistory[key], period), nil
}

func (fp *fileProvider) SymbolHistory(ctx context.Context, symbol string, period models.Period) ([]models.PricePoint, error) {
	return filterPeriod(fp.req.SymbolHistory[symbol], period), nil
}

func filterPeriod(prices []models.PricePoint, period models.Period) []models.PricePoint {
	if period.Start.IsZero() && period.End.IsZero() {
		return prices
	}
	filtered := make([]models.PricePoint, 0, len(prices))
	for _, point := range prices {
		if !period.Start.IsZero() && point.Date.Before(period.Start) {
			continue
		}
		if !period.End.IsZero() && point.Date.After(period.End) {
			continue
		}
		filtered = append(filtered, point)
	}
	return filtered
}
