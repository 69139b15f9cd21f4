package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"analytics-api/internal/calculator"
	"analytics-api/internal/models"
	"analytics-api/internal/returns"
	"analytics-api/pkg/errors"
)

const compositeDateLayout = "2006-01-02"

// BenchmarkCompositor blends weighted component price series into one
// synthetic benchmark series and summarizes it with the single-benchmark
// statistics
type BenchmarkCompositor struct {
	riskCalculator *calculator.RiskCalculator
}

func NewBenchmarkCompositor(riskCalculator *calculator.RiskCalculator) *BenchmarkCompositor {
	return &BenchmarkCompositor{
		riskCalculator: riskCalculator,
	}
}

// Compose intersects the dates present in every component series and, for
// each common date, prices the composite as the weight-proportional sum of
// component prices. Dates any component lacks are skipped. An empty
// intersection fails with InsufficientData.
func (bc *BenchmarkCompositor) Compose(benchmark *models.CustomBenchmark, componentPrices map[string][]models.PricePoint) (*models.BenchmarkData, error) {
	pricesByDate := make([]map[string]decimal.Decimal, len(benchmark.Components))
	for i, component := range benchmark.Components {
		series, ok := componentPrices[component.Symbol]
		if !ok || len(series) == 0 {
			return nil, errors.NewInsufficientData("custom benchmark component has no price data", component.Symbol)
		}
		byDate := make(map[string]decimal.Decimal, len(series))
		for _, point := range series {
			byDate[point.Date.Format(compositeDateLayout)] = point.Price
		}
		pricesByDate[i] = byDate
	}

	// Candidate dates come from the first component; the intersection
	// check against the rest drops anything not shared by all.
	first := componentPrices[benchmark.Components[0].Symbol]
	hundred := decimal.NewFromInt(100)
	synthetic := make([]models.PricePoint, 0, len(first))

	for _, point := range first {
		key := point.Date.Format(compositeDateLayout)
		price := decimal.Zero
		complete := true
		for i, component := range benchmark.Components {
			componentPrice, ok := pricesByDate[i][key]
			if !ok {
				complete = false
				break
			}
			price = price.Add(component.Weight.Div(hundred).Mul(componentPrice))
		}
		if !complete {
			logrus.WithFields(logrus.Fields{
				"benchmark": benchmark.ID,
				"date":      key,
			}).Debug("Skipping composite date missing component data")
			continue
		}
		synthetic = append(synthetic, models.PricePoint{Date: point.Date, Price: price})
	}

	if len(synthetic) == 0 {
		return nil, errors.NewInsufficientData("custom benchmark components share no common dates", benchmark.ID)
	}

	sort.Slice(synthetic, func(i, j int) bool {
		return synthetic[i].Date.Before(synthetic[j].Date)
	})

	return bc.summarize(benchmark, synthetic), nil
}

// summarize runs the synthetic series through the same return and risk
// computations used for a single benchmark
func (bc *BenchmarkCompositor) summarize(benchmark *models.CustomBenchmark, prices []models.PricePoint) *models.BenchmarkData {
	series := returns.Build(prices)
	rets := series.Returns()
	profile := calculator.Drawdowns(rets)

	return &models.BenchmarkData{
		Symbol:           benchmark.ID,
		Name:             benchmark.Name,
		Prices:           prices,
		TotalReturn:      calculator.CompoundReturn(rets) * 100,
		AnnualizedReturn: calculator.AnnualizedReturnPercent(rets),
		Volatility:       calculator.AnnualizedVolatilityPercent(rets),
		MaxDrawdown:      profile.MaxPercent,
		SharpeRatio:      bc.riskCalculator.SharpeRatio(rets),
	}
}
