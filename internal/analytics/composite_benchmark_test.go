package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"analytics-api/internal/calculator"
	"analytics-api/internal/models"
	"analytics-api/pkg/errors"
)

func newTestCompositor() *BenchmarkCompositor {
	riskCalculator := calculator.NewRiskCalculator(calculator.RiskCalculatorConfig{RiskFreeRate: 0.02})
	return NewBenchmarkCompositor(riskCalculator)
}

func mustBenchmark(t *testing.T, components []models.BenchmarkComponent) *models.CustomBenchmark {
	t.Helper()
	benchmark, err := models.NewCustomBenchmark("mix", "Blend", components)
	assert.NoError(t, err)
	return benchmark
}

func TestBenchmarkCompositor_Compose(t *testing.T) {
	compositor := newTestCompositor()

	t.Run("blends component prices by weight", func(t *testing.T) {
		benchmark := mustBenchmark(t, []models.BenchmarkComponent{
			{Symbol: "SPY", Weight: decimal.NewFromInt(60)},
			{Symbol: "QQQ", Weight: decimal.NewFromInt(40)},
		})
		componentPrices := map[string][]models.PricePoint{
			"SPY": {
				{Date: testDay(0), Price: decimal.NewFromInt(100)},
				{Date: testDay(1), Price: decimal.NewFromInt(110)},
			},
			"QQQ": {
				{Date: testDay(0), Price: decimal.NewFromInt(200)},
				{Date: testDay(1), Price: decimal.NewFromInt(190)},
			},
		}

		data, err := compositor.Compose(benchmark, componentPrices)

		assert.NoError(t, err)
		assert.Equal(t, "mix", data.Symbol)
		assert.Len(t, data.Prices, 2)
		// 0.6*100 + 0.4*200 = 140, then 0.6*110 + 0.4*190 = 142
		assert.True(t, data.Prices[0].Price.Equal(decimal.NewFromInt(140)), data.Prices[0].Price.String())
		assert.True(t, data.Prices[1].Price.Equal(decimal.NewFromInt(142)), data.Prices[1].Price.String())
		assert.InDelta(t, 142.0/140.0*100-100, data.TotalReturn, 1e-9)
	})

	t.Run("skips dates missing from any component", func(t *testing.T) {
		benchmark := mustBenchmark(t, []models.BenchmarkComponent{
			{Symbol: "SPY", Weight: decimal.NewFromInt(50)},
			{Symbol: "QQQ", Weight: decimal.NewFromInt(50)},
		})
		componentPrices := map[string][]models.PricePoint{
			"SPY": {
				{Date: testDay(0), Price: decimal.NewFromInt(100)},
				{Date: testDay(1), Price: decimal.NewFromInt(101)},
				{Date: testDay(2), Price: decimal.NewFromInt(102)},
			},
			"QQQ": {
				{Date: testDay(0), Price: decimal.NewFromInt(100)},
				{Date: testDay(2), Price: decimal.NewFromInt(104)},
			},
		}

		data, err := compositor.Compose(benchmark, componentPrices)

		assert.NoError(t, err)
		assert.Len(t, data.Prices, 2)
		assert.Equal(t, testDay(0), data.Prices[0].Date)
		assert.Equal(t, testDay(2), data.Prices[1].Date)
	})

	t.Run("empty intersection fails", func(t *testing.T) {
		benchmark := mustBenchmark(t, []models.BenchmarkComponent{
			{Symbol: "SPY", Weight: decimal.NewFromInt(50)},
			{Symbol: "QQQ", Weight: decimal.NewFromInt(50)},
		})
		componentPrices := map[string][]models.PricePoint{
			"SPY": {{Date: testDay(0), Price: decimal.NewFromInt(100)}},
			"QQQ": {{Date: testDay(1), Price: decimal.NewFromInt(100)}},
		}

		_, err := compositor.Compose(benchmark, componentPrices)
		assert.True(t, errors.IsInsufficientData(err))
	})

	t.Run("component without data fails", func(t *testing.T) {
		benchmark := mustBenchmark(t, []models.BenchmarkComponent{
			{Symbol: "SPY", Weight: decimal.NewFromInt(100)},
		})

		_, err := compositor.Compose(benchmark, map[string][]models.PricePoint{})
		assert.True(t, errors.IsInsufficientData(err))
	})
}
