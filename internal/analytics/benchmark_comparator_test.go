package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"analytics-api/internal/calculator"
	"analytics-api/internal/models"
	"analytics-api/internal/returns"
	"analytics-api/pkg/errors"
)

func newTestComparator() *BenchmarkComparator {
	riskCalculator := calculator.NewRiskCalculator(calculator.RiskCalculatorConfig{RiskFreeRate: 0.02})
	return NewBenchmarkComparator(riskCalculator, BenchmarkComparatorConfig{})
}

func testDay(offset int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

// varied daily prices, n points starting at 100
func variedPrices(n int) []models.PricePoint {
	rets := []float64{0.012, -0.008, 0.004, -0.015, 0.020, 0.001, -0.003, 0.009, -0.011, 0.006}
	prices := make([]models.PricePoint, n)
	price := 100.0
	for i := 0; i < n; i++ {
		if i > 0 {
			price *= 1 + rets[(i-1)%len(rets)]
		}
		prices[i] = models.PricePoint{Date: testDay(i), Price: decimal.NewFromFloat(price)}
	}
	return prices
}

func TestBenchmarkComparator_Compare(t *testing.T) {
	comparator := newTestComparator()
	entity := models.EntityRef{Type: models.EntityPie, ID: "growth", Name: "Growth"}
	benchmark := models.BenchmarkRef{Symbol: "SPY", Name: "S&P 500"}

	t.Run("entity compared to itself neither wins nor loses", func(t *testing.T) {
		prices := variedPrices(31)
		entitySeries := returns.Build(prices)

		comparison, err := comparator.Compare(entity, entitySeries, benchmark, prices)

		assert.NoError(t, err)
		assert.Equal(t, 30, comparison.Observations)
		assert.False(t, comparison.Outperforming)
		assert.InDelta(t, 0.0, comparison.Outperformance, 1e-9)
		if assert.NotNil(t, comparison.Beta) {
			assert.InDelta(t, 1.0, *comparison.Beta, 1e-9)
		}
		if assert.NotNil(t, comparison.Correlation) {
			assert.InDelta(t, 1.0, *comparison.Correlation, 1e-9)
		}
		if assert.NotNil(t, comparison.RSquared) {
			assert.InDelta(t, 1.0, *comparison.RSquared, 1e-9)
		}
		if assert.NotNil(t, comparison.TrackingError) {
			assert.InDelta(t, 0.0, *comparison.TrackingError, 1e-9)
		}
		// Information ratio is undefined at zero tracking error
		assert.Nil(t, comparison.InformationRatio)
		assert.InDelta(t, 100.0, comparison.UpCapture, 1e-9)
		assert.InDelta(t, 100.0, comparison.DownCapture, 1e-9)
	})

	t.Run("fails below minimum aligned observations", func(t *testing.T) {
		prices := variedPrices(6)
		_, err := comparator.Compare(entity, returns.Build(prices), benchmark, prices)

		assert.Error(t, err)
		assert.True(t, errors.IsInsufficientData(err))
	})

	t.Run("disjoint dates align to nothing", func(t *testing.T) {
		entityPrices := variedPrices(15)
		benchmarkPrices := make([]models.PricePoint, 15)
		for i := range benchmarkPrices {
			benchmarkPrices[i] = models.PricePoint{Date: testDay(i + 100), Price: decimal.NewFromInt(100)}
		}

		_, err := comparator.Compare(entity, returns.Build(entityPrices), benchmark, benchmarkPrices)
		assert.True(t, errors.IsInsufficientData(err))
	})

	t.Run("period covers the aligned range", func(t *testing.T) {
		prices := variedPrices(12)
		comparison, err := comparator.Compare(entity, returns.Build(prices), benchmark, prices)

		assert.NoError(t, err)
		// First return observation is the second price date
		assert.Equal(t, testDay(1), comparison.Period.Start)
		assert.Equal(t, testDay(11), comparison.Period.End)
	})
}

func TestBenchmarkComparator_CompareAdvanced(t *testing.T) {
	comparator := newTestComparator()
	entity := models.EntityRef{Type: models.EntityPie, ID: "growth", Name: "Growth"}
	benchmark := models.BenchmarkRef{Symbol: "SPY", Name: "S&P 500"}

	t.Run("requires the longer minimum history", func(t *testing.T) {
		prices := variedPrices(20)
		_, err := comparator.CompareAdvanced(entity, returns.Build(prices), benchmark, prices)

		assert.True(t, errors.IsInsufficientData(err))
	})

	t.Run("computes the extended metrics against itself", func(t *testing.T) {
		prices := variedPrices(61)
		advanced, err := comparator.CompareAdvanced(entity, returns.Build(prices), benchmark, prices)

		assert.NoError(t, err)
		assert.NotNil(t, advanced.TreynorRatio)
		assert.NotNil(t, advanced.JensensAlpha)
		assert.InDelta(t, 0.0, *advanced.JensensAlpha, 1e-9)
		assert.NotNil(t, advanced.SortinoRatio)
		assert.NotNil(t, advanced.CalmarRatio)
		assert.Greater(t, advanced.MaxDrawdownDuration, 0)

		assert.Equal(t, 30, advanced.RollingCorrelation.Window)
		assert.Len(t, advanced.RollingCorrelation.Values, 31)
		// Self correlation rolls flat at one
		assert.Equal(t, models.StabilityHigh, advanced.RollingCorrelation.Stability)
		assert.Equal(t, models.StabilityHigh, advanced.RollingBeta.Stability)
	})
}

func TestCaptureRatio(t *testing.T) {
	t.Run("splits up and down benchmark periods", func(t *testing.T) {
		entity := []float64{0.02, -0.01}
		benchmark := []float64{0.01, -0.02}

		assert.InDelta(t, 200.0, captureRatio(entity, benchmark, true), 1e-9)
		assert.InDelta(t, 50.0, captureRatio(entity, benchmark, false), 1e-9)
	})

	t.Run("no qualifying periods yields zero", func(t *testing.T) {
		assert.Zero(t, captureRatio([]float64{0.01}, []float64{0.01}, false))
		assert.Zero(t, captureRatio([]float64{-0.01}, []float64{-0.01}, true))
	})
}

func TestRollingWindow(t *testing.T) {
	sum := func(values []float64) func(lo, hi int) float64 {
		return func(lo, hi int) float64 {
			total := 0.0
			for _, v := range values[lo:hi] {
				total += v
			}
			return total
		}
	}

	t.Run("slides one step at a time", func(t *testing.T) {
		values := []float64{1, 2, 3, 4}
		assert.Equal(t, []float64{6, 9}, rollingWindow(len(values), 3, sum(values)))
	})

	t.Run("too short for the window", func(t *testing.T) {
		assert.Nil(t, rollingWindow(2, 3, sum([]float64{1, 2})))
	})
}

func TestStabilityOf(t *testing.T) {
	t.Run("short series counts as stable", func(t *testing.T) {
		assert.Equal(t, models.StabilityHigh, stabilityOf([]float64{0.5}))
		assert.Equal(t, models.StabilityHigh, stabilityOf(nil))
	})

	t.Run("classifies by standard deviation", func(t *testing.T) {
		assert.Equal(t, models.StabilityHigh, stabilityOf([]float64{0.50, 0.52, 0.51, 0.49}))
		assert.Equal(t, models.StabilityMedium, stabilityOf([]float64{0.30, 0.60, 0.45, 0.15}))
		assert.Equal(t, models.StabilityLow, stabilityOf([]float64{0.9, -0.9, 0.9, -0.9}))
	})
}
