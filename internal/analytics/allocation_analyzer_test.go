package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"analytics-api/internal/models"
)

func newTestAnalyzer() *AllocationAnalyzer {
	return NewAllocationAnalyzer(AllocationAnalyzerConfig{TopHoldings: 10})
}

func sectorPosition(symbol, sector string, value float64) models.Position {
	return models.Position{
		Symbol:       symbol,
		Quantity:     decimal.NewFromInt(1),
		CurrentPrice: decimal.NewFromFloat(value),
		Sector:       sector,
	}
}

func TestAllocationAnalyzer_Breakdown(t *testing.T) {
	analyzer := newTestAnalyzer()

	t.Run("technology versus diversified split", func(t *testing.T) {
		positions := []models.Position{
			sectorPosition("AAPL", "Technology", 1600),
			sectorPosition("MSFT", "Technology", 1600),
			sectorPosition("SPY", "Diversified", 8400),
		}

		breakdown := analyzer.Breakdown(positions, models.DimensionSector)

		assert.True(t, breakdown.TotalValue.Equal(decimal.NewFromInt(11600)))
		tech, _ := breakdown.Percent("Technology").Float64()
		diversified, _ := breakdown.Percent("Diversified").Float64()
		assert.InDelta(t, 27.59, tech, 0.1)
		assert.InDelta(t, 72.41, diversified, 0.1)
	})

	t.Run("percentages sum to one hundred", func(t *testing.T) {
		positions := []models.Position{
			sectorPosition("A", "One", 123.45),
			sectorPosition("B", "Two", 678.90),
			sectorPosition("C", "Three", 11.11),
		}

		breakdown := analyzer.Breakdown(positions, models.DimensionSector)

		sum := decimal.Zero
		for _, slice := range breakdown.Categories {
			sum = sum.Add(slice.Percent)
		}
		total, _ := sum.Float64()
		assert.InDelta(t, 100.0, total, 0.02)
	})

	t.Run("missing tags fall under Unknown", func(t *testing.T) {
		positions := []models.Position{sectorPosition("X", "", 100)}
		breakdown := analyzer.Breakdown(positions, models.DimensionSector)

		assert.Contains(t, breakdown.Categories, models.UnknownCategory)
	})

	t.Run("zero value portfolio has no categories", func(t *testing.T) {
		breakdown := analyzer.Breakdown(nil, models.DimensionSector)
		assert.Empty(t, breakdown.Categories)
	})
}

func TestAllocationAnalyzer_Concentration(t *testing.T) {
	analyzer := newTestAnalyzer()

	// equalPositions builds n equally sized holdings, HHI = 1/n
	equalPositions := func(n int) []models.Position {
		positions := make([]models.Position, n)
		for i := range positions {
			positions[i] = sectorPosition(string(rune('A'+i)), "Sector", 100)
		}
		return positions
	}

	t.Run("ten equal holdings are low concentration", func(t *testing.T) {
		report := analyzer.Concentration(equalPositions(10))

		assert.InDelta(t, 0.10, report.HerfindahlIndex, 1e-9)
		assert.Equal(t, models.ConcentrationLow, report.Level)
	})

	t.Run("five equal holdings are moderate", func(t *testing.T) {
		report := analyzer.Concentration(equalPositions(5))

		assert.InDelta(t, 0.20, report.HerfindahlIndex, 1e-9)
		assert.Equal(t, models.ConcentrationModerate, report.Level)
	})

	t.Run("three equal holdings are high", func(t *testing.T) {
		report := analyzer.Concentration(equalPositions(3))

		assert.InDelta(t, 1.0/3.0, report.HerfindahlIndex, 1e-9)
		assert.Equal(t, models.ConcentrationHigh, report.Level)
	})

	t.Run("top ten covers everything with three holdings", func(t *testing.T) {
		positions := []models.Position{
			sectorPosition("AAPL", "Technology", 1600),
			sectorPosition("MSFT", "Technology", 1600),
			sectorPosition("SPY", "Diversified", 8400),
		}

		report := analyzer.Concentration(positions)

		assert.Len(t, report.TopHoldings, 3)
		assert.Equal(t, "SPY", report.TopHoldings[0].Symbol)
		assert.InDelta(t, 100.0, report.Buckets.Top10, 1e-9)
		assert.Zero(t, report.Buckets.Remaining)
	})

	t.Run("largest holding leads the ranking", func(t *testing.T) {
		report := analyzer.Concentration(equalPositions(25))

		assert.Len(t, report.TopHoldings, 10)
		assert.InDelta(t, 4.0, report.Buckets.Top1, 1e-9)
		assert.InDelta(t, 80.0, report.Buckets.Top20, 1e-9)
		assert.InDelta(t, 20.0, report.Buckets.Remaining, 1e-9)
	})
}

func TestAllocationAnalyzer_DiversificationScore(t *testing.T) {
	analyzer := newTestAnalyzer()

	t.Run("single position scores poorly", func(t *testing.T) {
		positions := []models.Position{sectorPosition("AAPL", "Technology", 1000)}

		score := analyzer.DiversificationScore(positions)

		assert.Zero(t, score.Sector)
		assert.InDelta(t, 10.0, score.PositionCountScore, 1e-9)
		assert.LessOrEqual(t, score.Overall, 10.0)
	})

	t.Run("position count score brackets", func(t *testing.T) {
		assert.InDelta(t, 50.0, positionCountScore(5), 1e-9)
		assert.InDelta(t, 60.0, positionCountScore(10), 1e-9)
		assert.InDelta(t, 80.0, positionCountScore(20), 1e-9)
		assert.InDelta(t, 80.0, positionCountScore(50), 1e-9)
		assert.Zero(t, positionCountScore(0))
	})

	t.Run("overall stays within bounds", func(t *testing.T) {
		positions := []models.Position{
			{Symbol: "A", Quantity: decimal.NewFromInt(1), CurrentPrice: decimal.NewFromInt(100), Sector: "Tech", Industry: "Software", Country: "US", AssetType: "Stock"},
			{Symbol: "B", Quantity: decimal.NewFromInt(1), CurrentPrice: decimal.NewFromInt(100), Sector: "Health", Industry: "Pharma", Country: "DE", AssetType: "Stock"},
			{Symbol: "C", Quantity: decimal.NewFromInt(1), CurrentPrice: decimal.NewFromInt(100), Sector: "Energy", Industry: "Oil", Country: "UK", AssetType: "ETF"},
		}

		score := analyzer.DiversificationScore(positions)

		assert.GreaterOrEqual(t, score.Overall, 0.0)
		assert.LessOrEqual(t, score.Overall, 100.0)
		assert.Equal(t, 3, score.PositionCount)
	})
}
