package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"analytics-api/internal/models"
)

// Weights of the per-dimension diversification components
const (
	sectorWeight    = 0.25
	industryWeight  = 0.20
	countryWeight   = 0.25
	assetTypeWeight = 0.15
	countWeight     = 0.15
)

// AllocationAnalyzer groups positions by category dimension and measures
// how concentrated the result is
type AllocationAnalyzer struct {
	topHoldings int
}

type AllocationAnalyzerConfig struct {
	TopHoldings int
}

func NewAllocationAnalyzer(config AllocationAnalyzerConfig) *AllocationAnalyzer {
	topHoldings := config.TopHoldings
	if topHoldings <= 0 {
		topHoldings = 10
	}
	return &AllocationAnalyzer{
		topHoldings: topHoldings,
	}
}

// Breakdown groups positions along one dimension, with each category's
// share of total market value. Positions missing the tag fall under
// "Unknown". A zero-value portfolio yields an empty category map.
func (aa *AllocationAnalyzer) Breakdown(positions []models.Position, dimension models.Dimension) models.AllocationBreakdown {
	hundred := decimal.NewFromInt(100)

	valueByCategory := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, position := range positions {
		value := position.MarketValue()
		category := position.Category(dimension)
		valueByCategory[category] = valueByCategory[category].Add(value)
		total = total.Add(value)
	}

	breakdown := models.AllocationBreakdown{
		Dimension:  dimension,
		Categories: make(map[string]models.CategorySlice),
		TotalValue: total,
	}
	if !total.IsPositive() {
		return breakdown
	}

	for category, value := range valueByCategory {
		breakdown.Categories[category] = models.CategorySlice{
			Percent: value.Div(total).Mul(hundred).Round(2),
			Value:   value,
		}
	}
	return breakdown
}

// Breakdowns computes the allocation along every supported dimension
func (aa *AllocationAnalyzer) Breakdowns(positions []models.Position) map[models.Dimension]models.AllocationBreakdown {
	breakdowns := make(map[models.Dimension]models.AllocationBreakdown, len(models.Dimensions))
	for _, dimension := range models.Dimensions {
		breakdowns[dimension] = aa.Breakdown(positions, dimension)
	}
	return breakdowns
}

// Concentration ranks holdings by weight and reports the Herfindahl index,
// its Low/Moderate/High classification, the largest holdings, and the
// cumulative top-1/5/10/20 buckets.
func (aa *AllocationAnalyzer) Concentration(positions []models.Position) models.ConcentrationReport {
	weights := holdingWeights(positions)

	hhi := 0.0
	for _, holding := range weights {
		hhi += holding.Weight * holding.Weight
	}

	report := models.ConcentrationReport{
		HerfindahlIndex: hhi,
		Level:           concentrationLevel(hhi),
		Buckets:         concentrationBuckets(weights),
	}

	top := aa.topHoldings
	if top > len(weights) {
		top = len(weights)
	}
	report.TopHoldings = weights[:top]
	return report
}

// DiversificationScore blends the per-dimension Herfindahl scores with a
// position-count score into a single 0-100 rating
func (aa *AllocationAnalyzer) DiversificationScore(positions []models.Position) models.DiversificationScore {
	score := models.DiversificationScore{
		Sector:        aa.dimensionScore(positions, models.DimensionSector),
		Industry:      aa.dimensionScore(positions, models.DimensionIndustry),
		Country:       aa.dimensionScore(positions, models.DimensionCountry),
		AssetType:     aa.dimensionScore(positions, models.DimensionAssetType),
		PositionCount: len(positions),
	}
	score.PositionCountScore = positionCountScore(len(positions))
	score.Overall = clamp(
		sectorWeight*score.Sector+
			industryWeight*score.Industry+
			countryWeight*score.Country+
			assetTypeWeight*score.AssetType+
			countWeight*score.PositionCountScore,
		0, 100)
	return score
}

// dimensionScore is (1 - HHI) * 100 over the dimension's category weights
func (aa *AllocationAnalyzer) dimensionScore(positions []models.Position, dimension models.Dimension) float64 {
	breakdown := aa.Breakdown(positions, dimension)
	if len(breakdown.Categories) == 0 {
		return 0
	}
	hhi := 0.0
	for _, slice := range breakdown.Categories {
		weight, _ := slice.Percent.Div(decimal.NewFromInt(100)).Float64()
		hhi += weight * weight
	}
	return clamp((1-hhi)*100, 0, 100)
}

// holdingWeights returns per-symbol weights sorted largest first. Weights
// are fractions of total value, zero when the portfolio has no value.
func holdingWeights(positions []models.Position) []models.HoldingWeight {
	total := decimal.Zero
	for _, position := range positions {
		total = total.Add(position.MarketValue())
	}

	weights := make([]models.HoldingWeight, 0, len(positions))
	for _, position := range positions {
		value := position.MarketValue()
		weight := 0.0
		if total.IsPositive() {
			weight, _ = value.Div(total).Float64()
		}
		weights = append(weights, models.HoldingWeight{
			Symbol: position.Symbol,
			Weight: weight,
			Value:  value,
		})
	}

	sort.Slice(weights, func(i, j int) bool {
		if weights[i].Weight != weights[j].Weight {
			return weights[i].Weight > weights[j].Weight
		}
		return weights[i].Symbol < weights[j].Symbol
	})
	return weights
}

func concentrationBuckets(weights []models.HoldingWeight) models.ConcentrationBuckets {
	cumulative := func(n int) float64 {
		if n > len(weights) {
			n = len(weights)
		}
		sum := 0.0
		for _, holding := range weights[:n] {
			sum += holding.Weight
		}
		return sum * 100
	}

	buckets := models.ConcentrationBuckets{
		Top1:  cumulative(1),
		Top5:  cumulative(5),
		Top10: cumulative(10),
		Top20: cumulative(20),
	}
	if len(weights) > 20 {
		buckets.Remaining = cumulative(len(weights)) - buckets.Top20
	}
	return buckets
}

func concentrationLevel(hhi float64) models.ConcentrationLevel {
	switch {
	case hhi < 0.15:
		return models.ConcentrationLow
	case hhi < 0.25:
		return models.ConcentrationModerate
	default:
		return models.ConcentrationHigh
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func positionCountScore(count int) float64 {
	switch {
	case count <= 0:
		return 0
	case count <= 5:
		return float64(count) * 10
	case count <= 20:
		return 50 + float64(count-5)*2
	default:
		return 80
	}
}
