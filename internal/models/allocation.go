package models

import (
	"github.com/shopspring/decimal"
)

// Dimension is a category axis positions are grouped by
type Dimension string

const (
	DimensionSector    Dimension = "sector"
	DimensionIndustry  Dimension = "industry"
	DimensionCountry   Dimension = "country"
	DimensionAssetType Dimension = "asset_type"
)

// Dimensions lists every supported allocation dimension
var Dimensions = []Dimension{
	DimensionSector,
	DimensionIndustry,
	DimensionCountry,
	DimensionAssetType,
}

// UnknownCategory is the sentinel for positions missing a tag
const UnknownCategory = "Unknown"

// Valid reports whether d is a supported dimension
func (d Dimension) Valid() bool {
	switch d {
	case DimensionSector, DimensionIndustry, DimensionCountry, DimensionAssetType:
		return true
	}
	return false
}

// CategoryKey is a typed (dimension, category) pair
type CategoryKey struct {
	Dimension Dimension `json:"dimension"`
	Category  string    `json:"category"`
}

// CategorySlice is one category's share of an allocation breakdown
type CategorySlice struct {
	Percent decimal.Decimal `json:"percent"`
	Value   decimal.Decimal `json:"value"`
}

// AllocationBreakdown maps category labels of one dimension to their share.
// Percentages sum to ~100 when total value is positive, the map is empty
// otherwise.
type AllocationBreakdown struct {
	Dimension  Dimension                `json:"dimension"`
	Categories map[string]CategorySlice `json:"categories"`
	TotalValue decimal.Decimal          `json:"total_value"`
}

// Percent returns the category's percentage, zero when absent
func (b AllocationBreakdown) Percent(category string) decimal.Decimal {
	if slice, ok := b.Categories[category]; ok {
		return slice.Percent
	}
	return decimal.Zero
}

// ConcentrationLevel buckets a portfolio's Herfindahl index
type ConcentrationLevel string

const (
	ConcentrationLow      ConcentrationLevel = "Low"
	ConcentrationModerate ConcentrationLevel = "Moderate"
	ConcentrationHigh     ConcentrationLevel = "High"
)

// HoldingWeight is one position's share of total portfolio value
type HoldingWeight struct {
	Symbol string          `json:"symbol"`
	Weight float64         `json:"weight"`
	Value  decimal.Decimal `json:"value"`
}

// ConcentrationBuckets holds cumulative weights of the largest holdings,
// in percent
type ConcentrationBuckets struct {
	Top1      float64 `json:"top_1"`
	Top5      float64 `json:"top_5"`
	Top10     float64 `json:"top_10"`
	Top20     float64 `json:"top_20"`
	Remaining float64 `json:"remaining"`
}

// ConcentrationReport describes how concentrated the portfolio is across
// individual positions
type ConcentrationReport struct {
	HerfindahlIndex float64              `json:"herfindahl_index"`
	Level           ConcentrationLevel   `json:"level"`
	TopHoldings     []HoldingWeight      `json:"top_holdings"`
	Buckets         ConcentrationBuckets `json:"buckets"`
}

// DiversificationScore is the composite 0-100 diversification rating
type DiversificationScore struct {
	Sector             float64 `json:"sector"`
	Industry           float64 `json:"industry"`
	Country            float64 `json:"country"`
	AssetType          float64 `json:"asset_type"`
	PositionCount      int     `json:"position_count"`
	PositionCountScore float64 `json:"position_count_score"`
	Overall            float64 `json:"overall"`
}

// TargetAllocation is the caller-supplied target, percent per category per
// dimension. Dimensions absent from the map are skipped by drift detection.
type TargetAllocation map[Dimension]map[string]decimal.Decimal

// RebalanceAction says which way a category should move
type RebalanceAction string

const (
	ActionIncrease RebalanceAction = "increase"
	ActionDecrease RebalanceAction = "decrease"
)

// DriftEntry is one category's deviation from its target
type DriftEntry struct {
	Dimension        Dimension       `json:"dimension"`
	Category         string          `json:"category"`
	Current          decimal.Decimal `json:"current"`
	Target           decimal.Decimal `json:"target"`
	Drift            decimal.Decimal `json:"drift"`
	DriftPercent     decimal.Decimal `json:"drift_percent"`
	NeedsRebalancing bool            `json:"needs_rebalancing"`
}

// RebalanceRecommendation is the suggested correction for a drifted category
type RebalanceRecommendation struct {
	Dimension Dimension       `json:"dimension"`
	Category  string          `json:"category"`
	Current   decimal.Decimal `json:"current"`
	Target    decimal.Decimal `json:"target"`
	Action    RebalanceAction `json:"action"`
}

// DriftReport is the outcome of comparing current against target allocation
type DriftReport struct {
	Tolerance       decimal.Decimal           `json:"tolerance"`
	Entries         []DriftEntry              `json:"entries"`
	Recommendations []RebalanceRecommendation `json:"recommendations"`
	TotalDriftScore decimal.Decimal           `json:"total_drift_score"`
}
