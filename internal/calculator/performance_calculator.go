package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"analytics-api/internal/models"
)

// PerformanceCalculator aggregates position-level value and unrealized P&L
// into portfolio and pie summaries. All sums stay in decimal.
type PerformanceCalculator struct{}

func NewPerformanceCalculator() *PerformanceCalculator {
	return &PerformanceCalculator{}
}

// PositionPerformance is one holding's contribution
type PositionPerformance struct {
	Symbol               string          `json:"symbol"`
	MarketValue          decimal.Decimal `json:"market_value"`
	CostBasis            decimal.Decimal `json:"cost_basis"`
	UnrealizedPnL        decimal.Decimal `json:"unrealized_pnl"`
	UnrealizedPnLPercent decimal.Decimal `json:"unrealized_pnl_percent"`
	Weight               decimal.Decimal `json:"weight"`
}

// PieSummary is the aggregate of one pie
type PieSummary struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	TotalValue           decimal.Decimal `json:"total_value"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	UnrealizedPnL        decimal.Decimal `json:"unrealized_pnl"`
	UnrealizedPnLPercent decimal.Decimal `json:"unrealized_pnl_percent"`
	Positions            int             `json:"positions"`
}

// PortfolioSummary is the whole-portfolio aggregate: every pie plus the
// unattached positions
type PortfolioSummary struct {
	TotalValue           decimal.Decimal       `json:"total_value"`
	TotalCost            decimal.Decimal       `json:"total_cost"`
	UnrealizedPnL        decimal.Decimal       `json:"unrealized_pnl"`
	UnrealizedPnLPercent decimal.Decimal       `json:"unrealized_pnl_percent"`
	Positions            []PositionPerformance `json:"positions"`
	Pies                 []PieSummary          `json:"pies"`
}

// Summarize aggregates the portfolio. Weights are shares of total market
// value, zero on a valueless portfolio. Positions are ranked by value.
func (pc *PerformanceCalculator) Summarize(pies []models.Pie, unattached []models.Position) *PortfolioSummary {
	summary := &PortfolioSummary{
		Positions: []PositionPerformance{},
		Pies:      make([]PieSummary, 0, len(pies)),
	}

	var all []models.Position
	for _, pie := range pies {
		summary.Pies = append(summary.Pies, pc.summarizePie(pie))
		all = append(all, pie.Positions...)
	}
	all = append(all, unattached...)

	for _, position := range all {
		summary.TotalValue = summary.TotalValue.Add(position.MarketValue())
		summary.TotalCost = summary.TotalCost.Add(position.CostBasis())
	}
	summary.UnrealizedPnL = summary.TotalValue.Sub(summary.TotalCost)
	summary.UnrealizedPnLPercent = pnlPercent(summary.UnrealizedPnL, summary.TotalCost)

	for _, position := range all {
		weight := decimal.Zero
		if summary.TotalValue.IsPositive() {
			weight = position.MarketValue().Div(summary.TotalValue).Mul(decimal.NewFromInt(100)).Round(2)
		}
		summary.Positions = append(summary.Positions, PositionPerformance{
			Symbol:               position.Symbol,
			MarketValue:          position.MarketValue(),
			CostBasis:            position.CostBasis(),
			UnrealizedPnL:        position.UnrealizedPnL(),
			UnrealizedPnLPercent: position.UnrealizedPnLPercent().Round(2),
			Weight:               weight,
		})
	}

	sort.Slice(summary.Positions, func(i, j int) bool {
		if !summary.Positions[i].MarketValue.Equal(summary.Positions[j].MarketValue) {
			return summary.Positions[i].MarketValue.GreaterThan(summary.Positions[j].MarketValue)
		}
		return summary.Positions[i].Symbol < summary.Positions[j].Symbol
	})

	return summary
}

func (pc *PerformanceCalculator) summarizePie(pie models.Pie) PieSummary {
	summary := PieSummary{
		ID:        pie.ID,
		Name:      pie.Name,
		Positions: len(pie.Positions),
	}
	for _, position := range pie.Positions {
		summary.TotalValue = summary.TotalValue.Add(position.MarketValue())
		summary.TotalCost = summary.TotalCost.Add(position.CostBasis())
	}
	summary.UnrealizedPnL = summary.TotalValue.Sub(summary.TotalCost)
	summary.UnrealizedPnLPercent = pnlPercent(summary.UnrealizedPnL, summary.TotalCost)
	return summary
}

// pnlPercent is P&L relative to cost, zero when nothing was invested
func pnlPercent(pnl, cost decimal.Decimal) decimal.Decimal {
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return pnl.Div(cost).Mul(decimal.NewFromInt(100)).Round(2)
}
