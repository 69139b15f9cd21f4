package models

import (
	"time"

	"github.com/shopspring/decimal"

	"analytics-api/pkg/errors"
)

// Position represents a single holding supplied by the caller. Market value
// and P&L are derived, never stored: any read reflects quantity and price at
// read time.
type Position struct {
	Symbol       string          `json:"symbol" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	AverageCost  decimal.Decimal `json:"average_cost"`
	CurrentPrice decimal.Decimal `json:"current_price"`

	// Category tags; empty tags resolve to the Unknown sentinel
	Sector    string `json:"sector,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Country   string `json:"country,omitempty"`
	AssetType string `json:"asset_type,omitempty"`
}

// MarketValue returns quantity x current price
func (p *Position) MarketValue() decimal.Decimal {
	return p.Quantity.Mul(p.CurrentPrice)
}

// CostBasis returns quantity x average cost
func (p *Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.AverageCost)
}

// UnrealizedPnL returns market value minus cost basis
func (p *Position) UnrealizedPnL() decimal.Decimal {
	return p.MarketValue().Sub(p.CostBasis())
}

// UnrealizedPnLPercent returns unrealized P&L relative to cost basis,
// zero when nothing was invested
func (p *Position) UnrealizedPnLPercent() decimal.Decimal {
	cost := p.CostBasis()
	if cost.IsZero() {
		return decimal.Zero
	}
	return p.UnrealizedPnL().Div(cost).Mul(decimal.NewFromInt(100))
}

// Category returns the position's tag for the given dimension, with the
// Unknown sentinel for missing tags
func (p *Position) Category(dimension Dimension) string {
	var tag string
	switch dimension {
	case DimensionSector:
		tag = p.Sector
	case DimensionIndustry:
		tag = p.Industry
	case DimensionCountry:
		tag = p.Country
	case DimensionAssetType:
		tag = p.AssetType
	}
	if tag == "" {
		return UnknownCategory
	}
	return tag
}

// Validate validates the position data
func (p *Position) Validate() error {
	if p.Symbol == "" {
		return errors.NewInvalidInput("position symbol is required")
	}
	if p.Quantity.IsNegative() {
		return errors.NewInvalidInput("position quantity cannot be negative", p.Symbol)
	}
	if p.AverageCost.IsNegative() {
		return errors.NewInvalidInput("position average cost cannot be negative", p.Symbol)
	}
	if p.CurrentPrice.IsNegative() {
		return errors.NewInvalidInput("position current price cannot be negative", p.Symbol)
	}
	return nil
}

// Pie is a named group of positions inside a portfolio
type Pie struct {
	ID        string     `json:"id" validate:"required"`
	Name      string     `json:"name"`
	Positions []Position `json:"positions"`
}

// EntityType identifies what a return series belongs to
type EntityType string

const (
	EntityPortfolio EntityType = "portfolio"
	EntityPie       EntityType = "pie"
	EntityBenchmark EntityType = "benchmark"
)

// EntityRef identifies an analyzed entity
type EntityRef struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id"`
	Name string     `json:"name"`
}

// Period is the date range an analysis covers
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PricePoint is one (date, price) observation of an entity or symbol
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}
