package analytics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"analytics-api/internal/models"
	"analytics-api/internal/returns"
	"analytics-api/pkg/errors"
)

// Thresholds for classifying a pair's correlation strength
const (
	highCorrelationThreshold = 0.7
	lowCorrelationThreshold  = 0.3
)

// CorrelationAnalyzer measures pairwise return correlation across symbols
// to expose hidden concentration a category breakdown cannot see
type CorrelationAnalyzer struct{}

func NewCorrelationAnalyzer() *CorrelationAnalyzer {
	return &CorrelationAnalyzer{}
}

// CorrelationMatrix is the symmetric pairwise correlation of symbol return
// series. Pairs with fewer than 2 aligned observations carry a nil entry.
type CorrelationMatrix struct {
	Symbols []string           `json:"symbols"`
	Matrix  [][]*float64       `json:"matrix"`
	Summary CorrelationSummary `json:"summary"`
}

type CorrelationSummary struct {
	AverageCorrelation    *float64          `json:"average_correlation"`
	MaxCorrelation        *float64          `json:"max_correlation"`
	MinCorrelation        *float64          `json:"min_correlation"`
	HighlyCorrelatedPairs []CorrelationPair `json:"highly_correlated_pairs"`
	LowCorrelationPairs   []CorrelationPair `json:"low_correlation_pairs"`
}

type CorrelationPair struct {
	Symbol1     string  `json:"symbol1"`
	Symbol2     string  `json:"symbol2"`
	Correlation float64 `json:"correlation"`
	Strength    string  `json:"strength"`
}

// Analyze builds return series per symbol and computes the pairwise
// correlation matrix over date-aligned observations. Fewer than 2 symbols
// is InvalidInput.
func (ca *CorrelationAnalyzer) Analyze(priceHistory map[string][]models.PricePoint) (*CorrelationMatrix, error) {
	if len(priceHistory) < 2 {
		return nil, errors.NewInvalidInput("correlation analysis needs at least 2 symbols")
	}

	symbols := make([]string, 0, len(priceHistory))
	for symbol := range priceHistory {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	series := make([]returns.Series, len(symbols))
	for i, symbol := range symbols {
		series[i] = returns.Build(priceHistory[symbol])
	}

	matrix := make([][]*float64, len(symbols))
	for i := range matrix {
		matrix[i] = make([]*float64, len(symbols))
	}

	var pairs []CorrelationPair
	one := 1.0
	for i := range symbols {
		matrix[i][i] = &one
		for j := i + 1; j < len(symbols); j++ {
			correlation := pairCorrelation(series[i], series[j])
			matrix[i][j] = correlation
			matrix[j][i] = correlation
			if correlation == nil {
				continue
			}
			pairs = append(pairs, CorrelationPair{
				Symbol1:     symbols[i],
				Symbol2:     symbols[j],
				Correlation: *correlation,
				Strength:    correlationStrength(*correlation),
			})
		}
	}

	return &CorrelationMatrix{
		Symbols: symbols,
		Matrix:  matrix,
		Summary: summarizePairs(pairs),
	}, nil
}

// pairCorrelation aligns the two series by date and returns their Pearson
// correlation, nil when undefined
func pairCorrelation(a, b returns.Series) *float64 {
	alignedA, alignedB := returns.Align(a, b)
	if alignedA.Len() < 2 {
		return nil
	}
	return finitePtr(stat.Correlation(alignedA.Returns(), alignedB.Returns(), nil))
}

func correlationStrength(correlation float64) string {
	abs := correlation
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= highCorrelationThreshold:
		return "strong"
	case abs >= lowCorrelationThreshold:
		return "moderate"
	default:
		return "weak"
	}
}

func summarizePairs(pairs []CorrelationPair) CorrelationSummary {
	summary := CorrelationSummary{
		HighlyCorrelatedPairs: []CorrelationPair{},
		LowCorrelationPairs:   []CorrelationPair{},
	}
	if len(pairs) == 0 {
		return summary
	}

	sum := 0.0
	max := pairs[0].Correlation
	min := pairs[0].Correlation
	for _, pair := range pairs {
		sum += pair.Correlation
		if pair.Correlation > max {
			max = pair.Correlation
		}
		if pair.Correlation < min {
			min = pair.Correlation
		}
		switch {
		case pair.Correlation >= highCorrelationThreshold:
			summary.HighlyCorrelatedPairs = append(summary.HighlyCorrelatedPairs, pair)
		case pair.Correlation <= lowCorrelationThreshold:
			summary.LowCorrelationPairs = append(summary.LowCorrelationPairs, pair)
		}
	}

	average := sum / float64(len(pairs))
	summary.AverageCorrelation = &average
	summary.MaxCorrelation = &max
	summary.MinCorrelation = &min
	return summary
}
