package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"analytics-api/internal/models"
	"analytics-api/pkg/errors"
)

// DriftDetector compares the current allocation against a target and flags
// categories whose deviation exceeds the tolerance, in percentage points
type DriftDetector struct {
	analyzer  *AllocationAnalyzer
	tolerance decimal.Decimal
}

type DriftDetectorConfig struct {
	Tolerance float64
}

func NewDriftDetector(analyzer *AllocationAnalyzer, config DriftDetectorConfig) *DriftDetector {
	tolerance := decimal.NewFromFloat(config.Tolerance)
	if !tolerance.IsPositive() {
		tolerance = decimal.NewFromInt(5)
	}
	return &DriftDetector{
		analyzer:  analyzer,
		tolerance: tolerance,
	}
}

// Detect measures drift for every dimension the target names. Categories
// present on either side are compared, a missing side counts as zero.
// Recommendations cover only the entries outside tolerance.
func (dd *DriftDetector) Detect(positions []models.Position, target models.TargetAllocation) (*models.DriftReport, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}

	report := &models.DriftReport{
		Tolerance:       dd.tolerance,
		Entries:         []models.DriftEntry{},
		Recommendations: []models.RebalanceRecommendation{},
	}

	hundred := decimal.NewFromInt(100)
	totalDrift := decimal.Zero

	for _, dimension := range models.Dimensions {
		targets, ok := target[dimension]
		if !ok {
			continue
		}
		breakdown := dd.analyzer.Breakdown(positions, dimension)

		for _, category := range unionCategories(breakdown, targets) {
			current := breakdown.Percent(category)
			targetPct := targets[category]
			drift := current.Sub(targetPct)

			driftPercent := hundred
			if targetPct.IsPositive() {
				driftPercent = drift.Abs().Div(targetPct).Mul(hundred)
			}

			entry := models.DriftEntry{
				Dimension:        dimension,
				Category:         category,
				Current:          current,
				Target:           targetPct,
				Drift:            drift,
				DriftPercent:     driftPercent,
				NeedsRebalancing: drift.Abs().GreaterThan(dd.tolerance),
			}
			report.Entries = append(report.Entries, entry)
			totalDrift = totalDrift.Add(drift.Abs())

			if !entry.NeedsRebalancing {
				continue
			}
			action := models.ActionDecrease
			if drift.IsNegative() {
				action = models.ActionIncrease
			}
			report.Recommendations = append(report.Recommendations, models.RebalanceRecommendation{
				Dimension: dimension,
				Category:  category,
				Current:   current,
				Target:    targetPct,
				Action:    action,
			})
		}
	}

	if len(report.Entries) > 0 {
		report.TotalDriftScore = totalDrift.Div(decimal.NewFromInt(int64(len(report.Entries))))
	}

	logrus.WithFields(logrus.Fields{
		"entries":         len(report.Entries),
		"recommendations": len(report.Recommendations),
	}).Debug("Allocation drift detected")

	return report, nil
}

func validateTarget(target models.TargetAllocation) error {
	if len(target) == 0 {
		return errors.NewInvalidInput("target allocation is empty")
	}
	for dimension, targets := range target {
		if !dimension.Valid() {
			return errors.NewInvalidInput("unknown allocation dimension", string(dimension))
		}
		for category, percent := range targets {
			if percent.IsNegative() {
				return errors.NewInvalidInput("target percentage must not be negative", string(dimension), category)
			}
		}
	}
	return nil
}

// unionCategories merges current and target category labels, sorted for
// deterministic report order
func unionCategories(breakdown models.AllocationBreakdown, targets map[string]decimal.Decimal) []string {
	seen := make(map[string]bool, len(breakdown.Categories)+len(targets))
	for category := range breakdown.Categories {
		seen[category] = true
	}
	for category := range targets {
		seen[category] = true
	}
	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
