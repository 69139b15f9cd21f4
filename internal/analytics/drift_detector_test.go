package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"analytics-api/internal/models"
	"analytics-api/pkg/errors"
)

func newTestDetector(tolerance float64) *DriftDetector {
	return NewDriftDetector(newTestAnalyzer(), DriftDetectorConfig{Tolerance: tolerance})
}

// 60% Technology, 40% Diversified by market value
func driftedPositions() []models.Position {
	return []models.Position{
		sectorPosition("AAPL", "Technology", 6000),
		sectorPosition("SPY", "Diversified", 4000),
	}
}

func sectorTarget(targets map[string]float64) models.TargetAllocation {
	sector := make(map[string]decimal.Decimal, len(targets))
	for category, percent := range targets {
		sector[category] = decimal.NewFromFloat(percent)
	}
	return models.TargetAllocation{models.DimensionSector: sector}
}

func findEntry(t *testing.T, report *models.DriftReport, category string) models.DriftEntry {
	t.Helper()
	for _, entry := range report.Entries {
		if entry.Category == category {
			return entry
		}
	}
	t.Fatalf("no drift entry for %s", category)
	return models.DriftEntry{}
}

func TestDriftDetector_Detect(t *testing.T) {
	t.Run("overweight sector needs decreasing", func(t *testing.T) {
		detector := newTestDetector(5)
		target := sectorTarget(map[string]float64{"Technology": 50, "Diversified": 50})

		report, err := detector.Detect(driftedPositions(), target)

		assert.NoError(t, err)
		tech := findEntry(t, report, "Technology")
		assert.True(t, tech.Drift.Equal(decimal.NewFromInt(10)), tech.Drift.String())
		assert.True(t, tech.NeedsRebalancing)

		diversified := findEntry(t, report, "Diversified")
		assert.True(t, diversified.Drift.Equal(decimal.NewFromInt(-10)))

		assert.Len(t, report.Recommendations, 2)
		for _, recommendation := range report.Recommendations {
			if recommendation.Category == "Technology" {
				assert.Equal(t, models.ActionDecrease, recommendation.Action)
			} else {
				assert.Equal(t, models.ActionIncrease, recommendation.Action)
			}
		}
	})

	t.Run("wide tolerance suppresses rebalancing", func(t *testing.T) {
		detector := newTestDetector(15)
		target := sectorTarget(map[string]float64{"Technology": 50, "Diversified": 50})

		report, err := detector.Detect(driftedPositions(), target)

		assert.NoError(t, err)
		assert.False(t, findEntry(t, report, "Technology").NeedsRebalancing)
		assert.Empty(t, report.Recommendations)
	})

	t.Run("drift percent against a zero target", func(t *testing.T) {
		detector := newTestDetector(5)
		target := sectorTarget(map[string]float64{"Technology": 0, "Diversified": 100})

		report, err := detector.Detect(driftedPositions(), target)

		assert.NoError(t, err)
		tech := findEntry(t, report, "Technology")
		assert.True(t, tech.DriftPercent.Equal(decimal.NewFromInt(100)), tech.DriftPercent.String())
	})

	t.Run("category held but absent from target counts as zero target", func(t *testing.T) {
		detector := newTestDetector(5)
		target := sectorTarget(map[string]float64{"Technology": 100})

		report, err := detector.Detect(driftedPositions(), target)

		assert.NoError(t, err)
		diversified := findEntry(t, report, "Diversified")
		assert.True(t, diversified.Drift.Equal(decimal.NewFromInt(40)))
		assert.True(t, diversified.NeedsRebalancing)
		for _, recommendation := range report.Recommendations {
			if recommendation.Category == "Diversified" {
				assert.Equal(t, models.ActionDecrease, recommendation.Action)
			}
		}
	})

	t.Run("dimensions absent from target are skipped", func(t *testing.T) {
		detector := newTestDetector(5)
		target := sectorTarget(map[string]float64{"Technology": 50, "Diversified": 50})

		report, err := detector.Detect(driftedPositions(), target)

		assert.NoError(t, err)
		for _, entry := range report.Entries {
			assert.Equal(t, models.DimensionSector, entry.Dimension)
		}
	})

	t.Run("total drift score is the mean absolute drift", func(t *testing.T) {
		detector := newTestDetector(5)
		target := sectorTarget(map[string]float64{"Technology": 50, "Diversified": 50})

		report, err := detector.Detect(driftedPositions(), target)

		assert.NoError(t, err)
		assert.True(t, report.TotalDriftScore.Equal(decimal.NewFromInt(10)), report.TotalDriftScore.String())
	})

	t.Run("rejects negative target percentages", func(t *testing.T) {
		detector := newTestDetector(5)
		target := sectorTarget(map[string]float64{"Technology": -10, "Diversified": 110})

		_, err := detector.Detect(driftedPositions(), target)
		assert.True(t, errors.IsInvalidInput(err))
	})

	t.Run("rejects an empty target", func(t *testing.T) {
		detector := newTestDetector(5)
		_, err := detector.Detect(driftedPositions(), models.TargetAllocation{})
		assert.True(t, errors.IsInvalidInput(err))
	})

	t.Run("rejects unknown dimensions", func(t *testing.T) {
		detector := newTestDetector(5)
		target := models.TargetAllocation{
			models.Dimension("region"): {"EU": decimal.NewFromInt(100)},
		}

		_, err := detector.Detect(driftedPositions(), target)
		assert.True(t, errors.IsInvalidInput(err))
	})
}
