package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

func trendResult(score int, risk models.RiskLevel, domains ...string) models.ScanResult {
	trackers := make([]models.TrackerInfo, len(domains))
	for i, d := range domains {
		trackers[i] = models.TrackerInfo{TrackerType: "t", Domain: d, Category: models.CategoryAnalytics, RiskLevel: models.RiskLow}
	}
	return models.ScanResult{
		URL:       "https://example.com/",
		Timestamp: time.Now(),
		Trackers:  trackers,
		PrivacyAnalysis: models.PrivacyAnalysis{
			PrivacyScore: score,
			RiskLevel:    risk,
		},
	}
}

func TestComputeTrendSeriesAreIndexAligned(t *testing.T) {
	byPeriod := map[string][]models.ScanResult{
		"2026-08-01": {trendResult(90, models.RiskLow, "a.example")},
		"2026-08-02": nil, // no scans this day
		"2026-08-03": {
			trendResult(60, models.RiskHigh, "a.example", "b.example"),
			trendResult(80, models.RiskMedium, "a.example"),
		},
	}

	trend := ComputeTrend(byPeriod, models.PeriodDaily)

	require.Equal(t, []string{"2026-08-01", "2026-08-02", "2026-08-03"}, trend.Labels)
	require.Len(t, trend.PrivacyScoreTrend, 3)
	require.Len(t, trend.TrackerCountTrend, 3)
	require.Len(t, trend.DomainCountTrend, 3)
	for level, series := range trend.RiskDistribution {
		assert.Len(t, series, 3, "risk level %s", level)
	}

	assert.Equal(t, 90.0, trend.PrivacyScoreTrend[0])
	assert.Equal(t, 70.0, trend.PrivacyScoreTrend[2], "average of 60 and 80")

	// The empty period is zero-filled, not skipped.
	assert.Equal(t, 0.0, trend.PrivacyScoreTrend[1])
	assert.Equal(t, 0, trend.TrackerCountTrend[1])
	assert.Equal(t, 0, trend.DomainCountTrend[1])

	assert.Equal(t, 3, trend.TrackerCountTrend[2])
	assert.Equal(t, 2, trend.DomainCountTrend[2], "domains deduplicated within a period")

	assert.Equal(t, 1, trend.RiskDistribution[string(models.RiskHigh)][2])
	assert.Equal(t, 1, trend.RiskDistribution[string(models.RiskMedium)][2])
	assert.Equal(t, 0, trend.RiskDistribution[string(models.RiskCritical)][2])
}

func TestComputeTrendEmptyInput(t *testing.T) {
	trend := ComputeTrend(map[string][]models.ScanResult{}, models.PeriodWeekly)
	assert.Equal(t, models.PeriodWeekly, trend.Period)
	assert.Empty(t, trend.Labels)
	assert.Empty(t, trend.PrivacyScoreTrend)
}

func TestComputeTrendLabelsSorted(t *testing.T) {
	byPeriod := map[string][]models.ScanResult{
		"2026-03": {trendResult(50, models.RiskMedium)},
		"2026-01": {trendResult(90, models.RiskLow)},
		"2026-02": {trendResult(70, models.RiskLow)},
	}
	trend := ComputeTrend(byPeriod, models.PeriodMonthly)
	assert.Equal(t, []string{"2026-01", "2026-02", "2026-03"}, trend.Labels)
	assert.Equal(t, []float64{90, 70, 50}, trend.PrivacyScoreTrend)
}
