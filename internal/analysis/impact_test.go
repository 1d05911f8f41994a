package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

func scanResult(url string, trackers ...models.TrackerInfo) models.ScanResult {
	return models.ScanResult{
		URL:       url,
		Timestamp: time.Now(),
		Trackers:  trackers,
		PrivacyAnalysis: models.PrivacyAnalysis{
			PrivacyScore: 100 - 10*len(trackers),
			RiskLevel:    models.RiskLow,
		},
	}
}

func regulatedTracker(risk models.RiskLevel, category models.TrackerCategory, domain string) models.TrackerInfo {
	return models.TrackerInfo{
		TrackerType: "test",
		Domain:      domain,
		Category:    category,
		RiskLevel:   risk,
		Details:     map[string]interface{}{"gdpr_relevant": true, "ccpa_relevant": true},
	}
}

func TestComputeIndexEmptyInput(t *testing.T) {
	a := NewImpactAnalyzer(models.DefaultIndexPolicy())
	index := a.ComputeIndex(nil, nil)

	assert.Zero(t, index.Score)
	assert.Equal(t, "unknown", index.RiskCategory)
	assert.Empty(t, index.Factors)
	assert.Equal(t, models.TrendStable, index.Trending)
}

func TestComputeIndexCleanScansScoreHigh(t *testing.T) {
	a := NewImpactAnalyzer(models.DefaultIndexPolicy())
	index := a.ComputeIndex([]models.ScanResult{
		scanResult("https://a.example/"),
		scanResult("https://b.example/"),
	}, nil)

	assert.Equal(t, 100.0, index.Score)
	assert.Equal(t, string(models.RiskLow), index.RiskCategory)
	assert.Equal(t, 100.0, index.ComplianceScore)
	require.Len(t, index.Factors, 5)
	for name, value := range index.Factors {
		assert.Equal(t, 100.0, value, "factor %s", name)
	}
}

func TestComputeIndexFactorsReactToTrackers(t *testing.T) {
	a := NewImpactAnalyzer(models.DefaultIndexPolicy())

	heavy := []models.ScanResult{scanResult("https://a.example/",
		regulatedTracker(models.RiskCritical, models.CategoryPrivacyInvasion, "fp.example"),
		regulatedTracker(models.RiskHigh, models.CategoryAdvertising, "ads.example"),
		regulatedTracker(models.RiskHigh, models.CategorySocialAdvertising, "social.example"),
	)}
	light := []models.ScanResult{scanResult("https://a.example/",
		regulatedTracker(models.RiskLow, models.CategoryPerformance, "perf.example"),
	)}

	heavyIndex := a.ComputeIndex(heavy, nil)
	lightIndex := a.ComputeIndex(light, nil)

	assert.Less(t, heavyIndex.Score, lightIndex.Score)
	assert.Less(t, heavyIndex.Factors[FactorRiskSeverity], lightIndex.Factors[FactorRiskSeverity])
	assert.Less(t, heavyIndex.Factors[FactorCategorySpread], lightIndex.Factors[FactorCategorySpread])
}

func TestComputeIndexRiskCategories(t *testing.T) {
	assert.Equal(t, string(models.RiskLow), riskCategory(85))
	assert.Equal(t, string(models.RiskMedium), riskCategory(65))
	assert.Equal(t, string(models.RiskHigh), riskCategory(45))
	assert.Equal(t, string(models.RiskCritical), riskCategory(20))
	// Boundaries land in the better bucket.
	assert.Equal(t, string(models.RiskLow), riskCategory(80))
	assert.Equal(t, string(models.RiskMedium), riskCategory(60))
	assert.Equal(t, string(models.RiskHigh), riskCategory(40))
}

func TestComputeIndexTrending(t *testing.T) {
	a := NewImpactAnalyzer(models.DefaultIndexPolicy())

	clean := []models.ScanResult{scanResult("https://a.example/")}
	heavy := []models.ScanResult{scanResult("https://a.example/",
		regulatedTracker(models.RiskCritical, models.CategoryPrivacyInvasion, "fp.example"),
		regulatedTracker(models.RiskHigh, models.CategoryAdvertising, "ads.example"),
		regulatedTracker(models.RiskHigh, models.CategorySocialAdvertising, "social.example"),
		regulatedTracker(models.RiskHigh, models.CategoryUserExperience, "replay.example"),
	)}

	assert.Equal(t, models.TrendDegrading, a.ComputeIndex(heavy, clean).Trending)
	assert.Equal(t, models.TrendImproving, a.ComputeIndex(clean, heavy).Trending)
	assert.Equal(t, models.TrendStable, a.ComputeIndex(clean, clean).Trending)
}

func TestComputeIndexThirdPartyExposure(t *testing.T) {
	a := NewImpactAnalyzer(models.DefaultIndexPolicy())

	// Tracker domain equals the page host: no third-party exposure.
	firstParty := []models.ScanResult{scanResult("https://shop.example/",
		regulatedTracker(models.RiskLow, models.CategoryAnalytics, "shop.example"),
	)}
	thirdParty := []models.ScanResult{scanResult("https://shop.example/",
		regulatedTracker(models.RiskLow, models.CategoryAnalytics, "stats.vendor.example"),
	)}

	assert.Equal(t, 100.0, a.ComputeIndex(firstParty, nil).Factors[FactorThirdPartyExposure])
	assert.Equal(t, 0.0, a.ComputeIndex(thirdParty, nil).Factors[FactorThirdPartyExposure])
}

func TestComplianceScoreBlendsRegulatedShare(t *testing.T) {
	a := NewImpactAnalyzer(models.DefaultIndexPolicy())

	unregulated := models.TrackerInfo{
		TrackerType: "test",
		Domain:      "perf.example",
		Category:    models.CategoryPerformance,
		RiskLevel:   models.RiskLow,
		Details:     map[string]interface{}{"gdpr_relevant": false, "ccpa_relevant": false},
	}

	regulated := a.ComputeIndex([]models.ScanResult{scanResult("https://a.example/",
		regulatedTracker(models.RiskLow, models.CategoryPerformance, "perf.example"),
	)}, nil)
	clear := a.ComputeIndex([]models.ScanResult{scanResult("https://a.example/", unregulated)}, nil)

	assert.Less(t, regulated.ComplianceScore, clear.ComplianceScore)
}
