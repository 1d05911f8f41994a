package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

func tracker(risk models.RiskLevel, category models.TrackerCategory, domain string) models.TrackerInfo {
	return models.TrackerInfo{
		TrackerType: "test",
		Domain:      domain,
		Category:    category,
		RiskLevel:   risk,
		Confidence:  1.0,
	}
}

func TestScoreEmptyIsPerfect(t *testing.T) {
	s := NewPrivacyScorer(models.DefaultScorePolicy())
	assert.Equal(t, 100, s.Score(nil))
}

func TestScoreAppliesPenaltiesAndSurcharge(t *testing.T) {
	s := NewPrivacyScorer(models.DefaultScorePolicy())

	// One high-risk advertising tracker: 100 - 15 - 5 surcharge.
	score := s.Score([]models.TrackerInfo{
		tracker(models.RiskHigh, models.CategoryAdvertising, "ads.example"),
	})
	assert.Equal(t, 80, score)

	// A non-intrusive category takes no surcharge.
	score = s.Score([]models.TrackerInfo{
		tracker(models.RiskMedium, models.CategoryAnalytics, "stats.example"),
	})
	assert.Equal(t, 90, score)
}

func TestScoreClampsAtZero(t *testing.T) {
	s := NewPrivacyScorer(models.DefaultScorePolicy())

	var trackers []models.TrackerInfo
	for i := 0; i < 20; i++ {
		trackers = append(trackers, tracker(models.RiskCritical, models.CategoryPrivacyInvasion, "fp.example"))
	}
	assert.Equal(t, 0, s.Score(trackers))
}

func TestScoreIsMonotonic(t *testing.T) {
	s := NewPrivacyScorer(models.DefaultScorePolicy())

	trackers := []models.TrackerInfo{
		tracker(models.RiskLow, models.CategoryPerformance, "a.example"),
	}
	previous := s.Score(trackers)
	for i := 0; i < 5; i++ {
		trackers = append(trackers, tracker(models.RiskMedium, models.CategoryAnalytics, "b.example"))
		current := s.Score(trackers)
		assert.LessOrEqual(t, current, previous, "adding a tracker must never raise the score")
		previous = current
	}
}

func TestRiskLevelThresholds(t *testing.T) {
	s := NewPrivacyScorer(models.DefaultScorePolicy())

	assert.Equal(t, models.RiskLow, s.RiskLevel(nil))

	one := []models.TrackerInfo{tracker(models.RiskHigh, models.CategoryAdvertising, "x")}
	assert.Equal(t, models.RiskLow, s.RiskLevel(one), "one high-risk tracker stays below the threshold")

	two := append(one, tracker(models.RiskHigh, models.CategoryAdvertising, "y"))
	assert.Equal(t, models.RiskHigh, s.RiskLevel(two))

	three := []models.TrackerInfo{
		tracker(models.RiskMedium, models.CategoryAnalytics, "a"),
		tracker(models.RiskMedium, models.CategoryAnalytics, "b"),
		tracker(models.RiskMedium, models.CategoryAnalytics, "c"),
	}
	assert.Equal(t, models.RiskMedium, s.RiskLevel(three))

	critical := []models.TrackerInfo{tracker(models.RiskCritical, models.CategoryPrivacyInvasion, "fp")}
	assert.Equal(t, models.RiskCritical, s.RiskLevel(critical))
}

func TestAnalyzeCollectsCategoriesAndDomains(t *testing.T) {
	s := NewPrivacyScorer(models.DefaultScorePolicy())

	analysis := s.Analyze([]models.TrackerInfo{
		tracker(models.RiskHigh, models.CategoryAdvertising, "ads.example"),
		tracker(models.RiskHigh, models.CategoryAdvertising, "ads.example"),
		tracker(models.RiskLow, models.CategoryPerformance, "perf.example"),
	})

	assert.ElementsMatch(t, []models.TrackerCategory{models.CategoryAdvertising, models.CategoryPerformance}, analysis.DetectedCategories)
	assert.Equal(t, []string{"ads.example"}, analysis.HighRiskDomains)
	assert.NotEmpty(t, analysis.Recommendations)
}

func TestAnalyzeEmpty(t *testing.T) {
	s := NewPrivacyScorer(models.DefaultScorePolicy())
	analysis := s.Analyze(nil)

	assert.Equal(t, 100, analysis.PrivacyScore)
	assert.Equal(t, models.RiskLow, analysis.RiskLevel)
	assert.Empty(t, analysis.DetectedCategories)
	require.Len(t, analysis.Recommendations, 1)
}

func TestAnalyzeIsPure(t *testing.T) {
	s := NewPrivacyScorer(models.DefaultScorePolicy())
	trackers := []models.TrackerInfo{
		tracker(models.RiskHigh, models.CategoryUserExperience, "replay.example"),
	}
	first := s.Analyze(trackers)
	second := s.Analyze(trackers)
	assert.Equal(t, first, second)
}
