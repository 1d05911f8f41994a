package analysis

import (
	"math"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

// Factor names used as keys in PrivacyImpactIndex.Factors.
const (
	FactorTrackerDensity     = "tracker_density"
	FactorRiskSeverity       = "risk_severity"
	FactorDomainDiversity    = "domain_diversity"
	FactorCategorySpread     = "category_spread"
	FactorThirdPartyExposure = "third_party_exposure"
)

// highDensityTrackers is the per-page tracker count treated as saturating the
// density factor.
const highDensityTrackers = 20

// riskWeight maps risk levels onto the severity scale; 10 is the ceiling the
// severity factor normalizes against.
func riskWeight(level models.RiskLevel) float64 {
	switch level {
	case models.RiskLow:
		return 1
	case models.RiskMedium:
		return 3
	case models.RiskHigh:
		return 7
	case models.RiskCritical:
		return 10
	}
	return 0
}

// ImpactAnalyzer computes the weighted privacy impact index over a set of
// scans. All factors score 0-100 where higher means better privacy, so the
// composite inherits that orientation.
type ImpactAnalyzer struct {
	policy models.IndexPolicy
}

func NewImpactAnalyzer(policy models.IndexPolicy) *ImpactAnalyzer {
	return &ImpactAnalyzer{policy: policy}
}

// ComputeIndex builds the composite index for current results, grading the
// trend against historical results when provided. An empty current set yields
// a zero index with the "unknown" category.
func (a *ImpactAnalyzer) ComputeIndex(current, historical []models.ScanResult) models.PrivacyImpactIndex {
	if len(current) == 0 {
		return models.PrivacyImpactIndex{
			RiskCategory: "unknown",
			Factors:      map[string]float64{},
			Trending:     models.TrendStable,
		}
	}

	factors := map[string]float64{
		FactorTrackerDensity:     trackerDensity(current),
		FactorRiskSeverity:       riskSeverity(current),
		FactorDomainDiversity:    domainDiversity(current),
		FactorCategorySpread:     categorySpread(current),
		FactorThirdPartyExposure: thirdPartyExposure(current),
	}

	score := factors[FactorTrackerDensity]*a.policy.WeightTrackerDensity +
		factors[FactorRiskSeverity]*a.policy.WeightRiskSeverity +
		factors[FactorDomainDiversity]*a.policy.WeightDomainDiversity +
		factors[FactorCategorySpread]*a.policy.WeightCategorySpread +
		factors[FactorThirdPartyExposure]*a.policy.WeightThirdPartyExposure
	score = clamp(score)

	trending := models.TrendStable
	if len(historical) > 0 {
		previous := a.ComputeIndex(historical, nil)
		switch {
		case score > previous.Score+a.policy.TrendDelta:
			trending = models.TrendImproving
		case score < previous.Score-a.policy.TrendDelta:
			trending = models.TrendDegrading
		}
	}

	return models.PrivacyImpactIndex{
		Score:           round2(score),
		RiskCategory:    riskCategory(score),
		Factors:         roundFactors(factors),
		Trending:        trending,
		ComplianceScore: round2(complianceScore(score, current)),
	}
}

func riskCategory(score float64) string {
	switch {
	case score >= 80:
		return string(models.RiskLow)
	case score >= 60:
		return string(models.RiskMedium)
	case score >= 40:
		return string(models.RiskHigh)
	}
	return string(models.RiskCritical)
}

// trackerDensity penalizes the average tracker count per scanned page.
func trackerDensity(results []models.ScanResult) float64 {
	total := 0
	for i := range results {
		total += len(results[i].Trackers)
	}
	avg := float64(total) / float64(len(results))
	return clamp(100 - (avg/highDensityTrackers)*100)
}

// riskSeverity penalizes the average weighted risk per tracker.
func riskSeverity(results []models.ScanResult) float64 {
	var totalWeight float64
	trackers := 0
	for i := range results {
		for j := range results[i].Trackers {
			totalWeight += riskWeight(results[i].Trackers[j].RiskLevel)
			trackers++
		}
	}
	if trackers == 0 {
		return 100
	}
	avg := totalWeight / float64(trackers)
	return clamp(100 - (avg/10)*100)
}

// domainDiversity rewards spread across operators: many trackers concentrated
// behind few domains means one party correlates more of the activity.
func domainDiversity(results []models.ScanResult) float64 {
	domains := make(map[string]struct{})
	trackers := 0
	for i := range results {
		for _, d := range results[i].UniqueDomains() {
			domains[d] = struct{}{}
		}
		trackers += len(results[i].Trackers)
	}
	if trackers == 0 {
		return 100
	}
	return clamp(float64(len(domains)) / float64(trackers) * 100)
}

// categorySpread penalizes coverage of the category space: a page tracked
// across many categories leaks more kinds of data.
func categorySpread(results []models.ScanResult) float64 {
	categories := make(map[models.TrackerCategory]struct{})
	for i := range results {
		for _, c := range results[i].CategoriesDetected() {
			categories[c] = struct{}{}
		}
	}
	ratio := float64(len(categories)) / float64(len(models.AllCategories()))
	return clamp(100 - ratio*100)
}

// thirdPartyExposure penalizes the share of tracker domains that are not the
// scanned sites themselves.
func thirdPartyExposure(results []models.ScanResult) float64 {
	all := make(map[string]struct{})
	sources := make(map[string]struct{})
	for i := range results {
		if host := results[i].SourceHost(); host != "" {
			sources[host] = struct{}{}
		}
		for _, d := range results[i].UniqueDomains() {
			all[d] = struct{}{}
		}
	}
	if len(all) == 0 {
		return 100
	}

	thirdParty := 0
	for d := range all {
		if _, ok := sources[d]; !ok {
			thirdParty++
		}
	}
	ratio := float64(thirdParty) / float64(len(all))
	return clamp(100 - ratio*100)
}

// complianceScore blends the composite with the share of trackers flagged as
// GDPR or CCPA relevant: a page full of regulated trackers has more
// compliance exposure than its raw score suggests.
func complianceScore(composite float64, results []models.ScanResult) float64 {
	regulated, trackers := 0, 0
	for i := range results {
		for j := range results[i].Trackers {
			trackers++
			details := results[i].Trackers[j].Details
			if details == nil {
				continue
			}
			gdpr, _ := details["gdpr_relevant"].(bool)
			ccpa, _ := details["ccpa_relevant"].(bool)
			if gdpr || ccpa {
				regulated++
			}
		}
	}
	if trackers == 0 {
		return 100
	}
	regulatedShare := float64(regulated) / float64(trackers)
	return clamp(0.5*composite + 0.5*(100-regulatedShare*100))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundFactors(factors map[string]float64) map[string]float64 {
	for k, v := range factors {
		factors[k] = round2(v)
	}
	return factors
}
