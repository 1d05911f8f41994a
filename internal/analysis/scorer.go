package analysis

import (
	"fmt"
	"sort"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

// PrivacyScorer turns a set of detected trackers into a per-scan score and
// risk assessment. Scoring is pure: same trackers and policy, same output.
type PrivacyScorer struct {
	policy models.ScorePolicy
}

func NewPrivacyScorer(policy models.ScorePolicy) *PrivacyScorer {
	return &PrivacyScorer{policy: policy}
}

// Score computes the 0-100 privacy score. Each tracker subtracts its risk
// penalty from 100, plus a surcharge for intrusive categories; the result is
// clamped at 0. A page with no trackers scores a perfect 100.
func (s *PrivacyScorer) Score(trackers []models.TrackerInfo) int {
	score := 100
	for i := range trackers {
		score -= s.policy.Penalty(trackers[i].RiskLevel)
		if trackers[i].Category.Intrusive() {
			score -= s.policy.IntrusiveSurcharge
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// RiskLevel grades the overall scan by tracker counts, not by the score:
// critical-count first, then high, then medium.
func (s *PrivacyScorer) RiskLevel(trackers []models.TrackerInfo) models.RiskLevel {
	var critical, high, medium int
	for i := range trackers {
		switch trackers[i].RiskLevel {
		case models.RiskCritical:
			critical++
		case models.RiskHigh:
			high++
		case models.RiskMedium:
			medium++
		}
	}

	switch {
	case critical >= s.policy.CriticalThreshold && s.policy.CriticalThreshold > 0:
		return models.RiskCritical
	case high >= s.policy.HighRiskThreshold && s.policy.HighRiskThreshold > 0:
		return models.RiskHigh
	case medium >= s.policy.MediumRiskThreshold && s.policy.MediumRiskThreshold > 0:
		return models.RiskMedium
	}
	return models.RiskLow
}

// Analyze produces the complete per-scan privacy analysis.
func (s *PrivacyScorer) Analyze(trackers []models.TrackerInfo) models.PrivacyAnalysis {
	categories := make(map[models.TrackerCategory]struct{})
	highRiskDomains := make(map[string]struct{})
	for i := range trackers {
		categories[trackers[i].Category] = struct{}{}
		if trackers[i].HighRisk() && trackers[i].Domain != "" {
			highRiskDomains[trackers[i].Domain] = struct{}{}
		}
	}

	detected := make([]models.TrackerCategory, 0, len(categories))
	for c := range categories {
		detected = append(detected, c)
	}
	sort.Slice(detected, func(i, j int) bool { return detected[i] < detected[j] })

	domains := make([]string, 0, len(highRiskDomains))
	for d := range highRiskDomains {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	return models.PrivacyAnalysis{
		PrivacyScore:       s.Score(trackers),
		RiskLevel:          s.RiskLevel(trackers),
		DetectedCategories: detected,
		HighRiskDomains:    domains,
		Recommendations:    s.recommendations(trackers, categories),
	}
}

func (s *PrivacyScorer) recommendations(trackers []models.TrackerInfo, categories map[models.TrackerCategory]struct{}) []string {
	if len(trackers) == 0 {
		return []string{"No trackers detected; no action needed."}
	}

	var recs []string
	if _, ok := categories[models.CategoryPrivacyInvasion]; ok {
		recs = append(recs, "Fingerprinting detected: consider a browser with fingerprint resistance.")
	}
	if _, ok := categories[models.CategoryUserExperience]; ok {
		recs = append(recs, "Session recording detected: avoid entering sensitive data on this page.")
	}
	if _, ok := categories[models.CategoryAdvertising]; ok {
		recs = append(recs, "Ad network trackers detected: a content blocker will stop most of them.")
	}
	if _, ok := categories[models.CategorySocialAdvertising]; ok {
		recs = append(recs, "Social media pixels detected: activity on this page may be linked to social profiles.")
	}

	highRisk := 0
	for i := range trackers {
		if trackers[i].HighRisk() {
			highRisk++
		}
	}
	if highRisk > 0 {
		recs = append(recs, fmt.Sprintf("%d high-risk trackers found: review before sharing personal information.", highRisk))
	}
	if len(recs) == 0 {
		recs = append(recs, "Low-impact tracking only; standard browser privacy settings are sufficient.")
	}
	return recs
}
