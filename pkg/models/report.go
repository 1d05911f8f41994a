package models

import "time"

const (
	ReportFormatJSON = "json"
	ReportFormatCSV  = "csv"
	ReportFormatHTML = "html"

	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDegrading = "degrading"

	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// PrivacyImpactIndex is the weighted composite over one or more scans.
// Recomputed on demand; never persisted by the engine itself.
type PrivacyImpactIndex struct {
	Score           float64            `json:"score"`
	RiskCategory    string             `json:"risk_category"`
	Factors         map[string]float64 `json:"factors"`
	Trending        string             `json:"trending"`
	ComplianceScore float64            `json:"compliance_score"`
}

// TrendAnalysis holds index-aligned series: every slice has one entry per
// period label, including zero entries for periods with no scans.
type TrendAnalysis struct {
	Period            string           `json:"period"`
	Labels            []string         `json:"labels"`
	PrivacyScoreTrend []float64        `json:"privacy_score_trend"`
	TrackerCountTrend []int            `json:"tracker_count_trend"`
	RiskDistribution  map[string][]int `json:"risk_distribution"`
	DomainCountTrend  []int            `json:"domain_count_trend"`
}

// ScorePolicy holds the penalty weights and thresholds for per-scan scoring.
// These are policy, not algorithm: callers load them from configuration.
type ScorePolicy struct {
	PenaltyLow         int `json:"penalty_low" yaml:"penalty_low"`
	PenaltyMedium      int `json:"penalty_medium" yaml:"penalty_medium"`
	PenaltyHigh        int `json:"penalty_high" yaml:"penalty_high"`
	PenaltyCritical    int `json:"penalty_critical" yaml:"penalty_critical"`
	IntrusiveSurcharge int `json:"intrusive_surcharge" yaml:"intrusive_surcharge"`

	HighRiskThreshold   int `json:"high_risk_threshold" yaml:"high_risk_threshold"`
	MediumRiskThreshold int `json:"medium_risk_threshold" yaml:"medium_risk_threshold"`
	CriticalThreshold   int `json:"critical_threshold" yaml:"critical_threshold"`
}

func DefaultScorePolicy() ScorePolicy {
	return ScorePolicy{
		PenaltyLow:          5,
		PenaltyMedium:       10,
		PenaltyHigh:         15,
		PenaltyCritical:     20,
		IntrusiveSurcharge:  5,
		HighRiskThreshold:   2,
		MediumRiskThreshold: 3,
		CriticalThreshold:   1,
	}
}

func (p *ScorePolicy) Penalty(level RiskLevel) int {
	switch level {
	case RiskLow:
		return p.PenaltyLow
	case RiskMedium:
		return p.PenaltyMedium
	case RiskHigh:
		return p.PenaltyHigh
	case RiskCritical:
		return p.PenaltyCritical
	}
	return 0
}

// IndexPolicy configures the composite index: factor weights (must sum to
// 1.0) and the trending delta.
type IndexPolicy struct {
	WeightTrackerDensity     float64 `json:"weight_tracker_density" yaml:"weight_tracker_density"`
	WeightRiskSeverity       float64 `json:"weight_risk_severity" yaml:"weight_risk_severity"`
	WeightDomainDiversity    float64 `json:"weight_domain_diversity" yaml:"weight_domain_diversity"`
	WeightCategorySpread     float64 `json:"weight_category_spread" yaml:"weight_category_spread"`
	WeightThirdPartyExposure float64 `json:"weight_third_party_exposure" yaml:"weight_third_party_exposure"`
	TrendDelta               float64 `json:"trend_delta" yaml:"trend_delta"`
}

func DefaultIndexPolicy() IndexPolicy {
	return IndexPolicy{
		WeightTrackerDensity:     0.25,
		WeightRiskSeverity:       0.30,
		WeightDomainDiversity:    0.20,
		WeightCategorySpread:     0.15,
		WeightThirdPartyExposure: 0.10,
		TrendDelta:               5.0,
	}
}

// Report is the envelope handed to rendering collaborators.
type Report struct {
	Title       string              `json:"title"`
	GeneratedAt time.Time           `json:"generated_at"`
	Results     []ScanResult        `json:"results"`
	ImpactIndex *PrivacyImpactIndex `json:"impact_index,omitempty"`
	Trend       *TrendAnalysis      `json:"trend,omitempty"`
}
