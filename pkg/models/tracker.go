package models

import (
	"fmt"
	"strings"
	"time"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow, nil
	case RiskMedium:
		return RiskMedium, nil
	case RiskHigh:
		return RiskHigh, nil
	case RiskCritical:
		return RiskCritical, nil
	}
	return "", fmt.Errorf("invalid risk level: %s", s)
}

// Rank orders risk levels for comparisons; higher is worse.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return 0
}

func (r RiskLevel) Valid() bool { return r.Rank() > 0 }

type TrackerCategory string

const (
	CategoryAnalytics           TrackerCategory = "analytics"
	CategoryAdvertising         TrackerCategory = "advertising"
	CategorySocialAdvertising   TrackerCategory = "social_advertising"
	CategoryUserExperience      TrackerCategory = "user_experience"
	CategoryOptimization        TrackerCategory = "optimization"
	CategoryMarketingAutomation TrackerCategory = "marketing_automation"
	CategoryPerformance         TrackerCategory = "performance"
	CategoryPrivacyInvasion     TrackerCategory = "privacy_invasion"
	CategoryECommerce           TrackerCategory = "e_commerce"
	CategoryUnknown             TrackerCategory = "unknown"
)

// AllCategories enumerates every known category; category-spread scoring
// normalizes against this list.
func AllCategories() []TrackerCategory {
	return []TrackerCategory{
		CategoryAnalytics,
		CategoryAdvertising,
		CategorySocialAdvertising,
		CategoryUserExperience,
		CategoryOptimization,
		CategoryMarketingAutomation,
		CategoryPerformance,
		CategoryPrivacyInvasion,
		CategoryECommerce,
		CategoryUnknown,
	}
}

// Intrusive reports whether a category carries the extra scoring surcharge.
func (c TrackerCategory) Intrusive() bool {
	switch c {
	case CategoryAdvertising, CategorySocialAdvertising, CategoryPrivacyInvasion:
		return true
	}
	return false
}

type DetectionMethod string

const (
	DetectionJavaScript DetectionMethod = "javascript"
	DetectionPixel      DetectionMethod = "pixel"
	DetectionMeta       DetectionMethod = "meta"
	DetectionNetwork    DetectionMethod = "network"
)

// TrackerSignature is one rule in the intelligence catalogue. Signatures are
// loaded once at startup and shared read-only by all concurrent
// classifications; nothing may mutate them after load.
type TrackerSignature struct {
	ID              string          `json:"id" yaml:"id"`
	Name            string          `json:"name" yaml:"name"`
	Category        TrackerCategory `json:"category" yaml:"category"`
	RiskLevel       RiskLevel       `json:"risk_level" yaml:"risk_level"`
	Domains         []string        `json:"domains" yaml:"domains"`
	Patterns        []string        `json:"patterns" yaml:"patterns"`
	Description     string          `json:"description" yaml:"description"`
	Purpose         string          `json:"purpose" yaml:"purpose"`
	DataTypes       []string        `json:"data_types" yaml:"data_types"`
	GDPRRelevant    bool            `json:"gdpr_relevant" yaml:"gdpr_relevant"`
	CCPARelevant    bool            `json:"ccpa_relevant" yaml:"ccpa_relevant"`
	DetectionMethod DetectionMethod `json:"detection_method" yaml:"detection_method"`
	FirstSeen       string          `json:"first_seen" yaml:"first_seen"`
	LastUpdated     string          `json:"last_updated" yaml:"last_updated"`
}

func (s *TrackerSignature) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("signature id is required")
	}
	if !s.RiskLevel.Valid() {
		return fmt.Errorf("signature %s: invalid risk level %q", s.ID, s.RiskLevel)
	}
	if s.Category == "" {
		return fmt.Errorf("signature %s: category is required", s.ID)
	}
	if len(s.Domains) == 0 && len(s.Patterns) == 0 {
		return fmt.Errorf("signature %s: needs at least one domain or pattern", s.ID)
	}
	return nil
}

// TrackerInfo is one detected tracker instance. Owned by exactly one
// ScanResult and never mutated after the classifier constructs it.
type TrackerInfo struct {
	TrackerType string                 `json:"tracker_type"`
	Domain      string                 `json:"domain"`
	Source      string                 `json:"source"`
	Category    TrackerCategory        `json:"category"`
	RiskLevel   RiskLevel              `json:"risk_level"`
	Purpose     string                 `json:"purpose"`
	Confidence  float64                `json:"confidence"`
	FirstSeen   time.Time              `json:"first_seen"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

func (t *TrackerInfo) HighRisk() bool {
	return t.RiskLevel == RiskHigh || t.RiskLevel == RiskCritical
}
