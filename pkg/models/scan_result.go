package models

import (
	"fmt"
	"net/url"
	"time"
)

// PerformanceMetrics captures transport-level timing for one fetch. Produced
// by the fetch coordinator whether or not the fetch succeeded.
type PerformanceMetrics struct {
	ResponseTime  time.Duration `json:"response_time"`
	ContentLength int64         `json:"content_length"`
	StatusCode    int           `json:"status_code"`
	RedirectCount int           `json:"redirect_count"`
}

type PrivacyAnalysis struct {
	PrivacyScore       int               `json:"privacy_score"`
	RiskLevel          RiskLevel         `json:"risk_level"`
	DetectedCategories []TrackerCategory `json:"detected_categories"`
	HighRiskDomains    []string          `json:"high_risk_domains"`
	Recommendations    []string          `json:"recommendations"`
}

// ScanResult is the complete outcome for one URL. Invariant: Error != ""
// implies Trackers is empty and PrivacyAnalysis.PrivacyScore is 0. The engine
// never mutates a result after construction.
type ScanResult struct {
	URL                string             `json:"url"`
	Timestamp          time.Time          `json:"timestamp"`
	Trackers           []TrackerInfo      `json:"trackers"`
	PerformanceMetrics PerformanceMetrics `json:"performance_metrics"`
	PrivacyAnalysis    PrivacyAnalysis    `json:"privacy_analysis"`
	ScanDuration       time.Duration      `json:"scan_duration"`
	Error              string             `json:"error,omitempty"`
}

func (r *ScanResult) Failed() bool { return r.Error != "" }

func (r *ScanResult) TrackerCount() int { return len(r.Trackers) }

func (r *ScanResult) HighRiskTrackerCount() int {
	count := 0
	for i := range r.Trackers {
		if r.Trackers[i].HighRisk() {
			count++
		}
	}
	return count
}

func (r *ScanResult) UniqueDomains() []string {
	seen := make(map[string]struct{}, len(r.Trackers))
	domains := make([]string, 0, len(r.Trackers))
	for i := range r.Trackers {
		d := r.Trackers[i].Domain
		if d == "" {
			continue
		}
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			domains = append(domains, d)
		}
	}
	return domains
}

func (r *ScanResult) CategoriesDetected() []TrackerCategory {
	seen := make(map[TrackerCategory]struct{}, len(r.Trackers))
	categories := make([]TrackerCategory, 0, len(r.Trackers))
	for i := range r.Trackers {
		c := r.Trackers[i].Category
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			categories = append(categories, c)
		}
	}
	return categories
}

// SourceHost returns the hostname of the scanned URL, used to tell first-party
// domains from third-party tracker domains.
func (r *ScanResult) SourceHost() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// ScanConfiguration is the per-batch contract consumed from collaborators.
type ScanConfiguration struct {
	ConcurrencyLimit int               `json:"concurrency_limit" yaml:"concurrency_limit"`
	RateLimitDelay   time.Duration     `json:"rate_limit_delay" yaml:"rate_limit_delay"`
	RequestTimeout   time.Duration     `json:"request_timeout" yaml:"request_timeout"`
	MaxRedirects     int               `json:"max_redirects" yaml:"max_redirects"`
	CustomHeaders    map[string]string `json:"custom_headers" yaml:"custom_headers"`
	FollowRedirects  bool              `json:"follow_redirects" yaml:"follow_redirects"`
	VerifySSL        bool              `json:"verify_ssl" yaml:"verify_ssl"`
}

func DefaultScanConfiguration() ScanConfiguration {
	return ScanConfiguration{
		ConcurrencyLimit: 10,
		RateLimitDelay:   0,
		RequestTimeout:   30 * time.Second,
		MaxRedirects:     10,
		FollowRedirects:  true,
		VerifySSL:        true,
	}
}

func (c *ScanConfiguration) Validate() error {
	if c.ConcurrencyLimit < 1 {
		return fmt.Errorf("concurrency limit must be at least 1, got %d", c.ConcurrencyLimit)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("max redirects must not be negative, got %d", c.MaxRedirects)
	}
	return nil
}
