package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Global    GlobalConfig    `yaml:"global" json:"global"`
	Scanning  ScanningConfig  `yaml:"scanning" json:"scanning"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Intel     IntelConfig     `yaml:"intel" json:"intel"`
	Scoring   ScoringConfig   `yaml:"scoring" json:"scoring"`
	Reporting ReportingConfig `yaml:"reporting" json:"reporting"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
}

type GlobalConfig struct {
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`
	LogFile   string `yaml:"log_file" json:"log_file"`
	DataDir   string `yaml:"data_dir" json:"data_dir"`
	Debug     bool   `yaml:"debug" json:"debug"`
}

type ScanningConfig struct {
	ConcurrencyLimit int               `yaml:"concurrency_limit" json:"concurrency_limit"`
	RequestTimeout   time.Duration     `yaml:"request_timeout" json:"request_timeout"`
	RateLimitDelay   time.Duration     `yaml:"rate_limit_delay" json:"rate_limit_delay"`
	MaxRedirects     int               `yaml:"max_redirects" json:"max_redirects"`
	FollowRedirects  bool              `yaml:"follow_redirects" json:"follow_redirects"`
	VerifySSL        bool              `yaml:"verify_ssl" json:"verify_ssl"`
	CustomHeaders    map[string]string `yaml:"custom_headers" json:"custom_headers"`
	BatchTimeout     time.Duration     `yaml:"batch_timeout" json:"batch_timeout"`
}

type BucketConfig struct {
	Capacity   float64       `yaml:"capacity" json:"capacity"`
	RefillRate float64       `yaml:"refill_rate" json:"refill_rate"` // tokens per second
	Window     time.Duration `yaml:"window" json:"window"`
}

type RateLimitConfig struct {
	Enabled  bool         `yaml:"enabled" json:"enabled"`
	RedisURL string       `yaml:"redis_url" json:"redis_url"`
	ClientID string       `yaml:"client_id" json:"client_id"`
	Global   BucketConfig `yaml:"global" json:"global"`
	Domain   BucketConfig `yaml:"domain" json:"domain"`
}

type IntelConfig struct {
	DatabasePath     string `yaml:"database_path" json:"database_path"`
	MinEngineVersion string `yaml:"min_engine_version" json:"min_engine_version"`
}

type ScoringConfig struct {
	Policy ScorePolicy `yaml:"policy" json:"policy"`
	Index  IndexPolicy `yaml:"index" json:"index"`
}

type ReportingConfig struct {
	Formats   []string `yaml:"formats" json:"formats"`
	OutputDir string   `yaml:"output_dir" json:"output_dir"`
	Title     string   `yaml:"title" json:"title"`
}

type StorageConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	BaseDir     string        `yaml:"base_dir" json:"base_dir"`
	Compression bool          `yaml:"compression" json:"compression"`
	Retention   time.Duration `yaml:"retention" json:"retention"`
}

type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	ListenAddress string `yaml:"listen_address" json:"listen_address"`
}

func DefaultConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			LogLevel:  "info",
			LogFormat: "text",
			LogFile:   "./logs/spyspotter.log",
			DataDir:   "./data",
		},
		Scanning: ScanningConfig{
			ConcurrencyLimit: 10,
			RequestTimeout:   30 * time.Second,
			RateLimitDelay:   0,
			MaxRedirects:     10,
			FollowRedirects:  true,
			VerifySSL:        true,
			BatchTimeout:     10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			ClientID: "spyspotter",
			// ~1000 requests per hour globally.
			Global: BucketConfig{Capacity: 1000, RefillRate: 1000.0 / 3600.0, Window: time.Hour},
			// ~50 requests per 5 minutes per target domain.
			Domain: BucketConfig{Capacity: 50, RefillRate: 50.0 / 300.0, Window: 5 * time.Minute},
		},
		Intel: IntelConfig{
			DatabasePath: "",
		},
		Scoring: ScoringConfig{
			Policy: DefaultScorePolicy(),
			Index:  DefaultIndexPolicy(),
		},
		Reporting: ReportingConfig{
			Formats:   []string{"json"},
			OutputDir: "./reports",
			Title:     "SpySpotter Privacy Report",
		},
		Storage: StorageConfig{
			Enabled:     true,
			BaseDir:     "./data/results",
			Compression: false,
			Retention:   0,
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: ":9815",
		},
	}
}

// ScanConfiguration flattens the scanning section into the per-batch contract
// the engine consumes.
func (c *Config) ScanConfiguration() ScanConfiguration {
	return ScanConfiguration{
		ConcurrencyLimit: c.Scanning.ConcurrencyLimit,
		RateLimitDelay:   c.Scanning.RateLimitDelay,
		RequestTimeout:   c.Scanning.RequestTimeout,
		MaxRedirects:     c.Scanning.MaxRedirects,
		CustomHeaders:    c.Scanning.CustomHeaders,
		FollowRedirects:  c.Scanning.FollowRedirects,
		VerifySSL:        c.Scanning.VerifySSL,
	}
}

func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Global.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		errs = append(errs, "global.log_level must be one of trace|debug|info|warn|error|fatal|panic")
	}
	if c.Scanning.ConcurrencyLimit <= 0 {
		errs = append(errs, "scanning.concurrency_limit must be > 0")
	}
	if c.Scanning.RequestTimeout <= 0 {
		errs = append(errs, "scanning.request_timeout must be > 0")
	}
	if c.Scanning.RateLimitDelay < 0 {
		errs = append(errs, "scanning.rate_limit_delay must be >= 0")
	}
	if c.Scanning.MaxRedirects < 0 {
		errs = append(errs, "scanning.max_redirects must be >= 0")
	}

	if c.RateLimit.Enabled {
		for name, b := range map[string]BucketConfig{"global": c.RateLimit.Global, "domain": c.RateLimit.Domain} {
			if b.Capacity <= 0 {
				errs = append(errs, fmt.Sprintf("rate_limit.%s.capacity must be > 0", name))
			}
			if b.RefillRate <= 0 {
				errs = append(errs, fmt.Sprintf("rate_limit.%s.refill_rate must be > 0", name))
			}
		}
	}

	p := c.Scoring.Policy
	if !(p.PenaltyLow < p.PenaltyMedium && p.PenaltyMedium < p.PenaltyHigh && p.PenaltyHigh < p.PenaltyCritical) {
		errs = append(errs, "scoring.policy penalties must strictly increase from low to critical")
	}
	if p.PenaltyLow < 0 || p.IntrusiveSurcharge < 0 {
		errs = append(errs, "scoring.policy penalties must be >= 0")
	}
	if p.HighRiskThreshold <= 0 || p.MediumRiskThreshold <= 0 || p.CriticalThreshold <= 0 {
		errs = append(errs, "scoring.policy thresholds must be > 0")
	}

	idx := c.Scoring.Index
	weightSum := idx.WeightTrackerDensity + idx.WeightRiskSeverity + idx.WeightDomainDiversity +
		idx.WeightCategorySpread + idx.WeightThirdPartyExposure
	if weightSum < 0.999 || weightSum > 1.001 {
		errs = append(errs, fmt.Sprintf("scoring.index weights must sum to 1.0, got %.3f", weightSum))
	}
	if idx.TrendDelta < 0 {
		errs = append(errs, "scoring.index.trend_delta must be >= 0")
	}

	if c.Storage.Enabled && c.Storage.BaseDir == "" {
		errs = append(errs, "storage.base_dir must not be empty when storage is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var (
		data []byte
		err  error
	)
	switch ext {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomically write config: %w", err)
	}
	return nil
}

func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	}

	return c.Validate()
}
