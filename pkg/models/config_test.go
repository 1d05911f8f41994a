package models

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Global.LogLevel = "verbose"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "global.log_level")
}

func TestValidateRejectsNonIncreasingPenalties(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scoring.Policy.PenaltyHigh = cfg.Scoring.Policy.PenaltyMedium
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "penalties must strictly increase")
}

func TestValidateRejectsBadWeightSum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scoring.Index.WeightRiskSeverity = 0.5
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights must sum to 1.0")
}

func TestValidateRejectsZeroThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scoring.Policy.CriticalThreshold = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thresholds must be > 0")
}

func TestValidateRejectsBadRateLimitBucket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.Domain.Capacity = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit.domain.capacity")

	// A disabled rate limiter tolerates unset buckets.
	cfg.RateLimit.Enabled = false
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsEmptyStorageDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.BaseDir = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.base_dir")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Global.LogLevel = "nope"
	cfg.Scanning.ConcurrencyLimit = 0
	cfg.Scanning.RequestTimeout = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "global.log_level")
	assert.Contains(t, err.Error(), "scanning.concurrency_limit")
	assert.Contains(t, err.Error(), "scanning.request_timeout")
}

func TestConfigSaveLoadYAML(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scanning.ConcurrencyLimit = 4
	cfg.Scanning.RequestTimeout = 12 * time.Second
	cfg.Reporting.Formats = []string{"json", "html"}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))

	var loaded Config
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, 4, loaded.Scanning.ConcurrencyLimit)
	assert.Equal(t, 12*time.Second, loaded.Scanning.RequestTimeout)
	assert.Equal(t, []string{"json", "html"}, loaded.Reporting.Formats)
	assert.Equal(t, cfg.Scoring.Policy, loaded.Scoring.Policy)
}

func TestConfigSaveLoadJSON(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Global.LogLevel = "debug"

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, cfg.Save(path))

	var loaded Config
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, "debug", loaded.Global.LogLevel)
	assert.Equal(t, cfg.RateLimit.Global, loaded.RateLimit.Global)
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scanning.ConcurrencyLimit = -1
	err := cfg.Save(filepath.Join(t.TempDir(), "config.yaml"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	var cfg Config
	assert.Error(t, cfg.Load(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestScanConfigurationFlattensScanningSection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scanning.ConcurrencyLimit = 7
	cfg.Scanning.CustomHeaders = map[string]string{"X-Scan": "1"}

	sc := cfg.ScanConfiguration()
	assert.Equal(t, 7, sc.ConcurrencyLimit)
	assert.Equal(t, cfg.Scanning.RequestTimeout, sc.RequestTimeout)
	assert.Equal(t, "1", sc.CustomHeaders["X-Scan"])
	assert.True(t, sc.FollowRedirects)
}
