package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/brian-scardina/spyspotter/internal/analysis"
	"github.com/brian-scardina/spyspotter/internal/intel"
	"github.com/brian-scardina/spyspotter/internal/ratelimit"
	"github.com/brian-scardina/spyspotter/internal/reporting"
	"github.com/brian-scardina/spyspotter/internal/scanning"
	"github.com/brian-scardina/spyspotter/internal/storage"
	"github.com/brian-scardina/spyspotter/pkg/models"
	"github.com/brian-scardina/spyspotter/pkg/utils"
)

// engine bundles the wired-up components the commands share.
type engine struct {
	config    *models.Config
	logger    *logrus.Logger
	db        *intel.Database
	scanner   *scanning.Scanner
	analyzer  *analysis.ImpactAnalyzer
	repo      *storage.ResultsRepository
	generator *reporting.ReportGenerator
	admitter  ratelimit.Gate
	metrics   *utils.ScanMetrics
	redis     *ratelimit.RedisLimiter
}

// loadConfig resolves the effective configuration: file (when one was found
// by viper), otherwise defaults, with CLI logging flags taking precedence.
func loadConfig() (*models.Config, error) {
	cfg := models.DefaultConfig()

	if file := viper.ConfigFileUsed(); file != "" {
		if err := cfg.Load(file); err != nil {
			return nil, err
		}
	}

	if lvl := viper.GetString("log_level"); lvl != "" {
		cfg.Global.LogLevel = lvl
	}
	if format := viper.GetString("log_format"); format != "" {
		cfg.Global.LogFormat = format
	}
	if dir := viper.GetString("output_directory"); dir != "" && cfg.Reporting.OutputDir == "" {
		cfg.Reporting.OutputDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildEngine() (*engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logrus.StandardLogger()

	db, err := intel.Load(cfg.Intel.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("load tracker intelligence: %w", err)
	}

	eng := &engine{
		config:   cfg,
		logger:   logger,
		db:       db,
		analyzer: analysis.NewImpactAnalyzer(cfg.Scoring.Index),
		admitter: ratelimit.NoopAdmitter{},
	}

	if cfg.RateLimit.Enabled {
		var backend ratelimit.Limiter = ratelimit.NewLocalLimiter()
		if cfg.RateLimit.RedisURL != "" {
			redisLimiter, err := ratelimit.NewRedisLimiter(cfg.RateLimit.RedisURL, logger)
			if err != nil {
				logger.Warnf("Invalid redis URL, using in-process rate limiting: %v", err)
			} else {
				backend = redisLimiter
				eng.redis = redisLimiter
			}
		}
		eng.admitter = ratelimit.NewAdmitter(backend, cfg.RateLimit, logger)
	}

	if cfg.Metrics.Enabled {
		eng.metrics = utils.NewScanMetrics(true)
	}

	classifier := scanning.NewSignatureClassifier(db, logger)
	scorer := analysis.NewPrivacyScorer(cfg.Scoring.Policy)
	scanner, err := scanning.NewScanner(cfg.ScanConfiguration(), classifier, scorer, logger,
		scanning.WithGate(eng.admitter),
		scanning.WithMetrics(eng.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("build scanner: %w", err)
	}
	eng.scanner = scanner

	if cfg.Storage.Enabled {
		store, err := storage.NewLocalStorage(cfg.Storage.BaseDir, cfg.Storage.Compression, cfg.Storage.Retention, logger)
		if err != nil {
			return nil, fmt.Errorf("open result storage: %w", err)
		}
		eng.repo = storage.NewResultsRepository(store, 0, logger)
	}

	generator, err := reporting.NewReportGenerator(cfg.Reporting, eng.analyzer, logger)
	if err != nil {
		return nil, fmt.Errorf("build report generator: %w", err)
	}
	eng.generator = generator

	return eng, nil
}

func (e *engine) Close() {
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			e.logger.Debugf("Closing redis limiter: %v", err)
		}
	}
}
