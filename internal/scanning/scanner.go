package scanning

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/brian-scardina/spyspotter/internal/ratelimit"
	"github.com/brian-scardina/spyspotter/pkg/models"
	"github.com/brian-scardina/spyspotter/pkg/utils"
)

// Scanner drives the full pipeline for a batch of URLs: admission, fetch,
// signal extraction, classification, scoring. One URL's failure never affects
// another's; every submitted URL produces exactly one result.
type Scanner struct {
	fetcher    Fetcher
	extractor  SignalExtractor
	classifier Classifier
	scorer     Scorer
	gate       ratelimit.Gate
	metrics    *utils.ScanMetrics
	logger     *logrus.Logger
	config     models.ScanConfiguration
}

type ScannerOption func(*Scanner)

func WithFetcher(f Fetcher) ScannerOption       { return func(s *Scanner) { s.fetcher = f } }
func WithGate(g ratelimit.Gate) ScannerOption   { return func(s *Scanner) { s.gate = g } }
func WithMetrics(m *utils.ScanMetrics) ScannerOption {
	return func(s *Scanner) { s.metrics = m }
}

func NewScanner(config models.ScanConfiguration, classifier Classifier, scorer Scorer, logger *logrus.Logger, opts ...ScannerOption) (*Scanner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}

	s := &Scanner{
		fetcher:    NewHTTPFetcher(config, logger),
		extractor:  NewHTMLExtractor(),
		classifier: classifier,
		scorer:     scorer,
		gate:       ratelimit.NoopAdmitter{},
		logger:     logger,
		config:     config,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ScanURL runs the pipeline for one URL. It always returns a result; errors
// are folded into the result's Error field.
func (s *Scanner) ScanURL(ctx context.Context, rawURL string) models.ScanResult {
	start := time.Now()
	result := models.ScanResult{
		URL:       rawURL,
		Timestamp: start.UTC(),
	}

	targetURL, err := utils.NormalizeURL(rawURL)
	if err != nil {
		return s.finish(result, start, err)
	}
	result.URL = targetURL

	if err := s.gate.Wait(ctx, targetURL); err != nil {
		return s.finish(result, start, err)
	}

	content, metrics, err := s.fetcher.Fetch(ctx, targetURL)
	result.PerformanceMetrics = metrics
	if s.metrics != nil {
		s.metrics.RecordFetch(metrics.ResponseTime)
	}
	if err != nil {
		return s.finish(result, start, err)
	}

	signals := s.extractor.Extract(content, targetURL)
	result.Trackers = s.classifier.Classify(signals, targetURL)
	result.PrivacyAnalysis = s.scorer.Analyze(result.Trackers)

	return s.finish(result, start, nil)
}

func (s *Scanner) finish(result models.ScanResult, start time.Time, err error) models.ScanResult {
	result.ScanDuration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		result.Trackers = nil
		result.PrivacyAnalysis = models.PrivacyAnalysis{}
		s.logger.WithFields(logrus.Fields{
			"url":   result.URL,
			"error": result.Error,
		}).Warn("scan failed")
	} else {
		s.logger.WithFields(logrus.Fields{
			"url":      result.URL,
			"trackers": len(result.Trackers),
			"score":    result.PrivacyAnalysis.PrivacyScore,
			"duration": utils.HumanizeDuration(result.ScanDuration),
		}).Info("scan complete")
	}
	if s.metrics != nil {
		s.metrics.RecordScan(len(result.Trackers), result.PrivacyAnalysis.PrivacyScore, result.ScanDuration, result.Failed())
	}
	return result
}

// ScanBatch scans every URL with bounded concurrency, preserving submission
// order in the returned slice. Cancelling ctx stops new work; URLs already
// in flight run to completion and URLs never started come back as error
// results, so the caller still gets one entry per input.
func (s *Scanner) ScanBatch(ctx context.Context, urls []string) []models.ScanResult {
	results := make([]models.ScanResult, len(urls))

	var g errgroup.Group
	g.SetLimit(s.config.ConcurrencyLimit)

	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = models.ScanResult{
					URL:       u,
					Timestamp: time.Now().UTC(),
					Error:     err.Error(),
				}
				return nil
			}
			results[i] = s.ScanURL(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
