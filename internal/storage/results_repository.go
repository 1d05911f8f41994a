package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

// ResultsRepository is the query layer over LocalStorage: it caches loaded
// results and groups them into the period buckets trend analysis consumes.
type ResultsRepository struct {
	storage *LocalStorage
	logger  *logrus.Logger

	mu       sync.RWMutex
	cache    []models.ScanResult
	cachedAt time.Time
	cacheTTL time.Duration
}

func NewResultsRepository(storage *LocalStorage, cacheTTL time.Duration, logger *logrus.Logger) *ResultsRepository {
	if logger == nil {
		logger = logrus.New()
	}
	return &ResultsRepository{
		storage:  storage,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

func (rr *ResultsRepository) Store(ctx context.Context, result *models.ScanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result.URL == "" {
		return fmt.Errorf("invalid result: url is required")
	}
	if result.Timestamp.IsZero() {
		return fmt.Errorf("invalid result: timestamp is required")
	}

	if err := rr.storage.SaveResult(result); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	rr.mu.Lock()
	if rr.cache != nil {
		rr.cache = append(rr.cache, *result)
	}
	rr.mu.Unlock()
	return nil
}

// StoreBatch persists every result in a batch, continuing past individual
// failures and returning the first error encountered.
func (rr *ResultsRepository) StoreBatch(ctx context.Context, results []models.ScanResult) error {
	var firstErr error
	for i := range results {
		if err := rr.Store(ctx, &results[i]); err != nil {
			rr.logger.Warnf("Failed to store result for %s: %v", results[i].URL, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// All returns every stored result, newest first.
func (rr *ResultsRepository) All(ctx context.Context) ([]models.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results, err := rr.load()
	if err != nil {
		return nil, err
	}

	sorted := make([]models.ScanResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted, nil
}

// FindByHost returns results for one scanned host.
func (rr *ResultsRepository) FindByHost(ctx context.Context, host string) ([]models.ScanResult, error) {
	all, err := rr.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.ScanResult
	for i := range all {
		if all[i].SourceHost() == host {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// FindSince returns results scanned at or after the cutoff.
func (rr *ResultsRepository) FindSince(ctx context.Context, cutoff time.Time) ([]models.ScanResult, error) {
	all, err := rr.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.ScanResult
	for i := range all {
		if !all[i].Timestamp.Before(cutoff) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// GroupByPeriod buckets stored results by period label, filling in empty
// buckets for every period between the oldest and newest result so trend
// series stay contiguous.
func (rr *ResultsRepository) GroupByPeriod(ctx context.Context, period string) (map[string][]models.ScanResult, error) {
	results, err := rr.All(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.ScanResult)
	if len(results) == 0 {
		return grouped, nil
	}

	oldest, newest := results[0].Timestamp, results[0].Timestamp
	for i := range results {
		label, err := PeriodLabel(results[i].Timestamp, period)
		if err != nil {
			return nil, err
		}
		grouped[label] = append(grouped[label], results[i])
		if results[i].Timestamp.Before(oldest) {
			oldest = results[i].Timestamp
		}
		if results[i].Timestamp.After(newest) {
			newest = results[i].Timestamp
		}
	}

	// Fill gaps so the series has one bucket per period.
	for t := oldest; !t.After(newest); t = nextPeriod(t, period) {
		label, _ := PeriodLabel(t, period)
		if _, ok := grouped[label]; !ok {
			grouped[label] = nil
		}
	}

	return grouped, nil
}

// PeriodLabel formats a timestamp as its period bucket label. Labels sort
// lexicographically in time order.
func PeriodLabel(t time.Time, period string) (string, error) {
	t = t.UTC()
	switch period {
	case models.PeriodDaily:
		return t.Format("2006-01-02"), nil
	case models.PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	case models.PeriodMonthly:
		return t.Format("2006-01"), nil
	}
	return "", fmt.Errorf("unknown period %q", period)
}

func nextPeriod(t time.Time, period string) time.Time {
	switch period {
	case models.PeriodWeekly:
		return t.AddDate(0, 0, 7)
	case models.PeriodMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func (rr *ResultsRepository) load() ([]models.ScanResult, error) {
	rr.mu.RLock()
	if rr.cache != nil && (rr.cacheTTL <= 0 || time.Since(rr.cachedAt) < rr.cacheTTL) {
		cached := rr.cache
		rr.mu.RUnlock()
		return cached, nil
	}
	rr.mu.RUnlock()

	results, err := rr.storage.LoadAllResults()
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	rr.mu.Lock()
	rr.cache = results
	rr.cachedAt = time.Now()
	rr.mu.Unlock()
	return results, nil
}

// Invalidate drops the cache; the next read reloads from disk.
func (rr *ResultsRepository) Invalidate() {
	rr.mu.Lock()
	rr.cache = nil
	rr.mu.Unlock()
}

func (rr *ResultsRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	results, err := rr.All(ctx)
	if err != nil {
		return nil, err
	}

	hosts := make(map[string]struct{})
	failed, trackerTotal := 0, 0
	riskCounts := make(map[string]int)
	for i := range results {
		if h := results[i].SourceHost(); h != "" {
			hosts[h] = struct{}{}
		}
		if results[i].Failed() {
			failed++
			continue
		}
		trackerTotal += len(results[i].Trackers)
		riskCounts[string(results[i].PrivacyAnalysis.RiskLevel)]++
	}

	return map[string]interface{}{
		"total_scans":     len(results),
		"failed_scans":    failed,
		"distinct_hosts":  len(hosts),
		"trackers_found":  trackerTotal,
		"results_by_risk": riskCounts,
	}, nil
}
