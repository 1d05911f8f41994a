package reporting

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brian-scardina/spyspotter/internal/analysis"
	"github.com/brian-scardina/spyspotter/pkg/models"
)

// ReportGenerator renders scan results into the configured output formats
// and writes them under the output directory.
type ReportGenerator struct {
	formatters map[string]Formatter
	logger     *logrus.Logger
	mu         sync.RWMutex
	config     models.ReportingConfig
	analyzer   *analysis.ImpactAnalyzer
	compress   bool
}

func NewReportGenerator(config models.ReportingConfig, analyzer *analysis.ImpactAnalyzer, logger *logrus.Logger) (*ReportGenerator, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if config.OutputDir == "" {
		config.OutputDir = "./reports"
	}
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	templates, err := NewTemplateManager()
	if err != nil {
		return nil, err
	}

	rg := &ReportGenerator{
		formatters: make(map[string]Formatter),
		logger:     logger,
		config:     config,
		analyzer:   analyzer,
	}
	rg.RegisterFormatter(models.ReportFormatJSON, JSONFormatter{})
	rg.RegisterFormatter(models.ReportFormatCSV, CSVFormatter{})
	rg.RegisterFormatter(models.ReportFormatHTML, NewHTMLFormatter(templates))

	return rg, nil
}

func (rg *ReportGenerator) RegisterFormatter(name string, formatter Formatter) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	rg.formatters[name] = formatter
}

func (rg *ReportGenerator) Formats() []string {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	names := make([]string, 0, len(rg.formatters))
	for name := range rg.formatters {
		names = append(names, name)
	}
	return names
}

// BuildReport assembles the report envelope: results plus the computed
// impact index, and a trend section when period-grouped history is supplied.
func (rg *ReportGenerator) BuildReport(results []models.ScanResult, historical []models.ScanResult, byPeriod map[string][]models.ScanResult, period string) *models.Report {
	report := &models.Report{
		Title:       rg.config.Title,
		GeneratedAt: time.Now().UTC(),
		Results:     results,
	}
	if report.Title == "" {
		report.Title = "Privacy Report"
	}

	if rg.analyzer != nil {
		index := rg.analyzer.ComputeIndex(results, historical)
		report.ImpactIndex = &index
	}
	if len(byPeriod) > 0 {
		trend := analysis.ComputeTrend(byPeriod, period)
		report.Trend = &trend
	}
	return report
}

// Generate renders a report in one format.
func (rg *ReportGenerator) Generate(report *models.Report, format string) ([]byte, error) {
	rg.mu.RLock()
	formatter, ok := rg.formatters[format]
	rg.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown report format %q (have %v)", format, rg.Formats())
	}
	return formatter.Format(report)
}

// WriteReport renders and writes one format, returning the file path.
func (rg *ReportGenerator) WriteReport(report *models.Report, format string) (string, error) {
	rg.mu.RLock()
	formatter, ok := rg.formatters[format]
	rg.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown report format %q (have %v)", format, rg.Formats())
	}

	data, err := formatter.Format(report)
	if err != nil {
		return "", fmt.Errorf("format %s report: %w", format, err)
	}

	name := fmt.Sprintf("privacy_report_%s.%s", report.GeneratedAt.Format("20060102_150405"), formatter.FileExtension())
	path := filepath.Join(rg.config.OutputDir, name)

	if rg.compress {
		path += ".gz"
		if err := writeGzip(path, data); err != nil {
			return "", err
		}
	} else {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("write report: %w", err)
		}
	}

	rg.logger.Infof("Report written to %s", path)
	return path, nil
}

// WriteAll writes the report in every configured format.
func (rg *ReportGenerator) WriteAll(report *models.Report) ([]string, error) {
	formats := rg.config.Formats
	if len(formats) == 0 {
		formats = []string{models.ReportFormatJSON}
	}

	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path, err := rg.WriteReport(report, format)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeGzip(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	gzw := gzip.NewWriter(f)
	if _, err := gzw.Write(data); err != nil {
		gzw.Close()
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("compress report: %w", err)
	}
	if err := gzw.Close(); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("close gzip: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}
