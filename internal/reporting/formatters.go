package reporting

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

// Formatter renders a report into one output format.
type Formatter interface {
	Format(report *models.Report) ([]byte, error)
	FileExtension() string
}

type JSONFormatter struct{}

func (JSONFormatter) FileExtension() string { return "json" }

func (JSONFormatter) Format(report *models.Report) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// CSVFormatter writes one row per scanned URL with flattened analysis
// columns; per-tracker detail stays in the JSON and HTML formats.
type CSVFormatter struct{}

func (CSVFormatter) FileExtension() string { return "csv" }

func (CSVFormatter) Format(report *models.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"url", "timestamp", "tracker_count", "privacy_score", "risk_level",
		"high_risk_trackers", "unique_domains", "categories", "scan_duration_ms", "error",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for i := range report.Results {
		r := &report.Results[i]
		categories := make([]string, 0, len(r.Trackers))
		for _, c := range r.CategoriesDetected() {
			categories = append(categories, string(c))
		}
		row := []string{
			r.URL,
			r.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			strconv.Itoa(r.TrackerCount()),
			strconv.Itoa(r.PrivacyAnalysis.PrivacyScore),
			string(r.PrivacyAnalysis.RiskLevel),
			strconv.Itoa(r.HighRiskTrackerCount()),
			strconv.Itoa(len(r.UniqueDomains())),
			strings.Join(categories, ";"),
			strconv.FormatInt(r.ScanDuration.Milliseconds(), 10),
			r.Error,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HTMLFormatter renders the report through the template manager.
type HTMLFormatter struct {
	templates *TemplateManager
}

func NewHTMLFormatter(templates *TemplateManager) *HTMLFormatter {
	return &HTMLFormatter{templates: templates}
}

func (f *HTMLFormatter) FileExtension() string { return "html" }

func (f *HTMLFormatter) Format(report *models.Report) ([]byte, error) {
	tpl, ok := f.templates.Get(htmlReportTemplateName)
	if !ok {
		return nil, fmt.Errorf("template %q not registered", htmlReportTemplateName)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}
	return buf.Bytes(), nil
}
