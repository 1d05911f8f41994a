package reporting

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brian-scardina/spyspotter/internal/analysis"
	"github.com/brian-scardina/spyspotter/pkg/models"
)

func reportResult(url string, score int, trackers ...models.TrackerInfo) models.ScanResult {
	return models.ScanResult{
		URL:       url,
		Timestamp: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		Trackers:  trackers,
		PrivacyAnalysis: models.PrivacyAnalysis{
			PrivacyScore: score,
			RiskLevel:    models.RiskLow,
		},
		ScanDuration: 250 * time.Millisecond,
	}
}

func reportTracker(risk models.RiskLevel, category models.TrackerCategory, domain string) models.TrackerInfo {
	return models.TrackerInfo{
		TrackerType: "facebook_pixel",
		Domain:      domain,
		Category:    category,
		RiskLevel:   risk,
		Confidence:  1.0,
	}
}

func testGenerator(t *testing.T, formats ...string) *ReportGenerator {
	t.Helper()
	config := models.ReportingConfig{
		Formats:   formats,
		OutputDir: t.TempDir(),
	}
	gen, err := NewReportGenerator(config, analysis.NewImpactAnalyzer(models.DefaultIndexPolicy()), nil)
	require.NoError(t, err)
	return gen
}

func TestBuildReportAssemblesIndexAndTrend(t *testing.T) {
	gen := testGenerator(t)

	results := []models.ScanResult{
		reportResult("https://a.example/", 80, reportTracker(models.RiskHigh, models.CategoryAdvertising, "ads.example")),
	}
	byPeriod := map[string][]models.ScanResult{
		"2026-08-19": {reportResult("https://a.example/", 90)},
		"2026-08-20": results,
	}

	report := gen.BuildReport(results, nil, byPeriod, models.PeriodDaily)

	assert.Equal(t, "Privacy Report", report.Title, "empty configured title falls back to the default")
	assert.False(t, report.GeneratedAt.IsZero())
	require.NotNil(t, report.ImpactIndex)
	assert.NotEmpty(t, report.ImpactIndex.Factors)
	require.NotNil(t, report.Trend)
	assert.Equal(t, []string{"2026-08-19", "2026-08-20"}, report.Trend.Labels)
}

func TestBuildReportWithoutHistory(t *testing.T) {
	gen := testGenerator(t)
	report := gen.BuildReport([]models.ScanResult{reportResult("https://a.example/", 100)}, nil, nil, "")

	require.NotNil(t, report.ImpactIndex)
	assert.Nil(t, report.Trend)
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	gen := testGenerator(t)
	report := gen.BuildReport([]models.ScanResult{
		reportResult("https://a.example/", 80, reportTracker(models.RiskHigh, models.CategoryAdvertising, "ads.example")),
	}, nil, nil, "")

	data, err := gen.Generate(report, models.ReportFormatJSON)
	require.NoError(t, err)

	var decoded models.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.Title, decoded.Title)
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, "https://a.example/", decoded.Results[0].URL)
	require.NotNil(t, decoded.ImpactIndex)
}

func TestCSVFormatterRowsAndHeader(t *testing.T) {
	gen := testGenerator(t)
	report := gen.BuildReport([]models.ScanResult{
		reportResult("https://a.example/", 80,
			reportTracker(models.RiskHigh, models.CategoryAdvertising, "ads.example"),
			reportTracker(models.RiskLow, models.CategoryPerformance, "perf.example"),
		),
		reportResult("https://b.example/", 100),
	}, nil, nil, "")

	data, err := gen.Generate(report, models.ReportFormatCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus one row per result")

	assert.Equal(t, "url", records[0][0])
	assert.Equal(t, "https://a.example/", records[1][0])
	assert.Equal(t, "2", records[1][2], "tracker_count")
	assert.Equal(t, "80", records[1][3], "privacy_score")
	assert.Equal(t, "1", records[1][5], "high_risk_trackers")
	assert.Equal(t, "2", records[1][6], "unique_domains")
	assert.Equal(t, "0", records[2][2], "clean page has no trackers")
}

func TestHTMLFormatterRendersReport(t *testing.T) {
	gen := testGenerator(t)
	report := gen.BuildReport([]models.ScanResult{
		reportResult("https://a.example/", 80, reportTracker(models.RiskHigh, models.CategoryAdvertising, "ads.example")),
	}, nil, nil, "")

	data, err := gen.Generate(report, models.ReportFormatHTML)
	require.NoError(t, err)

	html := string(data)
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, report.Title)
	assert.Contains(t, html, "https://a.example/")
	assert.Contains(t, html, "facebook_pixel")
}

func TestGenerateUnknownFormat(t *testing.T) {
	gen := testGenerator(t)
	report := gen.BuildReport(nil, nil, nil, "")

	_, err := gen.Generate(report, "pdf")
	assert.Error(t, err)
}

func TestWriteAllWritesConfiguredFormats(t *testing.T) {
	gen := testGenerator(t, models.ReportFormatJSON, models.ReportFormatCSV, models.ReportFormatHTML)
	report := gen.BuildReport([]models.ScanResult{reportResult("https://a.example/", 90)}, nil, nil, "")

	paths, err := gen.WriteAll(report)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	extensions := make([]string, 0, len(paths))
	for _, p := range paths {
		info, statErr := os.Stat(p)
		require.NoError(t, statErr)
		assert.Greater(t, info.Size(), int64(0))
		extensions = append(extensions, filepath.Ext(p))
	}
	assert.ElementsMatch(t, []string{".json", ".csv", ".html"}, extensions)
}

func TestWriteAllDefaultsToJSON(t *testing.T) {
	gen := testGenerator(t)
	report := gen.BuildReport(nil, nil, nil, "")

	paths, err := gen.WriteAll(report)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, ".json", filepath.Ext(paths[0]))
}

func TestWriteReportCompressed(t *testing.T) {
	gen := testGenerator(t)
	gen.compress = true
	report := gen.BuildReport([]models.ScanResult{reportResult("https://a.example/", 90)}, nil, nil, "")

	path, err := gen.WriteReport(report, models.ReportFormatJSON)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".json.gz"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gzr, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gzr.Close()

	var decoded models.Report
	require.NoError(t, json.NewDecoder(gzr).Decode(&decoded))
	require.Len(t, decoded.Results, 1)
}
