package reporting

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/brian-scardina/spyspotter/pkg/utils"
)

// TemplateManager holds the parsed HTML report templates. The built-in
// report template is registered at construction; LoadDir lets deployments
// override it with their own files.
type TemplateManager struct {
	templates map[string]*template.Template
	mu        sync.RWMutex
}

func reportFuncs() template.FuncMap {
	return template.FuncMap{
		"humanDuration": utils.HumanizeDuration,
		"formatTime": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04:05 UTC")
		},
		"percent": func(f float64) string {
			return fmt.Sprintf("%.0f%%", f*100)
		},
		"scoreClass": func(score int) string {
			switch {
			case score >= 80:
				return "score-good"
			case score >= 50:
				return "score-fair"
			}
			return "score-poor"
		},
	}
}

func NewTemplateManager() (*TemplateManager, error) {
	tm := &TemplateManager{templates: make(map[string]*template.Template)}
	if err := tm.Register(htmlReportTemplateName, htmlReportTemplate, reportFuncs()); err != nil {
		return nil, err
	}
	return tm, nil
}

func (tm *TemplateManager) Register(name, tpl string, funcs template.FuncMap) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	t := template.New(name)
	if funcs != nil {
		t = t.Funcs(funcs)
	}
	parsed, err := t.Parse(tpl)
	if err != nil {
		return fmt.Errorf("parse %q: %w", name, err)
	}
	tm.templates[name] = parsed
	return nil
}

// LoadDir registers every template file in dir, overriding built-ins that
// share a name.
func (tm *TemplateManager) LoadDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if ext != ".tmpl" && ext != ".gohtml" && ext != ".html" {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %q: %w", path, err)
		}
		return tm.Register(d.Name(), string(b), reportFuncs())
	})
}

func (tm *TemplateManager) Get(name string) (*template.Template, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	t, ok := tm.templates[name]
	return t, ok
}

const htmlReportTemplateName = "report.html"

const htmlReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 960px; color: #1f2430; }
h1 { border-bottom: 2px solid #e3e6ee; padding-bottom: .5rem; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { text-align: left; padding: .45rem .6rem; border-bottom: 1px solid #e3e6ee; }
th { background: #f4f6fb; }
.badge { display: inline-block; padding: .1rem .5rem; border-radius: .6rem; font-size: .85em; color: #fff; }
.badge-low { background: #3d9a50; }
.badge-medium { background: #d8a012; }
.badge-high { background: #d8642a; }
.badge-critical { background: #c0262e; }
.badge-unknown { background: #8a8fa3; }
.score-good { color: #3d9a50; font-weight: 600; }
.score-fair { color: #d8a012; font-weight: 600; }
.score-poor { color: #c0262e; font-weight: 600; }
.error { color: #c0262e; }
.summary-cards { display: flex; gap: 1rem; flex-wrap: wrap; }
.card { flex: 1 1 180px; background: #f4f6fb; border-radius: .5rem; padding: 1rem; }
.card .value { font-size: 1.6rem; font-weight: 700; }
footer { margin-top: 2rem; font-size: .85em; color: #8a8fa3; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Generated {{formatTime .GeneratedAt}} &middot; {{len .Results}} pages scanned</p>

{{with .ImpactIndex}}
<div class="summary-cards">
  <div class="card"><div>Privacy impact index</div><div class="value">{{printf "%.1f" .Score}}</div></div>
  <div class="card"><div>Risk category</div><div class="value"><span class="badge badge-{{.RiskCategory}}">{{.RiskCategory}}</span></div></div>
  <div class="card"><div>Trend</div><div class="value">{{.Trending}}</div></div>
  <div class="card"><div>Compliance</div><div class="value">{{printf "%.1f" .ComplianceScore}}</div></div>
</div>
<h2>Index factors</h2>
<table>
<tr><th>Factor</th><th>Score</th></tr>
{{range $name, $score := .Factors}}<tr><td>{{$name}}</td><td>{{printf "%.1f" $score}}</td></tr>
{{end}}
</table>
{{end}}

<h2>Scan results</h2>
<table>
<tr><th>URL / tracker</th><th>Privacy score</th><th>Risk</th><th>Trackers</th><th>Duration</th></tr>
{{range .Results}}
<tr>
  <td>{{.URL}}</td>
  {{if .Failed}}
  <td colspan="3" class="error">{{.Error}}</td>
  {{else}}
  <td class="{{scoreClass .PrivacyAnalysis.PrivacyScore}}">{{.PrivacyAnalysis.PrivacyScore}}</td>
  <td><span class="badge badge-{{.PrivacyAnalysis.RiskLevel}}">{{.PrivacyAnalysis.RiskLevel}}</span></td>
  <td>{{len .Trackers}}</td>
  {{end}}
  <td>{{humanDuration .ScanDuration}}</td>
</tr>
{{range .Trackers}}
<tr>
  <td style="padding-left:2rem">{{.TrackerType}}</td>
  <td>{{.Domain}}</td>
  <td><span class="badge badge-{{.RiskLevel}}">{{.RiskLevel}}</span></td>
  <td>{{.Category}}</td>
  <td>{{percent .Confidence}} confidence</td>
</tr>
{{end}}
{{end}}
</table>

{{with .Trend}}
<h2>Trend ({{.Period}})</h2>
<table>
<tr><th>Period</th><th>Avg privacy score</th><th>Trackers</th><th>Domains</th></tr>
{{range $i, $label := .Labels}}
<tr>
  <td>{{$label}}</td>
  <td>{{index $.Trend.PrivacyScoreTrend $i}}</td>
  <td>{{index $.Trend.TrackerCountTrend $i}}</td>
  <td>{{index $.Trend.DomainCountTrend $i}}</td>
</tr>
{{end}}
</table>
{{end}}

<footer>Generated by SpySpotter</footer>
</body>
</html>
`
