package scanning

import (
	"context"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

// Component contracts are explicit interfaces so tests can inject fakes and
// alternative implementations can be wired at construction time.

type Fetcher interface {
	// Fetch retrieves a page. Metrics are populated whether or not the fetch
	// succeeded.
	Fetch(ctx context.Context, url string) (string, models.PerformanceMetrics, error)
}

type SignalExtractor interface {
	Extract(content, pageURL string) Signals
}

type Classifier interface {
	Classify(signals Signals, sourceURL string) []models.TrackerInfo
}

type Scorer interface {
	Analyze(trackers []models.TrackerInfo) models.PrivacyAnalysis
}

type SignalKind string

const (
	SignalPixel  SignalKind = "pixel"
	SignalScript SignalKind = "script"
	SignalMeta   SignalKind = "meta"
)

// Signal is one candidate tracking artifact proposed by the extractor. The
// extractor makes no risk judgement; classification happens downstream.
type Signal struct {
	Kind      SignalKind        `json:"kind"`
	Source    string            `json:"source"`  // src URL, "inline", or meta name
	Domain    string            `json:"domain"`  // hostname of Source when external
	Snippet   string            `json:"snippet"` // inline text or attribute content
	PixelLike bool              `json:"pixel_like"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

type Signals struct {
	Pixels  []Signal `json:"pixels"`
	Scripts []Signal `json:"scripts"`
	Metas   []Signal `json:"metas"`
}

func (s Signals) All() []Signal {
	out := make([]Signal, 0, len(s.Pixels)+len(s.Scripts)+len(s.Metas))
	out = append(out, s.Pixels...)
	out = append(out, s.Scripts...)
	out = append(out, s.Metas...)
	return out
}

func (s Signals) Empty() bool {
	return len(s.Pixels) == 0 && len(s.Scripts) == 0 && len(s.Metas) == 0
}
