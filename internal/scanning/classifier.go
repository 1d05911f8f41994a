package scanning

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brian-scardina/spyspotter/internal/intel"
	"github.com/brian-scardina/spyspotter/pkg/models"
)

// Confidence tiers, highest first: an exact domain match beats a content
// pattern match beats a structural heuristic.
const (
	confidenceDomain    = 1.0
	confidencePattern   = 0.8
	confidenceHeuristic = 0.5
	confidenceFallback  = 0.4
)

// SignatureClassifier matches extracted signals against the intelligence
// catalogue. Classification is pure with respect to the catalogue: the same
// signals and database always produce the same trackers.
type SignatureClassifier struct {
	db     *intel.Database
	logger *logrus.Logger
}

func NewSignatureClassifier(db *intel.Database, logger *logrus.Logger) *SignatureClassifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &SignatureClassifier{db: db, logger: logger}
}

// Classify turns candidate signals into detected trackers. One signal can
// match several signatures, and each match is reported separately; the same
// signature matched by both domain and pattern is reported once at the
// higher confidence.
func (c *SignatureClassifier) Classify(signals Signals, sourceURL string) []models.TrackerInfo {
	now := time.Now().UTC()
	var trackers []models.TrackerInfo

	for _, sig := range signals.All() {
		matched := c.matchSignal(sig, now)
		if len(matched) == 0 {
			if t, ok := c.fallback(sig, now); ok {
				matched = append(matched, t)
			}
		}
		trackers = append(trackers, matched...)
	}

	sort.SliceStable(trackers, func(i, j int) bool {
		if trackers[i].RiskLevel.Rank() != trackers[j].RiskLevel.Rank() {
			return trackers[i].RiskLevel.Rank() > trackers[j].RiskLevel.Rank()
		}
		return trackers[i].TrackerType < trackers[j].TrackerType
	})

	if len(trackers) > 0 {
		c.logger.WithFields(logrus.Fields{
			"url":      sourceURL,
			"trackers": len(trackers),
		}).Debug("signals classified")
	}
	return trackers
}

func (c *SignatureClassifier) matchSignal(sig Signal, now time.Time) []models.TrackerInfo {
	// signature ID -> confidence of the best match seen so far
	best := make(map[string]float64)

	for _, known := range c.db.ByDomain(sig.Domain) {
		best[known.ID] = confidenceDomain
	}

	for _, known := range c.db.All() {
		if best[known.ID] >= confidenceDomain {
			continue
		}
		for _, re := range c.db.Patterns(known.ID) {
			if re.MatchString(sig.Snippet) || re.MatchString(sig.Source) {
				if confidencePattern > best[known.ID] {
					best[known.ID] = confidencePattern
				}
				break
			}
		}
	}

	out := make([]models.TrackerInfo, 0, len(best))
	for id, confidence := range best {
		known, _ := c.db.Get(id)
		out = append(out, c.trackerFrom(sig, known, confidence, now))
	}
	return out
}

func (c *SignatureClassifier) trackerFrom(sig Signal, known *models.TrackerSignature, confidence float64, now time.Time) models.TrackerInfo {
	domain := sig.Domain
	if domain == "" && len(known.Domains) > 0 {
		domain = known.Domains[0]
	}
	return models.TrackerInfo{
		TrackerType: known.ID,
		Domain:      domain,
		Source:      sig.Source,
		Category:    known.Category,
		RiskLevel:   known.RiskLevel,
		Purpose:     known.Purpose,
		Confidence:  confidence,
		FirstSeen:   now,
		Details: map[string]interface{}{
			"signal_kind":   string(sig.Kind),
			"name":          known.Name,
			"gdpr_relevant": known.GDPRRelevant,
			"ccpa_relevant": known.CCPARelevant,
		},
	}
}

// fallback covers signals no signature recognizes. An unmatched 1x1 pixel is
// still a tracking artifact worth reporting, just at low confidence.
func (c *SignatureClassifier) fallback(sig Signal, now time.Time) (models.TrackerInfo, bool) {
	switch {
	case sig.Kind == SignalPixel && sig.PixelLike:
		return models.TrackerInfo{
			TrackerType: "generic_tracking_pixel",
			Domain:      sig.Domain,
			Source:      sig.Source,
			Category:    models.CategoryUnknown,
			RiskLevel:   models.RiskLow,
			Purpose:     "unidentified tracking pixel",
			Confidence:  confidenceFallback,
			FirstSeen:   now,
			Details:     map[string]interface{}{"signal_kind": string(sig.Kind)},
		}, true
	case sig.Kind == SignalPixel:
		// Visible image that only qualified through tracking parameters.
		return models.TrackerInfo{
			TrackerType: "tracking_parameters",
			Domain:      sig.Domain,
			Source:      sig.Source,
			Category:    models.CategoryMarketingAutomation,
			RiskLevel:   models.RiskLow,
			Purpose:     "campaign attribution parameters",
			Confidence:  confidenceHeuristic,
			FirstSeen:   now,
			Details:     map[string]interface{}{"signal_kind": string(sig.Kind)},
		}, true
	case sig.Kind == SignalMeta && verificationRe.MatchString(sig.Source):
		// Platform metadata (og:, twitter:) is recorded as a signal but is
		// not a tracker by itself; only verification tags tie the page to an
		// external platform account.
		return models.TrackerInfo{
			TrackerType: fmt.Sprintf("meta_%s", sig.Source),
			Domain:      "",
			Source:      sig.Source,
			Category:    models.CategoryUnknown,
			RiskLevel:   models.RiskLow,
			Purpose:     "site ownership verification",
			Confidence:  confidenceHeuristic,
			FirstSeen:   now,
			Details:     map[string]interface{}{"signal_kind": string(sig.Kind), "content": sig.Snippet},
		}, true
	}
	return models.TrackerInfo{}, false
}
