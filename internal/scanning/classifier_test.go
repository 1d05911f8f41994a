package scanning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brian-scardina/spyspotter/internal/intel"
	"github.com/brian-scardina/spyspotter/pkg/models"
)

func testClassifier(t *testing.T) *SignatureClassifier {
	t.Helper()
	db, err := intel.Load("", nil)
	require.NoError(t, err)
	return NewSignatureClassifier(db, nil)
}

func findTracker(trackers []models.TrackerInfo, trackerType string) (models.TrackerInfo, bool) {
	for _, tr := range trackers {
		if tr.TrackerType == trackerType {
			return tr, true
		}
	}
	return models.TrackerInfo{}, false
}

func TestClassifyDomainMatchHasFullConfidence(t *testing.T) {
	c := testClassifier(t)
	signals := Signals{Pixels: []Signal{{
		Kind:      SignalPixel,
		Source:    "https://www.facebook.com/tr?id=123",
		Domain:    "www.facebook.com",
		Snippet:   "https://www.facebook.com/tr?id=123",
		PixelLike: true,
	}}}

	trackers := c.Classify(signals, "https://example.com/")
	fb, ok := findTracker(trackers, "facebook_pixel")
	require.True(t, ok)
	assert.Equal(t, 1.0, fb.Confidence)
	assert.Equal(t, models.RiskHigh, fb.RiskLevel)
	assert.Equal(t, "www.facebook.com", fb.Domain)
}

func TestClassifyInlinePatternMatch(t *testing.T) {
	c := testClassifier(t)
	signals := Signals{Scripts: []Signal{{
		Kind:    SignalScript,
		Source:  "inline",
		Snippet: "fbq('init', '123'); fbq('track', 'PageView');",
	}}}

	trackers := c.Classify(signals, "https://example.com/")
	fb, ok := findTracker(trackers, "facebook_pixel")
	require.True(t, ok)
	assert.Equal(t, 0.8, fb.Confidence)
}

func TestClassifyReportsEverySignatureMatch(t *testing.T) {
	c := testClassifier(t)
	// One inline script bootstrapping two different trackers.
	signals := Signals{Scripts: []Signal{{
		Kind:    SignalScript,
		Source:  "inline",
		Snippet: "gtag('config', 'G-1'); fbq('init', '2');",
	}}}

	trackers := c.Classify(signals, "https://example.com/")
	_, hasGA := findTracker(trackers, "google_analytics")
	_, hasFB := findTracker(trackers, "facebook_pixel")
	assert.True(t, hasGA)
	assert.True(t, hasFB)
}

func TestClassifyUnknownPixelFallsBack(t *testing.T) {
	c := testClassifier(t)
	signals := Signals{Pixels: []Signal{{
		Kind:      SignalPixel,
		Source:    "https://cdn.obscure-vendor.example/i.gif",
		Domain:    "cdn.obscure-vendor.example",
		Snippet:   "https://cdn.obscure-vendor.example/i.gif",
		PixelLike: true,
	}}}

	trackers := c.Classify(signals, "https://example.com/")
	require.Len(t, trackers, 1)
	assert.Equal(t, "generic_tracking_pixel", trackers[0].TrackerType)
	assert.Equal(t, models.CategoryUnknown, trackers[0].Category)
	assert.Equal(t, models.RiskLow, trackers[0].RiskLevel)
	assert.Equal(t, 0.4, trackers[0].Confidence)
}

func TestClassifyPlatformMetaIsNotATracker(t *testing.T) {
	c := testClassifier(t)
	signals := Signals{Metas: []Signal{{
		Kind:    SignalMeta,
		Source:  "og:title",
		Snippet: "Example",
	}}}
	assert.Empty(t, c.Classify(signals, "https://example.com/"))
}

func TestClassifyVerificationMetaReported(t *testing.T) {
	c := testClassifier(t)
	signals := Signals{Metas: []Signal{{
		Kind:    SignalMeta,
		Source:  "google-site-verification",
		Snippet: "token",
	}}}

	trackers := c.Classify(signals, "https://example.com/")
	require.Len(t, trackers, 1)
	assert.Equal(t, "meta_google-site-verification", trackers[0].TrackerType)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := testClassifier(t)
	signals := Signals{
		Pixels: []Signal{{
			Kind: SignalPixel, Source: "https://www.facebook.com/tr", Domain: "www.facebook.com",
			Snippet: "https://www.facebook.com/tr", PixelLike: true,
		}},
		Scripts: []Signal{{Kind: SignalScript, Source: "inline", Snippet: "gtag('config', 'G-1');"}},
	}

	first := c.Classify(signals, "https://example.com/")
	second := c.Classify(signals, "https://example.com/")
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].TrackerType, second[i].TrackerType)
		assert.Equal(t, first[i].Confidence, second[i].Confidence)
	}
}

func TestClassifyEmptySignals(t *testing.T) {
	c := testClassifier(t)
	assert.Empty(t, c.Classify(Signals{}, "https://example.com/"))
}

func TestClassifySortsByRisk(t *testing.T) {
	c := testClassifier(t)
	signals := Signals{Scripts: []Signal{
		{Kind: SignalScript, Source: "inline", Snippet: "optimizely.push(['activate']);"},
		{Kind: SignalScript, Source: "inline", Snippet: "FingerprintJS.load().then(fp => fp.get());"},
	}}

	trackers := c.Classify(signals, "https://example.com/")
	require.GreaterOrEqual(t, len(trackers), 2)
	assert.Equal(t, "fingerprintjs", trackers[0].TrackerType)
}
