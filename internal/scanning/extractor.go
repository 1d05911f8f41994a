package scanning

import (
	"regexp"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/net/html"

	"github.com/brian-scardina/spyspotter/pkg/utils"
)

// inlineSnippetLimit bounds how much inline script text travels with a
// signal. Tracking bootstraps sit at the top of the script, so the head of
// the text is enough for classification.
const inlineSnippetLimit = 4096

var (
	hiddenStyleRe   = regexp.MustCompile(`(?i)(width|height)\s*:\s*[01]px|display\s*:\s*none|visibility\s*:\s*hidden`)
	trackingParamRe = regexp.MustCompile(`(?i)[?&](utm_[a-z]+|fbclid|gclid|msclkid|pixel_id|tid|cid)=`)
	inlineCallRe    = regexp.MustCompile(`(?i)\b(ga|gtag|fbq|ttq|pintrk|hj|_hsq|_gaq|dataLayer|mixpanel|amplitude|snaptr|twq|uetq)\b`)
	verificationRe  = regexp.MustCompile(`(?i)(verification|validate|domain-verify)`)
)

// HTMLExtractor walks the parsed document tree and proposes candidate
// tracking signals: pixel-like images, script references with known tracking
// shapes, and platform meta tags. It makes no risk judgement.
type HTMLExtractor struct{}

func NewHTMLExtractor() *HTMLExtractor { return &HTMLExtractor{} }

func (e *HTMLExtractor) Extract(content, pageURL string) Signals {
	var signals Signals
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		// html.Parse recovers from almost anything; a hard failure means
		// there is no tree to walk.
		return signals
	}

	pageHost := strings.ToLower(utils.HostnameOf(pageURL))
	seen := make(map[uint64]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "img":
				if sig, ok := e.pixelSignal(n, pageHost); ok {
					appendUnique(&signals.Pixels, sig, seen)
				}
			case "script":
				if sig, ok := e.scriptSignal(n, pageHost); ok {
					appendUnique(&signals.Scripts, sig, seen)
				}
			case "meta":
				if sig, ok := e.metaSignal(n); ok {
					appendUnique(&signals.Metas, sig, seen)
				}
			case "iframe", "noscript":
				// Pixel fallbacks commonly hide inside noscript blocks and
				// tracking iframes; their children are walked like any other.
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return signals
}

func (e *HTMLExtractor) pixelSignal(n *html.Node, pageHost string) (Signal, bool) {
	attrs := attrMap(n)
	src := attrs["src"]
	if src == "" {
		return Signal{}, false
	}

	pixelLike := isPixelSized(attrs["width"]) && isPixelSized(attrs["height"])
	if !pixelLike {
		pixelLike = hiddenStyleRe.MatchString(attrs["style"])
	}
	tracked := trackingParamRe.MatchString(src)

	host := strings.ToLower(utils.HostnameOf(src))
	thirdParty := host != "" && host != pageHost

	// A visible first-party image with no tracking parameters is just an
	// image.
	if !pixelLike && !tracked {
		return Signal{}, false
	}
	if !pixelLike && !thirdParty {
		return Signal{}, false
	}

	return Signal{
		Kind:      SignalPixel,
		Source:    src,
		Domain:    host,
		Snippet:   src,
		PixelLike: pixelLike,
		Attrs:     attrs,
	}, true
}

func (e *HTMLExtractor) scriptSignal(n *html.Node, pageHost string) (Signal, bool) {
	attrs := attrMap(n)
	if src := attrs["src"]; src != "" {
		host := strings.ToLower(utils.HostnameOf(src))
		if host == "" || host == pageHost {
			return Signal{}, false
		}
		return Signal{
			Kind:    SignalScript,
			Source:  src,
			Domain:  host,
			Snippet: src,
			Attrs:   attrs,
		}, true
	}

	text := innerText(n)
	if !inlineCallRe.MatchString(text) {
		return Signal{}, false
	}
	if len(text) > inlineSnippetLimit {
		text = text[:inlineSnippetLimit]
	}
	return Signal{
		Kind:    SignalScript,
		Source:  "inline",
		Snippet: text,
	}, true
}

func (e *HTMLExtractor) metaSignal(n *html.Node) (Signal, bool) {
	attrs := attrMap(n)
	name := attrs["name"]
	if name == "" {
		name = attrs["property"]
	}
	if name == "" {
		return Signal{}, false
	}

	lower := strings.ToLower(name)
	platform := strings.HasPrefix(lower, "og:") ||
		strings.HasPrefix(lower, "twitter:") ||
		strings.HasPrefix(lower, "fb:") ||
		strings.HasPrefix(lower, "al:")
	verification := verificationRe.MatchString(lower)
	if !platform && !verification {
		return Signal{}, false
	}

	return Signal{
		Kind:    SignalMeta,
		Source:  name,
		Snippet: attrs["content"],
		Attrs:   attrs,
	}, true
}

// appendUnique drops signals whose identity hash was already recorded, so a
// pixel repeated across the page counts once.
func appendUnique(dst *[]Signal, sig Signal, seen map[uint64]struct{}) {
	h := xxh3.HashString(string(sig.Kind) + "\x00" + sig.Source + "\x00" + sig.Snippet)
	if _, ok := seen[h]; ok {
		return
	}
	seen[h] = struct{}{}
	*dst = append(*dst, sig)
}

func attrMap(n *html.Node) map[string]string {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[strings.ToLower(a.Key)] = a.Val
	}
	return attrs
}

func isPixelSized(v string) bool {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	return v == "0" || v == "1"
}

func innerText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
