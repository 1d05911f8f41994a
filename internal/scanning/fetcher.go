package scanning

import (
	"context"
	crand "crypto/rand"
	"crypto/tls"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

// maxBodyBytes caps how much of a response we read. Tracker signals live in
// the document markup, so truncating very large pages loses nothing useful.
const maxBodyBytes = 10 << 20

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

// HTTPFetcher retrieves pages for analysis. A single fetcher is safe for
// concurrent use; redirect counting is tracked per request through the
// request context.
type HTTPFetcher struct {
	client *http.Client
	config models.ScanConfiguration
	pacer  *rate.Limiter
	logger *logrus.Logger
}

type redirectTrack struct{ count int }

type redirectTrackKey struct{}

func NewHTTPFetcher(config models.ScanConfiguration, logger *logrus.Logger) *HTTPFetcher {
	if logger == nil {
		logger = logrus.New()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: !config.VerifySSL},
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   config.ConcurrencyLimit,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: config.RequestTimeout,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !config.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if track, ok := req.Context().Value(redirectTrackKey{}).(*redirectTrack); ok {
				track.count = len(via)
			}
			if len(via) >= config.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", config.MaxRedirects)
			}
			return nil
		},
	}

	var pacer *rate.Limiter
	if config.RateLimitDelay > 0 {
		pacer = rate.NewLimiter(rate.Every(config.RateLimitDelay), 1)
	}

	return &HTTPFetcher{
		client: client,
		config: config,
		pacer:  pacer,
		logger: logger,
	}
}

// Fetch retrieves a page body. Metrics carry whatever was observed before a
// failure, so a timeout still reports its elapsed time and a 404 still
// reports its status code.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (string, models.PerformanceMetrics, error) {
	var metrics models.PerformanceMetrics

	if f.pacer != nil {
		if err := f.pacer.Wait(ctx); err != nil {
			return "", metrics, err
		}
	}

	track := &redirectTrack{}
	ctx = context.WithValue(ctx, redirectTrackKey{}, track)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", metrics, fmt.Errorf("build request for %s: %w", targetURL, err)
	}

	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range f.config.CustomHeaders {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	metrics.ResponseTime = time.Since(start)
	metrics.RedirectCount = track.count
	if err != nil {
		return "", metrics, fmt.Errorf("fetch %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	metrics.StatusCode = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.ResponseTime = time.Since(start)
	metrics.ContentLength = int64(len(body))
	if err != nil {
		return "", metrics, fmt.Errorf("read body of %s: %w", targetURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return "", metrics, fmt.Errorf("fetch %s: unexpected status %d", targetURL, resp.StatusCode)
	}

	f.logger.WithFields(logrus.Fields{
		"url":       targetURL,
		"status":    resp.StatusCode,
		"bytes":     metrics.ContentLength,
		"duration":  metrics.ResponseTime.String(),
		"redirects": metrics.RedirectCount,
	}).Debug("page fetched")

	return string(body), metrics, nil
}

func randomUserAgent() string {
	n, err := crand.Int(crand.Reader, big.NewInt(int64(len(userAgents))))
	if err != nil {
		return userAgents[0]
	}
	return userAgents[n.Int64()]
}
