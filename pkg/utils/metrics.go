package utils

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScanMetrics exposes the engine's prometheus instrumentation on a private
// registry so multiple scanner instances (tests included) never collide.
type ScanMetrics struct {
	registry *prometheus.Registry

	scansTotal       *prometheus.CounterVec
	trackersFound    prometheus.Gauge
	privacyScore     prometheus.Gauge
	scanDuration     prometheus.Histogram
	fetchDuration    prometheus.Histogram
	rateLimitDenials *prometheus.CounterVec
}

func NewScanMetrics(enableRuntimeMetrics bool) *ScanMetrics {
	reg := prometheus.NewRegistry()

	if enableRuntimeMetrics {
		_ = reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		_ = reg.Register(collectors.NewGoCollector())
	}

	m := &ScanMetrics{
		registry: reg,
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spyspotter_scans_total",
			Help: "Total number of URL scans by outcome.",
		}, []string{"outcome"}),
		trackersFound: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spyspotter_trackers_found",
			Help: "Trackers found in the most recent scan.",
		}),
		privacyScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spyspotter_privacy_score",
			Help: "Privacy score of the most recent scan.",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spyspotter_scan_duration_seconds",
			Help:    "End-to-end scan duration per URL.",
			Buckets: prometheus.DefBuckets,
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spyspotter_fetch_duration_seconds",
			Help:    "HTTP fetch duration per URL.",
			Buckets: prometheus.DefBuckets,
		}),
		rateLimitDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spyspotter_ratelimit_denied_total",
			Help: "Rate limiter denials by tier.",
		}, []string{"tier"}),
	}

	reg.MustRegister(m.scansTotal, m.trackersFound, m.privacyScore,
		m.scanDuration, m.fetchDuration, m.rateLimitDenials)
	return m
}

func (m *ScanMetrics) RecordScan(trackers, score int, duration time.Duration, failed bool) {
	outcome := "success"
	if failed {
		outcome = "error"
	}
	m.scansTotal.WithLabelValues(outcome).Inc()
	m.scanDuration.Observe(duration.Seconds())
	if !failed {
		m.trackersFound.Set(float64(trackers))
		m.privacyScore.Set(float64(score))
	}
}

func (m *ScanMetrics) RecordFetch(duration time.Duration) {
	m.fetchDuration.Observe(duration.Seconds())
}

func (m *ScanMetrics) RecordRateLimitDenial(tier string) {
	m.rateLimitDenials.WithLabelValues(tier).Inc()
}

func (m *ScanMetrics) Registry() *prometheus.Registry { return m.registry }

func (m *ScanMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs a /metrics listener until ctx is cancelled.
func (m *ScanMetrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
