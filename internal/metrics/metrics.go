// Package metrics provides Prometheus instrumentation for titlecss.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sanitize outcomes recorded by SanitizeTotal.
const (
	OutcomeUnchanged = "unchanged"
	OutcomeAltered   = "altered"
	OutcomeCleared   = "cleared"
)

// HTTP metrics.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "titlecss_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "titlecss_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Styling metrics.
var (
	SanitizeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "titlecss_sanitize_total",
		Help: "Title CSS writes by sanitization outcome.",
	}, []string{"outcome"})

	StyleCacheFlushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "titlecss_style_cache_flushes_total",
		Help: "Times the style cache overflowed and was cleared.",
	})

	StylesheetRebuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "titlecss_stylesheet_rebuilds_total",
		Help: "Times the generated title stylesheet was rebuilt.",
	})
)

// RecordSanitize counts one title CSS write.
func RecordSanitize(outcome string) {
	SanitizeTotal.WithLabelValues(outcome).Inc()
}

// Observer forwards render applicator events to the styling counters.
type Observer struct{}

// CacheFlushed implements render.Observer.
func (Observer) CacheFlushed() { StyleCacheFlushesTotal.Inc() }

// StylesheetRebuilt implements render.Observer.
func (Observer) StylesheetRebuilt(int) { StylesheetRebuildsTotal.Inc() }
