// Package metrics exposes Prometheus collectors for the crawl and transform phases.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values shared by the collectors.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	DecisionKept     = "kept"
	DecisionFiltered = "filtered"
	DecisionRejected = "rejected"
)

var (
	fetchAttemptsTotal  *prometheus.CounterVec
	listingPagesTotal   *prometheus.CounterVec
	itemsTotal          *prometheus.CounterVec
	transformRowsTotal  *prometheus.CounterVec
	fetchBackoffSeconds prometheus.Histogram
	rateLimitWait       prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_fetch_attempts_total",
				Help: "Total number of single HTTP fetch attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		listingPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_listing_pages_total",
				Help: "Total number of listing pages processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		itemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_items_total",
				Help: "Total number of detail links processed, labeled by audit status.",
			},
			[]string{"status"},
		)

		transformRowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_transform_rows_total",
				Help: "Total number of raw records seen by the transform, labeled by decision.",
			},
			[]string{"decision"},
		)

		fetchBackoffSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalog_fetch_backoff_seconds",
				Help:    "Histogram of waits between fetch attempts.",
				Buckets: []float64{0.5, 1, 1.5, 3, 5, 10},
			},
		)

		rateLimitWait = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalog_rate_limit_wait_seconds",
				Help:    "Histogram of delays introduced by the request rate limiter.",
				Buckets: prometheus.DefBuckets,
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveFetchAttempt counts one fetch attempt.
func ObserveFetchAttempt(outcome string) {
	Init()
	fetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveBackoff records a wait between fetch attempts.
func ObserveBackoff(seconds float64) {
	Init()
	fetchBackoffSeconds.Observe(seconds)
}

// ObserveRateLimitWait records time spent waiting for a request token.
func ObserveRateLimitWait(d time.Duration) {
	Init()
	rateLimitWait.Observe(d.Seconds())
}

// ObserveListingPage counts one processed listing page.
func ObserveListingPage(outcome string) {
	Init()
	listingPagesTotal.WithLabelValues(outcome).Inc()
}

// ObserveItem counts one detail link by its audit status.
func ObserveItem(status string) {
	Init()
	itemsTotal.WithLabelValues(status).Inc()
}

// ObserveTransformRow counts one raw record by the transform's decision.
func ObserveTransformRow(decision string) {
	Init()
	transformRowsTotal.WithLabelValues(decision).Inc()
}
