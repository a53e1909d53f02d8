package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Detail fetch outcome labels.
const (
	OutcomeEnriched    = "enriched"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeUnusable    = "unusable"
)

// Metrics bundles Prometheus collectors for the crawler.
type Metrics struct {
	Registry           *prometheus.Registry
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    prometheus.Histogram
	ListingPagesTotal  *prometheus.CounterVec
	DetailFetchesTotal *prometheus.CounterVec
	CacheHitsTotal     prometheus.Counter
	DuplicatesTotal    prometheus.Counter
	RowsDiscardedTotal prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_requests_total",
			Help: "Total HTTP requests issued by the crawler.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_request_duration_seconds",
			Help:    "HTTP request latency for crawler requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	listingPages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_listing_pages_total",
			Help: "Listing pages processed, by outcome.",
		},
		[]string{"outcome"},
	)
	detailFetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_detail_fetches_total",
			Help: "Detail-page enrichment attempts, by outcome.",
		},
		[]string{"outcome"},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_notes_cache_hits_total",
			Help: "Variants whose notes came from the persisted cache.",
		},
	)
	duplicates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_duplicates_skipped_total",
			Help: "Variant URLs seen more than once within a run.",
		},
	)
	rowsDiscarded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_rows_discarded_total",
			Help: "Listing rows discarded for missing a SKU.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_errors_total",
			Help: "Total fetch errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, listingPages, detailFetches,
		cacheHits, duplicates, rowsDiscarded, errorsTotal)

	return &Metrics{
		Registry:           registry,
		RequestsTotal:      requests,
		RequestDuration:    requestDuration,
		ListingPagesTotal:  listingPages,
		DetailFetchesTotal: detailFetches,
		CacheHitsTotal:     cacheHits,
		DuplicatesTotal:    duplicates,
		RowsDiscardedTotal: rowsDiscarded,
		ErrorsTotal:        errorsTotal,
	}
}

// IncRequest increments the request counter for a phase (listing/detail).
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncListingPage records a processed listing page by outcome.
func (m *Metrics) IncListingPage(outcome string) {
	if m == nil {
		return
	}
	m.ListingPagesTotal.WithLabelValues(outcome).Inc()
}

// IncDetailFetch records a detail enrichment attempt by outcome.
func (m *Metrics) IncDetailFetch(outcome string) {
	if m == nil {
		return
	}
	m.DetailFetchesTotal.WithLabelValues(outcome).Inc()
}

// IncCacheHit increments the notes cache hit counter.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// IncDuplicate increments the duplicate-skipped counter.
func (m *Metrics) IncDuplicate() {
	if m == nil {
		return
	}
	m.DuplicatesTotal.Inc()
}

// IncRowDiscarded increments the missing-SKU discard counter.
func (m *Metrics) IncRowDiscarded() {
	if m == nil {
		return
	}
	m.RowsDiscardedTotal.Inc()
}

// IncError increments the errors counter for a classification label.
func (m *Metrics) IncError(kind ErrorKind) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(string(kind)).Inc()
}
