// Package metrics defines the Prometheus metrics exported by the study service.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the study service
type Metrics struct {
	// Scheduling metrics
	ReviewsTotal     *prometheus.CounterVec
	ScheduledDays    *prometheus.HistogramVec
	DueSelections    prometheus.Counter
	DueItemsReturned prometheus.Histogram

	// Session metrics
	SessionsStarted   prometheus.Counter
	SessionsFinalized prometheus.Counter
	SessionCards      prometheus.Histogram
	TallyErrors       *prometheus.CounterVec

	// Deck metrics
	CardsAdded *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers all Prometheus metrics.
// Registration happens once; later calls return the same instance.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			ReviewsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "scry_study_reviews_total",
					Help: "Total number of rated reviews",
				},
				[]string{"rating"},
			),
			ScheduledDays: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "scry_study_scheduled_interval_days",
					Help:    "Review interval assigned by a rating, in days",
					Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1d to 512d
				},
				[]string{"rating"},
			),
			DueSelections: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "scry_study_due_selections_total",
					Help: "Total number of due item selections",
				},
			),
			DueItemsReturned: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "scry_study_due_items_returned",
					Help:    "Number of items returned by a due selection",
					Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
				},
			),

			SessionsStarted: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "scry_study_sessions_started_total",
					Help: "Total number of study sessions started",
				},
			),
			SessionsFinalized: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "scry_study_sessions_finalized_total",
					Help: "Total number of study sessions finalized",
				},
			),
			SessionCards: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "scry_study_session_cards",
					Help:    "Cards studied per finalized session",
					Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1 to 128
				},
			),
			TallyErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "scry_study_tally_errors_total",
					Help: "Session tally updates that failed after a committed review",
				},
				[]string{"reason"},
			),

			CardsAdded: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "scry_study_cards_added_total",
					Help: "Total number of study cards added to decks",
				},
				[]string{"source"}, // source: verse, chapter
			),

			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "scry_study_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "scry_study_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),
		}
	})

	return sharedMetrics
}

// RecordReview records a committed rating and the interval it produced
func (m *Metrics) RecordReview(rating string, intervalDays int) {
	m.ReviewsTotal.WithLabelValues(rating).Inc()
	m.ScheduledDays.WithLabelValues(rating).Observe(float64(intervalDays))
}

// RecordDueSelection records one due selection and its result size
func (m *Metrics) RecordDueSelection(returned int) {
	m.DueSelections.Inc()
	m.DueItemsReturned.Observe(float64(returned))
}

// RecordSessionFinalized records a finalized session
func (m *Metrics) RecordSessionFinalized(cardsStudied int) {
	m.SessionsFinalized.Inc()
	m.SessionCards.Observe(float64(cardsStudied))
}

// RecordCardsAdded records cards added to a deck from the given source
func (m *Metrics) RecordCardsAdded(source string, n int) {
	if n <= 0 {
		return
	}
	m.CardsAdded.WithLabelValues(source).Add(float64(n))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}
