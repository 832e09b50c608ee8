package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "goportfolio"

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Calculation metrics
	Recalculations    *prometheus.CounterVec
	RecalculationTime prometheus.Histogram
	AssetsSkipped     *prometheus.CounterVec
	OversellEvents    *prometheus.CounterVec
	PriceCacheLookups *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Recalculations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recalculations_total",
				Help:      "Portfolio recalculations by outcome",
			},
			[]string{"status"},
		),
		RecalculationTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recalculation_duration_seconds",
			Help:      "Duration of portfolio recalculations",
			Buckets:   prometheus.DefBuckets,
		}),
		AssetsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assets_skipped_total",
				Help:      "Assets left out of a recalculation by reason",
			},
			[]string{"reason"},
		),
		OversellEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oversell_events_total",
				Help:      "Sells exceeding the available lots by tolerance band",
			},
			[]string{"action"},
		),
		PriceCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "price_cache_total",
				Help:      "Price cache lookups by result",
			},
			[]string{"result"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecalculationCompleted implements usecase.MetricsRecorder.
func (m *Metrics) RecalculationCompleted(status string, duration time.Duration) {
	m.Recalculations.WithLabelValues(status).Inc()
	m.RecalculationTime.Observe(duration.Seconds())
}

// AssetSkipped implements usecase.MetricsRecorder.
func (m *Metrics) AssetSkipped(reason string) {
	m.AssetsSkipped.WithLabelValues(reason).Inc()
}

// OversellObserved implements usecase.MetricsRecorder.
func (m *Metrics) OversellObserved(action string) {
	m.OversellEvents.WithLabelValues(action).Inc()
}

// PriceCacheResult counts a cache hit, miss or error.
func (m *Metrics) PriceCacheResult(result string) {
	m.PriceCacheLookups.WithLabelValues(result).Inc()
}

// ObserveHTTP records one served request. path should be the route pattern,
// not the raw URL.
func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
