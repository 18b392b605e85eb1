package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector holds the Prometheus collectors for recommendation and
// export traffic.
type MetricsCollector struct {
	recommendationRequests *prometheus.CounterVec
	recommendationLatency  prometheus.Histogram
	candidatePoolSize      prometheus.Histogram
	fallbacks              prometheus.Counter
	resultSize             prometheus.Histogram
	sessionStoreErrors     prometheus.Counter
	exports                *prometheus.CounterVec
}

// NewMetricsCollector registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(reg)

	return &MetricsCollector{
		recommendationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests by mode and profile source",
		}, []string{"mode", "source"}),

		recommendationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_latency_seconds",
			Help:    "Recommendation generation latency in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		candidatePoolSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_candidate_pool_size",
			Help:    "Size of the candidate pool after preference filtering",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),

		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "recommendation_fallbacks_total",
			Help: "Requests whose preferences matched no catalog item",
		}),

		resultSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_result_size",
			Help:    "Number of movies returned per request",
			Buckets: prometheus.LinearBuckets(0, 2, 6),
		}),

		sessionStoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "recommendation_session_store_errors_total",
			Help: "Failures saving results to the session store",
		}),

		exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_exports_total",
			Help: "Exported recommendation results by kind",
		}, []string{"kind"}), // file, download
	}
}

// RecordRecommendation records one generated result.
func (mc *MetricsCollector) RecordRecommendation(mode, source string, poolSize, resultSize int, fallback bool, latency time.Duration) {
	if mc == nil {
		return
	}
	mc.recommendationRequests.WithLabelValues(mode, source).Inc()
	mc.recommendationLatency.Observe(latency.Seconds())
	mc.candidatePoolSize.Observe(float64(poolSize))
	mc.resultSize.Observe(float64(resultSize))
	if fallback {
		mc.fallbacks.Inc()
	}
}

func (mc *MetricsCollector) RecordSessionStoreError() {
	if mc == nil {
		return
	}
	mc.sessionStoreErrors.Inc()
}

func (mc *MetricsCollector) RecordExport(kind string) {
	if mc == nil {
		return
	}
	mc.exports.WithLabelValues(kind).Inc()
}
