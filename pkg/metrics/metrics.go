package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	syncBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_batches_total",
			Help: "Total number of provider list batches fetched",
		},
		[]string{"provider", "entity"},
	)

	recordsUpsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_upserted_total",
			Help: "Total number of mirror rows upserted",
		},
		[]string{"entity"},
	)

	providerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "Total number of provider API errors",
		},
		[]string{"provider"},
	)

	quotaUnitsSpentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_units_spent_total",
			Help: "Estimated provider quota units spent",
		},
		[]string{"provider"},
	)

	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_total",
			Help: "Total number of LLM analyses run",
		},
		[]string{"kind", "status"},
	)
)

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func RecordSyncBatch(provider, entity string) {
	syncBatchesTotal.WithLabelValues(provider, entity).Inc()
}

func RecordUpserts(entity string, count int) {
	recordsUpsertedTotal.WithLabelValues(entity).Add(float64(count))
}

func RecordProviderError(provider string) {
	providerErrorsTotal.WithLabelValues(provider).Inc()
}

func RecordQuotaSpend(provider string, units int) {
	quotaUnitsSpentTotal.WithLabelValues(provider).Add(float64(units))
}

func RecordAnalysis(kind, status string) {
	analysesTotal.WithLabelValues(kind, status).Inc()
}
