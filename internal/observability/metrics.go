// Package observability exposes Prometheus metrics for the service.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	storageOpDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_op_duration_seconds",
			Help:    "Duration of object storage operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"backend", "op", "outcome"},
	)

	layerResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "layer_resolutions_total",
			Help: "Layer identifier resolutions by hit class.",
		},
		[]string{"class"},
	)

	mbtilesInspectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mbtiles_inspections_total",
			Help: "MBTiles debug inspections by outcome.",
		},
		[]string{"outcome"},
	)

	consumerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invalidation_consumer_errors_total",
			Help: "Errors in the layer invalidation consumer.",
		},
		[]string{"kind"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atlas_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, seconds float64) {
	s := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, s).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, s).Observe(seconds)
}

func ObserveStorageOp(backend, op string, err error, seconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storageOpDurationSeconds.WithLabelValues(backend, op, outcome).Observe(seconds)
}

// IncLayerResolution records how a layer lookup was satisfied:
// "index" (cache), "scan" (full listing), or "miss".
func IncLayerResolution(class string) {
	layerResolutionsTotal.WithLabelValues(class).Inc()
}

func IncInspection(outcome string) {
	mbtilesInspectionsTotal.WithLabelValues(outcome).Inc()
}

func IncConsumerError(kind string) {
	consumerErrorsTotal.WithLabelValues(kind).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
