package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "healthhive"

// Registry holds every metric exported on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo is always 1; build details live in the labels.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application build information (value is always 1)",
	},
	[]string{"version", "commit", "build_date"},
)

// StoreReady is 1 while the last readiness probe reached the store.
var StoreReady = promauto.With(Registry).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_ready",
		Help:      "Whether the place store answered the last readiness probe (1) or not (0)",
	},
)

// PlaceOperations counts place service calls by operation and outcome.
// result is "ok" or the error kind (ValidationError, NotFoundError, ...).
var PlaceOperations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "place_operations_total",
		Help:      "Place service operations by operation and result",
	},
	[]string{"operation", "result"},
)

// PlaceOperationDuration records place service latency.
var PlaceOperationDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "place_operation_duration_seconds",
		Help:      "Place service operation latency in seconds",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	},
	[]string{"operation"},
)

// Init registers runtime collectors and publishes build info. Call once.
func Init(version, commit, buildDate string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
