package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	MappingsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mappings_created_total",
			Help: "Total number of URL mappings created",
		},
		[]string{"kind"}, // custom, generated
	)

	RedirectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redirects_total",
			Help: "Total number of resolved redirects",
		},
	)

	IDCollisionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "generated_id_collisions_total",
			Help: "Generated ids rejected by the store as duplicates",
		},
	)

	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Total number of mapping store errors",
		},
		[]string{"operation"}, // find, insert, ping
	)

	StoreUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_up",
			Help: "1 if the mapping store connected at startup, 0 otherwise",
		},
	)
)

func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

func RecordMappingCreated(custom bool) {
	kind := "generated"
	if custom {
		kind = "custom"
	}
	MappingsCreatedTotal.WithLabelValues(kind).Inc()
}

func RecordRedirect() {
	RedirectsTotal.Inc()
}

func RecordIDCollision() {
	IDCollisionsTotal.Inc()
}

func RecordStoreError(operation string) {
	StoreErrorsTotal.WithLabelValues(operation).Inc()
}

func SetStoreUp(up bool) {
	if up {
		StoreUp.Set(1)
		return
	}
	StoreUp.Set(0)
}
