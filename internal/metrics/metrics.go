package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	GatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_gateway_requests_total",
		Help: "Data gateway round trips by method and outcome",
	}, []string{"method", "status"})

	GatewayRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backoffice_gateway_request_duration_seconds",
		Help:    "Data gateway round trip duration",
		Buckets: prometheus.DefBuckets,
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_query_cache_hits_total",
		Help: "Query cache reads served without a fetch",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_query_cache_misses_total",
		Help: "Query cache reads that triggered a fetch",
	})

	CachePrefetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_query_cache_prefetches_total",
		Help: "Background prefetches started",
	})
)
