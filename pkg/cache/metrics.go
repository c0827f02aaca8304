package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workshop_cache_hits_total",
			Help: "Total number of page cache hits",
		},
		[]string{"layer"}, // "redis"
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "workshop_cache_misses_total",
			Help: "Total number of page cache misses",
		},
	)

	// CacheBytes counts bytes read from and written to redis
	CacheBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workshop_cache_bytes_total",
			Help: "Total bytes read from and written to the page cache",
		},
		[]string{"operation"}, // "get", "set"
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workshop_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
