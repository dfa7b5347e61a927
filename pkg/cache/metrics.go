package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks definitions cache hits by layer
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toggle_cache_hits_total",
			Help: "Total number of definitions cache hits",
		},
		[]string{"layer"}, // "memory", "redis"
	)

	// CacheMisses tracks definitions cache misses by layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toggle_cache_misses_total",
			Help: "Total number of definitions cache misses",
		},
		[]string{"layer"}, // "memory", "redis"
	)

	// CacheEvictions tracks entries dropped after a response without an ETag
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toggle_cache_evictions_total",
			Help: "Total number of entries evicted after responses without an ETag",
		},
	)

	// CacheErrors tracks store operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toggle_cache_errors_total",
			Help: "Total number of store operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
