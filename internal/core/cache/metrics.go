package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cache_hits_total", Help: "Cache reads served from the cache"},
		[]string{"family"},
	)
	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cache_misses_total", Help: "Cache reads that fell back to the store"},
		[]string{"family"},
	)
	cacheEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cache_evictions_total", Help: "Keys deleted by prefix invalidation"},
		[]string{"family"},
	)
)

func init() { prometheus.MustRegister(cacheHits, cacheMisses, cacheEvictions) }
