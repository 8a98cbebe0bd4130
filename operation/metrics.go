package operation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weakform_operation_evaluations_total",
		Help: "Node evaluations by node kind, cache hits excluded",
	}, []string{"kind"})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weakform_operation_cache_hits_total",
		Help: "Reused node values served from the cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weakform_operation_cache_misses_total",
		Help: "Reused node values that had to be computed",
	})

	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "weakform_operation_cache_entries",
		Help: "Values currently held by the evaluation caches",
	})
)
