package blade

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// notFoundLabel is the view label of renders whose view did not resolve.
const notFoundLabel = "not_found"

var (
	compilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blade_compiles_total",
			Help: "Total number of view compilations",
		},
		[]string{"view"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blade_cache_lookups_total",
			Help: "Compiled artifact lookups by result",
		},
		[]string{"result"},
	)

	renderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blade_render_duration_seconds",
			Help:    "Top-level view render duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"},
	)

	renderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blade_render_errors_total",
			Help: "Total number of failed top-level renders",
		},
		[]string{"view"},
	)
)
