package loader

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// LoadTotal counts loads by configuration kind and where the items came from
	LoadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrpconf_load_total",
			Help: "Total number of configuration loads",
		},
		[]string{"kind", "provenance"},
	)

	// SaveTotal counts saves and scenario creations by outcome
	SaveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrpconf_save_total",
			Help: "Total number of configuration saves",
		},
		[]string{"kind", "result"},
	)

	// LoadDuration tracks how long the config source takes to answer, fallbacks included
	LoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mrpconf_load_duration_seconds",
			Help:    "Duration of configuration loads",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(LoadTotal)
	prometheus.MustRegister(SaveTotal)
	prometheus.MustRegister(LoadDuration)
}
