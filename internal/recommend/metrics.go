package recommend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtunes_recommendations_total",
			Help: "Recommendations served, by detected mood",
		},
		[]string{"mood"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtunes_recommendation_cache_lookups_total",
			Help: "Recommendation cache lookups, by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)
