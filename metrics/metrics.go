package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var SessionsCreatedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sessions_created_total",
	Help: "Number of scoring sessions created",
})

var EndsRecordedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ends_recorded_total",
	Help: "Number of ends recorded across all sessions",
})

var StatusTransitionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "session_status_transitions_total",
	Help: "Number of session status transitions by target status",
}, []string{"status"})

var SessionEventPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "session_event_publish_errors_total",
	Help: "Number of failed session event publishes to the broker",
})

var StandingsComputationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "championship_standings_duration_s",
	Help: "Duration of championship standings computation",
	Buckets: []float64{
		0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10,
	},
})
