package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PlansGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "runcoach_plans_generated_total",
			Help: "Total number of training plans generated",
		},
	)

	PlanGenerationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runcoach_plan_generation_failures_total",
			Help: "Plan generation failures by reason",
		},
		[]string{"reason"},
	)

	Recommendations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runcoach_recommendations_total",
			Help: "Recommendations produced by type and severity",
		},
		[]string{"type", "severity"},
	)

	RecommendationsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runcoach_recommendations_applied_total",
			Help: "Recommendations applied to plans by type",
		},
		[]string{"type"},
	)

	UnrecoverableDistanceKm = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "runcoach_unrecoverable_distance_km_total",
			Help: "Missed distance that could not be redistributed",
		},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "runcoach_analysis_duration_seconds",
			Help:    "Time taken to analyze a plan in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ScheduledRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runcoach_scheduled_analysis_total",
			Help: "Scheduled plan analyses by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(PlansGenerated)
	prometheus.MustRegister(PlanGenerationFailures)
	prometheus.MustRegister(Recommendations)
	prometheus.MustRegister(RecommendationsApplied)
	prometheus.MustRegister(UnrecoverableDistanceKm)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(ScheduledRuns)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation for a histogram
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns elapsed time since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records elapsed seconds into h
func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(t.Duration().Seconds())
}
