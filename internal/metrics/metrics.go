// Package metrics exports scheduler run results to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/meeting-scheduler/internal/application"
)

const namespace = "meeting_scheduler"

// Recorder implements application.RunObserver on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	runs             *prometheus.CounterVec
	runDuration      prometheus.Histogram
	lastRunTimestamp prometheus.Gauge
	clubsProcessed   prometheus.Counter
	datesResolved    prometheus.Counter
	meetings         *prometheus.CounterVec
	attendance       *prometheus.CounterVec
	stageFailures    *prometheus.CounterVec
}

// NewRecorder registers the scheduler collectors plus the Go and process collectors.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	r := &Recorder{
		registry: registry,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Scheduler runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of scheduler runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		clubsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clubs_processed_total",
			Help:      "Clubs visited by scheduler runs.",
		}),
		datesResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dates_resolved_total",
			Help:      "Meeting dates resolved from club patterns.",
		}),
		meetings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meetings_total",
			Help:      "Meetings provisioned by outcome.",
		}, []string{"outcome"}),
		attendance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_rows_total",
			Help:      "Attendance upserts by outcome.",
		}, []string{"outcome"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Per-club failures by stage.",
		}, []string{"stage"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.runs,
		r.runDuration,
		r.lastRunTimestamp,
		r.clubsProcessed,
		r.datesResolved,
		r.meetings,
		r.attendance,
		r.stageFailures,
	)
	return r
}

// ObserveRun records one finished run.
func (r *Recorder) ObserveRun(report application.RunReport) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(report.Outcome()).Inc()
	if !report.FinishedAt.IsZero() {
		r.runDuration.Observe(report.Duration().Seconds())
		r.lastRunTimestamp.Set(float64(report.FinishedAt.Unix()))
	}

	totals := report.Totals()
	r.clubsProcessed.Add(float64(len(report.Clubs)))
	r.datesResolved.Add(float64(totals.DatesResolved))
	r.meetings.WithLabelValues(string(application.OutcomeCreated)).Add(float64(totals.MeetingsCreated))
	r.meetings.WithLabelValues(string(application.OutcomeReused)).Add(float64(totals.MeetingsReused))
	r.attendance.WithLabelValues("created").Add(float64(totals.AttendanceCreated))
	r.attendance.WithLabelValues("existing").Add(float64(totals.AttendanceExisting))
	for stage, n := range report.FailuresByStage() {
		r.stageFailures.WithLabelValues(string(stage)).Add(float64(n))
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
