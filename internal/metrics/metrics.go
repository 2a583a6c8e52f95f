// Package metrics exposes prometheus collectors for cleanup activity. The
// recorder is an optional collaborator: a nil *Recorder is safe to call, so
// callers that don't scrape metrics simply leave it unset.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the cleanup engine's collectors.
type Recorder struct {
	runs     *prometheus.CounterVec
	actions  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewRecorder registers the collectors with reg and returns the recorder.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tidyinbox",
			Name:      "cleanup_runs_total",
			Help:      "Cleanup runs by terminal status.",
		}, []string{"status"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tidyinbox",
			Name:      "cleanup_actions_total",
			Help:      "Cleanup actions by type and outcome.",
		}, []string{"action", "outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tidyinbox",
			Name:      "cleanup_run_duration_seconds",
			Help:      "Wall-clock duration of cleanup runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(r.runs, r.actions, r.duration)
	}
	return r
}

// RunFinished records a run reaching a terminal status.
func (r *Recorder) RunFinished(status string, d time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(status).Inc()
	r.duration.Observe(d.Seconds())
}

// ActionRecorded records one action outcome.
func (r *Recorder) ActionRecorded(action, outcome string) {
	if r == nil {
		return
	}
	r.actions.WithLabelValues(action, outcome).Inc()
}
