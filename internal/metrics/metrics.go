package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess       = "success"
	OutcomeNotConfigured = "not_configured"
	OutcomeNotAvailable  = "not_available"
)

// Recorder tracks the outcome and latency of collect runs. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	collections *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	changes     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		collections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "metadata_collections_total",
			Help: "Number of metadata collect runs, by collector and outcome.",
		}, []string{"collector", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "metadata_collection_duration_seconds",
			Help:    "Time taken to collect metadata, by collector.",
			Buckets: prometheus.DefBuckets,
		}, []string{"collector"}),
		changes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "metadata_snapshot_changes_total",
			Help: "Number of times a stored snapshot changed, by collector.",
		}, []string{"collector"}),
	}
}

func (r *Recorder) ObserveCollect(collector, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.collections.WithLabelValues(collector, outcome).Inc()
	r.duration.WithLabelValues(collector).Observe(elapsed.Seconds())
}

func (r *Recorder) SnapshotChanged(collector string) {
	if r == nil {
		return
	}
	r.changes.WithLabelValues(collector).Inc()
}
