// Package metrics provides Prometheus instrumentation for streamvis pipelines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "streamvis"

// Registry holds all metric instances for a pipeline. A nil *Registry is
// valid and records nothing.
type Registry struct {
	// Item lifecycle
	ItemsCreated   prometheus.Counter
	StageAdmitted  *prometheus.CounterVec
	ItemsRejected  *prometheus.CounterVec
	ItemsCompleted prometheus.Counter

	// Concurrency
	StageInFlight *prometheus.GaugeVec
	StageCapacity *prometheus.GaugeVec

	// Simulated work
	WorkDuration *prometheus.HistogramVec
	WorkTicks    *prometheus.CounterVec

	// Event channel
	EventsEmitted  *prometheus.CounterVec
	ChannelBlocked prometheus.Counter
	ChannelDepth   prometheus.Gauge
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		ItemsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "source",
				Name:      "items_created_total",
				Help:      "Total number of items created by the source",
			},
		),

		StageAdmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "admitted_total",
				Help:      "Total number of items admitted to a stage",
			},
			[]string{"stage_id", "stage_kind"},
		),

		ItemsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "rejected_total",
				Help:      "Total number of items dropped by a filter",
			},
			[]string{"stage_id"},
		),

		ItemsCompleted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sink",
				Name:      "items_completed_total",
				Help:      "Total number of items that reached the sink",
			},
		),

		StageInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "in_flight",
				Help:      "Number of items holding a concurrency permit in a bounded stage",
			},
			[]string{"stage_id"},
		),

		StageCapacity: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "capacity",
				Help:      "Configured concurrency bound of a bounded stage",
			},
			[]string{"stage_id"},
		),

		WorkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "work",
				Name:      "duration_seconds",
				Help:      "Jittered duration drawn for one unit of simulated work",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage_id"},
		),

		WorkTicks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "work",
				Name:      "ticks_total",
				Help:      "Total number of progress ticks reported",
			},
			[]string{"stage_id"},
		),

		EventsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Total number of lifecycle events delivered to the event channel",
			},
			[]string{"kind"},
		),

		ChannelBlocked: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backpressure",
				Name:      "blocked_sends_total",
				Help:      "Total number of event sends suspended on a full channel",
			},
		),

		ChannelDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "backpressure",
				Name:      "channel_depth",
				Help:      "Number of events buffered and not yet received",
			},
		),
	}
}

// Created records an item created at the source.
func (r *Registry) Created() {
	if r == nil {
		return
	}
	r.ItemsCreated.Inc()
}

// Admitted records an item entering a stage.
func (r *Registry) Admitted(stageID, kind string) {
	if r == nil {
		return
	}
	r.StageAdmitted.WithLabelValues(stageID, kind).Inc()
}

// Rejected records an item dropped by a filter stage.
func (r *Registry) Rejected(stageID string) {
	if r == nil {
		return
	}
	r.ItemsRejected.WithLabelValues(stageID).Inc()
}

// Completed records an item reaching the sink.
func (r *Registry) Completed() {
	if r == nil {
		return
	}
	r.ItemsCompleted.Inc()
}

// SetInFlight updates the in-flight gauge of a bounded stage.
func (r *Registry) SetInFlight(stageID string, n int) {
	if r == nil {
		return
	}
	r.StageInFlight.WithLabelValues(stageID).Set(float64(n))
}

// SetCapacity records the concurrency bound of a bounded stage.
func (r *Registry) SetCapacity(stageID string, n int) {
	if r == nil {
		return
	}
	r.StageCapacity.WithLabelValues(stageID).Set(float64(n))
}

// ObserveWork records the drawn duration of one unit of work.
func (r *Registry) ObserveWork(stageID string, d time.Duration) {
	if r == nil {
		return
	}
	r.WorkDuration.WithLabelValues(stageID).Observe(d.Seconds())
}

// Tick records one progress tick.
func (r *Registry) Tick(stageID string) {
	if r == nil {
		return
	}
	r.WorkTicks.WithLabelValues(stageID).Inc()
}

// Emitted records one event delivered to the channel and the resulting depth.
func (r *Registry) Emitted(kind string, depth int) {
	if r == nil {
		return
	}
	r.EventsEmitted.WithLabelValues(kind).Inc()
	r.ChannelDepth.Set(float64(depth))
}

// Blocked records a send that had to wait for the consumer.
func (r *Registry) Blocked() {
	if r == nil {
		return
	}
	r.ChannelBlocked.Inc()
}
