package concurrency

import (
	"github.com/vnykmshr/streamvis/pkg/metrics"
)

// MetricsLimiter wraps a Limiter and mirrors its usage into the in-flight
// gauge of one stage.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates a limiter whose usage is reported under name. A nil
// registry yields a plain limiter.
func NewWithMetrics(capacity int, name string, registry *metrics.Registry) (Limiter, error) {
	base, err := NewSafe(capacity)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		return base, nil
	}

	ml := &MetricsLimiter{limiter: base, name: name, registry: registry}
	registry.SetCapacity(name, capacity)
	ml.updateMetrics()
	return ml, nil
}

func (ml *MetricsLimiter) updateMetrics() {
	ml.registry.SetInFlight(ml.name, ml.limiter.InUse())
}

// Acquire attempts to acquire one permit without blocking.
func (ml *MetricsLimiter) Acquire() bool {
	ok := ml.limiter.Acquire()
	if ok {
		ml.updateMetrics()
	}
	return ok
}

// Release releases one permit back to the limiter.
func (ml *MetricsLimiter) Release() {
	ml.limiter.Release()
	ml.updateMetrics()
}

// Capacity returns the maximum number of concurrent operations allowed.
func (ml *MetricsLimiter) Capacity() int {
	return ml.limiter.Capacity()
}

// Available returns the number of permits currently available.
func (ml *MetricsLimiter) Available() int {
	return ml.limiter.Available()
}

// InUse returns the number of permits currently in use.
func (ml *MetricsLimiter) InUse() int {
	return ml.limiter.InUse()
}
