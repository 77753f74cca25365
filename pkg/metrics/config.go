package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registerer to use. If nil, a fresh
	// prometheus.Registry is created so pipelines never collide.
	Registry prometheus.Registerer
}

// DefaultConfig returns a default metrics configuration with metrics off.
func DefaultConfig() Config {
	return Config{}
}

// Build returns the Registry described by the config, or nil when disabled.
func (c Config) Build() *Registry {
	if !c.Enabled {
		return nil
	}
	reg := c.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return NewRegistry(reg)
}
