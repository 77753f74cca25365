package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/vnykmshr/streamvis/pkg/common/validation"
	"github.com/vnykmshr/streamvis/pkg/metrics"
	"github.com/vnykmshr/streamvis/pkg/simulation/clock"
	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/simulation/work"
)

// DefaultChannelCapacity is the number of undelivered events a pipeline
// buffers before its stages suspend.
const DefaultChannelCapacity = 100

// Config holds the runtime collaborators of a pipeline.
type Config struct {
	// ChannelCapacity bounds the event channel.
	ChannelCapacity int

	// Ticks is the number of progress reports per unit of work.
	Ticks int

	// Clock performs every simulated wait.
	Clock clock.Clock

	// Rand drives jitter draws and filter decisions. Use jitter.NewRand for
	// reproducible runs.
	Rand jitter.Rand

	// Logger receives debug output about items and trace output about ticks
	// and events.
	Logger zerolog.Logger

	// Metrics is optional.
	Metrics *metrics.Registry
}

// DefaultConfig returns a configuration that runs in real time with the
// process-wide random source.
func DefaultConfig() Config {
	return Config{
		ChannelCapacity: DefaultChannelCapacity,
		Ticks:           work.DefaultTicks,
		Clock:           clock.Real{},
		Rand:            jitter.Global(),
		Logger:          zerolog.Nop(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidatePositive("pipeline", "channel_capacity", c.ChannelCapacity); err != nil {
		return err
	}
	return validation.ValidatePositive("pipeline", "ticks", c.Ticks)
}

func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = clock.Real{}
	}
	if c.Rand == nil {
		c.Rand = jitter.Global()
	}
	return c
}
