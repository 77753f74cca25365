// Package work models one item's simulated processing at one stage.
package work

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/streamvis/pkg/metrics"
	"github.com/vnykmshr/streamvis/pkg/simulation/clock"
	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// DefaultTicks is the number of progress reports per unit of work.
const DefaultTicks = 5

// Config holds the collaborators shared by every unit of work in a pipeline.
type Config struct {
	// Ticks is the number of progress steps; values below 1 use DefaultTicks.
	Ticks int

	// Clock performs the waits between ticks.
	Clock clock.Clock

	// Rand draws the jittered duration.
	Rand jitter.Rand

	// Logger receives debug and trace output.
	Logger zerolog.Logger

	// Metrics records drawn durations and ticks. May be nil.
	Metrics *metrics.Registry
}

// Simulator runs units of simulated work. It is safe for concurrent use;
// sibling units never block each other except through the emitter.
type Simulator struct {
	ticks   int
	clock   clock.Clock
	rand    jitter.Rand
	emitter event.Emitter
	logger  zerolog.Logger
	metrics *metrics.Registry
}

// NewSimulator creates a Simulator reporting through emitter.
func NewSimulator(config Config, emitter event.Emitter) *Simulator {
	if config.Ticks < 1 {
		config.Ticks = DefaultTicks
	}
	if config.Clock == nil {
		config.Clock = clock.Real{}
	}
	if config.Rand == nil {
		config.Rand = jitter.Global()
	}
	return &Simulator{
		ticks:   config.Ticks,
		clock:   config.Clock,
		rand:    config.Rand,
		emitter: emitter,
		logger:  config.Logger,
		metrics: config.Metrics,
	}
}

// Ticks returns the number of progress steps per unit.
func (s *Simulator) Ticks() int {
	return s.ticks
}

// Run advances item id from 0.0 to 1.0 over a duration drawn from spec.
// It emits InProgress(0) on entry and InProgress(i/T) after each of the T
// waits; the last report is exactly 1.0.
func (s *Simulator) Run(ctx context.Context, id event.ItemID, stageID event.StageID, spec jitter.Spec) error {
	total := spec.Get(s.rand)
	step := total / time.Duration(s.ticks)
	label := strconv.Itoa(int(stageID))

	s.logger.Debug().
		Uint64("item", uint64(id)).
		Int("stage", int(stageID)).
		Dur("duration", total).
		Msg("starting work")
	s.metrics.ObserveWork(label, total)

	if err := s.emitter.Emit(ctx, event.ValueChanged{ID: id, Value: event.InProgress(0)}); err != nil {
		return err
	}

	for i := 1; i <= s.ticks; i++ {
		if err := s.clock.Sleep(ctx, step); err != nil {
			return err
		}
		fraction := float64(i) / float64(s.ticks)
		if err := s.emitter.Emit(ctx, event.ValueChanged{ID: id, Value: event.InProgress(fraction)}); err != nil {
			return err
		}
		s.metrics.Tick(label)
		s.logger.Trace().
			Uint64("item", uint64(id)).
			Int("stage", int(stageID)).
			Msgf("tick %d/%d", i, s.ticks)
	}

	s.logger.Debug().Uint64("item", uint64(id)).Int("stage", int(stageID)).Msg("work done")
	return nil
}
