// Package replay re-runs a scenario on a cron schedule.
package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/vnykmshr/streamvis/pkg/simulation/clock"
)

// Task performs one run. run counts from 1.
type Task func(ctx context.Context, run int) error

// Config configures a Replayer.
type Config struct {
	// Schedule is a cron expression with an optional seconds field, or a
	// descriptor such as "@every 30s" or "@hourly".
	Schedule string

	// MaxRuns limits the number of runs (0 = unlimited).
	MaxRuns int

	// StopOnError ends the loop after the first failed run.
	StopOnError bool

	// Location evaluates the schedule. Defaults to time.Local.
	Location *time.Location

	// Clock waits for each activation. Defaults to clock.Real.
	Clock clock.Clock

	// Logger receives one line per run.
	Logger zerolog.Logger

	// OnError is called for each failed run.
	OnError func(run int, err error)
}

// Stats summarises a finished loop.
type Stats struct {
	Runs     int
	Failures int
	LastRun  time.Time
	LastErr  error
}

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Replayer runs a task each time its schedule fires. Runs never overlap: a
// firing that comes due while a run is in progress is skipped.
type Replayer struct {
	config   Config
	schedule cron.Schedule
	now      func() time.Time
}

// New parses the schedule and returns a Replayer.
func New(config Config) (*Replayer, error) {
	if config.Schedule == "" {
		return nil, errors.New("replay: schedule cannot be empty")
	}
	if config.MaxRuns < 0 {
		return nil, errors.New("replay: max runs cannot be negative")
	}
	schedule, err := parser.Parse(config.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression '%s': %w", config.Schedule, err)
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Clock == nil {
		config.Clock = clock.Real{}
	}
	return &Replayer{config: config, schedule: schedule, now: time.Now}, nil
}

// Next returns the first activation after t.
func (r *Replayer) Next(t time.Time) time.Time {
	return r.schedule.Next(t.In(r.config.Location))
}

// Upcoming returns the next n activations from now.
func (r *Replayer) Upcoming(n int) []time.Time {
	out := make([]time.Time, 0, n)
	t := r.now()
	for i := 0; i < n; i++ {
		t = r.Next(t)
		out = append(out, t)
	}
	return out
}

// Run blocks, invoking task on schedule until ctx is done, MaxRuns is
// reached, or a run fails with StopOnError set. Cancellation is not an
// error.
func (r *Replayer) Run(ctx context.Context, task Task) (Stats, error) {
	var stats Stats
	log := r.config.Logger

	for r.config.MaxRuns == 0 || stats.Runs < r.config.MaxRuns {
		next := r.Next(r.now())
		if next.IsZero() {
			return stats, errors.New("replay: schedule never fires")
		}

		if err := r.config.Clock.Sleep(ctx, next.Sub(r.now())); err != nil {
			return stats, nil
		}

		stats.Runs++
		stats.LastRun = r.now()
		log.Info().Int("run", stats.Runs).Str("schedule", r.config.Schedule).Msg("replay started")

		err := task(ctx, stats.Runs)
		if err == nil {
			log.Info().Int("run", stats.Runs).Dur("took", r.now().Sub(stats.LastRun)).Msg("replay finished")
			continue
		}
		if ctx.Err() != nil {
			return stats, nil
		}

		stats.Failures++
		stats.LastErr = err
		log.Error().Err(err).Int("run", stats.Runs).Msg("replay failed")
		if r.config.OnError != nil {
			r.config.OnError(stats.Runs, err)
		}
		if r.config.StopOnError {
			return stats, fmt.Errorf("replay run %d: %w", stats.Runs, err)
		}
	}
	return stats, nil
}
