package pipeline

import (
	"context"
	"fmt"

	svErrors "github.com/vnykmshr/streamvis/pkg/common/errors"
	"github.com/vnykmshr/streamvis/pkg/common/validation"
	"github.com/vnykmshr/streamvis/pkg/ratelimit/concurrency"
	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/simulation/work"
	"github.com/vnykmshr/streamvis/pkg/streaming/channel"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
	"github.com/vnykmshr/streamvis/pkg/streaming/stage"
)

// Builder composes a linear pipeline. Every fluent call appends one stage
// with the next sequential id. The first configuration error is kept and
// returned by Sink; later calls are ignored once an error is recorded.
type Builder struct {
	config      Config
	items       uint64
	descriptors []stage.Descriptor
	err         error
	started     bool
}

// Source begins a pipeline of n items with DefaultConfig.
func Source(n uint64) *Builder {
	return New(DefaultConfig()).Source(n)
}

// New returns an empty builder. Call Source before adding stages.
func New(config Config) *Builder {
	return &Builder{config: config.withDefaults()}
}

// Source sets the item count and creates stage 0.
func (b *Builder) Source(n uint64) *Builder {
	if b.err != nil {
		return b
	}
	if len(b.descriptors) > 0 {
		b.err = svErrors.NewValidationError("pipeline", "source", n, "source already defined").
			WithHint("a pipeline has exactly one source")
		return b
	}
	b.items = n
	b.descriptors = append(b.descriptors, stage.NewDescriptor(stage.SourceID, stage.KindSource, 0, 0, 0, 0))
	return b
}

// Filter appends a stage that keeps each item with probability ratio.
func (b *Builder) Filter(spec jitter.Spec, ratio float64) *Builder {
	return b.add(stage.KindFilter, spec, 0, ratio, func() error {
		return validation.ValidateRatio("pipeline", "retain_ratio", ratio)
	})
}

// OrderedBoundedMap appends a stage running up to concurrency units at once
// and yielding in admission order.
func (b *Builder) OrderedBoundedMap(spec jitter.Spec, concurrency int) *Builder {
	return b.add(stage.KindOrderedBoundedMap, spec, concurrency, 0, func() error {
		return validation.ValidatePositive("pipeline", "concurrency", concurrency)
	})
}

// UnorderedBoundedMap appends a stage running up to concurrency units at
// once and yielding in completion order.
func (b *Builder) UnorderedBoundedMap(spec jitter.Spec, concurrency int) *Builder {
	return b.add(stage.KindUnorderedBoundedMap, spec, concurrency, 0, func() error {
		return validation.ValidatePositive("pipeline", "concurrency", concurrency)
	})
}

func (b *Builder) add(kind stage.Kind, spec jitter.Spec, c int, ratio float64, check func() error) *Builder {
	if b.err != nil {
		return b
	}
	if len(b.descriptors) == 0 {
		b.err = svErrors.NewValidationError("pipeline", "stage", kind, "no source").
			WithHint("call Source before adding stages")
		return b
	}
	if err := check(); err != nil {
		b.err = err
		return b
	}
	if err := spec.Validate("pipeline"); err != nil {
		b.err = err
		return b
	}
	id := event.StageID(len(b.descriptors))
	b.descriptors = append(b.descriptors, stage.NewDescriptor(id, kind, spec.Base, spec.Jitter, c, ratio))
	return b
}

// Err returns the first configuration error recorded so far.
func (b *Builder) Err() error {
	return b.err
}

// Descriptors returns the stages the builder would create, including the
// sink, without starting anything.
func (b *Builder) Descriptors() []stage.Descriptor {
	out := make([]stage.Descriptor, 0, len(b.descriptors)+1)
	for _, d := range b.descriptors {
		out = append(out, d.Clone())
	}
	return append(out, stage.NewDescriptor(event.StageID(len(b.descriptors)), stage.KindSink, 0, 0, 0, 0))
}

// Sink finalizes the pipeline, starts its driver and returns the stage
// descriptors together with the receiver of its events. Configuration
// errors are returned before any item is created.
func (b *Builder) Sink() ([]stage.Descriptor, *EventReceiver, error) {
	if b.err != nil {
		return nil, nil, b.err
	}
	if len(b.descriptors) == 0 {
		return nil, nil, svErrors.NewValidationError("pipeline", "source", nil, "no source").
			WithHint("call Source before Sink")
	}
	if b.started {
		return nil, nil, fmt.Errorf("pipeline: already started: %w", svErrors.ErrClosed)
	}
	if err := b.config.Validate(); err != nil {
		return nil, nil, err
	}

	descriptors := b.Descriptors()
	cfg := b.config
	m := cfg.Metrics

	ch := channel.NewWithConfig[event.Event](channel.Config{
		BufferSize: cfg.ChannelCapacity,
		OnBlock:    m.Blocked,
	})
	em := newEmitter(ch, cfg.Logger, m)
	env := stage.Env{
		Emitter: em,
		Work: work.NewSimulator(work.Config{
			Ticks:   cfg.Ticks,
			Clock:   cfg.Clock,
			Rand:    cfg.Rand,
			Logger:  cfg.Logger,
			Metrics: m,
		}, em),
		Rand:    cfg.Rand,
		Logger:  cfg.Logger,
		Metrics: m,
	}

	var it stage.Iterator = stage.NewSource(b.items, env)
	for _, d := range descriptors[1 : len(descriptors)-1] {
		spec := jitter.Spec{Base: d.Duration, Jitter: d.Jitter}
		switch d.Kind {
		case stage.KindFilter:
			it = stage.NewFilter(d.ID, spec, d.RetainRatio, it, env)
		case stage.KindOrderedBoundedMap, stage.KindUnorderedBoundedMap:
			limiter, err := concurrency.NewWithMetrics(d.Concurrency, fmt.Sprint(d.ID), m)
			if err != nil {
				return nil, nil, err
			}
			if d.Kind == stage.KindOrderedBoundedMap {
				it = stage.NewOrderedMap(d.ID, spec, limiter, it, env)
			} else {
				it = stage.NewUnorderedMap(d.ID, spec, limiter, it, env)
			}
		}
	}
	sink := stage.NewSink(descriptors[len(descriptors)-1].ID, it, env)

	b.started = true
	ctx, cancel := context.WithCancel(context.Background())
	d := newDriver(sink, ch, cancel, cfg.Logger)
	go d.run(ctx)

	cfg.Logger.Debug().
		Uint64("items", b.items).
		Int("stages", len(descriptors)).
		Msg("pipeline started")

	return descriptors, newEventReceiver(ch, d), nil
}
