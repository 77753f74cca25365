package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/streamvis/pkg/metrics"
	"github.com/vnykmshr/streamvis/pkg/streaming/channel"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// channelEmitter delivers events into the pipeline's bounded channel.
type channelEmitter struct {
	ch      channel.BackpressureChannel[event.Event]
	logger  zerolog.Logger
	metrics *metrics.Registry
}

func newEmitter(ch channel.BackpressureChannel[event.Event], logger zerolog.Logger, m *metrics.Registry) *channelEmitter {
	return &channelEmitter{ch: ch, logger: logger, metrics: m}
}

// Emit implements event.Emitter.
func (e *channelEmitter) Emit(ctx context.Context, ev event.Event) error {
	if err := e.ch.Send(ctx, ev); err != nil {
		return err
	}
	e.metrics.Emitted(ev.Kind().String(), e.ch.Len())
	e.logger.Trace().Stringer("event", ev).Msg("emitted")
	return nil
}
