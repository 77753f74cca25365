package stage

import (
	"context"

	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// Sink drives a pipeline: it pulls from the last stage until exhaustion and
// reports each arriving item as advanced into the sink.
type Sink struct {
	id       event.StageID
	upstream Iterator
	env      Env
}

// NewSink creates the terminal stage.
func NewSink(id event.StageID, upstream Iterator, env Env) *Sink {
	return &Sink{id: id, upstream: upstream, env: env}
}

// ID returns the sink's stage id.
func (s *Sink) ID() event.StageID {
	return s.id
}

// Drain pulls every item through the pipeline and returns how many reached
// the sink. The error is nil when the source ran dry and all work finished.
func (s *Sink) Drain(ctx context.Context) (int, error) {
	completed := 0
	for {
		item, ok, err := s.upstream.Next(ctx)
		if err != nil {
			return completed, err
		}
		if !ok {
			return completed, nil
		}
		if err := s.env.Emitter.Emit(ctx, event.StageAdvanced{ID: item.ID, To: s.id, From: item.Stage}); err != nil {
			return completed, err
		}
		completed++
		s.env.Metrics.Completed()
		s.env.Logger.Debug().Uint64("item", uint64(item.ID)).Int("from", int(item.Stage)).Msg("item completed")
	}
}
