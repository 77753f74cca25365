package stage

import (
	"context"

	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// SourceID is the stage id of every pipeline's source.
const SourceID event.StageID = 0

// Source yields n fresh items with ids 0..n-1, announcing each with a
// Created event the moment it is pulled.
type Source struct {
	n    uint64
	next uint64
	env  Env
}

// NewSource creates a source of n items.
func NewSource(n uint64, env Env) *Source {
	return &Source{n: n, env: env}
}

// Next implements Iterator.
func (s *Source) Next(ctx context.Context) (Item, bool, error) {
	if s.next >= s.n {
		return Item{}, false, nil
	}
	id := event.ItemID(s.next)
	if err := s.env.Emitter.Emit(ctx, event.Created{ID: id, StageID: SourceID, Value: event.Resolved(event.White)}); err != nil {
		return Item{}, false, err
	}
	s.next++
	s.env.Metrics.Created()
	s.env.Logger.Debug().Uint64("item", uint64(id)).Msg("item created")
	return Item{ID: id, Stage: SourceID}, true, nil
}
