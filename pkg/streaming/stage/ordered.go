package stage

import (
	"context"

	"github.com/vnykmshr/streamvis/pkg/ratelimit/concurrency"
	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// OrderedMap runs up to C units of work at once and yields items in the
// order they were admitted. A finished item waits behind any unfinished
// item admitted before it, still holding its permit.
type OrderedMap struct {
	bounded
	pending []chan result
}

// NewOrderedMap creates an ordered bounded stage pulling from upstream.
func NewOrderedMap(id event.StageID, spec jitter.Spec, limiter concurrency.Limiter, upstream Iterator, env Env) *OrderedMap {
	return &OrderedMap{bounded: newBounded(id, KindOrderedBoundedMap, spec, upstream, limiter, env)}
}

// Next implements Iterator.
func (m *OrderedMap) Next(ctx context.Context) (Item, bool, error) {
	for {
		m.maybePull(ctx)

		var head chan result
		if len(m.pending) > 0 {
			head = m.pending[0]
		}
		if m.pull == nil && head == nil {
			return Item{}, false, nil
		}

		select {
		case p := <-m.pull:
			admitted, err := m.accept(ctx, p)
			if err != nil {
				return Item{}, false, err
			}
			if admitted {
				out := make(chan result, 1)
				m.pending = append(m.pending, out)
				m.start(ctx, p.item, out)
			}
		case r := <-head:
			m.pending = m.pending[1:]
			return m.yield(r)
		case <-ctx.Done():
			return Item{}, false, ctx.Err()
		}
	}
}
