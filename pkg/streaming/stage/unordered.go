package stage

import (
	"context"

	"github.com/vnykmshr/streamvis/pkg/ratelimit/concurrency"
	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// UnorderedMap runs up to C units of work at once and yields each item as
// soon as its work completes.
type UnorderedMap struct {
	bounded
	done     chan result
	inFlight int
}

// NewUnorderedMap creates an unordered bounded stage pulling from upstream.
func NewUnorderedMap(id event.StageID, spec jitter.Spec, limiter concurrency.Limiter, upstream Iterator, env Env) *UnorderedMap {
	return &UnorderedMap{
		bounded: newBounded(id, KindUnorderedBoundedMap, spec, upstream, limiter, env),
		done:    make(chan result, limiter.Capacity()),
	}
}

// Next implements Iterator.
func (m *UnorderedMap) Next(ctx context.Context) (Item, bool, error) {
	for {
		m.maybePull(ctx)

		var done chan result
		if m.inFlight > 0 {
			done = m.done
		}
		if m.pull == nil && done == nil {
			return Item{}, false, nil
		}

		select {
		case p := <-m.pull:
			admitted, err := m.accept(ctx, p)
			if err != nil {
				return Item{}, false, err
			}
			if admitted {
				m.inFlight++
				m.start(ctx, p.item, m.done)
			}
		case r := <-done:
			m.inFlight--
			return m.yield(r)
		case <-ctx.Done():
			return Item{}, false, ctx.Err()
		}
	}
}
