package stage

import (
	"context"

	"github.com/vnykmshr/streamvis/pkg/ratelimit/concurrency"
	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

type pulled struct {
	item Item
	ok   bool
	err  error
}

type result struct {
	item Item
	err  error
}

// bounded holds what ordered and unordered stages share: the limiter that
// caps work in flight and the single outstanding upstream pull.
//
// A permit is taken before pulling so an item is never admitted unless it
// can start work at once. It is returned when the item is yielded.
type bounded struct {
	id       event.StageID
	kind     Kind
	spec     jitter.Spec
	upstream Iterator
	limiter  concurrency.Limiter
	env      Env

	pull         chan pulled
	upstreamDone bool
}

func newBounded(id event.StageID, kind Kind, spec jitter.Spec, upstream Iterator, limiter concurrency.Limiter, env Env) bounded {
	return bounded{id: id, kind: kind, spec: spec, upstream: upstream, limiter: limiter, env: env}
}

// maybePull starts an upstream pull when none is outstanding and a permit
// is free.
func (b *bounded) maybePull(ctx context.Context) {
	if b.upstreamDone || b.pull != nil || !b.limiter.Acquire() {
		return
	}
	ch := make(chan pulled, 1)
	b.pull = ch
	go func() {
		item, ok, err := b.upstream.Next(ctx)
		ch <- pulled{item: item, ok: ok, err: err}
	}()
}

// accept handles a finished pull. It returns true when p carries an item
// that has been admitted and must now be started.
func (b *bounded) accept(ctx context.Context, p pulled) (bool, error) {
	b.pull = nil
	if p.err != nil {
		b.limiter.Release()
		return false, p.err
	}
	if !p.ok {
		b.limiter.Release()
		b.upstreamDone = true
		return false, nil
	}
	if err := admit(ctx, b.env, p.item, b.id, b.kind); err != nil {
		b.limiter.Release()
		return false, err
	}
	return true, nil
}

// start runs the work for item and delivers the outcome on out, which must
// have room for it.
func (b *bounded) start(ctx context.Context, item Item, out chan<- result) {
	go func() {
		err := b.env.Work.Run(ctx, item.ID, b.id, b.spec)
		out <- result{item: Item{ID: item.ID, Stage: b.id}, err: err}
	}()
}

// yield returns a finished unit's permit and converts it to Next's results.
func (b *bounded) yield(r result) (Item, bool, error) {
	b.limiter.Release()
	if r.err != nil {
		return Item{}, false, r.err
	}
	return r.item, true, nil
}
