package stage

import (
	"context"

	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// Filter runs one unit of work per item, then keeps it with probability
// RetainRatio. Items are processed one at a time in arrival order.
type Filter struct {
	id       event.StageID
	spec     jitter.Spec
	ratio    float64
	upstream Iterator
	env      Env
}

// NewFilter creates a filter stage pulling from upstream.
func NewFilter(id event.StageID, spec jitter.Spec, ratio float64, upstream Iterator, env Env) *Filter {
	return &Filter{id: id, spec: spec, ratio: ratio, upstream: upstream, env: env}
}

// Next implements Iterator. Dropped items are reported and skipped.
func (f *Filter) Next(ctx context.Context) (Item, bool, error) {
	for {
		item, ok, err := f.upstream.Next(ctx)
		if err != nil || !ok {
			return Item{}, false, err
		}
		if err := admit(ctx, f.env, item, f.id, KindFilter); err != nil {
			return Item{}, false, err
		}
		if err := f.env.Work.Run(ctx, item.ID, f.id, f.spec); err != nil {
			return Item{}, false, err
		}
		if f.env.Rand.Float64() < f.ratio {
			return Item{ID: item.ID, Stage: f.id}, true, nil
		}
		if err := f.env.Emitter.Emit(ctx, event.Rejected{ID: item.ID}); err != nil {
			return Item{}, false, err
		}
		f.env.Metrics.Rejected(label(f.id))
		f.env.Logger.Debug().Uint64("item", uint64(item.ID)).Int("stage", int(f.id)).Msg("item rejected")
	}
}
