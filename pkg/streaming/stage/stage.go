package stage

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/streamvis/pkg/metrics"
	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/simulation/work"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// Kind identifies the policy of a stage.
type Kind int

const (
	// KindSource creates items.
	KindSource Kind = iota
	// KindOrderedBoundedMap runs up to C units of work and yields in submission order.
	KindOrderedBoundedMap
	// KindUnorderedBoundedMap runs up to C units of work and yields in completion order.
	KindUnorderedBoundedMap
	// KindFilter runs one unit of work per item and then keeps or drops it.
	KindFilter
	// KindSink terminates the pipeline.
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindOrderedBoundedMap:
		return "ordered_map"
	case KindUnorderedBoundedMap:
		return "unordered_map"
	case KindFilter:
		return "filter"
	case KindSink:
		return "sink"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Bounded reports whether stages of this kind enforce a concurrency bound.
func (k Kind) Bounded() bool {
	return k == KindOrderedBoundedMap || k == KindUnorderedBoundedMap
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindSource; k <= KindSink; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Item is one token flowing through a pipeline, tagged with the stage that
// last admitted it.
type Item struct {
	ID    event.ItemID
	Stage event.StageID
}

// Iterator is the pull interface every stage exposes to its downstream.
// Nothing happens inside a stage unless Next is called. Next is not safe for
// concurrent use and must be called with the same run context each time.
type Iterator interface {
	// Next returns the next item, false once the stage is exhausted, or an
	// error that ends the run.
	Next(ctx context.Context) (Item, bool, error)
}

// Env carries the collaborators a stage needs. Each stage keeps its own copy.
type Env struct {
	Emitter event.Emitter
	Work    *work.Simulator
	Rand    jitter.Rand
	Logger  zerolog.Logger
	Metrics *metrics.Registry
}

// admit moves item into stage to: it reports the advance and the pending
// value before any work starts.
func admit(ctx context.Context, env Env, item Item, to event.StageID, kind Kind) error {
	if err := env.Emitter.Emit(ctx, event.StageAdvanced{ID: item.ID, To: to, From: item.Stage}); err != nil {
		return err
	}
	if err := env.Emitter.Emit(ctx, event.ValueChanged{ID: item.ID, Value: event.Pending(event.StageColor(to))}); err != nil {
		return err
	}
	env.Metrics.Admitted(label(to), kind.String())
	return nil
}

func label(id event.StageID) string {
	return strconv.Itoa(int(id))
}
