package stage

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/streamvis/pkg/ratelimit/concurrency"
	"github.com/vnykmshr/streamvis/pkg/simulation/clock"
	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/simulation/work"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// recorder collects events and tracks the peak occupancy of watched stages.
type recorder struct {
	mu      sync.Mutex
	events  []event.Event
	watched []Descriptor
	peak    map[event.StageID]int
	hook    func(ctx context.Context, e event.Event) error
}

func newRecorder(watched ...Descriptor) *recorder {
	return &recorder{watched: watched, peak: make(map[event.StageID]int)}
}

func (r *recorder) Emit(ctx context.Context, e event.Event) error {
	if r.hook != nil {
		if err := r.hook(ctx, e); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	for i := range r.watched {
		r.watched[i].Apply(e)
		if n := r.watched[i].Len(); n > r.peak[r.watched[i].ID] {
			r.peak[r.watched[i].ID] = n
		}
	}
	return nil
}

func (r *recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

func (r *recorder) Peak(id event.StageID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peak[id]
}

func testEnv(em event.Emitter, r jitter.Rand) Env {
	return Env{
		Emitter: em,
		Work:    work.NewSimulator(work.Config{Clock: clock.Instant{}, Rand: r}, em),
		Rand:    r,
		Logger:  zerolog.Nop(),
	}
}

func newLimiter(t *testing.T, c int) concurrency.Limiter {
	t.Helper()
	l, err := concurrency.NewSafe(c)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	return l
}

// drain pulls every item from it and returns the ids in yield order.
func drain(ctx context.Context, t *testing.T, it Iterator) []event.ItemID {
	t.Helper()
	var ids []event.ItemID
	for {
		item, ok, err := it.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			return ids
		}
		ids = append(ids, item.ID)
	}
}

var spec = jitter.Spec{Base: 10, Jitter: 0.5}
