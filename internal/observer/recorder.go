package observer

import (
	"context"
	"sync"

	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// Recorder keeps every observed event. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
	counts map[event.Kind]int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[event.Kind]int)}
}

// Observe implements Observer.
func (r *Recorder) Observe(_ context.Context, e event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	r.counts[e.Kind()]++
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind event.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[kind]
}

// Item returns the events recorded for one item, in order.
func (r *Recorder) Item(id event.ItemID) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Event
	for _, e := range r.events {
		if e.Item() == id {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
