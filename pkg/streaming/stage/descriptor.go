package stage

import (
	"fmt"
	"time"

	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// SlotsPerPermit sizes the display slot table of an unordered stage
// relative to its concurrency bound.
const SlotsPerPermit = 3

// Descriptor is the static configuration of one stage plus an advisory
// occupancy an observer can keep in sync with Apply. The event stream stays
// the source of truth; occupancy is a convenience for renderers.
type Descriptor struct {
	ID          event.StageID
	Kind        Kind
	Duration    time.Duration
	Jitter      float64
	Concurrency int
	RetainRatio float64
	Color       event.Color
	Occupancy   Occupancy
}

// Occupancy mirrors which items sit inside a bounded stage. Ordered stages
// use Queue (admission order); unordered stages use the fixed Slots table
// where a zero entry with Used=false is free.
type Occupancy struct {
	Queue []event.ItemID
	Slots []Slot
}

// Slot is one display position of an unordered stage.
type Slot struct {
	Item event.ItemID
	Used bool
}

// NewDescriptor returns the descriptor for a stage with empty occupancy.
func NewDescriptor(id event.StageID, kind Kind, duration time.Duration, jitterRatio float64, concurrency int, retain float64) Descriptor {
	d := Descriptor{
		ID:          id,
		Kind:        kind,
		Duration:    duration,
		Jitter:      jitterRatio,
		Concurrency: concurrency,
		RetainRatio: retain,
		Color:       event.StageColor(id),
	}
	if kind == KindSource {
		d.Color = event.White
	}
	if kind == KindUnorderedBoundedMap {
		d.Occupancy.Slots = make([]Slot, concurrency*SlotsPerPermit)
	}
	return d
}

// Clone returns a deep copy so observers can mutate occupancy independently.
func (d Descriptor) Clone() Descriptor {
	c := d
	if d.Occupancy.Queue != nil {
		c.Occupancy.Queue = append([]event.ItemID(nil), d.Occupancy.Queue...)
	}
	if d.Occupancy.Slots != nil {
		c.Occupancy.Slots = append([]Slot(nil), d.Occupancy.Slots...)
	}
	return c
}

// Apply reconciles occupancy with one event. Events that do not concern
// this stage are ignored.
func (d *Descriptor) Apply(e event.Event) {
	switch ev := e.(type) {
	case event.StageAdvanced:
		if ev.From == d.ID {
			d.leave(ev.ID)
		}
		if ev.To == d.ID {
			d.enter(ev.ID)
		}
	case event.Rejected:
		d.leave(ev.ID)
	}
}

// Len returns the number of items currently shown inside the stage.
func (d *Descriptor) Len() int {
	switch d.Kind {
	case KindOrderedBoundedMap:
		return len(d.Occupancy.Queue)
	case KindUnorderedBoundedMap:
		n := 0
		for _, s := range d.Occupancy.Slots {
			if s.Used {
				n++
			}
		}
		return n
	default:
		return 0
	}
}

func (d *Descriptor) enter(id event.ItemID) {
	switch d.Kind {
	case KindOrderedBoundedMap:
		d.Occupancy.Queue = append(d.Occupancy.Queue, id)
	case KindUnorderedBoundedMap:
		for i := range d.Occupancy.Slots {
			if !d.Occupancy.Slots[i].Used {
				d.Occupancy.Slots[i] = Slot{Item: id, Used: true}
				return
			}
		}
	}
}

func (d *Descriptor) leave(id event.ItemID) {
	switch d.Kind {
	case KindOrderedBoundedMap:
		for i, q := range d.Occupancy.Queue {
			if q == id {
				d.Occupancy.Queue = append(d.Occupancy.Queue[:i], d.Occupancy.Queue[i+1:]...)
				return
			}
		}
	case KindUnorderedBoundedMap:
		for i, s := range d.Occupancy.Slots {
			if s.Used && s.Item == id {
				d.Occupancy.Slots[i] = Slot{}
				return
			}
		}
	}
}

func (d Descriptor) String() string {
	switch d.Kind {
	case KindSource, KindSink:
		return fmt.Sprintf("#%d %s", d.ID, d.Kind)
	case KindFilter:
		return fmt.Sprintf("#%d %s(%v, jitter=%g, retain=%g)", d.ID, d.Kind, d.Duration, d.Jitter, d.RetainRatio)
	default:
		return fmt.Sprintf("#%d %s(%v, jitter=%g, c=%d)", d.ID, d.Kind, d.Duration, d.Jitter, d.Concurrency)
	}
}
