package observer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/vnykmshr/streamvis/pkg/streaming/event"
	"github.com/vnykmshr/streamvis/pkg/streaming/stage"
)

// ErrInvariant is wrapped by every error the Checker reports.
var ErrInvariant = errors.New("event stream invariant violated")

// Violation is one broken invariant.
type Violation struct {
	Event  event.Event
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Event, v.Reason)
}

type itemState struct {
	stage    event.StageID
	progress float64
	working  bool
	done     bool
}

// Checker verifies a pipeline's event stream against its descriptors as
// events arrive. Call Finish after the stream has ended.
type Checker struct {
	mu          sync.Mutex
	descriptors []stage.Descriptor
	sinkID      event.StageID
	items       map[event.ItemID]*itemState
	nextID      event.ItemID
	peak        map[event.StageID]int
	admitted    map[event.StageID]int
	rejected    map[event.StageID]int
	violations  []Violation
}

// NewChecker returns a checker for a pipeline built from descriptors.
func NewChecker(descriptors []stage.Descriptor) *Checker {
	c := &Checker{
		items:    make(map[event.ItemID]*itemState),
		peak:     make(map[event.StageID]int),
		admitted: make(map[event.StageID]int),
		rejected: make(map[event.StageID]int),
	}
	for _, d := range descriptors {
		c.descriptors = append(c.descriptors, d.Clone())
	}
	if len(descriptors) > 0 {
		c.sinkID = descriptors[len(descriptors)-1].ID
	}
	return c
}

// Observe implements Observer. Violations are collected, not returned, so
// a run is never cut short by its checker.
func (c *Checker) Observe(_ context.Context, e event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if created, ok := e.(event.Created); ok {
		c.created(created)
		return nil
	}

	st, ok := c.items[e.Item()]
	switch {
	case !ok:
		c.fail(e, "event for an item that was never created")
		return nil
	case st.done:
		c.fail(e, "event after the item left the pipeline")
		return nil
	}

	switch ev := e.(type) {
	case event.ValueChanged:
		c.valueChanged(ev, st)
	case event.StageAdvanced:
		c.advanced(ev, st)
	case event.Rejected:
		c.rejectedItem(ev, st)
	}
	return nil
}

func (c *Checker) created(e event.Created) {
	if _, dup := c.items[e.ID]; dup {
		c.fail(e, "duplicate item id")
		return
	}
	if e.ID != c.nextID {
		c.fail(e, fmt.Sprintf("expected id %d", c.nextID))
	}
	if e.StageID != stage.SourceID {
		c.fail(e, "created outside the source")
	}
	c.nextID = e.ID + 1
	c.items[e.ID] = &itemState{stage: e.StageID}
}

func (c *Checker) valueChanged(e event.ValueChanged, st *itemState) {
	if e.Value.Kind != event.ValueInProgress {
		return
	}
	f := e.Value.Fraction
	switch {
	case f < 0 || f > 1 || math.IsNaN(f):
		c.fail(e, "progress outside [0, 1]")
	case st.working && f < st.progress:
		c.fail(e, "progress went backwards")
	case !st.working && f != 0:
		c.fail(e, "work did not start at 0")
	}
	st.progress = f
	st.working = f < 1
}

func (c *Checker) advanced(e event.StageAdvanced, st *itemState) {
	if e.From != st.stage {
		c.fail(e, fmt.Sprintf("item is in stage %d", st.stage))
	}
	if e.To <= e.From {
		c.fail(e, "stage path must increase")
	}
	if st.working {
		c.fail(e, "left a stage with work in progress")
	}
	d := c.descriptor(e.From)
	if d != nil && d.Kind == stage.KindOrderedBoundedMap && len(d.Occupancy.Queue) > 0 && d.Occupancy.Queue[0] != e.ID {
		c.fail(e, fmt.Sprintf("ordered stage %d released %d ahead of %d", d.ID, e.ID, d.Occupancy.Queue[0]))
	}

	c.apply(e)
	st.stage = e.To
	st.progress = 0

	to := c.descriptor(e.To)
	if to == nil {
		c.fail(e, "unknown target stage")
		return
	}
	c.admitted[e.To]++
	if to.Kind.Bounded() {
		if n := to.Len(); n > c.peak[to.ID] {
			c.peak[to.ID] = n
		}
		if to.Len() > to.Concurrency {
			c.fail(e, fmt.Sprintf("stage %d holds %d items, bound is %d", to.ID, to.Len(), to.Concurrency))
		}
	}
	if e.To == c.sinkID {
		st.done = true
	}
}

func (c *Checker) rejectedItem(e event.Rejected, st *itemState) {
	d := c.descriptor(st.stage)
	if d == nil || d.Kind != stage.KindFilter {
		c.fail(e, "rejected outside a filter")
	}
	if st.working {
		c.fail(e, "rejected before work finished")
	}
	c.apply(e)
	c.rejected[st.stage]++
	st.done = true
}

func (c *Checker) apply(e event.Event) {
	for i := range c.descriptors {
		c.descriptors[i].Apply(e)
	}
}

func (c *Checker) descriptor(id event.StageID) *stage.Descriptor {
	if id < 0 || int(id) >= len(c.descriptors) {
		return nil
	}
	return &c.descriptors[id]
}

func (c *Checker) fail(e event.Event, reason string) {
	c.violations = append(c.violations, Violation{Event: e, Reason: reason})
}

// Violations returns what has been found so far.
func (c *Checker) Violations() []Violation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Violation(nil), c.violations...)
}

// FilterStat compares a filter's rejections with the binomial distribution
// its retain ratio implies.
type FilterStat struct {
	Stage    event.StageID
	Admitted int
	Rejected int
	Expected float64
	StdDev   float64
}

// Z returns how many standard deviations the observed count is from the mean.
func (f FilterStat) Z() float64 {
	if f.StdDev == 0 {
		return 0
	}
	return (float64(f.Rejected) - f.Expected) / f.StdDev
}

// Summary describes a finished run.
type Summary struct {
	Created   int
	Completed int
	Rejected  int
	Peak      map[event.StageID]int
	Filters   []FilterStat
}

// Finish checks that every item has left the pipeline and returns the run
// summary. The error wraps ErrInvariant when any violation was seen.
func (c *Checker) Finish() (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{Created: len(c.items), Peak: make(map[event.StageID]int)}
	for id, st := range c.items {
		switch {
		case !st.done:
			c.fail(event.Created{ID: id}, fmt.Sprintf("item stranded in stage %d", st.stage))
		case st.stage == c.sinkID:
			s.Completed++
		default:
			s.Rejected++
		}
	}
	for id, n := range c.peak {
		s.Peak[id] = n
	}
	for _, d := range c.descriptors {
		if d.Kind != stage.KindFilter {
			continue
		}
		stat := FilterStat{Stage: d.ID, Admitted: c.admitted[d.ID], Rejected: c.rejected[d.ID]}
		if stat.Admitted > 0 {
			dist := distuv.Binomial{N: float64(stat.Admitted), P: 1 - d.RetainRatio}
			stat.Expected = dist.Mean()
			stat.StdDev = dist.StdDev()
		}
		s.Filters = append(s.Filters, stat)
	}

	if len(c.violations) == 0 {
		return s, nil
	}
	lines := make([]string, len(c.violations))
	for i, v := range c.violations {
		lines[i] = v.String()
	}
	return s, fmt.Errorf("%w: %d violation(s):\n%s", ErrInvariant, len(c.violations), strings.Join(lines, "\n"))
}
