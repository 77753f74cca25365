package stage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vnykmshr/streamvis/internal/testutil"
	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

func TestSourceYieldsSequentialIDs(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	rec := newRecorder()
	src := NewSource(3, testEnv(rec, jitter.Fixed(0)))

	ids := drain(ctx, t, src)
	testutil.AssertEqual(t, len(ids), 3)
	for i, id := range ids {
		testutil.AssertEqual(t, id, event.ItemID(i))
	}

	events := rec.Events()
	testutil.AssertEqual(t, len(events), 3)
	for i, e := range events {
		want := event.Created{ID: event.ItemID(i), StageID: SourceID, Value: event.Resolved(event.White)}
		testutil.AssertEqual[event.Event](t, e, want)
	}

	// Exhausted sources stay exhausted.
	_, ok, err := src.Next(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, false)
}

func TestEmptySource(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	rec := newRecorder()
	ids := drain(ctx, t, NewSource(0, testEnv(rec, jitter.Fixed(0))))
	testutil.AssertEqual(t, len(ids), 0)
	testutil.AssertEqual(t, len(rec.Events()), 0)
}

func TestFilterEventSequence(t *testing.T) {
	tests := []struct {
		name     string
		ratio    float64
		retained bool
	}{
		{"keep", 1, true},
		{"drop", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testutil.WithTimeout(t)
			defer cancel()

			rec := newRecorder()
			env := testEnv(rec, jitter.Fixed(0.5))
			f := NewFilter(1, spec, tt.ratio, NewSource(1, env), env)

			ids := drain(ctx, t, f)
			if tt.retained {
				testutil.AssertEqual(t, len(ids), 1)
			} else {
				testutil.AssertEqual(t, len(ids), 0)
			}

			want := []event.Event{
				event.Created{ID: 0, StageID: 0, Value: event.Resolved(event.White)},
				event.StageAdvanced{ID: 0, To: 1, From: 0},
				event.ValueChanged{ID: 0, Value: event.Pending(event.StageColor(1))},
				event.ValueChanged{ID: 0, Value: event.InProgress(0)},
				event.ValueChanged{ID: 0, Value: event.InProgress(0.2)},
				event.ValueChanged{ID: 0, Value: event.InProgress(0.4)},
				event.ValueChanged{ID: 0, Value: event.InProgress(0.6)},
				event.ValueChanged{ID: 0, Value: event.InProgress(0.8)},
				event.ValueChanged{ID: 0, Value: event.InProgress(1)},
			}
			if !tt.retained {
				want = append(want, event.Rejected{ID: 0})
			}

			got := rec.Events()
			testutil.AssertEqual(t, len(got), len(want))
			for i := range want {
				testutil.AssertEqual(t, got[i], want[i])
			}
		})
	}
}

func TestFilterIsSequential(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	rec := newRecorder()
	env := testEnv(rec, jitter.NewRand(7))
	f := NewFilter(1, spec, 0.5, NewSource(20, env), env)
	drain(ctx, t, f)

	// Each item's work finishes before the next item is admitted.
	active := -1
	for _, e := range rec.Events() {
		switch ev := e.(type) {
		case event.StageAdvanced:
			if active != -1 {
				t.Fatalf("item %d admitted while %d still in progress", ev.ID, active)
			}
			active = int(ev.ID)
		case event.ValueChanged:
			if ev.Value.Kind == event.ValueInProgress && ev.Value.Fraction == 1 {
				active = -1
			}
		}
	}
}

func TestOrderedMapPreservesOrder(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	rec := newRecorder()
	env := testEnv(rec, jitter.NewRand(1))
	m := NewOrderedMap(1, spec, newLimiter(t, 4), NewSource(50, env), env)

	ids := drain(ctx, t, m)
	testutil.AssertEqual(t, len(ids), 50)
	for i, id := range ids {
		testutil.AssertEqual(t, id, event.ItemID(i))
	}
}

// gate holds item 0's work at its first progress report until an event
// matching open has been seen.
func gate(rec *recorder, open func(event.Event) bool) {
	release := make(chan struct{})
	rec.hook = func(ctx context.Context, e event.Event) error {
		if vc, ok := e.(event.ValueChanged); ok && vc.ID == 0 &&
			vc.Value.Kind == event.ValueInProgress && vc.Value.Fraction == 0 {
			select {
			case <-release:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if open(e) {
			close(release)
		}
		return nil
	}
}

func TestOrderedMapWaitsForHead(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	rec := newRecorder()
	gate(rec, func(e event.Event) bool {
		vc, ok := e.(event.ValueChanged)
		return ok && vc.ID == 1 && vc.Value.Kind == event.ValueInProgress && vc.Value.Fraction == 1
	})
	env := testEnv(rec, jitter.Fixed(0))
	m := NewOrderedMap(1, spec, newLimiter(t, 2), NewSource(2, env), env)

	ids := drain(ctx, t, m)
	testutil.AssertEqual(t, len(ids), 2)
	testutil.AssertEqual(t, ids[0], event.ItemID(0))
	testutil.AssertEqual(t, ids[1], event.ItemID(1))
}

func TestUnorderedMapYieldsByCompletion(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	rec := newRecorder()
	gate(rec, func(e event.Event) bool {
		sa, ok := e.(event.StageAdvanced)
		return ok && sa.ID == 1 && sa.To == 2
	})
	env := testEnv(rec, jitter.Fixed(0))
	m := NewUnorderedMap(1, spec, newLimiter(t, 2), NewSource(2, env), env)

	n, err := NewSink(2, m, env).Drain(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, 2)

	var arrivals []event.ItemID
	for _, e := range rec.Events() {
		if sa, ok := e.(event.StageAdvanced); ok && sa.To == 2 {
			arrivals = append(arrivals, sa.ID)
		}
	}
	testutil.AssertEqual(t, len(arrivals), 2)
	testutil.AssertEqual(t, arrivals[0], event.ItemID(1))
	testutil.AssertEqual(t, arrivals[1], event.ItemID(0))
}

func TestBoundedStagesRespectConcurrency(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		c    int
	}{
		{"ordered c=1", KindOrderedBoundedMap, 1},
		{"ordered c=3", KindOrderedBoundedMap, 3},
		{"unordered c=1", KindUnorderedBoundedMap, 1},
		{"unordered c=5", KindUnorderedBoundedMap, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testutil.WithTimeout(t)
			defer cancel()

			rec := newRecorder(NewDescriptor(1, tt.kind, 10, 0.5, tt.c, 0))
			env := testEnv(rec, jitter.NewRand(3))
			src := NewSource(40, env)

			var m Iterator
			if tt.kind == KindOrderedBoundedMap {
				m = NewOrderedMap(1, spec, newLimiter(t, tt.c), src, env)
			} else {
				m = NewUnorderedMap(1, spec, newLimiter(t, tt.c), src, env)
			}

			n, err := NewSink(2, m, env).Drain(ctx)
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, n, 40)

			peak := rec.Peak(1)
			if peak > tt.c {
				t.Errorf("peak occupancy %d exceeds bound %d", peak, tt.c)
			}
			if peak == 0 {
				t.Error("stage never held an item")
			}
		})
	}
}

func TestChainedStagesPath(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	rec := newRecorder()
	env := testEnv(rec, jitter.NewRand(11))
	src := NewSource(10, env)
	s1 := NewOrderedMap(1, spec, newLimiter(t, 5), src, env)
	s2 := NewUnorderedMap(2, spec, newLimiter(t, 3), s1, env)
	s3 := NewFilter(3, spec, 0.5, s2, env)
	sink := NewSink(4, s3, env)

	n, err := sink.Drain(ctx)
	testutil.AssertNoError(t, err)

	last := make(map[event.ItemID]event.StageID)
	finished := 0
	for _, e := range rec.Events() {
		switch ev := e.(type) {
		case event.Created:
			last[ev.ID] = ev.StageID
		case event.StageAdvanced:
			if ev.From != last[ev.ID] {
				t.Fatalf("item %d advanced from %d but was in %d", ev.ID, ev.From, last[ev.ID])
			}
			if ev.To <= ev.From {
				t.Fatalf("item %d moved backwards %d -> %d", ev.ID, ev.From, ev.To)
			}
			last[ev.ID] = ev.To
			if ev.To == 4 {
				finished++
			}
		case event.Rejected:
			testutil.AssertEqual(t, last[ev.ID], event.StageID(3))
			finished++
		}
	}
	testutil.AssertEqual(t, len(last), 10)
	testutil.AssertEqual(t, finished, 10)
	testutil.AssertEqual(t, sink.ID(), event.StageID(4))
	if n > 10 {
		t.Fatalf("sink saw %d items from 10", n)
	}
}

func TestEmitterErrorStopsStages(t *testing.T) {
	boom := errors.New("boom")

	for _, kind := range []Kind{KindFilter, KindOrderedBoundedMap, KindUnorderedBoundedMap} {
		t.Run(kind.String(), func(t *testing.T) {
			ctx, cancel := testutil.WithTimeout(t)
			defer cancel()

			rec := newRecorder()
			rec.hook = func(_ context.Context, e event.Event) error {
				if vc, ok := e.(event.ValueChanged); ok && vc.ID == 2 && vc.Value.Kind == event.ValueInProgress {
					return boom
				}
				return nil
			}
			env := testEnv(rec, jitter.Fixed(0))
			src := NewSource(10, env)

			var it Iterator
			switch kind {
			case KindFilter:
				it = NewFilter(1, spec, 1, src, env)
			case KindOrderedBoundedMap:
				it = NewOrderedMap(1, spec, newLimiter(t, 2), src, env)
			default:
				it = NewUnorderedMap(1, spec, newLimiter(t, 2), src, env)
			}

			_, err := NewSink(2, it, env).Drain(ctx)
			if !errors.Is(err, boom) {
				t.Fatalf("got %v, want boom", err)
			}
		})
	}
}

func TestBoundedStageHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	rec := newRecorder()
	rec.hook = func(ctx context.Context, e event.Event) error {
		if _, ok := e.(event.ValueChanged); ok {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}
	env := testEnv(rec, jitter.Fixed(0))
	m := NewUnorderedMap(1, spec, newLimiter(t, 2), NewSource(5, env), env)

	errCh := make(chan error, 1)
	go func() {
		_, _, err := m.Next(ctx)
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(testutil.TestTimeout):
		t.Fatal("Next did not return after cancellation")
	}
}
