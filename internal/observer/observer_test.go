package observer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/streamvis/pkg/simulation/clock"
	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
	"github.com/vnykmshr/streamvis/pkg/streaming/pipeline"
	"github.com/vnykmshr/streamvis/pkg/streaming/stage"
)

func instantConfig(seed uint64) pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Clock = clock.Instant{}
	cfg.Rand = jitter.NewRand(seed)
	return cfg
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDrainFeedsEveryObserver(t *testing.T) {
	descriptors, r, err := pipeline.New(instantConfig(1)).
		Source(12).
		OrderedBoundedMap(jitter.FromMillis(100, 3), 3).
		Filter(jitter.FromMillis(50, 1), 0.5).
		UnorderedBoundedMap(jitter.FromMillis(80, 2), 2).
		Sink()
	require.NoError(t, err)

	rec := NewRecorder()
	checker := NewChecker(descriptors)
	n, err := Drain(testCtx(t), r, Multi{rec, checker})
	require.NoError(t, err)
	require.NoError(t, r.Err())

	assert.Equal(t, n, rec.Len())
	assert.Equal(t, 12, rec.Count(event.KindCreated))

	summary, err := checker.Finish()
	require.NoError(t, err)
	assert.Equal(t, 12, summary.Created)
	assert.Equal(t, r.Completed(), summary.Completed)
	assert.Equal(t, 12, summary.Completed+summary.Rejected)
	assert.LessOrEqual(t, summary.Peak[1], 3)
	assert.LessOrEqual(t, summary.Peak[3], 2)
	require.Len(t, summary.Filters, 1)
	assert.Equal(t, 12, summary.Filters[0].Admitted)
	assert.Equal(t, summary.Rejected, summary.Filters[0].Rejected)
	assert.InDelta(t, 6.0, summary.Filters[0].Expected, 1e-9)
}

func TestDrainStopsOnObserverError(t *testing.T) {
	_, r, err := pipeline.New(instantConfig(2)).Source(5).Sink()
	require.NoError(t, err)
	defer r.Close()

	boom := errors.New("boom")
	n, err := Drain(testCtx(t), r, ObserverFunc(func(context.Context, event.Event) error { return boom }))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
}

func TestRecorderItem(t *testing.T) {
	rec := NewRecorder()
	ctx := context.Background()
	require.NoError(t, rec.Observe(ctx, event.Created{ID: 0}))
	require.NoError(t, rec.Observe(ctx, event.Created{ID: 1}))
	require.NoError(t, rec.Observe(ctx, event.Rejected{ID: 0}))

	assert.Equal(t, []event.Event{event.Created{ID: 0}, event.Rejected{ID: 0}}, rec.Item(0))
	assert.Equal(t, 1, rec.Count(event.KindRejected))
}

func TestMultiJoinsErrors(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	m := Multi{
		ObserverFunc(func(context.Context, event.Event) error { return a }),
		NewRecorder(),
		ObserverFunc(func(context.Context, event.Event) error { return b }),
	}
	err := m.Observe(context.Background(), event.Rejected{ID: 1})
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	l := NewLogObserver(logger, zerolog.DebugLevel)
	ctx := context.Background()

	require.NoError(t, l.Observe(ctx, event.Created{ID: 3, Value: event.Resolved(event.White)}))
	require.NoError(t, l.Observe(ctx, event.ValueChanged{ID: 3, Value: event.InProgress(0.4)}))
	require.NoError(t, l.Observe(ctx, event.StageAdvanced{ID: 3, From: 0, To: 1}))
	require.NoError(t, l.Observe(ctx, event.Rejected{ID: 3}))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, "progress ticks log below the configured level")
	assert.Contains(t, lines[0], `"message":"created"`)
	assert.Contains(t, lines[1], `"to":1`)
	assert.Contains(t, lines[2], `"message":"rejected"`)
}

func checkerFor() *Checker {
	return NewChecker([]stage.Descriptor{
		stage.NewDescriptor(0, stage.KindSource, 0, 0, 0, 0),
		stage.NewDescriptor(1, stage.KindOrderedBoundedMap, time.Second, 0, 1, 0),
		stage.NewDescriptor(2, stage.KindFilter, time.Second, 0, 0, 0.5),
		stage.NewDescriptor(3, stage.KindSink, 0, 0, 0, 0),
	})
}

func feed(t *testing.T, c *Checker, events ...event.Event) {
	t.Helper()
	for _, e := range events {
		require.NoError(t, c.Observe(context.Background(), e))
	}
}

func work(id event.ItemID) []event.Event {
	return []event.Event{
		event.ValueChanged{ID: id, Value: event.InProgress(0)},
		event.ValueChanged{ID: id, Value: event.InProgress(0.5)},
		event.ValueChanged{ID: id, Value: event.InProgress(1)},
	}
}

func TestCheckerAcceptsValidStream(t *testing.T) {
	c := checkerFor()
	feed(t, c, event.Created{ID: 0, Value: event.Resolved(event.White)})
	feed(t, c, event.StageAdvanced{ID: 0, To: 1, From: 0}, event.ValueChanged{ID: 0, Value: event.Pending(event.StageColor(1))})
	feed(t, c, work(0)...)
	feed(t, c, event.StageAdvanced{ID: 0, To: 2, From: 1})
	feed(t, c, work(0)...)
	feed(t, c, event.StageAdvanced{ID: 0, To: 3, From: 2})

	feed(t, c, event.Created{ID: 1})
	feed(t, c, event.StageAdvanced{ID: 1, To: 1, From: 0})
	feed(t, c, work(1)...)
	feed(t, c, event.StageAdvanced{ID: 1, To: 2, From: 1})
	feed(t, c, work(1)...)
	feed(t, c, event.Rejected{ID: 1})

	s, err := c.Finish()
	require.NoError(t, err)
	assert.Equal(t, 2, s.Created)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.Rejected)
	assert.Equal(t, 1, s.Peak[1])
	require.Len(t, s.Filters, 1)
	assert.Equal(t, 2, s.Filters[0].Admitted)
	assert.InDelta(t, 0.0, s.Filters[0].Z(), 1e-9)
}

func TestCheckerFindsViolations(t *testing.T) {
	tests := []struct {
		name   string
		events []event.Event
		reason string
	}{
		{"duplicate id", []event.Event{event.Created{ID: 0}, event.Created{ID: 0}}, "duplicate"},
		{"skipped id", []event.Event{event.Created{ID: 1}}, "expected id 0"},
		{"unknown item", []event.Event{event.Rejected{ID: 4}}, "never created"},
		{"wrong origin", []event.Event{event.Created{ID: 0}, event.StageAdvanced{ID: 0, To: 2, From: 1}}, "is in stage 0"},
		{"backwards", []event.Event{event.Created{ID: 0}, event.StageAdvanced{ID: 0, To: 0, From: 0}}, "must increase"},
		{"over bound", []event.Event{
			event.Created{ID: 0}, event.Created{ID: 1},
			event.StageAdvanced{ID: 0, To: 1, From: 0},
			event.StageAdvanced{ID: 1, To: 1, From: 0},
		}, "bound is 1"},
		{"reject outside filter", []event.Event{
			event.Created{ID: 0}, event.StageAdvanced{ID: 0, To: 1, From: 0}, event.Rejected{ID: 0},
		}, "outside a filter"},
		{"event after reject", []event.Event{
			event.Created{ID: 0},
			event.StageAdvanced{ID: 0, To: 2, From: 0},
			event.Rejected{ID: 0},
			event.ValueChanged{ID: 0, Value: event.InProgress(0)},
		}, "left the pipeline"},
		{"progress backwards", []event.Event{
			event.Created{ID: 0},
			event.ValueChanged{ID: 0, Value: event.InProgress(0)},
			event.ValueChanged{ID: 0, Value: event.InProgress(0.6)},
			event.ValueChanged{ID: 0, Value: event.InProgress(0.2)},
		}, "backwards"},
		{"stranded", []event.Event{event.Created{ID: 0}}, "stranded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := checkerFor()
			feed(t, c, tt.events...)
			_, err := c.Finish()
			require.ErrorIs(t, err, ErrInvariant)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestCheckerOrderedRelease(t *testing.T) {
	c := NewChecker([]stage.Descriptor{
		stage.NewDescriptor(0, stage.KindSource, 0, 0, 0, 0),
		stage.NewDescriptor(1, stage.KindOrderedBoundedMap, time.Second, 0, 2, 0),
		stage.NewDescriptor(2, stage.KindSink, 0, 0, 0, 0),
	})
	feed(t, c,
		event.Created{ID: 0}, event.Created{ID: 1},
		event.StageAdvanced{ID: 0, To: 1, From: 0},
		event.StageAdvanced{ID: 1, To: 1, From: 0},
		event.StageAdvanced{ID: 1, To: 2, From: 1},
	)
	assert.Len(t, c.Violations(), 1)
	assert.Contains(t, c.Violations()[0].Reason, "ahead of 0")
}
