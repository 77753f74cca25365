package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svErrors "github.com/vnykmshr/streamvis/pkg/common/errors"
	"github.com/vnykmshr/streamvis/pkg/simulation/clock"
	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
	"github.com/vnykmshr/streamvis/pkg/streaming/pipeline"
	"github.com/vnykmshr/streamvis/pkg/streaming/stage"
)

const sample = `
name: buffer-filter-long
items: 10
seed: 42
time_scale: 0
stages:
  - kind: ordered_map
    base: 500ms
    jitter: 3
    concurrency: 5
  - kind: filter
    base: 1200ms
    jitter: 1
    retain_ratio: 0.5
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "buffer-filter-long", s.Name)
	assert.Equal(t, uint64(10), s.Items)
	require.NotNil(t, s.Seed)
	assert.Equal(t, uint64(42), *s.Seed)
	require.NotNil(t, s.TimeScale)
	assert.Equal(t, 0.0, *s.TimeScale)
	require.Len(t, s.Stages, 2)
	assert.Equal(t, Stage{Kind: "ordered_map", Base: 500 * time.Millisecond, Jitter: 3, Concurrency: 5}, s.Stages[0])
	assert.Equal(t, 0.5, s.Stages[1].RetainRatio)
}

func TestParseLogging(t *testing.T) {
	s, err := Parse([]byte("name: x\nitems: 1\nlogging:\n  level: debug\n  output: run.log\n  no_timestamp: true\n"))
	require.NoError(t, err)
	assert.Equal(t, "debug", s.Logging.Level)
	assert.Equal(t, "run.log", s.Logging.Output)
	assert.True(t, s.Logging.NoTimestamp)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "name: x\nitems: 1\ncolour: red\n"},
		{"missing name", "items: 1\n"},
		{"unknown kind", "name: x\nitems: 1\nstages:\n  - kind: sort\n    base: 1s\n"},
		{"sink as stage", "name: x\nitems: 1\nstages:\n  - kind: sink\n"},
		{"negative scale", "name: x\nitems: 1\ntime_scale: -1\n"},
		{"bad duration", "name: x\nitems: 1\nstages:\n  - kind: filter\n    base: soon\n"},
		{"bad log level", "name: x\nitems: 1\nlogging:\n  level: loud\n"},
		{"bad log format", "name: x\nitems: 1\nlogging:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("name: x\nitems: 1\nstages:\n  - kind: sort\n"))
	assert.True(t, errors.Is(err, svErrors.ErrInvalidConfiguration))
}

func TestLoadAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	s, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "buffer-filter-long", s.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	def, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPreset, def.Name)
}

func TestPresets(t *testing.T) {
	names := PresetNames()
	assert.Equal(t, []string{
		"buffer-1",
		"buffer-5",
		"buffer-buffer",
		"buffer-filter-long",
		"buffer-unordered-5",
		"buffer-unordered-filter-long",
		"filter",
	}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			p, ok := Preset(name)
			require.True(t, ok)
			assert.Equal(t, name, p.Name)
			require.NoError(t, p.Validate())

			b := p.Builder(pipeline.DefaultConfig())
			require.NoError(t, b.Err())
			assert.Len(t, b.Descriptors(), len(p.Stages)+2)
		})
	}

	_, ok := Preset("nope")
	assert.False(t, ok)
}

func TestPresetIsCopied(t *testing.T) {
	p, _ := Preset("buffer-buffer")
	p.Stages[0].Concurrency = 99

	again, _ := Preset("buffer-buffer")
	assert.Equal(t, 5, again.Stages[0].Concurrency)
}

func TestMarshalRoundTrip(t *testing.T) {
	p, _ := Preset("buffer-unordered-filter-long")
	data, err := p.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, p.Stages, back.Stages)
	assert.Equal(t, p.Items, back.Items)
}

func TestPipelineConfig(t *testing.T) {
	seed := uint64(1)
	scale := 0.0
	s := Scenario{Name: "x", Seed: &seed, TimeScale: &scale, ChannelCapacity: 7, Ticks: 3}

	cfg := s.PipelineConfig(pipeline.DefaultConfig())
	assert.Equal(t, 7, cfg.ChannelCapacity)
	assert.Equal(t, 3, cfg.Ticks)
	assert.Equal(t, clock.Clock(clock.Instant{}), cfg.Clock)
	assert.IsType(t, &jitter.LockedRand{}, cfg.Rand)

	plain := Scenario{Name: "y"}.PipelineConfig(pipeline.DefaultConfig())
	assert.Equal(t, pipeline.DefaultChannelCapacity, plain.ChannelCapacity)
	assert.Equal(t, clock.Clock(clock.Real{}), plain.Clock)
}

func TestScenarioRuns(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	descriptors, r, err := s.Builder(pipeline.DefaultConfig()).Sink()
	require.NoError(t, err)
	require.Len(t, descriptors, 4)
	assert.Equal(t, stage.KindOrderedBoundedMap, descriptors[1].Kind)
	assert.Equal(t, stage.KindFilter, descriptors[2].Kind)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	created := 0
	for {
		e, ok, err := r.Receive(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		if e.Kind() == event.KindCreated {
			created++
		}
	}
	assert.Equal(t, 10, created)
	assert.NoError(t, r.Err())
}

func TestBuilderSurfacesStageErrors(t *testing.T) {
	s := Scenario{Name: "bad", Items: 1, Stages: []Stage{{Kind: "ordered_map", Base: time.Second}}}
	_, _, err := s.Builder(pipeline.DefaultConfig()).Sink()
	assert.True(t, svErrors.IsValidationError(err))
}
