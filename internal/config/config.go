// Package config loads simulation scenarios from YAML and maps them onto
// pipeline builders.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vnykmshr/streamvis/internal/logging"
	svErrors "github.com/vnykmshr/streamvis/pkg/common/errors"
	"github.com/vnykmshr/streamvis/pkg/common/validation"
	"github.com/vnykmshr/streamvis/pkg/simulation/clock"
	"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
	"github.com/vnykmshr/streamvis/pkg/streaming/pipeline"
	"github.com/vnykmshr/streamvis/pkg/streaming/stage"
)

// Scenario is one runnable pipeline description.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Items       uint64 `yaml:"items"`

	// Seed makes RNG draws reproducible. Unset means a fresh random run.
	Seed *uint64 `yaml:"seed,omitempty"`

	// TimeScale multiplies every simulated wait. Unset means real time;
	// 0 skips waits entirely.
	TimeScale *float64 `yaml:"time_scale,omitempty"`

	ChannelCapacity int `yaml:"channel_capacity,omitempty"`
	Ticks           int `yaml:"ticks,omitempty"`

	Stages  []Stage        `yaml:"stages"`
	Logging logging.Config `yaml:"logging,omitempty"`
}

// Stage describes one stage between the source and the sink.
type Stage struct {
	Kind        string        `yaml:"kind"`
	Base        time.Duration `yaml:"base"`
	Jitter      float64       `yaml:"jitter,omitempty"`
	Concurrency int           `yaml:"concurrency,omitempty"`
	RetainRatio float64       `yaml:"retain_ratio,omitempty"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document. Unknown fields are
// rejected.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Marshal encodes s as YAML.
func (s Scenario) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Validate checks what the pipeline builder cannot: the name, the stage
// kinds, the time scale and the logging block. Stage parameters are validated by the builder.
func (s Scenario) Validate() error {
	if err := validation.ValidateNotEmpty("scenario", "name", s.Name); err != nil {
		return err
	}
	for i, st := range s.Stages {
		kind, ok := stage.ParseKind(st.Kind)
		if !ok || kind == stage.KindSource || kind == stage.KindSink {
			return svErrors.NewValidationError("scenario", fmt.Sprintf("stages[%d].kind", i), st.Kind, "unknown stage kind").
				WithHint("use filter, ordered_map or unordered_map")
		}
	}
	if s.TimeScale != nil {
		if err := validation.ValidateNonNegative("scenario", "time_scale", *s.TimeScale); err != nil {
			return err
		}
	}
	logCfg := s.Logging
	logCfg.ApplyDefaults()
	if err := logCfg.Validate(); err != nil {
		return fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return nil
}

// PipelineConfig applies the scenario's runtime settings on top of base.
func (s Scenario) PipelineConfig(base pipeline.Config) pipeline.Config {
	if s.Seed != nil {
		base.Rand = jitter.NewRand(*s.Seed)
	}
	if s.TimeScale != nil {
		base.Clock = clock.ForScale(*s.TimeScale)
	}
	if s.ChannelCapacity > 0 {
		base.ChannelCapacity = s.ChannelCapacity
	}
	if s.Ticks > 0 {
		base.Ticks = s.Ticks
	}
	return base
}

// Builder returns a builder for the scenario's pipeline, ready for Sink.
func (s Scenario) Builder(base pipeline.Config) *pipeline.Builder {
	b := pipeline.New(s.PipelineConfig(base)).Source(s.Items)
	for _, st := range s.Stages {
		spec := jitter.Spec{Base: st.Base, Jitter: st.Jitter}
		switch kind, _ := stage.ParseKind(st.Kind); kind {
		case stage.KindFilter:
			b = b.Filter(spec, st.RetainRatio)
		case stage.KindOrderedBoundedMap:
			b = b.OrderedBoundedMap(spec, st.Concurrency)
		case stage.KindUnorderedBoundedMap:
			b = b.UnorderedBoundedMap(spec, st.Concurrency)
		}
	}
	return b
}
