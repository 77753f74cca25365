package config

import (
	"sort"
	"time"
)

const ms = time.Millisecond

var presets = map[string]Scenario{
	"buffer-1": {
		Description: "three items through an ordered map with a single permit",
		Items:       3,
		Stages: []Stage{
			{Kind: "ordered_map", Base: 500 * ms, Jitter: 3, Concurrency: 1},
		},
	},
	"buffer-5": {
		Description: "ordered map with five permits; early finishers wait for the head",
		Items:       15,
		Stages: []Stage{
			{Kind: "ordered_map", Base: 800 * ms, Jitter: 4, Concurrency: 5},
		},
	},
	"buffer-unordered-5": {
		Description: "unordered map with five permits; items leave as they finish",
		Items:       15,
		Stages: []Stage{
			{Kind: "unordered_map", Base: 500 * ms, Jitter: 3, Concurrency: 5},
		},
	},
	"filter": {
		Description: "a coin-flip filter",
		Items:       3,
		Stages: []Stage{
			{Kind: "filter", Base: 500 * ms, Jitter: 1, RetainRatio: 0.5},
		},
	},
	"buffer-filter-long": {
		Description: "ordered map feeding a slow filter",
		Items:       10,
		Stages: []Stage{
			{Kind: "ordered_map", Base: 500 * ms, Jitter: 3, Concurrency: 5},
			{Kind: "filter", Base: 1200 * ms, Jitter: 1, RetainRatio: 0.5},
		},
	},
	"buffer-unordered-filter-long": {
		Description: "unordered map feeding a slow filter",
		Items:       10,
		Stages: []Stage{
			{Kind: "unordered_map", Base: 500 * ms, Jitter: 3, Concurrency: 5},
			{Kind: "filter", Base: 1200 * ms, Jitter: 1, RetainRatio: 0.5},
		},
	},
	"buffer-buffer": {
		Description: "two ordered maps with different bounds",
		Items:       10,
		Stages: []Stage{
			{Kind: "ordered_map", Base: 500 * ms, Jitter: 3, Concurrency: 5},
			{Kind: "ordered_map", Base: 1000 * ms, Jitter: 2, Concurrency: 3},
		},
	},
}

// DefaultPreset is the scenario run when none is named.
const DefaultPreset = "buffer-filter-long"

// Preset returns a copy of the named built-in scenario.
func Preset(name string) (Scenario, bool) {
	p, ok := presets[name]
	if !ok {
		return Scenario{}, false
	}
	p.Name = name
	p.Stages = append([]Stage(nil), p.Stages...)
	return p, true
}

// PresetNames returns the built-in scenario names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve loads path when it names a file and otherwise looks up a preset.
func Resolve(nameOrPath string) (*Scenario, error) {
	if nameOrPath == "" {
		nameOrPath = DefaultPreset
	}
	if p, ok := Preset(nameOrPath); ok {
		return &p, nil
	}
	return Load(nameOrPath)
}
