/*
Package streamvis simulates stream combinators so their concurrency
behaviour can be watched item by item.

A pipeline is a source of numbered items followed by filters and bounded
maps and terminated by a sink. Every stage performs simulated work with a
jittered duration and reports each state change as an event.

Simulation (pkg/simulation):
  - jitter: Jittered durations and seedable randomness
  - clock: Real, scaled and instant time
  - work: Progress-reporting simulated work

Streaming (pkg/streaming):
  - event: Event vocabulary and display values
  - channel: Bounded event channel with blocking sends
  - stage: Source, filter, ordered and unordered bounded maps, sink
  - pipeline: Fluent builder and driver

Example usage:

	import (
		"github.com/vnykmshr/streamvis/pkg/simulation/jitter"
		"github.com/vnykmshr/streamvis/pkg/streaming/pipeline"
	)

	descriptors, events, err := pipeline.Source(10).
		OrderedBoundedMap(jitter.FromMillis(500, 3), 5).
		Filter(jitter.FromMillis(1200, 1), 0.5).
		Sink()
	if err != nil {
		return err
	}
	defer events.Close()

	for {
		e, ok, err := events.Receive(ctx)
		if err != nil || !ok {
			break
		}
		render(descriptors, e)
	}

The streamvis command (cmd/streamvis) runs bundled or YAML-described
scenarios, verifies them, exports events to Redis and replays them on a
cron schedule.
*/
package streamvis
