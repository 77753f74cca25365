// Package stage implements the pipeline stage policies.
//
// Every stage is an Iterator over Items and pulls from exactly one
// upstream. Nothing runs until the Sink drains the chain, so stages never
// start work a downstream has not asked for. Bounded stages reserve a
// concurrency permit before pulling and hand it back when the item is
// yielded, which caps their in-flight work at the configured bound.
//
// Every transition is reported through the stage's event.Emitter before
// the work that follows it begins.
package stage
