// Package pipeline composes stages into a running simulation.
//
// A pipeline is described fluently and started by Sink:
//
//	descriptors, events, err := pipeline.Source(3).
//		Filter(jitter.FromMillis(100, 0), 0.5).
//		Sink()
//
// Sink starts a driver goroutine that pulls the chain until the source is
// exhausted. Every state change is delivered on the returned EventReceiver
// in the order it happened. The receiver's buffer is bounded; a consumer
// that falls behind slows the whole simulation down. Closing the receiver
// stops the run, and EventReceiver.Err then reports ErrReceiverGone.
package pipeline
