/*
Package channel provides the bounded, order-preserving event channel that
connects a running pipeline to its single observer.

Many producers (every stage and every in-flight unit of simulated work) send;
exactly one consumer receives. Delivery order is send order.

Backpressure:

A send on a full buffer suspends the sending goroutine until the consumer
drains space, the context is done, or either side shuts down. This is the only backpressure path
in a pipeline: a slow observer slows the simulation down.

	ch := channel.New[event.Event](100)
	err := ch.Send(ctx, ev) // waits while full

Shutdown:

The two sides end independently.

	ch.Close()   // producers are done; the consumer drains what is left, then gets ErrChannelClosed
	ch.Abandon() // the consumer is gone; producers get ErrReceiverGone from every send

Abandon is fatal for a pipeline: with no observer left there is nothing useful
to do, so the driver stops instead of retrying.
*/
package channel
