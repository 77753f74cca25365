// Package observer provides consumers for a pipeline's event stream: a
// recorder, an invariant checker, a log writer and a Redis stream exporter.
package observer

import (
	"context"
	"errors"

	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// Observer consumes events in delivery order.
type Observer interface {
	Observe(ctx context.Context, e event.Event) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, e event.Event) error

// Observe implements Observer.
func (f ObserverFunc) Observe(ctx context.Context, e event.Event) error {
	return f(ctx, e)
}

// Receiver is the consuming side of a running pipeline.
type Receiver interface {
	Receive(ctx context.Context) (event.Event, bool, error)
}

// Drain hands every event from r to each observer in turn until the stream
// ends. It stops at the first observer error; the caller decides whether to
// close the receiver.
func Drain(ctx context.Context, r Receiver, observers ...Observer) (int, error) {
	n := 0
	for {
		e, ok, err := r.Receive(ctx)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
		for _, o := range observers {
			if err := o.Observe(ctx, e); err != nil {
				return n, err
			}
		}
	}
}

// Multi fans an event out to several observers and joins their errors.
type Multi []Observer

// Observe implements Observer.
func (m Multi) Observe(ctx context.Context, e event.Event) error {
	var errs []error
	for _, o := range m {
		if err := o.Observe(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
