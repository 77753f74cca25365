package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	svErrors "github.com/vnykmshr/streamvis/pkg/common/errors"
	"github.com/vnykmshr/streamvis/pkg/streaming/channel"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
	"github.com/vnykmshr/streamvis/pkg/streaming/stage"
)

// driver owns the goroutine that pulls a pipeline to completion.
type driver struct {
	sink   *stage.Sink
	ch     channel.BackpressureChannel[event.Event]
	cancel context.CancelFunc
	logger zerolog.Logger

	done      chan struct{}
	gone      atomic.Bool
	err       error
	completed int
}

func newDriver(sink *stage.Sink, ch channel.BackpressureChannel[event.Event], cancel context.CancelFunc, logger zerolog.Logger) *driver {
	return &driver{
		sink:   sink,
		ch:     ch,
		cancel: cancel,
		logger: logger,
		done:   make(chan struct{}),
	}
}

func (d *driver) run(ctx context.Context) {
	defer close(d.done)

	n, err := d.sink.Drain(ctx)
	d.cancel()
	d.completed = n

	if err != nil {
		if d.gone.Load() || svErrors.IsFatal(err) {
			err = fmt.Errorf("pipeline: %w", svErrors.ErrReceiverGone)
			d.logger.Warn().Int("completed", n).Msg("event receiver gone, pipeline stopped")
		} else {
			err = svErrors.NewOperationError("pipeline", "drive", err)
			d.logger.Error().Err(err).Int("completed", n).Msg("pipeline failed")
		}
		d.err = err
	} else {
		d.logger.Debug().Int("completed", n).Msg("pipeline finished")
	}
	_ = d.ch.Close()
}

// stop abandons the run on behalf of a departing receiver.
func (d *driver) stop() {
	d.gone.Store(true)
	d.ch.Abandon()
	d.cancel()
	<-d.done
}

// EventReceiver is the consumer end of a running pipeline. It must be
// drained or closed; stages suspend while its buffer is full.
type EventReceiver struct {
	ch        channel.BackpressureChannel[event.Event]
	driver    *driver
	closeOnce sync.Once
}

func newEventReceiver(ch channel.BackpressureChannel[event.Event], d *driver) *EventReceiver {
	return &EventReceiver{ch: ch, driver: d}
}

// Receive returns the next event in delivery order. It returns false once
// the pipeline has finished and every event has been received, or after
// Close. A non-nil error comes only from ctx.
func (r *EventReceiver) Receive(ctx context.Context) (event.Event, bool, error) {
	e, err := r.ch.Receive(ctx)
	if err != nil {
		if errors.Is(err, svErrors.ErrClosed) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return e, true, nil
}

// TryReceive returns a buffered event without waiting.
func (r *EventReceiver) TryReceive() (event.Event, bool) {
	e, ok, _ := r.ch.TryReceive()
	return e, ok
}

// Close drops the receiver. Buffered events are discarded, every stage
// stops, and Close returns once the driver has exited.
func (r *EventReceiver) Close() error {
	r.closeOnce.Do(r.driver.stop)
	return nil
}

// Done is closed when the driver has exited.
func (r *EventReceiver) Done() <-chan struct{} {
	return r.driver.done
}

// Err returns why the run ended early, or nil if it is still running or
// completed normally. Once the receiver was closed mid-run it reports
// ErrReceiverGone.
func (r *EventReceiver) Err() error {
	select {
	case <-r.driver.done:
		return r.driver.err
	default:
		return nil
	}
}

// Completed returns how many items reached the sink. It is zero until the
// driver has exited.
func (r *EventReceiver) Completed() int {
	select {
	case <-r.driver.done:
		return r.driver.completed
	default:
		return 0
	}
}

// Stats returns the event channel statistics.
func (r *EventReceiver) Stats() channel.Stats {
	return r.ch.Stats()
}
