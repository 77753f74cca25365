// Package clock abstracts the only suspension point of simulated work.
//
// Every simulated wait goes through a Clock so that demos can run in real
// time (or faster, or slower) while tests run without sleeping at all.
package clock

import (
	"context"
	"runtime"
	"time"
)

// Clock suspends the calling goroutine for a simulated duration.
type Clock interface {
	// Sleep waits for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real sleeps for the requested wall-clock duration.
type Real struct{}

// Sleep implements Clock.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Scaled sleeps for d multiplied by Factor. A factor of 0.5 runs a
// scenario twice as fast; 0 behaves like Instant.
type Scaled struct {
	Factor float64
}

// Sleep implements Clock.
func (s Scaled) Sleep(ctx context.Context, d time.Duration) error {
	if s.Factor <= 0 {
		return Instant{}.Sleep(ctx, d)
	}
	return Real{}.Sleep(ctx, time.Duration(float64(d)*s.Factor))
}

// Instant never waits. It yields the processor so sibling goroutines still
// interleave, which keeps concurrency-dependent behaviour observable.
type Instant struct{}

// Sleep implements Clock.
func (Instant) Sleep(ctx context.Context, _ time.Duration) error {
	runtime.Gosched()
	return ctx.Err()
}

// ForScale picks a Clock for a time scale: 1 is Real, 0 is Instant,
// anything else is Scaled.
func ForScale(scale float64) Clock {
	switch {
	case scale <= 0:
		return Instant{}
	case scale == 1:
		return Real{}
	default:
		return Scaled{Factor: scale}
	}
}
