// Package jitter produces randomized durations around a base value.
package jitter

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	svErrors "github.com/vnykmshr/streamvis/pkg/common/errors"
	"github.com/vnykmshr/streamvis/pkg/common/validation"
)

// maxDuration is the longest representable time.Duration.
const maxDuration = time.Duration(math.MaxInt64)

// Rand is the uniform source every random draw in a pipeline goes through.
// Float64 returns a value in [0, 1) and must be safe for concurrent use.
type Rand interface {
	Float64() float64
}

// Spec describes a jittered duration: Get returns Base + Base*Jitter*U(0,1).
type Spec struct {
	Base   time.Duration
	Jitter float64
}

// FromMillis builds a Spec from a base in milliseconds.
func FromMillis(millis int64, jitter float64) Spec {
	return Spec{Base: time.Duration(millis) * time.Millisecond, Jitter: jitter}
}

// Get draws a fresh duration. The result is never shorter than Base and
// saturates at the longest representable duration.
func (s Spec) Get(r Rand) time.Duration {
	if s.Jitter <= 0 || s.Base <= 0 {
		return s.Base
	}
	spread := float64(s.Base) * s.Jitter * r.Float64()
	if math.IsNaN(spread) {
		return s.Base
	}
	if spread >= float64(maxDuration-s.Base) {
		return maxDuration
	}
	if d := s.Base + time.Duration(spread); d >= s.Base {
		return d
	}
	return maxDuration
}

// Validate rejects negative bases, negative, NaN or infinite jitter, and
// specs whose longest draw does not fit in a time.Duration.
func (s Spec) Validate(module string) error {
	if err := validation.ValidateDuration(module, "base", s.Base); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative(module, "jitter", s.Jitter); err != nil {
		return err
	}
	if math.IsInf(s.Jitter, 0) {
		return svErrors.NewValidationError(module, "jitter", s.Jitter, "must be finite")
	}
	if s.Jitter > 0 && float64(s.Base)*(1+s.Jitter) >= float64(maxDuration) {
		return svErrors.NewValidationError(module, "jitter", s.Jitter, "base*(1+jitter) overflows a duration").
			WithHint("lower the jitter or the base duration")
	}
	return nil
}

// LockedRand is a seeded Rand safe for use from many goroutines.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a reproducible source for the given seed.
func NewRand(seed uint64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float64 implements Rand.
func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Global returns a Rand backed by the runtime-seeded global generator.
func Global() Rand {
	return globalRand{}
}

// Fixed always returns the same draw. Useful for pinning jitter or filter
// decisions in tests.
type Fixed float64

// Float64 implements Rand.
func (f Fixed) Float64() float64 { return float64(f) }
