package concurrency

import (
	"sync"

	"github.com/vnykmshr/streamvis/pkg/common/validation"
)

// Limiter bounds the number of items a stage may hold in flight. It acts as
// a semaphore: a permit is taken when an item is admitted and returned when
// its result leaves the stage.
type Limiter interface {
	// Acquire attempts to take one permit without blocking. A stage that
	// gets false stops pulling until one of its items is yielded.
	Acquire() bool

	// Release returns one permit. It panics if no permit is held.
	Release()

	// Capacity returns the maximum number of permits.
	Capacity() int

	// Available returns the number of permits currently free.
	Available() int

	// InUse returns the number of permits currently held.
	InUse() int
}

// concurrencyLimiter implements Limiter with a mutex-guarded counter.
type concurrencyLimiter struct {
	mu        sync.Mutex
	capacity  int
	available int
}

// NewSafe creates a limiter with the given capacity, returning a
// ValidationError instead of panicking when capacity is below 1.
func NewSafe(capacity int) (Limiter, error) {
	if err := validation.ValidatePositive("concurrency", "capacity", capacity); err != nil {
		return nil, err
	}
	return &concurrencyLimiter{
		capacity:  capacity,
		available: capacity,
	}, nil
}
