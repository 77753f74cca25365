package channel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	svErrors "github.com/vnykmshr/streamvis/pkg/common/errors"
)

// ErrChannelClosed is returned when receiving from a closed, drained channel
// or sending on a closed one.
var ErrChannelClosed = fmt.Errorf("channel: %w", svErrors.ErrClosed)

// ErrReceiverGone is returned to producers once the consumer abandoned the channel.
var ErrReceiverGone = fmt.Errorf("channel: %w", svErrors.ErrReceiverGone)

// BackpressureChannel is a bounded multi-producer single-consumer queue that
// preserves send order.
type BackpressureChannel[T any] interface {
	// Send enqueues value, suspending while the buffer is full.
	Send(ctx context.Context, value T) error

	// Receive dequeues the oldest value, waiting while the buffer is empty.
	// After Close it drains remaining values and then returns ErrChannelClosed.
	Receive(ctx context.Context) (T, error)

	// TryReceive attempts to dequeue without blocking.
	TryReceive() (T, bool, error)

	// Close ends the producer side. Buffered values stay receivable.
	Close() error

	// Abandon ends the consumer side. Buffered values are discarded and every
	// pending or future send fails with ErrReceiverGone.
	Abandon()

	// IsClosed returns true if the producer side is closed.
	IsClosed() bool

	// IsAbandoned returns true if the consumer side is gone.
	IsAbandoned() bool

	// Len returns the current number of buffered elements.
	Len() int

	// Cap returns the buffer capacity.
	Cap() int

	// Stats returns channel statistics.
	Stats() Stats
}

// Stats holds statistics about channel usage.
type Stats struct {
	// SendCount is the total number of values enqueued.
	SendCount int64

	// ReceiveCount is the total number of values dequeued.
	ReceiveCount int64

	// BlockedSends is the number of sends that had to wait for space.
	BlockedSends int64

	// DiscardedCount is the number of buffered values lost to Abandon.
	DiscardedCount int64

	// BufferUtilization is the current buffer utilization (0.0 to 1.0).
	BufferUtilization float64

	// LastSendTime is the timestamp of the last send operation.
	LastSendTime time.Time

	// LastReceiveTime is the timestamp of the last receive operation.
	LastReceiveTime time.Time
}

// Config holds configuration for BackpressureChannel.
type Config struct {
	// BufferSize is the size of the channel buffer.
	BufferSize int

	// OnBlock is called each time a send has to wait for space.
	OnBlock func()
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize: 100,
	}
}

type backpressureChannel[T any] struct {
	config Config
	buffer []T
	mu     sync.Mutex

	head      int
	tail      int
	count     int
	closed    int32
	abandoned int32

	sendCond *sync.Cond
	recvCond *sync.Cond

	stats   Stats
	statsMu sync.Mutex
}

// New creates a new BackpressureChannel with default configuration.
func New[T any](bufferSize int) BackpressureChannel[T] {
	config := DefaultConfig()
	config.BufferSize = bufferSize
	return NewWithConfig[T](config)
}

// NewWithConfig creates a new BackpressureChannel with the specified configuration.
func NewWithConfig[T any](config Config) BackpressureChannel[T] {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}

	ch := &backpressureChannel[T]{
		config: config,
		buffer: make([]T, config.BufferSize),
	}

	ch.sendCond = sync.NewCond(&ch.mu)
	ch.recvCond = sync.NewCond(&ch.mu)

	return ch
}

// Send implements BackpressureChannel.Send.
func (ch *backpressureChannel[T]) Send(ctx context.Context, value T) error {
	stop := context.AfterFunc(ctx, ch.wakeAll)
	defer stop()

	ch.mu.Lock()
	defer ch.mu.Unlock()

	blocked := false
	for ch.count >= len(ch.buffer) && ch.sendableLocked() == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !blocked {
			blocked = true
			ch.updateStats(func(s *Stats) { s.BlockedSends++ })
			if ch.config.OnBlock != nil {
				ch.config.OnBlock()
			}
		}
		ch.sendCond.Wait()
	}

	if err := ch.sendableLocked(); err != nil {
		return err
	}

	ch.enqueueLocked(value)
	return nil
}

// Receive implements BackpressureChannel.Receive.
func (ch *backpressureChannel[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	stop := context.AfterFunc(ctx, ch.wakeAll)
	defer stop()

	ch.mu.Lock()
	defer ch.mu.Unlock()

	for ch.count == 0 && !ch.IsClosed() && !ch.IsAbandoned() {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		ch.recvCond.Wait()
	}

	if ch.count == 0 {
		return zero, ErrChannelClosed
	}

	return ch.dequeueLocked(), nil
}

// TryReceive implements BackpressureChannel.TryReceive.
func (ch *backpressureChannel[T]) TryReceive() (T, bool, error) {
	var zero T

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.count == 0 {
		if ch.IsClosed() || ch.IsAbandoned() {
			return zero, false, ErrChannelClosed
		}
		return zero, false, nil
	}

	return ch.dequeueLocked(), true, nil
}

// Close implements BackpressureChannel.Close.
func (ch *backpressureChannel[T]) Close() error {
	if !atomic.CompareAndSwapInt32(&ch.closed, 0, 1) {
		return nil
	}
	ch.wakeAll()
	return nil
}

// Abandon implements BackpressureChannel.Abandon.
func (ch *backpressureChannel[T]) Abandon() {
	if !atomic.CompareAndSwapInt32(&ch.abandoned, 0, 1) {
		return
	}

	ch.mu.Lock()
	discarded := ch.count
	var zero T
	for i := range ch.buffer {
		ch.buffer[i] = zero
	}
	ch.head, ch.tail, ch.count = 0, 0, 0
	ch.sendCond.Broadcast()
	ch.recvCond.Broadcast()
	ch.mu.Unlock()

	ch.updateStats(func(s *Stats) { s.DiscardedCount += int64(discarded) })
}

// IsClosed implements BackpressureChannel.IsClosed.
func (ch *backpressureChannel[T]) IsClosed() bool {
	return atomic.LoadInt32(&ch.closed) != 0
}

// IsAbandoned implements BackpressureChannel.IsAbandoned.
func (ch *backpressureChannel[T]) IsAbandoned() bool {
	return atomic.LoadInt32(&ch.abandoned) != 0
}

// Len implements BackpressureChannel.Len.
func (ch *backpressureChannel[T]) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.count
}

// Cap implements BackpressureChannel.Cap.
func (ch *backpressureChannel[T]) Cap() int {
	return len(ch.buffer)
}

// Stats implements BackpressureChannel.Stats.
func (ch *backpressureChannel[T]) Stats() Stats {
	ch.statsMu.Lock()
	stats := ch.stats
	ch.statsMu.Unlock()

	stats.BufferUtilization = float64(ch.Len()) / float64(len(ch.buffer))
	return stats
}

// sendableLocked reports why a send cannot proceed, if it cannot (must hold lock).
func (ch *backpressureChannel[T]) sendableLocked() error {
	if ch.IsAbandoned() {
		return ErrReceiverGone
	}
	if ch.IsClosed() {
		return ErrChannelClosed
	}
	return nil
}

// wakeAll wakes every waiter so it can re-check its condition.
func (ch *backpressureChannel[T]) wakeAll() {
	ch.mu.Lock()
	ch.sendCond.Broadcast()
	ch.recvCond.Broadcast()
	ch.mu.Unlock()
}

// enqueueLocked adds a value to the buffer (must hold lock).
func (ch *backpressureChannel[T]) enqueueLocked(value T) {
	ch.buffer[ch.tail] = value
	ch.tail = (ch.tail + 1) % len(ch.buffer)
	ch.count++
	ch.updateStats(func(s *Stats) {
		s.SendCount++
		s.LastSendTime = time.Now()
	})
	ch.recvCond.Broadcast()
}

// dequeueLocked removes the oldest value from the buffer (must hold lock).
func (ch *backpressureChannel[T]) dequeueLocked() T {
	value := ch.buffer[ch.head]
	var zero T
	ch.buffer[ch.head] = zero
	ch.head = (ch.head + 1) % len(ch.buffer)
	ch.count--
	ch.updateStats(func(s *Stats) {
		s.ReceiveCount++
		s.LastReceiveTime = time.Now()
	})
	ch.sendCond.Broadcast()
	return value
}

// updateStats safely updates statistics.
func (ch *backpressureChannel[T]) updateStats(updater func(*Stats)) {
	ch.statsMu.Lock()
	defer ch.statsMu.Unlock()
	updater(&ch.stats)
}
