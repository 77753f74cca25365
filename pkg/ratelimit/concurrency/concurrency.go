package concurrency

// Acquire attempts to acquire one permit without blocking.
func (cl *concurrencyLimiter) Acquire() bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.available == 0 {
		return false
	}
	cl.available--
	return true
}

// Release releases one permit back to the limiter.
func (cl *concurrencyLimiter) Release() {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.available >= cl.capacity {
		panic("concurrency: released more permits than acquired")
	}
	cl.available++
}

// Capacity returns the maximum number of concurrent operations allowed.
func (cl *concurrencyLimiter) Capacity() int {
	return cl.capacity
}

// Available returns the number of permits currently available.
func (cl *concurrencyLimiter) Available() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.available
}

// InUse returns the number of permits currently in use.
func (cl *concurrencyLimiter) InUse() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.capacity - cl.available
}
