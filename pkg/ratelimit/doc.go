/*
Package ratelimit provides the concurrency limiter that bounds in-flight
work in the pipeline's bounded map stages.

  - concurrency: permit-based limiter with in-flight metrics

A bounded stage reserves a permit before pulling an item from upstream and
releases it once the item has been yielded downstream:

	limiter, _ := concurrency.NewSafe(5)
	if !limiter.Acquire() {
		return // wait for an in-flight item instead of pulling
	}
	defer limiter.Release()

All limiters are safe for concurrent use.
*/
package ratelimit
