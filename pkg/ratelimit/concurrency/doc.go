/*
Package concurrency provides the semaphore that bounds in-flight work inside
a bounded pipeline stage.

A stage takes a permit before it admits an item and returns it when the
item's result leaves the stage. While no permit is free the stage simply
stops pulling from upstream, so admissions suspend without any extra lock.

	limiter, err := concurrency.NewSafe(5)
	if err != nil {
		return err // capacity below 1 is a configuration error
	}

	if limiter.Acquire() {
		// admit one item
	}
	...
	limiter.Release()

NewWithMetrics mirrors InUse into the streamvis_stage_in_flight gauge.
*/
package concurrency
