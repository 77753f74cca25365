// Package simulation groups the building blocks of simulated asynchronous work.
//
// Subpackages:
//   - jitter: randomized durations around a base value
//   - clock: injectable suspension (real, scaled, instant)
//   - work: the ticking unit of work one item performs at one stage
package simulation
