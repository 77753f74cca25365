// Package validation provides common validation utilities for configuration
// parameters across the streamvis packages.
//
// The pipeline builder runs every stage parameter through these helpers so
// that a bad concurrency bound or retain ratio is reported before any item
// is admitted.
package validation
