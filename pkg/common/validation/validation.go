// Package validation provides common validation utilities for the streamvis packages.
package validation

import (
	"math"
	"time"

	svErrors "github.com/vnykmshr/streamvis/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return svErrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative validates that a numeric value is non-negative (>= 0).
// NaN is rejected as well.
func ValidateNonNegative(module, field string, value float64) error {
	if value < 0 || math.IsNaN(value) {
		return svErrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidateRatio validates that value lies within the closed interval [0, 1].
func ValidateRatio(module, field string, value float64) error {
	if value < 0 || value > 1 || math.IsNaN(value) {
		return svErrors.NewValidationError(module, field, value, "must be within [0, 1]").
			WithHint("0 drops every item, 1 keeps every item")
	}
	return nil
}

// ValidateDuration validates that a duration is not negative.
func ValidateDuration(module, field string, value time.Duration) error {
	if value < 0 {
		return svErrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 for instantaneous work")
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return svErrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}
