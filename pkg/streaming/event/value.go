package event

import "fmt"

// ValueKind tags the variant of a Value.
type ValueKind int

const (
	// ValuePending is an item admitted to a stage whose work has not started.
	ValuePending ValueKind = iota
	// ValueInProgress is an item whose simulated work is running.
	ValueInProgress
	// ValueResolved is an item carrying a settled value.
	ValueResolved
)

func (k ValueKind) String() string {
	switch k {
	case ValuePending:
		return "pending"
	case ValueInProgress:
		return "in_progress"
	case ValueResolved:
		return "resolved"
	default:
		return fmt.Sprintf("value_kind(%d)", int(k))
	}
}

// Value is the display state of an item. Exactly one of Color and Fraction
// is meaningful, selected by Kind.
type Value struct {
	Kind     ValueKind
	Color    Color
	Fraction float64
}

// Pending returns a pending value tinted with the admitting stage's colour.
func Pending(c Color) Value {
	return Value{Kind: ValuePending, Color: c}
}

// InProgress returns a running value with fraction in [0, 1].
func InProgress(fraction float64) Value {
	return Value{Kind: ValueInProgress, Fraction: fraction}
}

// Resolved returns a settled value.
func Resolved(c Color) Value {
	return Value{Kind: ValueResolved, Color: c}
}

func (v Value) String() string {
	switch v.Kind {
	case ValueInProgress:
		return fmt.Sprintf("in_progress(%.2f)", v.Fraction)
	default:
		return fmt.Sprintf("%s(%s)", v.Kind, v.Color)
	}
}
