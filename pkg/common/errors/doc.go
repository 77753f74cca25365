// Package errors defines the error vocabulary shared by the streamvis packages.
//
// Configuration problems are reported as *ValidationError values, which always
// match ErrInvalidConfiguration under errors.Is. Losing the event receiver is
// reported as ErrReceiverGone and is fatal for a running pipeline: nothing is
// retried.
package errors
