package event

import "context"

// Emitter delivers events to the pipeline's observer. Every stage holds its
// own Emitter; there is no shared registry of senders.
type Emitter interface {
	// Emit blocks while the observer is behind and fails once it is gone.
	Emit(ctx context.Context, e Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, e Event) error

// Emit implements Emitter.
func (f EmitterFunc) Emit(ctx context.Context, e Event) error {
	return f(ctx, e)
}
