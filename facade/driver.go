package facade

import (
	"context"
)

// A Sink receives the output of a running driver. Both methods may be called from any goroutine
// and never block.
type Sink[R any] interface {
	Update(reading R)
	Fail(err error)
}

// A Source is a running driver. Close stops it and releases whatever it holds.
type Source interface {
	Close(ctx context.Context) error
}

// A Driver turns platform hardware, or a generator, into a stream of readings.
type Driver[R any] interface {
	Start(ctx context.Context, sink Sink[R]) (Source, error)
}

// DriverFunc adapts a function to a Driver.
type DriverFunc[R any] func(ctx context.Context, sink Sink[R]) (Source, error)

// Start calls f.
func (f DriverFunc[R]) Start(ctx context.Context, sink Sink[R]) (Source, error) {
	return f(ctx, sink)
}

// CloseFunc adapts a function to a Source.
type CloseFunc func(ctx context.Context) error

// Close calls f.
func (f CloseFunc) Close(ctx context.Context) error {
	return f(ctx)
}

// An Authorizer asks the platform for a permission. Authorize must not block on the answer; it
// calls done exactly once, from any goroutine, when the answer is known.
type Authorizer interface {
	Status(permission Permission) AuthorizationState
	Authorize(ctx context.Context, permission Permission, done func(AuthorizationState))
}
