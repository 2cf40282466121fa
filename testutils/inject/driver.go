package inject

import (
	"context"
	"sync"

	"go.viam.com/fittrack/facade"
)

// Driver is an injected facade.Driver. With no StartFunc it hands back a Source that only counts
// closes, and keeps the sink so tests can feed readings through Emit and Fail.
type Driver[R any] struct {
	facade.Driver[R]
	StartFunc func(ctx context.Context, sink facade.Sink[R]) (facade.Source, error)

	mu     sync.Mutex
	sink   facade.Sink[R]
	starts int
	closes int
}

// Start calls the injected Start, the wrapped driver, or records the sink.
func (d *Driver[R]) Start(ctx context.Context, sink facade.Sink[R]) (facade.Source, error) {
	d.mu.Lock()
	d.sink = sink
	d.starts++
	d.mu.Unlock()

	if d.StartFunc != nil {
		return d.StartFunc(ctx, sink)
	}
	if d.Driver != nil {
		return d.Driver.Start(ctx, sink)
	}
	return facade.CloseFunc(func(context.Context) error {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.closes++
		return nil
	}), nil
}

// Emit sends a reading through the most recent sink. It reports false if Start was never called.
func (d *Driver[R]) Emit(reading R) bool {
	d.mu.Lock()
	sink := d.sink
	d.mu.Unlock()
	if sink == nil {
		return false
	}
	sink.Update(reading)
	return true
}

// Fail reports an error through the most recent sink.
func (d *Driver[R]) Fail(err error) bool {
	d.mu.Lock()
	sink := d.sink
	d.mu.Unlock()
	if sink == nil {
		return false
	}
	sink.Fail(err)
	return true
}

// Starts returns how many times Start was called.
func (d *Driver[R]) Starts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.starts
}

// Closes returns how many default sources were closed.
func (d *Driver[R]) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}
