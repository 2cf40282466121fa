package utils

import (
	"context"
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestStoppableWorkers(t *testing.T) {
	var running atomic.Int32
	loop := func(ctx context.Context) {
		running.Add(1)
		defer running.Add(-1)
		<-ctx.Done()
	}

	workers := NewStoppableWorkers(loop, loop)
	workers.AddWorkers(loop)
	test.That(t, workers.Context().Err(), test.ShouldBeNil)

	workers.Stop()
	test.That(t, running.Load(), test.ShouldEqual, 0)
	test.That(t, workers.Context().Err(), test.ShouldNotBeNil)

	// Workers added after Stop never run.
	var ran atomic.Bool
	workers.AddWorkers(func(context.Context) { ran.Store(true) })
	workers.Stop()
	test.That(t, ran.Load(), test.ShouldBeFalse)
}

func TestStoppableWorkersParentContext(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	workers := NewStoppableWorkersWithContext(parent, func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})

	cancel()
	<-done
	workers.Stop()
}
