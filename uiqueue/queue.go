// Package uiqueue provides the single execution context that every consumer-visible state change
// is serialized onto. Sensor drivers run on their own goroutines and hand work to the queue with
// Dispatch; the queue runs it, in order, on one goroutine.
package uiqueue

import (
	"sync"

	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"go.viam.com/fittrack/logging"
)

// A Queue runs dispatched functions one at a time, in submission order, on a single goroutine.
type Queue struct {
	logger logging.Logger

	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	done    chan struct{}

	closed                  atomic.Bool
	activeBackgroundWorkers sync.WaitGroup
}

// New starts a queue. Close must be called to release its goroutine.
func New(logger logging.Logger) *Queue {
	q := &Queue{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	q.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(q.run, func() {
		close(q.done)
		q.activeBackgroundWorkers.Done()
	})
	return q
}

// Dispatch enqueues fn and returns immediately. It never blocks, so it is safe to call from driver
// callbacks and from functions already running on the queue. After Close it is a no-op.
func (q *Queue) Dispatch(fn func()) {
	if q.closed.Load() {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until everything dispatched before the call has run. It must not be called from the
// queue's own goroutine.
func (q *Queue) Flush() {
	if q.closed.Load() {
		return
	}
	done := make(chan struct{})
	q.Dispatch(func() { close(done) })
	select {
	case <-done:
	case <-q.done:
	}
}

// Sync runs fn on the queue and waits for it to finish.
func (q *Queue) Sync(fn func()) {
	q.Dispatch(fn)
	q.Flush()
}

// Close drains the functions already dispatched and stops the queue goroutine.
func (q *Queue) Close() {
	if !q.closed.CompareAndSwap(false, true) {
		return
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
	q.activeBackgroundWorkers.Wait()
}

func (q *Queue) run() {
	for {
		<-q.wake
		for {
			q.mu.Lock()
			batch := q.pending
			q.pending = nil
			q.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				q.invoke(fn)
			}
		}
		if q.closed.Load() {
			return
		}
	}
}

func (q *Queue) invoke(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			q.logger.Errorw("panic on ui queue", "error", err)
		}
	}()
	fn()
}
