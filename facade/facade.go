// Package facade implements the lifecycle every sensor shares: one driver at a time, permission
// gated activation, and a consumer-visible snapshot that only ever changes on the UI queue.
package facade

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/uiqueue"
	"go.viam.com/fittrack/utils"
)

// Snapshot is the consumer-visible state of a facade at one instant.
type Snapshot[R any] struct {
	Name          string
	Mode          SourceMode
	State         LifecycleState
	Authorization AuthorizationState
	Available     bool

	// Reading is only meaningful when HasReading is set.
	Reading    R
	HasReading bool

	Readings  uint64
	Errors    uint64
	LastError error
}

// Hooks let a sensor package extend the shared lifecycle. Every hook runs on the UI queue.
type Hooks[R any] struct {
	// Accept may rewrite a reading before it is published.
	Accept func(c *Control[R], reading R) R
	// Activated runs right after the facade becomes Active.
	Activated func(c *Control[R])
	// Deactivating runs right before the active source is closed.
	Deactivating func(c *Control[R])
}

// Options configure a Facade.
type Options[R any] struct {
	Name       string
	Mode       SourceMode
	Available  bool
	Permission Permission
	Driver     Driver[R]
	// Authorizer is required in Live mode.
	Authorizer Authorizer
	Hooks      Hooks[R]
}

type subscriber[R any] struct {
	id uuid.UUID
	fn func(Snapshot[R])
}

// A Facade owns at most one running Source and exposes its readings as a Snapshot.
type Facade[R any] struct {
	name       string
	permission Permission
	driver     Driver[R]
	authorizer Authorizer
	hooks      Hooks[R]
	queue      *uiqueue.Queue
	logger     logging.Logger

	ctx    context.Context
	cancel func()

	// Everything below is owned by the queue goroutine.
	current     Snapshot[R]
	attempt     uint64
	source      Source
	stopWaiting func()
	subscribers []subscriber[R]
	closed      bool

	mu        sync.RWMutex
	published Snapshot[R]
}

// New returns an Idle facade. Its state changes run on queue.
func New[R any](queue *uiqueue.Queue, opts Options[R], logger logging.Logger) (*Facade[R], error) {
	if opts.Name == "" {
		return nil, errors.New("facade needs a name")
	}
	if queue == nil {
		return nil, errors.Errorf("%s: no ui queue", opts.Name)
	}
	if opts.Driver == nil {
		return nil, errors.Errorf("%s: no driver", opts.Name)
	}
	if opts.Mode == Live && opts.Authorizer == nil {
		return nil, errors.Errorf("%s: live mode needs an authorizer", opts.Name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Facade[R]{
		name:       opts.Name,
		permission: opts.Permission,
		driver:     opts.Driver,
		authorizer: opts.Authorizer,
		hooks:      opts.Hooks,
		queue:      queue,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	f.current = Snapshot[R]{
		Name:      opts.Name,
		Mode:      opts.Mode,
		State:     Idle,
		Available: opts.Available,
	}
	if opts.Mode == Live {
		f.current.Authorization = opts.Authorizer.Status(opts.Permission)
	}
	f.published = f.current
	return f, nil
}

// Name returns the sensor name.
func (f *Facade[R]) Name() string {
	return f.name
}

// Logger returns the facade's logger.
func (f *Facade[R]) Logger() logging.Logger {
	return f.logger
}

// Start begins activation and returns immediately. It is a no-op while Starting or Active.
func (f *Facade[R]) Start() {
	f.queue.Dispatch(f.start)
}

// Stop halts the active source, if any, and returns immediately. It is always safe to call.
func (f *Facade[R]) Stop() {
	f.queue.Dispatch(f.stop)
}

// Close stops the facade and waits for its source to be released. The facade can not be
// restarted afterwards.
func (f *Facade[R]) Close(ctx context.Context) error {
	var err error
	f.queue.Sync(func() {
		err = f.halt(ctx)
		f.closed = true
		f.subscribers = nil
	})
	f.cancel()
	return err
}

// Snapshot returns the most recently published state.
func (f *Facade[R]) Snapshot() Snapshot[R] {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.published
}

// LatestReading returns the newest reading, or false if there has never been one.
func (f *Facade[R]) LatestReading() (R, bool) {
	snap := f.Snapshot()
	return snap.Reading, snap.HasReading
}

// State returns the lifecycle state.
func (f *Facade[R]) State() LifecycleState {
	return f.Snapshot().State
}

// Mode returns the source mode chosen at construction.
func (f *Facade[R]) Mode() SourceMode {
	return f.Snapshot().Mode
}

// Available reports whether the sensor can currently produce data.
func (f *Facade[R]) Available() bool {
	return f.Snapshot().Available
}

// Authorization returns the last known authorization state.
func (f *Facade[R]) Authorization() AuthorizationState {
	return f.Snapshot().Authorization
}

// LastError returns the most recent error absorbed by the facade.
func (f *Facade[R]) LastError() error {
	return f.Snapshot().LastError
}

// Subscribe registers fn to receive every published snapshot, starting with the current one. fn
// runs on the UI queue and must not block.
func (f *Facade[R]) Subscribe(fn func(Snapshot[R])) uuid.UUID {
	id := uuid.New()
	f.queue.Dispatch(func() {
		if f.closed {
			return
		}
		f.subscribers = append(f.subscribers, subscriber[R]{id: id, fn: fn})
		fn(f.current)
	})
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (f *Facade[R]) Unsubscribe(id uuid.UUID) {
	f.queue.Dispatch(func() {
		for i, sub := range f.subscribers {
			if sub.id == id {
				f.subscribers = append(f.subscribers[:i:i], f.subscribers[i+1:]...)
				return
			}
		}
	})
}

// OnQueue runs fn on the UI queue with access to the facade internals.
func (f *Facade[R]) OnQueue(fn func(c *Control[R])) {
	f.queue.Dispatch(func() {
		if f.closed {
			return
		}
		fn(&Control[R]{f: f})
	})
}

func (f *Facade[R]) publish() {
	f.mu.Lock()
	f.published = f.current
	f.mu.Unlock()
	for _, sub := range f.subscribers {
		sub.fn(f.current)
	}
}

func (f *Facade[R]) setState(state LifecycleState) {
	f.logger.Debugw("lifecycle", "from", f.current.State, "to", state)
	f.current.State = state
}

func (f *Facade[R]) start() {
	if f.closed {
		return
	}
	switch f.current.State {
	case Starting, Active:
		f.logger.Debugw("start ignored", "state", f.current.State)
		return
	case Idle, Stopped:
	}

	f.attempt++
	attempt := f.attempt
	f.setState(Starting)
	f.current.LastError = nil
	f.publish()

	if f.current.Mode == Simulated {
		f.launch(attempt)
		return
	}
	if !f.current.Available {
		f.logger.Warnw("cannot start sensor", "error", ErrHardwareUnavailable)
		f.current.LastError = ErrHardwareUnavailable
		f.setState(Stopped)
		f.publish()
		return
	}

	f.stopWaiting = utils.SlowLogger(f.ctx, "still waiting for authorization", "permission", string(f.permission), f.logger)
	f.authorizer.Authorize(f.ctx, f.permission, func(state AuthorizationState) {
		f.queue.Dispatch(func() { f.authorized(attempt, state) })
	})
}

func (f *Facade[R]) authorized(attempt uint64, state AuthorizationState) {
	if attempt != f.attempt || f.current.State != Starting {
		f.logger.Debugw("discarding stale authorization", "authorization", state)
		return
	}
	f.endWaiting()
	f.current.Authorization = state
	if state != Granted {
		err := authorizationError(state)
		f.logger.Infow("sensor not authorized", "authorization", state)
		f.current.LastError = err
		f.setState(Stopped)
		f.publish()
		return
	}
	f.publish()
	f.launch(attempt)
}

func (f *Facade[R]) launch(attempt uint64) {
	s := &sink[R]{f: f, attempt: attempt}
	goutils.PanicCapturingGo(func() {
		src, err := f.driver.Start(f.ctx, s)
		f.queue.Dispatch(func() { f.started(attempt, src, err) })
	})
}

func (f *Facade[R]) started(attempt uint64, src Source, err error) {
	if attempt != f.attempt || f.current.State != Starting {
		if err == nil && src != nil {
			f.logger.Debug("closing source from an abandoned start")
			if closeErr := src.Close(context.Background()); closeErr != nil {
				f.logger.Warnw("failed to close abandoned source", "error", closeErr)
			}
		}
		return
	}
	if err != nil {
		f.logger.Warnw("failed to start driver", "error", err)
		f.current.LastError = NewDriverError(f.name, err)
		f.current.Errors++
		f.setState(Stopped)
		f.publish()
		return
	}

	f.source = src
	if f.current.Mode == Simulated {
		f.current.Authorization = Granted
	}
	f.setState(Active)
	f.publish()
	if f.hooks.Activated != nil {
		f.hooks.Activated(&Control[R]{f: f})
	}
}

func (f *Facade[R]) accept(attempt uint64, reading R) {
	if attempt != f.attempt || f.current.State != Active {
		return
	}
	if f.hooks.Accept != nil {
		reading = f.hooks.Accept(&Control[R]{f: f}, reading)
	}
	f.current.Reading = reading
	f.current.HasReading = true
	f.current.Readings++
	f.publish()
}

func (f *Facade[R]) failed(attempt uint64, err error) {
	if attempt != f.attempt || f.current.State != Active {
		f.logger.Debugw("dropping error from inactive driver", "error", err)
		return
	}
	f.logger.Warnw("driver error, keeping last reading", "error", err)
	f.current.LastError = NewDriverError(f.name, err)
	f.current.Errors++
	f.publish()
}

func (f *Facade[R]) stop() {
	if err := f.halt(context.Background()); err != nil {
		f.logger.Warnw("error stopping sensor", "error", err)
	}
}

func (f *Facade[R]) halt(ctx context.Context) error {
	switch f.current.State {
	case Idle, Stopped:
		return nil
	case Starting, Active:
	}

	// Bumping the attempt abandons any authorization answer or driver start still in flight.
	f.attempt++
	f.endWaiting()

	var err error
	if f.source != nil {
		if f.hooks.Deactivating != nil {
			f.hooks.Deactivating(&Control[R]{f: f})
		}
		err = f.source.Close(ctx)
		f.source = nil
		if err != nil {
			f.current.LastError = NewDriverError(f.name, err)
			f.current.Errors++
		}
	}
	f.setState(Stopped)
	f.publish()
	return err
}

func (f *Facade[R]) endWaiting() {
	if f.stopWaiting != nil {
		f.stopWaiting()
		f.stopWaiting = nil
	}
}

type sink[R any] struct {
	f       *Facade[R]
	attempt uint64
}

func (s *sink[R]) Update(reading R) {
	s.f.queue.Dispatch(func() { s.f.accept(s.attempt, reading) })
}

func (s *sink[R]) Fail(err error) {
	s.f.queue.Dispatch(func() { s.f.failed(s.attempt, err) })
}

// Control exposes facade internals to hooks and OnQueue callbacks. It is only valid on the UI
// queue, during the call it was handed to.
type Control[R any] struct {
	f *Facade[R]
}

// Source returns the running source, or nil when not Active.
func (c *Control[R]) Source() Source {
	return c.f.source
}

// State returns the current lifecycle state.
func (c *Control[R]) State() LifecycleState {
	return c.f.current.State
}

// Fail records err as the facade's last error.
func (c *Control[R]) Fail(err error) {
	c.f.current.LastError = err
	c.f.current.Errors++
}

// SetAvailable changes the availability flag.
func (c *Control[R]) SetAvailable(available bool) {
	c.f.current.Available = available
}

// Publish pushes the current state to subscribers. Use it after changing state a subscriber can
// observe.
func (c *Control[R]) Publish() {
	c.f.publish()
}
