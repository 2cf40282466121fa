package inject

import (
	"context"
	"sync"

	"go.viam.com/fittrack/facade"
)

// Authorizer is an injected facade.Authorizer. With no AuthorizeFunc every request is held until
// Resolve is called.
type Authorizer struct {
	facade.Authorizer
	StatusFunc    func(permission facade.Permission) facade.AuthorizationState
	AuthorizeFunc func(ctx context.Context, permission facade.Permission, done func(facade.AuthorizationState))

	mu      sync.Mutex
	pending []func(facade.AuthorizationState)
}

// Status calls the injected Status, the wrapped authorizer, or returns NotDetermined.
func (a *Authorizer) Status(permission facade.Permission) facade.AuthorizationState {
	if a.StatusFunc != nil {
		return a.StatusFunc(permission)
	}
	if a.Authorizer != nil {
		return a.Authorizer.Status(permission)
	}
	return facade.NotDetermined
}

// Authorize calls the injected Authorize, the wrapped authorizer, or parks the request.
func (a *Authorizer) Authorize(ctx context.Context, permission facade.Permission, done func(facade.AuthorizationState)) {
	if a.AuthorizeFunc != nil {
		a.AuthorizeFunc(ctx, permission, done)
		return
	}
	if a.Authorizer != nil {
		a.Authorizer.Authorize(ctx, permission, done)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(a.pending, done)
}

// Pending returns how many parked requests are waiting for Resolve.
func (a *Authorizer) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Resolve answers every parked request with state.
func (a *Authorizer) Resolve(state facade.AuthorizationState) {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()
	for _, done := range pending {
		done(state)
	}
}
