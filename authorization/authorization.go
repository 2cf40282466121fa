// Package authorization provides the permission answers live sensors wait on before they start.
package authorization

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/fittrack/facade"
)

// Static answers every request immediately from a fixed table.
type Static struct {
	States  map[facade.Permission]facade.AuthorizationState
	Default facade.AuthorizationState
}

// NewStatic returns an authorizer that answers state for every permission.
func NewStatic(state facade.AuthorizationState) *Static {
	return &Static{Default: state}
}

// Status returns the configured answer.
func (s *Static) Status(permission facade.Permission) facade.AuthorizationState {
	if state, ok := s.States[permission]; ok {
		return state
	}
	return s.Default
}

// Authorize answers synchronously.
func (s *Static) Authorize(_ context.Context, permission facade.Permission, done func(facade.AuthorizationState)) {
	done(s.Status(permission))
}

// Remembering keeps the first final answer per permission, the way a platform only prompts once.
// Requests that arrive while a prompt is showing wait for that prompt instead of opening another.
type Remembering struct {
	next facade.Authorizer

	mu       sync.Mutex
	answers  map[facade.Permission]facade.AuthorizationState
	inFlight map[facade.Permission][]func(facade.AuthorizationState)
}

// NewRemembering wraps next.
func NewRemembering(next facade.Authorizer) *Remembering {
	return &Remembering{
		next:     next,
		answers:  map[facade.Permission]facade.AuthorizationState{},
		inFlight: map[facade.Permission][]func(facade.AuthorizationState){},
	}
}

// Status returns the remembered answer, falling back to the wrapped authorizer.
func (r *Remembering) Status(permission facade.Permission) facade.AuthorizationState {
	r.mu.Lock()
	state, ok := r.answers[permission]
	r.mu.Unlock()
	if ok {
		return state
	}
	return r.next.Status(permission)
}

// Authorize answers from memory or asks the wrapped authorizer once.
func (r *Remembering) Authorize(ctx context.Context, permission facade.Permission, done func(facade.AuthorizationState)) {
	r.mu.Lock()
	if state, ok := r.answers[permission]; ok {
		r.mu.Unlock()
		done(state)
		return
	}
	waiting, asking := r.inFlight[permission]
	r.inFlight[permission] = append(waiting, done)
	r.mu.Unlock()
	if asking {
		return
	}

	r.next.Authorize(ctx, permission, func(state facade.AuthorizationState) {
		r.mu.Lock()
		if state.Final() {
			r.answers[permission] = state
		}
		waiters := r.inFlight[permission]
		delete(r.inFlight, permission)
		r.mu.Unlock()
		for _, waiter := range waiters {
			waiter(state)
		}
	})
}

// Forget drops a remembered answer, as if the user reset it in settings.
func (r *Remembering) Forget(permission facade.Permission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.answers, permission)
}

// ParseState reads an authorization state from its string form.
func ParseState(s string) (facade.AuthorizationState, error) {
	for _, state := range []facade.AuthorizationState{
		facade.NotDetermined, facade.Granted, facade.Denied, facade.Restricted,
	} {
		if state.String() == s {
			return state, nil
		}
	}
	return facade.NotDetermined, errors.Errorf("unknown authorization state %q", s)
}
