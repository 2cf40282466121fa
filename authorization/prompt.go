package authorization

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
)

// AskFunc asks a person whether to allow a permission.
type AskFunc func(ctx context.Context, permission facade.Permission) (bool, error)

// Prompt asks on the terminal. Only one question is on screen at a time.
type Prompt struct {
	ask    AskFunc
	logger logging.Logger

	mu sync.Mutex
}

// NewPrompt returns a terminal prompt authorizer. A nil ask uses an interactive confirm dialog.
func NewPrompt(ask AskFunc, logger logging.Logger) *Prompt {
	if ask == nil {
		ask = confirm
	}
	return &Prompt{ask: ask, logger: logger}
}

// Status is always NotDetermined; remembering answers is left to Remembering.
func (p *Prompt) Status(facade.Permission) facade.AuthorizationState {
	return facade.NotDetermined
}

// Authorize shows the question on a background goroutine and returns right away.
func (p *Prompt) Authorize(ctx context.Context, permission facade.Permission, done func(facade.AuthorizationState)) {
	goutils.PanicCapturingGo(func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		allowed, err := p.ask(ctx, permission)
		switch {
		case ctx.Err() != nil:
			done(facade.NotDetermined)
		case errors.Is(err, huh.ErrUserAborted):
			p.logger.Infow("permission prompt dismissed", "permission", permission)
			done(facade.Denied)
		case err != nil:
			p.logger.Warnw("permission prompt failed", "permission", permission, "error", err)
			done(facade.Restricted)
		case allowed:
			done(facade.Granted)
		default:
			done(facade.Denied)
		}
	})
}

func confirm(ctx context.Context, permission facade.Permission) (bool, error) {
	var allowed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Allow fittrack to access your %s data?", permission)).
			Affirmative("Allow").
			Negative("Don't Allow").
			Value(&allowed),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return false, err
	}
	return allowed, nil
}
