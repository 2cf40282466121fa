// Package fake implements a heading generator that turns steadily clockwise.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/fittrack/components/heading"
	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/utils"
)

const (
	// DefaultInterval is 60 Hz.
	DefaultInterval = time.Second / 60
	// DefaultStepDegrees is how far the heading turns each interval.
	DefaultStepDegrees = 1.0
)

// Config is used for converting fake heading attributes.
type Config struct {
	Interval    time.Duration `json:"interval,omitempty"`
	StepDegrees float64       `json:"step_degrees,omitempty"`
	Initial     float64       `json:"initial_degrees,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Interval < 0 {
		return errors.Errorf("%s: interval must not be negative", path)
	}
	return nil
}

func init() {
	resource.Register(heading.API, heading.SimulatedModel, resource.Registration[heading.Driver, *Config]{
		Constructor: func(ctx context.Context, conf resource.Config, logger logging.Logger) (heading.Driver, error) {
			cfg, err := resource.NativeConfig[*Config](conf)
			if err != nil {
				return nil, err
			}
			return NewDriver(cfg, clock.New(), logger), nil
		},
		Simulated: true,
	})
}

// Driver turns the heading by a fixed step every interval. Simulated compasses always report a
// true heading.
type Driver struct {
	interval time.Duration
	step     float64
	clock    clock.Clock
	logger   logging.Logger

	mu      sync.Mutex
	current float64
}

// NewDriver returns a generator driven by clk.
func NewDriver(cfg *Config, clk clock.Clock, logger logging.Logger) *Driver {
	d := &Driver{
		interval: cfg.Interval,
		step:     cfg.StepDegrees,
		clock:    clk,
		logger:   logger,
		current:  utils.ModAngDeg(cfg.Initial),
	}
	if d.interval == 0 {
		d.interval = DefaultInterval
	}
	if d.step == 0 {
		d.step = DefaultStepDegrees
	}
	return d
}

// Start begins turning from wherever the previous run stopped.
func (d *Driver) Start(ctx context.Context, sink facade.Sink[heading.Reading]) (facade.Source, error) {
	ticker := d.clock.Ticker(d.interval)
	workers := utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				sink.Update(d.next(now))
			}
		}
	})
	return facade.CloseFunc(func(context.Context) error {
		workers.Stop()
		return nil
	}), nil
}

func (d *Driver) next(now time.Time) heading.Reading {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = utils.ModAngDeg(d.current + d.step)
	return heading.Reading{
		Degrees:       d.current,
		Magnetic:      d.current,
		True:          d.current,
		TrueAvailable: true,
		Time:          now,
	}
}
