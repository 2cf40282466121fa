// Package fake implements a motion generator with values in typical handheld ranges.
package fake

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/fittrack/components/motion"
	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/utils"
)

const (
	// DefaultInterval is 60 Hz.
	DefaultInterval = time.Second / 60

	// MaxAcceleration bounds each acceleration axis, in g.
	MaxAcceleration = 2.0
	// MaxRotationRate bounds each rotation axis.
	MaxRotationRate = 5.0
)

// Config is used for converting fake motion attributes.
type Config struct {
	Interval time.Duration `json:"interval,omitempty"`
	Seed     int64         `json:"seed,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Interval < 0 {
		return errors.Errorf("%s: interval must not be negative", path)
	}
	return nil
}

func init() {
	resource.Register(motion.API, motion.SimulatedModel, resource.Registration[motion.Driver, *Config]{
		Constructor: func(ctx context.Context, conf resource.Config, logger logging.Logger) (motion.Driver, error) {
			cfg, err := resource.NativeConfig[*Config](conf)
			if err != nil {
				return nil, err
			}
			return NewDriver(cfg, clock.New(), logger), nil
		},
		Simulated: true,
	})
}

// Driver emits a uniformly random reading every interval.
type Driver struct {
	interval time.Duration
	clock    clock.Clock
	logger   logging.Logger

	mu   sync.Mutex
	rand *rand.Rand
}

// NewDriver returns a generator driven by clk.
func NewDriver(cfg *Config, clk clock.Clock, logger logging.Logger) *Driver {
	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Driver{
		interval: interval,
		clock:    clk,
		logger:   logger,
		rand:     rand.New(rand.NewSource(seed)), //nolint:gosec
	}
}

// Start begins ticking.
func (d *Driver) Start(ctx context.Context, sink facade.Sink[motion.Reading]) (facade.Source, error) {
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
	d.logger.Debugw("simulated motion started", "interval", d.interval)
	return facade.CloseFunc(func(context.Context) error {
		workers.Stop()
		return nil
	}), nil
}

func (d *Driver) next(now time.Time) motion.Reading {
	d.mu.Lock()
	defer d.mu.Unlock()
	return motion.Reading{
		Acceleration: r3.Vector{
			X: d.uniform(MaxAcceleration),
			Y: d.uniform(MaxAcceleration),
			Z: d.uniform(MaxAcceleration),
		},
		RotationRate: r3.Vector{
			X: d.uniform(MaxRotationRate),
			Y: d.uniform(MaxRotationRate),
			Z: d.uniform(MaxRotationRate),
		},
		Time: now,
	}
}

// uniform returns a value in [-limit, limit].
func (d *Driver) uniform(limit float64) float64 {
	return (d.rand.Float64()*2 - 1) * limit
}
