// Package fake implements a sound generator whose level follows a slow sine wave.
package fake

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/fittrack/components/sound"
	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/utils"
)

// DefaultInterval matches the live metering interval.
const DefaultInterval = sound.MeteringInterval

// Config is used for converting fake sound attributes.
type Config struct {
	Interval time.Duration `json:"interval,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Interval < 0 {
		return errors.Errorf("%s: interval must not be negative", path)
	}
	return nil
}

func init() {
	resource.Register(sound.API, sound.SimulatedModel, resource.Registration[sound.Driver, *Config]{
		Constructor: func(ctx context.Context, conf resource.Config, logger logging.Logger) (sound.Driver, error) {
			cfg, err := resource.NativeConfig[*Config](conf)
			if err != nil {
				return nil, err
			}
			return NewDriver(cfg, clock.New(), logger), nil
		},
		Simulated: true,
	})
}

// Driver emits a level of (sin(2t)+1)/2 every interval, t being wall time in seconds.
type Driver struct {
	interval time.Duration
	clock    clock.Clock
	logger   logging.Logger
}

// NewDriver returns a generator driven by clk.
func NewDriver(cfg *Config, clk clock.Clock, logger logging.Logger) *Driver {
	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	return &Driver{interval: interval, clock: clk, logger: logger}
}

// Level returns the simulated level at now.
func Level(now time.Time) float64 {
	t := float64(now.UnixNano()) / float64(time.Second)
	return (math.Sin(t*2) + 1) / 2
}

// Start begins metering. The returned source is a sound.Recorder that records nothing.
func (d *Driver) Start(ctx context.Context, sink facade.Sink[sound.Reading]) (facade.Source, error) {
	ticker := d.clock.Ticker(d.interval)
	workers := utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				level := Level(now)
				sink.Update(sound.Reading{Level: level, PowerDB: powerDB(level), Time: now})
			}
		}
	})
	return &source{workers: workers, logger: d.logger}, nil
}

func powerDB(level float64) float64 {
	if level <= 0 {
		return sound.FloorDB
	}
	return math.Max(20*math.Log10(level), sound.FloorDB)
}

type source struct {
	workers utils.StoppableWorkers
	logger  logging.Logger

	mu        sync.Mutex
	recording bool
}

func (s *source) StartRecording(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = true
	s.logger.Debug("simulated recording started")
	return "", nil
}

func (s *source) StopRecording(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = false
	return nil
}

func (s *source) Close(ctx context.Context) error {
	s.workers.Stop()
	return s.StopRecording(ctx)
}
