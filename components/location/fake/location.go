// Package fake implements a location generator that walks a slow circle.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	geo "github.com/kellydunn/golang-geo"
	"github.com/pkg/errors"

	"go.viam.com/fittrack/components/location"
	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/utils"
)

const (
	// DefaultInterval matches a continuous best-accuracy fix stream.
	DefaultInterval = time.Second
	// DefaultRadiusMeters is the radius of the walked circle.
	DefaultRadiusMeters = 50.0
	// DefaultStepDegrees is how far around the circle each fix moves.
	DefaultStepDegrees = 6.0
	// accuracyMeters is reported with every simulated fix.
	accuracyMeters = 5.0
)

// Config is used for converting fake location attributes.
type Config struct {
	Interval     time.Duration `json:"interval,omitempty"`
	Latitude     *float64      `json:"latitude,omitempty"`
	Longitude    *float64      `json:"longitude,omitempty"`
	RadiusMeters float64       `json:"radius_meters,omitempty"`
	StepDegrees  float64       `json:"step_degrees,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Interval < 0 {
		return errors.Errorf("%s: interval must not be negative", path)
	}
	if cfg.Latitude != nil && (*cfg.Latitude < -90 || *cfg.Latitude > 90) {
		return errors.Errorf("%s: latitude %v out of range", path, *cfg.Latitude)
	}
	if cfg.Longitude != nil && (*cfg.Longitude < -180 || *cfg.Longitude > 180) {
		return errors.Errorf("%s: longitude %v out of range", path, *cfg.Longitude)
	}
	if cfg.RadiusMeters < 0 {
		return errors.Errorf("%s: radius_meters must not be negative", path)
	}
	return nil
}

func init() {
	resource.Register(location.API, location.SimulatedModel, resource.Registration[location.Driver, *Config]{
		Constructor: func(ctx context.Context, conf resource.Config, logger logging.Logger) (location.Driver, error) {
			cfg, err := resource.NativeConfig[*Config](conf)
			if err != nil {
				return nil, err
			}
			return NewDriver(cfg, clock.New(), logger), nil
		},
		Simulated: true,
	})
}

// Driver walks a circle around a center point, one step per interval.
type Driver struct {
	interval time.Duration
	center   *geo.Point
	radiusKm float64
	step     float64
	clock    clock.Clock
	logger   logging.Logger

	mu      sync.Mutex
	bearing float64
}

// NewDriver returns a generator driven by clk.
func NewDriver(cfg *Config, clk clock.Clock, logger logging.Logger) *Driver {
	d := &Driver{
		interval: cfg.Interval,
		center:   location.DefaultCenter,
		radiusKm: cfg.RadiusMeters / 1000,
		step:     cfg.StepDegrees,
		clock:    clk,
		logger:   logger,
	}
	if d.interval == 0 {
		d.interval = DefaultInterval
	}
	if cfg.Latitude != nil || cfg.Longitude != nil {
		lat, lng := d.center.Lat(), d.center.Lng()
		if cfg.Latitude != nil {
			lat = *cfg.Latitude
		}
		if cfg.Longitude != nil {
			lng = *cfg.Longitude
		}
		d.center = geo.NewPoint(lat, lng)
	}
	if d.radiusKm == 0 {
		d.radiusKm = DefaultRadiusMeters / 1000
	}
	if d.step == 0 {
		d.step = DefaultStepDegrees
	}
	return d
}

// Start begins walking. The walk resumes where the previous run left off.
func (d *Driver) Start(ctx context.Context, sink facade.Sink[location.Reading]) (facade.Source, error) {
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

func (d *Driver) next(now time.Time) location.Reading {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.center.PointAtDistanceAndBearing(d.radiusKm, d.bearing)
	d.bearing = utils.ModAngDeg(d.bearing + d.step)
	return location.Reading{
		Latitude:  p.Lat(),
		Longitude: p.Lng(),
		Accuracy:  accuracyMeters,
		Time:      now,
	}
}
