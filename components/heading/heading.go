// Package heading exposes the direction the device is pointing.
package heading

import (
	"time"

	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/uiqueue"
	"go.viam.com/fittrack/utils"
)

// SubtypeName is a constant that identifies the heading sensor.
const SubtypeName = "heading"

var (
	// API is the sensor API for heading.
	API = resource.NewSensorAPI(SubtypeName)

	// SimulatedModel is the generator used when no compass is wanted or present.
	SimulatedModel = resource.DefaultModelFamily.WithModel("fake")
)

// Reading is one heading sample. Magnetic and True are the raw values from the driver; Degrees is
// the value to display and is filled in by the facade.
type Reading struct {
	Degrees float64

	Magnetic      float64
	True          float64
	TrueAvailable bool
	// Accuracy is the maximum deviation in degrees, or 0 when unknown.
	Accuracy float64
	Time     time.Time
}

// Driver produces heading readings.
type Driver = facade.Driver[Reading]

// Options configure a Heading.
type Options struct {
	Mode       facade.SourceMode
	Available  bool
	Driver     Driver
	Authorizer facade.Authorizer
}

// Heading is the heading facade.
type Heading struct {
	*facade.Facade[Reading]
}

// New returns an Idle heading facade. Heading shares the location permission.
func New(queue *uiqueue.Queue, opts Options, logger logging.Logger) (*Heading, error) {
	f, err := facade.New(queue, facade.Options[Reading]{
		Name:       SubtypeName,
		Mode:       opts.Mode,
		Available:  opts.Available,
		Permission: facade.PermissionLocation,
		Driver:     opts.Driver,
		Authorizer: opts.Authorizer,
		Hooks: facade.Hooks[Reading]{
			Accept: accept,
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	return &Heading{Facade: f}, nil
}

func accept(_ *facade.Control[Reading], r Reading) Reading {
	r.Magnetic = utils.ModAngDeg(r.Magnetic)
	if r.TrueAvailable {
		r.True = utils.ModAngDeg(r.True)
		r.Degrees = r.True
	} else {
		r.Degrees = r.Magnetic
	}
	return r
}

// IsHeadingAvailable reports whether heading data can be had with the current hardware and
// authorization.
func (h *Heading) IsHeadingAvailable() bool {
	s := h.Snapshot()
	if !s.Available {
		return false
	}
	switch s.Authorization {
	case facade.Denied, facade.Restricted:
		return false
	default:
		return true
	}
}
