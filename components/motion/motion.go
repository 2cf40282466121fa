// Package motion exposes device acceleration and rotation rate.
package motion

import (
	"time"

	"github.com/golang/geo/r3"

	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/uiqueue"
)

// SubtypeName is a constant that identifies the motion sensor.
const SubtypeName = "motion"

var (
	// API is the sensor API for motion.
	API = resource.NewSensorAPI(SubtypeName)

	// SimulatedModel is the generator used when no motion hardware is wanted or present.
	SimulatedModel = resource.DefaultModelFamily.WithModel("fake")
)

// Reading is one motion sample. Acceleration is in g with gravity removed; rotation rate is in the
// units the driver's platform reports.
type Reading struct {
	Acceleration r3.Vector
	RotationRate r3.Vector
	Time         time.Time
}

// Driver produces motion readings.
type Driver = facade.Driver[Reading]

// Options configure a Motion.
type Options struct {
	Mode       facade.SourceMode
	Available  bool
	Driver     Driver
	Authorizer facade.Authorizer
}

// Motion is the motion facade.
type Motion struct {
	*facade.Facade[Reading]
}

// New returns an Idle motion facade.
func New(queue *uiqueue.Queue, opts Options, logger logging.Logger) (*Motion, error) {
	f, err := facade.New(queue, facade.Options[Reading]{
		Name:       SubtypeName,
		Mode:       opts.Mode,
		Available:  opts.Available,
		Permission: facade.PermissionMotion,
		Driver:     opts.Driver,
		Authorizer: opts.Authorizer,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &Motion{f}, nil
}
