// Package location exposes the device position and the trail walked since tracking began.
package location

import (
	"time"

	geo "github.com/kellydunn/golang-geo"

	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/uiqueue"
)

// SubtypeName is a constant that identifies the location sensor.
const SubtypeName = "location"

const (
	// RegionSpan is the width and height, in degrees, of the region shown around a fix.
	RegionSpan = 0.05

	// DefaultPathCapacity is how many trail points are kept.
	DefaultPathCapacity = 10000
)

var (
	// API is the sensor API for location.
	API = resource.NewSensorAPI(SubtypeName)

	// SimulatedModel is the generator used when no location hardware is wanted or present.
	SimulatedModel = resource.DefaultModelFamily.WithModel("fake")

	// DefaultCenter is where the region sits before the first fix.
	DefaultCenter = geo.NewPoint(37.3349, -122.00902)
)

// Region is the map area around a point.
type Region struct {
	Center         *geo.Point
	LatitudeDelta  float64
	LongitudeDelta float64
}

// RegionAround returns the standard region centered on p.
func RegionAround(p *geo.Point) Region {
	return Region{Center: p, LatitudeDelta: RegionSpan, LongitudeDelta: RegionSpan}
}

// Reading is one position fix. Path and Region are filled in by the facade.
type Reading struct {
	Latitude  float64
	Longitude float64
	// Accuracy is the horizontal accuracy in meters, or 0 when unknown.
	Accuracy float64
	Time     time.Time

	// Path is the trail up to and including this fix, oldest first.
	Path   []*geo.Point
	Region Region
}

// Point returns the fix as a geo.Point.
func (r Reading) Point() *geo.Point {
	return geo.NewPoint(r.Latitude, r.Longitude)
}

// Driver produces location readings.
type Driver = facade.Driver[Reading]

// Options configure a Location.
type Options struct {
	Mode         facade.SourceMode
	Available    bool
	Driver       Driver
	Authorizer   facade.Authorizer
	PathCapacity int
}

// Location is the location facade.
type Location struct {
	*facade.Facade[Reading]

	// path is owned by the UI queue.
	path *Path
}

// New returns an Idle location facade.
func New(queue *uiqueue.Queue, opts Options, logger logging.Logger) (*Location, error) {
	capacity := opts.PathCapacity
	if capacity <= 0 {
		capacity = DefaultPathCapacity
	}
	l := &Location{path: NewPath(capacity)}
	f, err := facade.New(queue, facade.Options[Reading]{
		Name:       SubtypeName,
		Mode:       opts.Mode,
		Available:  opts.Available,
		Permission: facade.PermissionLocation,
		Driver:     opts.Driver,
		Authorizer: opts.Authorizer,
		Hooks: facade.Hooks[Reading]{
			Accept: l.accept,
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	l.Facade = f
	return l, nil
}

func (l *Location) accept(_ *facade.Control[Reading], r Reading) Reading {
	p := r.Point()
	l.path.Append(p)
	r.Path = l.path.Points()
	r.Region = RegionAround(p)
	return r
}

// Region returns the region around the latest fix, or around DefaultCenter before there is one.
func (l *Location) Region() Region {
	if r, ok := l.LatestReading(); ok {
		return r.Region
	}
	return RegionAround(DefaultCenter)
}

// Path returns the trail as of the latest reading.
func (l *Location) Path() []*geo.Point {
	r, _ := l.LatestReading()
	return r.Path
}

// PathDistance returns the length of the trail in kilometers.
func (l *Location) PathDistance() float64 {
	return Distance(l.Path())
}

// ResetPath clears the trail. The next reading starts a new one.
func (l *Location) ResetPath() {
	l.OnQueue(func(*facade.Control[Reading]) {
		l.path.Reset()
	})
}
