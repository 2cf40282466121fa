package fake

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/fittrack/components/location"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/utils"
)

type sink struct {
	mu       sync.Mutex
	readings []location.Reading
}

func (s *sink) Update(r location.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, r)
}

func (s *sink) Fail(error) {}

func (s *sink) snapshot() []location.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]location.Reading(nil), s.readings...)
}

func TestWalksCircle(t *testing.T) {
	mock := clock.NewMock()
	d := NewDriver(&Config{StepDegrees: 90}, mock, logging.NewTestLogger(t))
	s := &sink{}
	src, err := d.Start(context.Background(), s)
	test.That(t, err, test.ShouldBeNil)
	defer src.Close(context.Background())

	for i := 1; i <= 5; i++ {
		mock.Add(DefaultInterval)
		testutils.WaitForAssertion(t, func(tb testing.TB) {
			tb.Helper()
			test.That(tb, len(s.snapshot()), test.ShouldEqual, i)
		})
	}

	readings := s.snapshot()
	for _, r := range readings {
		dist := location.DefaultCenter.GreatCircleDistance(r.Point())
		test.That(t, dist, test.ShouldAlmostEqual, DefaultRadiusMeters/1000, 0.001)
		test.That(t, r.Accuracy, test.ShouldEqual, accuracyMeters)
	}
	// North first, then east.
	test.That(t, readings[0].Latitude, test.ShouldBeGreaterThan, location.DefaultCenter.Lat())
	test.That(t, readings[1].Longitude, test.ShouldBeGreaterThan, location.DefaultCenter.Lng())
	// Four quarter steps come back around.
	test.That(t, readings[4].Latitude, test.ShouldAlmostEqual, readings[0].Latitude, 1e-9)
}

func TestCustomCenter(t *testing.T) {
	lat, lng := 51.5, -0.12
	d := NewDriver(&Config{Latitude: &lat, Longitude: &lng, RadiusMeters: 100}, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, d.center.Lat(), test.ShouldEqual, lat)
	test.That(t, d.center.Lng(), test.ShouldEqual, lng)
	test.That(t, d.radiusKm, test.ShouldEqual, 0.1)
	test.That(t, d.interval, test.ShouldEqual, DefaultInterval)
}

func TestConfig(t *testing.T) {
	bad := 91.0
	test.That(t, (&Config{Latitude: &bad}).Validate("x"), test.ShouldNotBeNil)
	test.That(t, (&Config{Longitude: &bad}).Validate("x"), test.ShouldBeNil)
	test.That(t, (&Config{RadiusMeters: -1}).Validate("x"), test.ShouldNotBeNil)

	conf := resource.Config{
		Name:       "location",
		API:        location.API,
		Model:      location.SimulatedModel,
		Attributes: utils.AttributeMap{"interval": "2s", "latitude": 40.0},
	}
	test.That(t, resource.Convert(&conf), test.ShouldBeNil)
	test.That(t, conf.Validate("sensors.1"), test.ShouldBeNil)
	reg, ok := resource.LookupRegistration[location.Driver](location.API, location.SimulatedModel)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, reg.Simulated, test.ShouldBeTrue)
	driver, err := reg.Constructor(context.Background(), conf, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, driver.(*Driver).interval, test.ShouldEqual, 2*time.Second)
	test.That(t, driver.(*Driver).center.Lat(), test.ShouldEqual, 40.0)
}
