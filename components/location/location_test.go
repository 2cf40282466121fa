package location_test

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/fittrack/components/location"
	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/testutils/inject"
	"go.viam.com/fittrack/uiqueue"
)

func newLocation(t *testing.T, capacity int) (*location.Location, *inject.Driver[location.Reading], *uiqueue.Queue) {
	t.Helper()
	logger := logging.NewTestLogger(t)
	q := uiqueue.New(logger)
	t.Cleanup(q.Close)

	driver := &inject.Driver[location.Reading]{}
	l, err := location.New(q, location.Options{
		Mode:         facade.Simulated,
		Available:    true,
		Driver:       driver,
		PathCapacity: capacity,
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { l.Close(context.Background()) })
	return l, driver, q
}

func waitActive(t *testing.T, l *location.Location) {
	t.Helper()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, l.State(), test.ShouldEqual, facade.Active)
	})
}

func fix(lat, lng float64) location.Reading {
	return location.Reading{Latitude: lat, Longitude: lng, Accuracy: 5, Time: time.Now()}
}

func TestRegionBeforeFirstFix(t *testing.T) {
	l, _, _ := newLocation(t, 0)
	region := l.Region()
	test.That(t, region.Center, test.ShouldEqual, location.DefaultCenter)
	test.That(t, region.LatitudeDelta, test.ShouldEqual, location.RegionSpan)
	test.That(t, region.LongitudeDelta, test.ShouldEqual, location.RegionSpan)
	test.That(t, l.Path(), test.ShouldBeEmpty)
	test.That(t, l.PathDistance(), test.ShouldEqual, 0)
}

func TestPathGrowsOnlyWhileActive(t *testing.T) {
	l, driver, q := newLocation(t, 0)

	l.Start()
	waitActive(t, l)

	test.That(t, driver.Emit(fix(10, 20)), test.ShouldBeTrue)
	driver.Emit(fix(10.001, 20))
	driver.Emit(fix(10.002, 20))
	q.Flush()

	test.That(t, len(l.Path()), test.ShouldEqual, 3)
	region := l.Region()
	test.That(t, region.Center.Lat(), test.ShouldEqual, 10.002)
	test.That(t, region.LatitudeDelta, test.ShouldEqual, location.RegionSpan)
	test.That(t, l.PathDistance(), test.ShouldAlmostEqual, 0.222, 0.01)

	l.Stop()
	q.Flush()
	test.That(t, l.State(), test.ShouldEqual, facade.Stopped)
	driver.Emit(fix(50, 50))
	q.Flush()
	test.That(t, len(l.Path()), test.ShouldEqual, 3)

	// The trail carries over a restart.
	l.Start()
	waitActive(t, l)
	driver.Emit(fix(10.003, 20))
	q.Flush()
	test.That(t, len(l.Path()), test.ShouldEqual, 4)
}

func TestPathCapacityAndReset(t *testing.T) {
	l, driver, q := newLocation(t, 2)
	l.Start()
	waitActive(t, l)

	for i := 0; i < 4; i++ {
		driver.Emit(fix(float64(i), 0))
	}
	q.Flush()
	path := l.Path()
	test.That(t, len(path), test.ShouldEqual, 2)
	test.That(t, path[0].Lat(), test.ShouldEqual, 2.0)

	l.ResetPath()
	driver.Emit(fix(7, 7))
	q.Flush()
	path = l.Path()
	test.That(t, len(path), test.ShouldEqual, 1)
	test.That(t, path[0].Lat(), test.ShouldEqual, 7.0)
}
