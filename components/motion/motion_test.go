package motion_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/fittrack/components/motion"
	"go.viam.com/fittrack/components/motion/fake"
	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/uiqueue"
)

func TestSimulatedMotionForTwoSeconds(t *testing.T) {
	logger := logging.NewTestLogger(t)
	q := uiqueue.New(logger)
	defer q.Close()

	m, err := motion.New(q, motion.Options{
		Mode:      facade.Simulated,
		Available: true,
		Driver:    fake.NewDriver(&fake.Config{}, clock.New(), logger),
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	defer m.Close(context.Background())

	var mu sync.Mutex
	var states []facade.LifecycleState
	var readings uint64
	m.Subscribe(func(s facade.Snapshot[motion.Reading]) {
		mu.Lock()
		defer mu.Unlock()
		if len(states) == 0 || states[len(states)-1] != s.State {
			states = append(states, s.State)
		}
		readings = s.Readings
	})

	m.Start()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, m.State(), test.ShouldEqual, facade.Active)
	})
	time.Sleep(2 * time.Second)
	m.Stop()
	q.Flush()

	mu.Lock()
	defer mu.Unlock()
	test.That(t, states, test.ShouldResemble, []facade.LifecycleState{
		facade.Idle, facade.Starting, facade.Active, facade.Stopped,
	})
	test.That(t, readings, test.ShouldBeGreaterThanOrEqualTo, 100)

	reading, ok := m.LatestReading()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, reading.Acceleration.X, test.ShouldBeBetweenOrEqual, -fake.MaxAcceleration, fake.MaxAcceleration)
}

func TestFirstReadingWithinOnePeriod(t *testing.T) {
	logger := logging.NewTestLogger(t)
	q := uiqueue.New(logger)
	defer q.Close()

	mock := clock.NewMock()
	m, err := motion.New(q, motion.Options{
		Mode:   facade.Simulated,
		Driver: fake.NewDriver(&fake.Config{}, mock, logger),
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	defer m.Close(context.Background())

	m.Start()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, m.State(), test.ShouldEqual, facade.Active)
	})
	_, ok := m.LatestReading()
	test.That(t, ok, test.ShouldBeFalse)

	mock.Add(fake.DefaultInterval)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		_, ok := m.LatestReading()
		test.That(tb, ok, test.ShouldBeTrue)
	})
}

func TestLiveNeedsAuthorizer(t *testing.T) {
	logger := logging.NewTestLogger(t)
	q := uiqueue.New(logger)
	defer q.Close()
	_, err := motion.New(q, motion.Options{Mode: facade.Live, Driver: fake.NewDriver(&fake.Config{}, clock.New(), logger)}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}
