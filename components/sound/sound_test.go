package sound_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/fittrack/components/sound"
	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/testutils/inject"
	"go.viam.com/fittrack/uiqueue"
)

type recorder struct {
	mu       sync.Mutex
	startErr error
	starts   int
	stops    int
	active   bool
}

func (r *recorder) StartRecording(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return "", r.startErr
	}
	r.starts++
	r.active = true
	return "/tmp/recording_1.wav", nil
}

func (r *recorder) StopRecording(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	r.active = false
	return nil
}

func (r *recorder) Close(context.Context) error {
	return nil
}

func (r *recorder) setStartErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startErr = err
}

func (r *recorder) counts() (int, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts, r.stops, r.active
}

func newSound(t *testing.T, rec *recorder, recordOnStart bool) (*sound.Sound, *inject.Driver[sound.Reading], *uiqueue.Queue) {
	t.Helper()
	logger := logging.NewTestLogger(t)
	q := uiqueue.New(logger)
	t.Cleanup(q.Close)

	driver := &inject.Driver[sound.Reading]{
		StartFunc: func(context.Context, facade.Sink[sound.Reading]) (facade.Source, error) {
			return rec, nil
		},
	}
	s, err := sound.New(q, sound.Options{
		Mode:          facade.Simulated,
		Available:     true,
		Driver:        driver,
		RecordOnStart: recordOnStart,
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s, driver, q
}

func waitActive(t *testing.T, s *sound.Sound) {
	t.Helper()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, s.State(), test.ShouldEqual, facade.Active)
	})
}

func TestRecordOnStart(t *testing.T) {
	rec := &recorder{}
	s, driver, q := newSound(t, rec, true)
	test.That(t, s.IsRecording(), test.ShouldBeFalse)

	s.Start()
	waitActive(t, s)
	q.Flush()
	test.That(t, s.IsRecording(), test.ShouldBeTrue)
	test.That(t, s.RecordingPath(), test.ShouldEqual, "/tmp/recording_1.wav")

	driver.Emit(sound.NewReading(-20, time.Now()))
	q.Flush()
	r, ok := s.LatestReading()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, r.Level, test.ShouldAlmostEqual, 0.1, 1e-9)

	// Stopping metering finishes the recording.
	s.Stop()
	q.Flush()
	test.That(t, s.IsRecording(), test.ShouldBeFalse)
	starts, stops, active := rec.counts()
	test.That(t, starts, test.ShouldEqual, 1)
	test.That(t, stops, test.ShouldEqual, 1)
	test.That(t, active, test.ShouldBeFalse)
}

func TestManualRecording(t *testing.T) {
	rec := &recorder{}
	s, _, q := newSound(t, rec, false)

	// Not active yet, so nothing happens.
	s.StartRecording()
	q.Flush()
	test.That(t, s.IsRecording(), test.ShouldBeFalse)

	s.Start()
	waitActive(t, s)
	q.Flush()
	test.That(t, s.IsRecording(), test.ShouldBeFalse)

	s.StartRecording()
	s.StartRecording()
	q.Flush()
	test.That(t, s.IsRecording(), test.ShouldBeTrue)
	starts, _, _ := rec.counts()
	test.That(t, starts, test.ShouldEqual, 1)

	s.StopRecording()
	s.StopRecording()
	q.Flush()
	test.That(t, s.IsRecording(), test.ShouldBeFalse)
	_, stops, _ := rec.counts()
	test.That(t, stops, test.ShouldEqual, 1)
	test.That(t, s.State(), test.ShouldEqual, facade.Active)
}

func TestRecordingStartFailure(t *testing.T) {
	rec := &recorder{}
	rec.setStartErr(errors.New("disk full"))
	s, _, q := newSound(t, rec, true)

	s.Start()
	waitActive(t, s)
	q.Flush()
	test.That(t, s.IsRecording(), test.ShouldBeFalse)
	test.That(t, s.Available(), test.ShouldBeFalse)
	test.That(t, errors.Is(s.LastError(), facade.ErrRecordingStart), test.ShouldBeTrue)
	test.That(t, s.LastError().Error(), test.ShouldContainSubstring, "disk full")
	// Metering carries on.
	test.That(t, s.State(), test.ShouldEqual, facade.Active)

	// Retrying after the cause is fixed brings the microphone back.
	rec.setStartErr(nil)
	s.StartRecording()
	q.Flush()
	test.That(t, s.IsRecording(), test.ShouldBeTrue)
	test.That(t, s.Available(), test.ShouldBeTrue)
}

func TestRetryWithStart(t *testing.T) {
	rec := &recorder{}
	rec.setStartErr(errors.New("no device"))
	s, _, q := newSound(t, rec, true)

	s.Start()
	waitActive(t, s)
	q.Flush()
	test.That(t, s.Available(), test.ShouldBeFalse)

	s.Stop()
	q.Flush()
	rec.setStartErr(nil)
	s.Start()
	waitActive(t, s)
	q.Flush()
	test.That(t, s.Available(), test.ShouldBeTrue)
	test.That(t, s.IsRecording(), test.ShouldBeTrue)
}

func TestSourceWithoutRecorder(t *testing.T) {
	logger := logging.NewTestLogger(t)
	q := uiqueue.New(logger)
	defer q.Close()

	s, err := sound.New(q, sound.Options{
		Mode:          facade.Simulated,
		Available:     true,
		Driver:        &inject.Driver[sound.Reading]{},
		RecordOnStart: true,
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	defer s.Close(context.Background())

	s.Start()
	waitActive(t, s)
	q.Flush()
	test.That(t, s.IsRecording(), test.ShouldBeFalse)
	test.That(t, errors.Is(s.LastError(), facade.ErrRecordingStart), test.ShouldBeTrue)
}

func TestRecordingFileName(t *testing.T) {
	test.That(t, sound.RecordingFileName(time.Unix(1700000000, 5), "wav"), test.ShouldEqual, "recording_1700000000.wav")
}
