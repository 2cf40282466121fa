// Package sound exposes the ambient sound level and records what the microphone hears.
package sound

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/uiqueue"
)

// SubtypeName is a constant that identifies the sound sensor.
const SubtypeName = "sound"

// MeteringInterval is how often the capture stream's power is polled.
const MeteringInterval = 100 * time.Millisecond

var (
	// API is the sensor API for sound.
	API = resource.NewSensorAPI(SubtypeName)

	// SimulatedModel is the generator used when no microphone is wanted or present.
	SimulatedModel = resource.DefaultModelFamily.WithModel("fake")
)

// Reading is one metering poll.
type Reading struct {
	// Level is in [0, 1].
	Level   float64
	PowerDB float64
	Time    time.Time
}

// RecordingFileName returns the file name for a recording started at now.
func RecordingFileName(now time.Time, ext string) string {
	return fmt.Sprintf("recording_%d.%s", now.Unix(), ext)
}

// NewReading returns the reading for an average power.
func NewReading(powerDB float64, now time.Time) Reading {
	return Reading{Level: LinearLevel(powerDB), PowerDB: powerDB, Time: now}
}

var errNoRecorder = errors.New("sound source cannot record")

// Driver produces sound readings.
type Driver = facade.Driver[Reading]

// A Recorder is a Source that can also write what it captures to a file.
type Recorder interface {
	facade.Source
	// StartRecording opens a new recording and returns where it is written. Sources that only
	// pretend to record return an empty path.
	StartRecording(ctx context.Context) (string, error)
	StopRecording(ctx context.Context) error
}

// Options configure a Sound.
type Options struct {
	Mode       facade.SourceMode
	Available  bool
	Driver     Driver
	Authorizer facade.Authorizer
	// RecordOnStart begins recording as soon as metering is Active.
	RecordOnStart bool
}

// Sound is the sound facade.
type Sound struct {
	*facade.Facade[Reading]

	recordOnStart  bool
	inputAvailable bool

	// Owned by the UI queue.
	recorder        Recorder
	recordingFailed bool

	recording     atomic.Bool
	recordingPath atomic.String
}

// New returns an Idle sound facade.
func New(queue *uiqueue.Queue, opts Options, logger logging.Logger) (*Sound, error) {
	s := &Sound{recordOnStart: opts.RecordOnStart, inputAvailable: opts.Available}
	f, err := facade.New(queue, facade.Options[Reading]{
		Name:       SubtypeName,
		Mode:       opts.Mode,
		Available:  opts.Available,
		Permission: facade.PermissionMicrophone,
		Driver:     opts.Driver,
		Authorizer: opts.Authorizer,
		Hooks: facade.Hooks[Reading]{
			Activated:    s.activated,
			Deactivating: s.deactivating,
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	s.Facade = f
	return s, nil
}

// Start begins metering. A previous recording failure is cleared so the microphone can be tried
// again.
func (s *Sound) Start() {
	s.OnQueue(func(c *facade.Control[Reading]) {
		if s.recordingFailed {
			s.recordingFailed = false
			c.SetAvailable(s.inputAvailable)
			c.Publish()
		}
	})
	s.Facade.Start()
}

// StartRecording begins writing captured audio to a new file. It does nothing unless metering is
// Active, which also means the microphone is authorized.
func (s *Sound) StartRecording() {
	s.OnQueue(func(c *facade.Control[Reading]) {
		if c.State() != facade.Active {
			s.Logger().Debugw("not recording, sound is not active", "state", c.State())
			return
		}
		s.startRecording(c)
	})
}

// StopRecording finishes the current recording, if any.
func (s *Sound) StopRecording() {
	s.OnQueue(s.stopRecording)
}

// IsRecording reports whether a recording is in progress.
func (s *Sound) IsRecording() bool {
	return s.recording.Load()
}

// RecordingPath returns the file of the current or most recent recording.
func (s *Sound) RecordingPath() string {
	return s.recordingPath.Load()
}

func (s *Sound) activated(c *facade.Control[Reading]) {
	rec, ok := c.Source().(Recorder)
	if !ok {
		s.Logger().Debug("sound source cannot record")
		return
	}
	s.recorder = rec
	if s.recordOnStart {
		s.startRecording(c)
	}
}

func (s *Sound) deactivating(c *facade.Control[Reading]) {
	s.stopRecording(c)
	s.recorder = nil
}

func (s *Sound) startRecording(c *facade.Control[Reading]) {
	if s.recording.Load() {
		return
	}
	if s.recorder == nil {
		s.failRecording(c, errNoRecorder)
		return
	}
	path, err := s.recorder.StartRecording(context.Background())
	if err != nil {
		s.failRecording(c, err)
		return
	}
	if s.recordingFailed {
		s.recordingFailed = false
		c.SetAvailable(s.inputAvailable)
	}
	s.recordingPath.Store(path)
	s.recording.Store(true)
	s.Logger().Infow("recording started", "path", path)
	c.Publish()
}

func (s *Sound) failRecording(c *facade.Control[Reading], err error) {
	err = facade.NewRecordingError(err)
	s.Logger().Warnw("cannot record", "error", err)
	s.recordingFailed = true
	c.Fail(err)
	c.SetAvailable(false)
	c.Publish()
}

func (s *Sound) stopRecording(c *facade.Control[Reading]) {
	if !s.recording.Load() {
		return
	}
	s.recording.Store(false)
	if s.recorder != nil {
		if err := s.recorder.StopRecording(context.Background()); err != nil {
			s.Logger().Warnw("error finishing recording", "error", err, "path", s.recordingPath.Load())
			c.Fail(err)
		}
	}
	s.Logger().Infow("recording stopped", "path", s.recordingPath.Load())
	c.Publish()
}
