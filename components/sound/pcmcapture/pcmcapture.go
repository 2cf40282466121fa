// Package pcmcapture meters and records a microphone through a raw PCM capture command such as
// arecord.
package pcmcapture

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/fittrack/components/sound"
	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/utils"
)

const (
	// DefaultSampleRate is used when the config leaves it unset.
	DefaultSampleRate = 44100
	// DefaultCommand is the capture program run when the config leaves it unset.
	DefaultCommand = "arecord"

	bitDepth    = 16
	numChannels = 1
	// wavPCM is the WAVE format tag for integer PCM.
	wavPCM = 1
)

// Model is the PCM capture model.
var Model = resource.DefaultModelFamily.WithModel("pcm-capture")

// Config is used for converting PCM capture attributes.
type Config struct {
	Device       string `json:"device,omitempty"`
	SampleRate   int    `json:"sample_rate,omitempty"`
	Command      string `json:"command,omitempty"`
	RecordingDir string `json:"recording_dir,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.SampleRate < 0 {
		return errors.Errorf("%s: sample_rate must not be negative", path)
	}
	return nil
}

func (cfg *Config) sampleRate() int {
	if cfg.SampleRate == 0 {
		return DefaultSampleRate
	}
	return cfg.SampleRate
}

func (cfg *Config) command() string {
	if cfg.Command == "" {
		return DefaultCommand
	}
	return cfg.Command
}

func (cfg *Config) recordingDir() string {
	if cfg.RecordingDir == "" {
		return utils.DefaultRecordingDir()
	}
	return cfg.RecordingDir
}

// Args returns the arguments for the capture command: mono signed 16 bit little endian raw PCM on
// stdout.
func (cfg *Config) Args() []string {
	args := []string{"-q", "-t", "raw", "-f", "S16_LE", "-c", strconv.Itoa(numChannels), "-r", strconv.Itoa(cfg.sampleRate())}
	if cfg.Device != "" {
		args = append(args, "-D", cfg.Device)
	}
	return args
}

// An Opener starts a PCM stream described by cfg.
type Opener func(ctx context.Context, cfg *Config) (io.ReadCloser, error)

// OpenCommand runs the capture command and streams its stdout.
func OpenCommand(ctx context.Context, cfg *Config) (io.ReadCloser, error) {
	//nolint:gosec
	cmd := exec.CommandContext(ctx, cfg.command(), cfg.Args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to run %s", cfg.command())
	}
	return &commandStream{ReadCloser: stdout, cmd: cmd}, nil
}

type commandStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (s *commandStream) Close() error {
	err := s.ReadCloser.Close()
	if s.cmd.Process != nil {
		//nolint:errcheck
		s.cmd.Process.Kill()
	}
	//nolint:errcheck
	s.cmd.Wait()
	return err
}

func init() {
	resource.Register(sound.API, Model, resource.Registration[sound.Driver, *Config]{
		Constructor: func(ctx context.Context, conf resource.Config, logger logging.Logger) (sound.Driver, error) {
			cfg, err := resource.NativeConfig[*Config](conf)
			if err != nil {
				return nil, err
			}
			return NewDriver(cfg, nil, clock.New(), logger), nil
		},
		Probe: func(ctx context.Context, conf resource.Config) bool {
			cfg, err := resource.NativeConfig[*Config](conf)
			if err != nil {
				return false
			}
			_, err = exec.LookPath(cfg.command())
			return err == nil
		},
	})
}

// Driver meters a PCM stream every sound.MeteringInterval.
type Driver struct {
	cfg    *Config
	open   Opener
	clock  clock.Clock
	logger logging.Logger
}

// NewDriver returns a capture driver. A nil open runs the capture command.
func NewDriver(cfg *Config, open Opener, clk clock.Clock, logger logging.Logger) *Driver {
	if open == nil {
		open = OpenCommand
	}
	return &Driver{cfg: cfg, open: open, clock: clk, logger: logger}
}

// Start opens the stream. The returned source is a sound.Recorder.
func (d *Driver) Start(ctx context.Context, sink facade.Sink[sound.Reading]) (facade.Source, error) {
	stream, err := d.open(ctx, d.cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open capture stream")
	}
	c := &capture{
		stream: stream,
		rate:   d.cfg.sampleRate(),
		dir:    d.cfg.recordingDir(),
		clock:  d.clock,
		logger: d.logger,
		failed: make(chan struct{}),
	}
	ticker := d.clock.Ticker(sound.MeteringInterval)
	c.workers = utils.NewStoppableWorkersWithContext(ctx,
		func(ctx context.Context) {
			c.readLoop(ctx, sink)
		},
		func(ctx context.Context) {
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-c.failed:
					return
				case now := <-ticker.C:
					select {
					case <-c.failed:
						return
					default:
					}
					sink.Update(sound.NewReading(c.meter.Poll(), now))
				}
			}
		},
		func(ctx context.Context) {
			<-ctx.Done()
			//nolint:errcheck
			c.stream.Close()
		},
	)
	return c, nil
}

type capture struct {
	stream  io.ReadCloser
	rate    int
	dir     string
	clock   clock.Clock
	logger  logging.Logger
	meter   sound.Meter
	workers utils.StoppableWorkers
	// failed is closed once the stream fails; metering stops with it.
	failed chan struct{}

	mu  sync.Mutex
	rec *wavRecording
}

type wavRecording struct {
	path string
	file *os.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer
	// frames counts what has been encoded so far.
	frames int
}

// chunkFrames is how many frames are read at once, one metering interval's worth.
func (c *capture) chunkFrames() int {
	frames := int(int64(c.rate) * int64(sound.MeteringInterval) / int64(time.Second))
	if frames < 1 {
		return 1
	}
	return frames
}

func (c *capture) readLoop(ctx context.Context, sink facade.Sink[sound.Reading]) {
	frames := c.chunkFrames()
	buf := make([]byte, frames*numChannels*bitDepth/8)
	for {
		if _, err := io.ReadFull(c.stream, buf); err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				err = errors.New("capture stream ended")
			}
			close(c.failed)
			sink.Fail(err)
			return
		}
		chunk := decode(buf, frames, c.rate)
		c.write(chunk)
		c.meter.Add(chunk)
	}
}

func decode(buf []byte, frames, rate int) *wave.Int16Interleaved {
	chunk := wave.NewInt16Interleaved(wave.ChunkInfo{Len: frames, Channels: numChannels, SamplingRate: rate})
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			off := 2 * (i*numChannels + ch)
			chunk.SetInt16(i, ch, wave.Int16Sample(int16(binary.LittleEndian.Uint16(buf[off:]))))
		}
	}
	return chunk
}

func (c *capture) write(chunk *wave.Int16Interleaved) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec == nil {
		return
	}
	data := c.rec.buf.Data[:0]
	for _, v := range chunk.Data {
		data = append(data, int(v))
	}
	c.rec.buf.Data = data
	if err := c.rec.enc.Write(c.rec.buf); err == nil {
		c.rec.frames += len(chunk.Data) / numChannels
	} else {
		c.logger.Warnw("failed writing recording, stopping it", "path", c.rec.path, "error", err)
		if err := c.finish(); err != nil {
			c.logger.Warnw("error closing recording", "error", err)
		}
	}
}

// StartRecording opens a new WAV file in the recording directory.
func (c *capture) StartRecording(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec != nil {
		return c.rec.path, nil
	}
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return "", err
	}
	path, f, err := createRecording(c.dir, c.clock.Now())
	if err != nil {
		return "", err
	}
	c.rec = &wavRecording{
		path: path,
		file: f,
		enc:  wav.NewEncoder(f, c.rate, bitDepth, numChannels, wavPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: numChannels, SampleRate: c.rate},
			SourceBitDepth: bitDepth,
		},
	}
	return path, nil
}

// createRecording creates a new file for a recording started at now. A second recording in the
// same second gets a numeric suffix.
func createRecording(dir string, now time.Time) (string, *os.File, error) {
	name := sound.RecordingFileName(now, "wav")
	base := strings.TrimSuffix(name, ".wav")
	for i := 0; i < 100; i++ {
		path := filepath.Join(dir, name)
		//nolint:gosec
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return path, f, nil
		}
		if !os.IsExist(err) {
			return "", nil, err
		}
		name = fmt.Sprintf("%s_%d.wav", base, i+1)
	}
	return "", nil, errors.Errorf("too many recordings in %s for %v", dir, now.Unix())
}

// StopRecording finalizes the WAV header and closes the file. A recording stopped before any
// audio arrived is removed.
func (c *capture) StopRecording(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finish()
}

func (c *capture) finish() error {
	if c.rec == nil {
		return nil
	}
	rec := c.rec
	c.rec = nil
	if rec.frames == 0 {
		// Nothing was encoded, so the file has no WAV header.
		c.logger.Debugw("removing empty recording", "path", rec.path)
		return multierr.Combine(rec.file.Close(), os.Remove(rec.path))
	}
	return multierr.Combine(rec.enc.Close(), rec.file.Close())
}

func (c *capture) Close(ctx context.Context) error {
	c.workers.Stop()
	return c.StopRecording(ctx)
}
