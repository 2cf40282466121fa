// Package phonestream reads sensor data that a phone streams as newline delimited JSON over TCP.
// Every live phone driver (motion, heading, location) shares this client.
package phonestream

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/utils"
)

// Field names the phone uses. Values arrive as strings or numbers.
const (
	FieldUserAccelerationX = "motionUserAccelerationX"
	FieldUserAccelerationY = "motionUserAccelerationY"
	FieldUserAccelerationZ = "motionUserAccelerationZ"
	FieldRotationRateX     = "motionRotationRateX"
	FieldRotationRateY     = "motionRotationRateY"
	FieldRotationRateZ     = "motionRotationRateZ"

	FieldLatitude           = "locationLatitude"
	FieldLongitude          = "locationLongitude"
	FieldHorizontalAccuracy = "locationHorizontalAccuracy"

	FieldMagneticHeading = "locationMagneticHeading"
	FieldTrueHeading     = "locationTrueHeading"
	FieldHeadingAccuracy = "locationHeadingAccuracy"
)

// Config is shared by the phone drivers.
type Config struct {
	Host string `json:"host"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Host == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "host")
	}
	if _, _, err := net.SplitHostPort(cfg.Host); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

// A Measurement is one decoded line.
type Measurement map[string]interface{}

// Has reports whether field is present.
func (m Measurement) Has(field string) bool {
	_, ok := m[field]
	return ok
}

// Float returns field as a float64.
func (m Measurement) Float(field string) (float64, error) {
	switch v := m[field].(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "field %s", field)
		}
		return f, nil
	case nil:
		return 0, errors.Errorf("field %s missing", field)
	default:
		return 0, errors.Errorf("field %s has unexpected type %T", field, v)
	}
}

// Floats returns several fields, failing on the first one that is missing or malformed.
func (m Measurement) Floats(fields ...string) ([]float64, error) {
	out := make([]float64, 0, len(fields))
	for _, field := range fields {
		f, err := m.Float(field)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// A Converter turns a measurement into a reading. ok is false for lines that carry nothing for this
// sensor, which happens since every sensor's data shares one stream.
type Converter[R any] func(m Measurement) (reading R, ok bool, err error)

// Reachable reports whether a phone is listening at host.
func Reachable(ctx context.Context, host string, timeout time.Duration) bool {
	conn, err := dial(ctx, host, timeout)
	if err != nil {
		return false
	}
	//nolint:errcheck
	conn.Close()
	return true
}

func dial(ctx context.Context, host string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var d net.Dialer
	return d.DialContext(ctx, "tcp", host)
}

// Driver connects to the phone on every Start.
type Driver[R any] struct {
	host    string
	convert Converter[R]
	logger  logging.Logger
}

// NewDriver returns a driver reading from host.
func NewDriver[R any](host string, convert Converter[R], logger logging.Logger) *Driver[R] {
	return &Driver[R]{host: host, convert: convert, logger: logger}
}

// Start dials the phone and streams converted readings into sink until the source is closed.
func (d *Driver[R]) Start(ctx context.Context, sink facade.Sink[R]) (facade.Source, error) {
	conn, err := dial(ctx, d.host, utils.GetDriverStartTimeout(d.logger))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to phone at %s", d.host)
	}
	s := &stream[R]{conn: conn}
	s.workers = utils.NewStoppableWorkersWithContext(ctx,
		func(ctx context.Context) {
			s.readLoop(ctx, d.convert, sink, d.logger)
		},
		func(ctx context.Context) {
			<-ctx.Done()
			//nolint:errcheck
			s.conn.Close()
		},
	)
	return s, nil
}

type stream[R any] struct {
	conn    net.Conn
	workers utils.StoppableWorkers
}

func (s *stream[R]) readLoop(ctx context.Context, convert Converter[R], sink facade.Sink[R], logger logging.Logger) {
	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		var m Measurement
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			logger.Debugw("skipping malformed line", "error", err)
			sink.Fail(errors.Wrap(err, "malformed measurement"))
			continue
		}
		reading, ok, err := convert(m)
		if err != nil {
			sink.Fail(err)
			continue
		}
		if ok {
			sink.Update(reading)
		}
	}
	if ctx.Err() != nil {
		return
	}
	err := scanner.Err()
	if err == nil {
		err = errors.New("phone closed the stream")
	}
	sink.Fail(err)
}

// Close stops reading. Cancelling the workers closes the connection, which unblocks the reader.
func (s *stream[R]) Close(context.Context) error {
	s.workers.Stop()
	return nil
}
