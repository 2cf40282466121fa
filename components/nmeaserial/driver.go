package nmeaserial

import (
	"context"
	"strings"

	"github.com/adrianmo/go-nmea"
	"github.com/pkg/errors"

	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/utils"
)

var errDeviceClosed = errors.New("nmea device stopped sending")

// A Converter turns a sentence into a reading; ok is false for sentences it does not use.
type Converter[R any] func(s nmea.Sentence) (reading R, ok bool)

// Driver opens the device on every Start and converts the sentences it sends.
type Driver[R any] struct {
	cfg     *Config
	open    Opener
	convert Converter[R]
	logger  logging.Logger
}

// NewDriver returns a driver for cfg. A nil open uses OpenSerial.
func NewDriver[R any](cfg *Config, open Opener, convert Converter[R], logger logging.Logger) *Driver[R] {
	if open == nil {
		open = OpenSerial
	}
	return &Driver[R]{cfg: cfg, open: open, convert: convert, logger: logger}
}

// Start opens the device and streams readings into sink.
func (d *Driver[R]) Start(ctx context.Context, sink facade.Sink[R]) (facade.Source, error) {
	dr, err := d.open(d.cfg, d.logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open nmea device %s", d.cfg.SerialPath)
	}
	workers := utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-dr.Lines():
				if !ok {
					err := dr.Err()
					if err == nil {
						err = errDeviceClosed
					}
					sink.Fail(err)
					return
				}
				s, err := nmea.Parse(strings.TrimSpace(line))
				if err != nil {
					d.logger.Debugw("can't parse nmea sentence", "line", line, "error", err)
					continue
				}
				if reading, ok := d.convert(s); ok {
					sink.Update(reading)
				}
			}
		}
	})
	return facade.CloseFunc(func(context.Context) error {
		workers.Stop()
		return dr.Close()
	}), nil
}
