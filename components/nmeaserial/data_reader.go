// Package nmeaserial reads NMEA 0183 sentences from a serial GPS or compass.
package nmeaserial

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/jacobsa/go-serial/serial"
	goutils "go.viam.com/utils"

	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/utils"
)

const defaultBaudRate = 9600

// Config is used for converting serial NMEA attributes.
type Config struct {
	SerialPath     string `json:"serial_path"`
	SerialBaudRate uint   `json:"serial_baud_rate,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.SerialPath == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "serial_path")
	}
	return nil
}

// OpenOptions returns the serial options for cfg.
func (cfg *Config) OpenOptions() serial.OpenOptions {
	baudRate := cfg.SerialBaudRate
	if baudRate == 0 {
		baudRate = defaultBaudRate
	}
	return serial.OpenOptions{
		PortName:        cfg.SerialPath,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 4,
	}
}

// Present reports whether the configured device node exists.
func (cfg *Config) Present() bool {
	_, err := os.Stat(cfg.SerialPath)
	return err == nil
}

// DataReader represents a way to get data from a NMEA device. Lines are delivered on the channel
// from Lines, which is closed when the device stops producing; Err then reports why.
type DataReader interface {
	Lines() <-chan string
	Err() error
	Close() error
}

// An Opener opens a DataReader. It is replaced in tests.
type Opener func(cfg *Config, logger logging.Logger) (DataReader, error)

// OpenSerial opens the serial port described by cfg.
func OpenSerial(cfg *Config, logger logging.Logger) (DataReader, error) {
	dev, err := serial.Open(cfg.OpenOptions())
	if err != nil {
		return nil, err
	}
	logger.Debugw("opened serial nmea device", "path", cfg.SerialPath, "baud_rate", cfg.OpenOptions().BaudRate)
	return NewDataReader(dev), nil
}

type dataReader struct {
	dev     io.ReadCloser
	data    chan string
	err     error
	workers utils.StoppableWorkers
}

// NewDataReader reads lines from dev until it fails or the reader is closed.
func NewDataReader(dev io.ReadCloser) DataReader {
	dr := &dataReader{dev: dev, data: make(chan string)}
	dr.workers = utils.NewStoppableWorkers(dr.readLoop)
	return dr
}

func (dr *dataReader) readLoop(ctx context.Context) {
	defer close(dr.data)
	r := bufio.NewReader(dr.dev)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if ctx.Err() == nil {
				dr.err = err
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case dr.data <- line:
		}
	}
}

func (dr *dataReader) Lines() <-chan string {
	return dr.data
}

// Err is only meaningful once the Lines channel is closed.
func (dr *dataReader) Err() error {
	return dr.err
}

func (dr *dataReader) Close() error {
	// Closing the device unblocks a pending read.
	err := dr.dev.Close()
	dr.workers.Stop()
	return err
}
