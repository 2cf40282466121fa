// Package gpsnmea reads heading from an NMEA compass or GPS on a serial port.
package gpsnmea

import (
	"context"
	"time"

	"github.com/adrianmo/go-nmea"

	"go.viam.com/fittrack/components/heading"
	"go.viam.com/fittrack/components/nmeaserial"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
)

// Model is the serial NMEA heading model.
var Model = resource.DefaultModelFamily.WithModel("gps-nmea")

func init() {
	resource.Register(heading.API, Model, resource.Registration[heading.Driver, *nmeaserial.Config]{
		Constructor: func(ctx context.Context, conf resource.Config, logger logging.Logger) (heading.Driver, error) {
			cfg, err := resource.NativeConfig[*nmeaserial.Config](conf)
			if err != nil {
				return nil, err
			}
			return NewDriver(cfg, nil, logger), nil
		},
		Probe: func(ctx context.Context, conf resource.Config) bool {
			cfg, err := resource.NativeConfig[*nmeaserial.Config](conf)
			if err != nil {
				return false
			}
			return cfg.Present()
		},
	})
}

// NewDriver returns a heading driver over the serial port in cfg. A nil open uses the real port.
func NewDriver(cfg *nmeaserial.Config, open nmeaserial.Opener, logger logging.Logger) heading.Driver {
	return nmeaserial.NewDriver(cfg, open, Convert, logger)
}

// Convert turns HDT (true) and HDG (magnetic) sentences into readings.
func Convert(s nmea.Sentence) (heading.Reading, bool) {
	switch sentence := s.(type) {
	case nmea.HDT:
		return heading.Reading{
			Magnetic:      sentence.Heading,
			True:          sentence.Heading,
			TrueAvailable: true,
			Time:          time.Now(),
		}, true
	case nmea.HDG:
		return heading.Reading{Magnetic: sentence.Heading, Time: time.Now()}, true
	default:
		return heading.Reading{}, false
	}
}
