// Package gpsnmea reads location fixes from an NMEA GPS on a serial port.
package gpsnmea

import (
	"context"
	"time"

	"github.com/adrianmo/go-nmea"

	"go.viam.com/fittrack/components/location"
	"go.viam.com/fittrack/components/nmeaserial"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
)

// Model is the serial NMEA GPS model.
var Model = resource.DefaultModelFamily.WithModel("gps-nmea")

func init() {
	resource.Register(location.API, Model, resource.Registration[location.Driver, *nmeaserial.Config]{
		Constructor: func(ctx context.Context, conf resource.Config, logger logging.Logger) (location.Driver, error) {
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

// NewDriver returns a location driver over the serial port in cfg. A nil open uses the real port.
func NewDriver(cfg *nmeaserial.Config, open nmeaserial.Opener, logger logging.Logger) location.Driver {
	return nmeaserial.NewDriver(cfg, open, Convert, logger)
}

// Convert turns a position sentence with a valid fix into a reading.
func Convert(s nmea.Sentence) (location.Reading, bool) {
	switch sentence := s.(type) {
	case nmea.RMC:
		if sentence.Validity != nmea.ValidRMC {
			return location.Reading{}, false
		}
		return reading(sentence.Latitude, sentence.Longitude, 0), true
	case nmea.GGA:
		if sentence.FixQuality == nmea.Invalid {
			return location.Reading{}, false
		}
		return reading(sentence.Latitude, sentence.Longitude, sentence.HDOP*hdopMeters), true
	case nmea.GLL:
		if sentence.Validity != nmea.ValidGLL {
			return location.Reading{}, false
		}
		return reading(sentence.Latitude, sentence.Longitude, 0), true
	default:
		return location.Reading{}, false
	}
}

// hdopMeters is the user equivalent range error assumed when turning HDOP into meters.
const hdopMeters = 5.0

func reading(lat, lng, accuracy float64) location.Reading {
	return location.Reading{Latitude: lat, Longitude: lng, Accuracy: accuracy, Time: time.Now()}
}
