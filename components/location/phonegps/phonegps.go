// Package phonegps reads location fixes from a phone streaming its GPS.
package phonegps

import (
	"context"
	"time"

	"go.viam.com/fittrack/components/location"
	"go.viam.com/fittrack/components/phonestream"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
)

// Model is the phone GPS model.
var Model = resource.DefaultModelFamily.WithModel("phone-gps")

func init() {
	resource.Register(location.API, Model, resource.Registration[location.Driver, *phonestream.Config]{
		Constructor: func(ctx context.Context, conf resource.Config, logger logging.Logger) (location.Driver, error) {
			cfg, err := resource.NativeConfig[*phonestream.Config](conf)
			if err != nil {
				return nil, err
			}
			return phonestream.NewDriver(cfg.Host, Convert, logger), nil
		},
		Probe: func(ctx context.Context, conf resource.Config) bool {
			cfg, err := resource.NativeConfig[*phonestream.Config](conf)
			if err != nil {
				return false
			}
			return phonestream.Reachable(ctx, cfg.Host, 3*time.Second)
		},
	})
}

// Convert pulls a fix out of a phone measurement. A negative horizontal accuracy means the phone
// has no fix and the line is skipped.
func Convert(m phonestream.Measurement) (location.Reading, bool, error) {
	if !m.Has(phonestream.FieldLatitude) {
		return location.Reading{}, false, nil
	}
	v, err := m.Floats(phonestream.FieldLatitude, phonestream.FieldLongitude)
	if err != nil {
		return location.Reading{}, false, err
	}
	var accuracy float64
	if m.Has(phonestream.FieldHorizontalAccuracy) {
		if accuracy, err = m.Float(phonestream.FieldHorizontalAccuracy); err != nil {
			return location.Reading{}, false, err
		}
		if accuracy < 0 {
			return location.Reading{}, false, nil
		}
	}
	return location.Reading{
		Latitude:  v[0],
		Longitude: v[1],
		Accuracy:  accuracy,
		Time:      time.Now(),
	}, true, nil
}
