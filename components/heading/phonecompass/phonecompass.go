// Package phonecompass reads heading from a phone streaming its compass.
package phonecompass

import (
	"context"
	"time"

	"go.viam.com/fittrack/components/heading"
	"go.viam.com/fittrack/components/phonestream"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
)

// Model is the phone compass model.
var Model = resource.DefaultModelFamily.WithModel("phone-compass")

func init() {
	resource.Register(heading.API, Model, resource.Registration[heading.Driver, *phonestream.Config]{
		Constructor: func(ctx context.Context, conf resource.Config, logger logging.Logger) (heading.Driver, error) {
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

// Convert pulls a heading out of a phone measurement. Phones report a negative true heading when
// it cannot be determined, and a negative accuracy when the heading is invalid.
func Convert(m phonestream.Measurement) (heading.Reading, bool, error) {
	if !m.Has(phonestream.FieldMagneticHeading) {
		return heading.Reading{}, false, nil
	}
	magnetic, err := m.Float(phonestream.FieldMagneticHeading)
	if err != nil {
		return heading.Reading{}, false, err
	}
	r := heading.Reading{Magnetic: magnetic, Time: time.Now()}
	if m.Has(phonestream.FieldTrueHeading) {
		trueHeading, err := m.Float(phonestream.FieldTrueHeading)
		if err != nil {
			return heading.Reading{}, false, err
		}
		if trueHeading >= 0 {
			r.True = trueHeading
			r.TrueAvailable = true
		}
	}
	if m.Has(phonestream.FieldHeadingAccuracy) {
		accuracy, err := m.Float(phonestream.FieldHeadingAccuracy)
		if err != nil {
			return heading.Reading{}, false, err
		}
		if accuracy < 0 {
			return heading.Reading{}, false, nil
		}
		r.Accuracy = accuracy
	}
	return r, true, nil
}
