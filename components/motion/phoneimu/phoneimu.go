// Package phoneimu reads motion from a phone streaming its accelerometer and gyroscope.
package phoneimu

import (
	"context"
	"time"

	"github.com/golang/geo/r3"

	"go.viam.com/fittrack/components/motion"
	"go.viam.com/fittrack/components/phonestream"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
)

// Model is the phone IMU model.
var Model = resource.DefaultModelFamily.WithModel("phone-imu")

func init() {
	resource.Register(motion.API, Model, resource.Registration[motion.Driver, *phonestream.Config]{
		Constructor: func(ctx context.Context, conf resource.Config, logger logging.Logger) (motion.Driver, error) {
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

// Convert pulls a motion reading out of a phone measurement. Lines without motion data are skipped.
func Convert(m phonestream.Measurement) (motion.Reading, bool, error) {
	if !m.Has(phonestream.FieldUserAccelerationX) && !m.Has(phonestream.FieldRotationRateX) {
		return motion.Reading{}, false, nil
	}
	v, err := m.Floats(
		phonestream.FieldUserAccelerationX,
		phonestream.FieldUserAccelerationY,
		phonestream.FieldUserAccelerationZ,
		phonestream.FieldRotationRateX,
		phonestream.FieldRotationRateY,
		phonestream.FieldRotationRateZ,
	)
	if err != nil {
		return motion.Reading{}, false, err
	}
	return motion.Reading{
		Acceleration: r3.Vector{X: v[0], Y: v[1], Z: v[2]},
		RotationRate: r3.Vector{X: v[3], Y: v[4], Z: v[5]},
		Time:         time.Now(),
	}, true, nil
}
