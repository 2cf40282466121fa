// Package register registers all sensor drivers
package register

import (
	// register heading drivers.
	_ "go.viam.com/fittrack/components/heading/fake"
	_ "go.viam.com/fittrack/components/heading/gpsnmea"
	_ "go.viam.com/fittrack/components/heading/phonecompass"
	// register location drivers.
	_ "go.viam.com/fittrack/components/location/fake"
	_ "go.viam.com/fittrack/components/location/gpsnmea"
	_ "go.viam.com/fittrack/components/location/phonegps"
	// register motion drivers.
	_ "go.viam.com/fittrack/components/motion/fake"
	_ "go.viam.com/fittrack/components/motion/phoneimu"
	// register sound drivers.
	_ "go.viam.com/fittrack/components/sound/fake"
	_ "go.viam.com/fittrack/components/sound/pcmcapture"
)
