// Package platform decides, once at startup, which sensors run on hardware and which run on
// synthetic generators.
package platform

import (
	"context"
	"runtime"

	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/utils"
)

// Options override what Probe would otherwise detect.
type Options struct {
	ForceSimulated bool `json:"force_simulated,omitempty"`
}

// Capabilities describe the platform the process is running on.
type Capabilities struct {
	OS        string
	Arch      string
	Simulator bool
}

// Probe inspects the environment.
func Probe(opts Options, logger logging.Logger) Capabilities {
	caps := Capabilities{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Simulator: opts.ForceSimulated || utils.EnvTrue(utils.SimulatorEnvVar),
	}
	logger.Debugw("platform probed", "os", caps.OS, "arch", caps.Arch, "simulator", caps.Simulator)
	return caps
}

// A Selection is the source decision for one sensor.
type Selection struct {
	Mode      facade.SourceMode
	Available bool
	// Model is the model that should actually be built. It differs from the configured one when a
	// live model is swapped for its simulated fallback.
	Model resource.Model
}

// Select decides how conf runs. preferSimulated carries the user's own preference where a sensor
// has one. fallback is the simulated model to swap in on simulator platforms.
func (c Capabilities) Select(
	ctx context.Context,
	conf resource.Config,
	simulated bool,
	probe resource.Probe,
	preferSimulated bool,
	fallback resource.Model,
) Selection {
	if simulated {
		return Selection{Mode: facade.Simulated, Available: true, Model: conf.Model}
	}
	if c.Simulator || preferSimulated {
		return Selection{Mode: facade.Simulated, Available: true, Model: fallback}
	}
	available := true
	if probe != nil {
		available = probe(ctx, conf)
	}
	return Selection{Mode: facade.Live, Available: available, Model: conf.Model}
}
