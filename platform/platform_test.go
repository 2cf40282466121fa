package platform

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/utils"
)

func TestProbe(t *testing.T) {
	logger := logging.NewTestLogger(t)
	t.Setenv(utils.SimulatorEnvVar, "")
	test.That(t, Probe(Options{}, logger).Simulator, test.ShouldBeFalse)
	test.That(t, Probe(Options{ForceSimulated: true}, logger).Simulator, test.ShouldBeTrue)
	t.Setenv(utils.SimulatorEnvVar, "1")
	test.That(t, Probe(Options{}, logger).Simulator, test.ShouldBeTrue)
}

func TestSelect(t *testing.T) {
	fake := resource.DefaultModelFamily.WithModel("fake")
	live := resource.DefaultModelFamily.WithModel("gps-nmea")
	conf := resource.Config{Name: "location", Model: live}
	absent := func(context.Context, resource.Config) bool { return false }

	device := Capabilities{}
	sel := device.Select(context.Background(), conf, false, absent, false, fake)
	test.That(t, sel, test.ShouldResemble, Selection{Mode: facade.Live, Available: false, Model: live})

	sel = device.Select(context.Background(), conf, false, nil, false, fake)
	test.That(t, sel.Available, test.ShouldBeTrue)

	sel = device.Select(context.Background(), conf, false, absent, true, fake)
	test.That(t, sel, test.ShouldResemble, Selection{Mode: facade.Simulated, Available: true, Model: fake})

	simulator := Capabilities{Simulator: true}
	sel = simulator.Select(context.Background(), conf, false, absent, false, fake)
	test.That(t, sel.Mode, test.ShouldEqual, facade.Simulated)
	test.That(t, sel.Model, test.ShouldResemble, fake)

	conf.Model = fake
	sel = device.Select(context.Background(), conf, true, nil, false, fake)
	test.That(t, sel, test.ShouldResemble, Selection{Mode: facade.Simulated, Available: true, Model: fake})
}
