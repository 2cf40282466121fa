// Package suite builds the four sensor facades from a config and owns them for their lifetime.
package suite

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"go.viam.com/fittrack/authorization"
	"go.viam.com/fittrack/components/heading"
	"go.viam.com/fittrack/components/location"
	"go.viam.com/fittrack/components/motion"
	"go.viam.com/fittrack/components/sound"
	"go.viam.com/fittrack/components/sound/pcmcapture"
	"go.viam.com/fittrack/config"
	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/metrics"
	"go.viam.com/fittrack/platform"
	"go.viam.com/fittrack/resource"
	"go.viam.com/fittrack/uiqueue"
	"go.viam.com/fittrack/utils"
)

// Options configure a Suite.
type Options struct {
	// Authorizer overrides the authorization mode from the config.
	Authorizer facade.Authorizer
	// Registerer receives the suite's metrics. Metrics are off when nil.
	Registerer prometheus.Registerer
}

// Status describes how one sensor was set up and where it is now.
type Status struct {
	Name          string
	Model         resource.Model
	Mode          facade.SourceMode
	Available     bool
	State         facade.LifecycleState
	Authorization facade.AuthorizationState
	Readings      uint64
	LastError     error
}

// A Suite holds one facade per sensor.
type Suite struct {
	Motion   *motion.Motion
	Location *location.Location
	Heading  *heading.Heading
	Sound    *sound.Sound

	Metrics *metrics.Collector
	Loggers *logging.Registry

	queue      *uiqueue.Queue
	authorizer *authorization.Remembering
	models     map[string]resource.Model
	logger     logging.Logger

	closeOnce sync.Once
	closeErr  error
}

// New builds every facade described by cfg. Sensors missing from cfg run on their generators.
func New(ctx context.Context, cfg *config.Config, opts Options, logger logging.Logger) (*Suite, error) {
	utils.LogEnvVariables("fittrack environment", logger)
	s := &Suite{
		Loggers: logging.NewRegistry(),
		models:  map[string]resource.Model{},
		logger:  logger,
	}

	next := opts.Authorizer
	if next == nil {
		next = authorizerFor(cfg.Authorization, logger.Sublogger("authorization"))
	}
	s.authorizer = authorization.NewRemembering(next)
	s.queue = uiqueue.New(s.sublogger("uiqueue"))

	caps := platform.Probe(cfg.Platform, logger)

	motionDriver, motionSel, err := build[motion.Driver](ctx, s, cfg, caps, motion.API, motion.SimulatedModel, nil)
	if err != nil {
		return nil, s.abort(err)
	}
	if s.Motion, err = motion.New(s.queue, motion.Options{
		Mode:       motionSel.Mode,
		Available:  motionSel.Available,
		Driver:     motionDriver,
		Authorizer: s.authorizer,
	}, s.sublogger(motion.SubtypeName)); err != nil {
		return nil, s.abort(err)
	}

	locationDriver, locationSel, err := build[location.Driver](ctx, s, cfg, caps, location.API, location.SimulatedModel, nil)
	if err != nil {
		return nil, s.abort(err)
	}
	if s.Location, err = location.New(s.queue, location.Options{
		Mode:         locationSel.Mode,
		Available:    locationSel.Available,
		Driver:       locationDriver,
		Authorizer:   s.authorizer,
		PathCapacity: cfg.PreferencesFor(location.SubtypeName).PathCapacity,
	}, s.sublogger(location.SubtypeName)); err != nil {
		return nil, s.abort(err)
	}

	headingDriver, headingSel, err := build[heading.Driver](ctx, s, cfg, caps, heading.API, heading.SimulatedModel, nil)
	if err != nil {
		return nil, s.abort(err)
	}
	if s.Heading, err = heading.New(s.queue, heading.Options{
		Mode:       headingSel.Mode,
		Available:  headingSel.Available,
		Driver:     headingDriver,
		Authorizer: s.authorizer,
	}, s.sublogger(heading.SubtypeName)); err != nil {
		return nil, s.abort(err)
	}

	soundDriver, soundSel, err := build[sound.Driver](ctx, s, cfg, caps, sound.API, sound.SimulatedModel,
		func(conf *resource.Config) {
			if native, ok := conf.ConvertedAttributes.(*pcmcapture.Config); ok && native.RecordingDir == "" {
				native.RecordingDir = cfg.RecordingDir
			}
		})
	if err != nil {
		return nil, s.abort(err)
	}
	if s.Sound, err = sound.New(s.queue, sound.Options{
		Mode:          soundSel.Mode,
		Available:     soundSel.Available,
		Driver:        soundDriver,
		Authorizer:    s.authorizer,
		RecordOnStart: cfg.PreferencesFor(sound.SubtypeName).ShouldRecordOnStart(),
	}, s.sublogger(sound.SubtypeName)); err != nil {
		return nil, s.abort(err)
	}

	if err := s.Loggers.UpdateConfig(cfg.LogConfig, logger); err != nil {
		return nil, s.abort(err)
	}

	if opts.Registerer != nil {
		if s.Metrics, err = metrics.NewCollector(opts.Registerer); err != nil {
			return nil, s.abort(err)
		}
		metrics.Watch(s.Metrics, s.Motion.Facade)
		metrics.Watch(s.Metrics, s.Location.Facade)
		metrics.Watch(s.Metrics, s.Heading.Facade)
		metrics.Watch(s.Metrics, s.Sound.Facade)
		s.Sound.Subscribe(func(facade.Snapshot[sound.Reading]) {
			s.Metrics.SetRecording(s.Sound.IsRecording())
		})
	}
	return s, nil
}

func authorizerFor(mode config.AuthorizationMode, logger logging.Logger) facade.Authorizer {
	switch mode {
	case config.AuthorizationGrant:
		return authorization.NewStatic(facade.Granted)
	case config.AuthorizationDeny:
		return authorization.NewStatic(facade.Denied)
	default:
		return authorization.NewPrompt(nil, logger)
	}
}

func (s *Suite) sublogger(name string) logging.Logger {
	return s.Loggers.Register(s.logger.Sublogger(name))
}

// build resolves the configured model for api, swaps in fallback where the platform or the user
// wants simulated data, and constructs the driver. adjust, if set, may amend the converted config
// before construction.
func build[D any](
	ctx context.Context,
	s *Suite,
	cfg *config.Config,
	caps platform.Capabilities,
	api resource.API,
	fallback resource.Model,
	adjust func(conf *resource.Config),
) (D, platform.Selection, error) {
	var zero D
	name := string(api.Subtype)
	conf, ok := cfg.FindSensor(api)
	if !ok {
		conf = resource.Config{Name: name, API: api, Model: fallback}
	}
	if conf.ConvertedAttributes == nil {
		if err := resource.Convert(&conf); err != nil {
			return zero, platform.Selection{}, err
		}
	}
	reg, ok := resource.LookupRegistration[D](conf.API, conf.Model)
	if !ok {
		return zero, platform.Selection{}, errors.Errorf("no driver registered for api %q model %q", conf.API, conf.Model)
	}

	prefs := cfg.PreferencesFor(name)
	sel := caps.Select(ctx, conf, reg.Simulated, reg.Probe, prefs.UseSimulatedData, fallback)
	if sel.Model != conf.Model {
		s.logger.Infow("using simulated data", "sensor", name, "configured", conf.Model, "model", sel.Model)
		conf = resource.Config{Name: conf.Name, API: conf.API, Model: sel.Model}
		if err := resource.Convert(&conf); err != nil {
			return zero, platform.Selection{}, err
		}
		if reg, ok = resource.LookupRegistration[D](conf.API, conf.Model); !ok {
			return zero, platform.Selection{}, errors.Errorf("no driver registered for api %q model %q", conf.API, conf.Model)
		}
	}
	if !sel.Available {
		s.logger.Warnw("sensor hardware not found", "sensor", name, "model", conf.Model)
	}
	if adjust != nil {
		adjust(&conf)
	}

	driver, err := reg.Constructor(ctx, conf, s.logger.Sublogger(name).Sublogger("driver"))
	if err != nil {
		return zero, platform.Selection{}, errors.Wrapf(err, "cannot build %s driver", name)
	}
	s.models[name] = conf.Model
	return driver, sel, nil
}

// abort releases whatever New had built before failing.
func (s *Suite) abort(err error) error {
	if closeErr := s.Close(context.Background()); closeErr != nil {
		s.logger.Warnw("error releasing partially built suite", "error", closeErr)
	}
	return err
}

// Start starts every sensor. It returns immediately.
func (s *Suite) Start() {
	s.Motion.Start()
	s.Location.Start()
	s.Heading.Start()
	s.Sound.Start()
}

// Stop stops every sensor. It returns immediately.
func (s *Suite) Stop() {
	s.Motion.Stop()
	s.Location.Stop()
	s.Heading.Stop()
	s.Sound.Stop()
}

// WaitSettled waits until no sensor is Starting any more, or ctx is done. A permission prompt that
// is never answered keeps its sensor Starting.
func (s *Suite) WaitSettled(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return settle(ctx, s.Motion.Facade) })
	g.Go(func() error { return settle(ctx, s.Location.Facade) })
	g.Go(func() error { return settle(ctx, s.Heading.Facade) })
	g.Go(func() error { return settle(ctx, s.Sound.Facade) })
	return g.Wait()
}

func settle[R any](ctx context.Context, f *facade.Facade[R]) error {
	done := make(chan struct{})
	var once sync.Once
	id := f.Subscribe(func(snap facade.Snapshot[R]) {
		if snap.State != facade.Starting {
			once.Do(func() { close(done) })
		}
	})
	defer f.Unsubscribe(id)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "%s still starting", f.Name())
	}
}

// Statuses reports every sensor, in a fixed order.
func (s *Suite) Statuses() []Status {
	return []Status{
		status(s.Motion.Facade, s.models[motion.SubtypeName]),
		status(s.Location.Facade, s.models[location.SubtypeName]),
		status(s.Heading.Facade, s.models[heading.SubtypeName]),
		status(s.Sound.Facade, s.models[sound.SubtypeName]),
	}
}

func status[R any](f *facade.Facade[R], model resource.Model) Status {
	snap := f.Snapshot()
	return Status{
		Name:          snap.Name,
		Model:         model,
		Mode:          snap.Mode,
		Available:     snap.Available,
		State:         snap.State,
		Authorization: snap.Authorization,
		Readings:      snap.Readings,
		LastError:     snap.LastError,
	}
}

// Close stops every sensor, waits for their sources to be released and stops the UI queue.
func (s *Suite) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		g, ctx := errgroup.WithContext(ctx)
		if s.Motion != nil {
			g.Go(func() error { return s.Motion.Close(ctx) })
		}
		if s.Location != nil {
			g.Go(func() error { return s.Location.Close(ctx) })
		}
		if s.Heading != nil {
			g.Go(func() error { return s.Heading.Close(ctx) })
		}
		if s.Sound != nil {
			g.Go(func() error { return s.Sound.Close(ctx) })
		}
		s.closeErr = g.Wait()
		if s.queue != nil {
			s.queue.Close()
		}
	})
	return s.closeErr
}
