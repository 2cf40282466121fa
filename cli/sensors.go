package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/fittrack/components/heading"
	"go.viam.com/fittrack/components/location"
	"go.viam.com/fittrack/components/motion"
	"go.viam.com/fittrack/components/sound"
	"go.viam.com/fittrack/config"
	"go.viam.com/fittrack/facade"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/suite"
)

const closeTimeout = 10 * time.Second

// ProbeAction prints how each sensor would run without starting any of them.
func ProbeAction(c *cli.Context) error {
	return withSuite(c, func(ctx context.Context, s *suite.Suite) error {
		printStatuses(c, s.Statuses())
		return nil
	})
}

// WatchAction starts every sensor and prints a table of readings until interrupted.
func WatchAction(c *cli.Context) error {
	return withSuite(c, func(ctx context.Context, s *suite.Suite) error {
		if d := c.Duration(watchFlagDuration); d > 0 {
			var cancel func()
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}

		s.Start()
		settleCtx, cancel := context.WithTimeout(ctx, c.Duration(watchFlagSettle))
		err := s.WaitSettled(settleCtx)
		cancel()
		if err != nil && ctx.Err() == nil {
			return err
		}
		printStatuses(c, s.Statuses())

		ticker := time.NewTicker(c.Duration(watchFlagInterval))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.Stop()
				return nil
			case <-ticker.C:
				printReadings(c, s)
			}
		}
	})
}

// RecordAction meters the microphone for the requested duration while writing a recording.
func RecordAction(c *cli.Context) error {
	var path string
	err := withSuite(c, func(ctx context.Context, s *suite.Suite) error {
		s.Sound.Start()
		if err := s.WaitSettled(ctx); err != nil {
			return err
		}
		if state := s.Sound.State(); state != facade.Active {
			if err := s.Sound.LastError(); err != nil {
				return errors.Wrap(err, "sound did not start")
			}
			return errors.Errorf("sound did not start, it is %s", state)
		}
		if !s.Sound.IsRecording() {
			s.Sound.StartRecording()
		}

		if !goutils.SelectContextOrWait(ctx, c.Duration(recordFlagDuration)) {
			printf(c, "interrupted")
		}
		path = s.Sound.RecordingPath()
		if err := s.Sound.LastError(); err != nil {
			return err
		}
		s.Sound.StopRecording()
		return nil
	})
	if err != nil {
		return err
	}
	if path == "" {
		printf(c, "sound is simulated; nothing was written")
		return nil
	}
	printf(c, "wrote %s", path)
	return nil
}

func withSuite(c *cli.Context, fn func(ctx context.Context, s *suite.Suite) error) (err error) {
	logger := logging.NewLogger("fittrack")
	if c.Bool(generalFlagDebug) {
		logger = logging.NewDebugLogger("fittrack")
	}
	cfg, err := loadConfig(c.String(generalFlagConfig), logger)
	if err != nil {
		return err
	}

	var opts suite.Options
	addr := c.String(generalFlagMetricsAddr)
	if addr != "" {
		opts.Registerer = prometheus.NewRegistry()
	}
	s, err := suite.New(c.Context, cfg, opts, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		err = multierr.Combine(err, s.Close(ctx))
	}()

	if addr != "" {
		srv := &http.Server{Addr: addr, Handler: s.Metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		goutils.PanicCapturingGo(func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorw("metrics server failed", "error", err)
			}
		})
		logger.Infow("serving metrics", "addr", addr)
		defer func() {
			err = multierr.Combine(err, srv.Close())
		}()
	}
	return fn(c.Context, s)
}

func loadConfig(path string, logger logging.Logger) (*config.Config, error) {
	if path != "" {
		return config.Read(path, logger)
	}
	cfg := &config.Config{}
	if err := cfg.Ensure(logger); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printStatuses(c *cli.Context, statuses []suite.Status) {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Sensor", "Model", "Mode", "Available", "State", "Authorization", "Error"})
	for _, st := range statuses {
		t.AppendRow(table.Row{
			st.Name, st.Model, st.Mode, st.Available, st.State, st.Authorization, errString(st.LastError),
		})
	}
	printf(c, "%s", t.Render())
}

func printReadings(c *cli.Context, s *suite.Suite) {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Sensor", "State", "Readings", "Latest"})
	t.AppendRow(readingRow(s.Motion.Snapshot(), formatMotion))
	t.AppendRow(readingRow(s.Location.Snapshot(), formatLocation))
	t.AppendRow(readingRow(s.Heading.Snapshot(), formatHeading))
	t.AppendRow(readingRow(s.Sound.Snapshot(), func(r sound.Reading) string {
		out := formatSound(r)
		if s.Sound.IsRecording() {
			out += " (recording)"
		}
		return out
	}))
	t.AppendFooter(table.Row{"", "", "path", fmt.Sprintf("%.3f km", s.Location.PathDistance())})
	printf(c, "%s", t.Render())
}

func readingRow[R any](snap facade.Snapshot[R], format func(R) string) table.Row {
	latest := "-"
	if snap.HasReading {
		latest = format(snap.Reading)
	}
	if snap.LastError != nil {
		latest = snap.LastError.Error()
	}
	return table.Row{snap.Name, snap.State, snap.Readings, latest}
}

func formatMotion(r motion.Reading) string {
	a, g := r.Acceleration, r.RotationRate
	return fmt.Sprintf("accel X:%.2f Y:%.2f Z:%.2f  rot X:%.2f Y:%.2f Z:%.2f", a.X, a.Y, a.Z, g.X, g.Y, g.Z)
}

func formatLocation(r location.Reading) string {
	return fmt.Sprintf("%.6f, %.6f ±%.0fm", r.Latitude, r.Longitude, r.Accuracy)
}

func formatHeading(r heading.Reading) string {
	return fmt.Sprintf("%.1f°", r.Degrees)
}

func formatSound(r sound.Reading) string {
	return fmt.Sprintf("level %.2f (%.1f dB)", r.Level, r.PowerDB)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func printf(c *cli.Context, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(c.App.Writer, format+"\n", a...)
}
