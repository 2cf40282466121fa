// Package cli is the fittrack command line.
package cli

import (
	"io"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	generalFlagConfig      = "config"
	generalFlagDebug       = "debug"
	generalFlagMetricsAddr = "metrics-addr"

	watchFlagInterval = "interval"
	watchFlagDuration = "duration"
	watchFlagSettle   = "settle-timeout"

	recordFlagDuration = "duration"
)

var app = &cli.App{
	Name:            "fittrack",
	Usage:           "read motion, location, heading and sound sensors",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    generalFlagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  generalFlagMetricsAddr,
			Usage: "serve prometheus metrics on `ADDR`",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "probe",
			Usage:  "show which sensors are backed by hardware and which are simulated",
			Action: ProbeAction,
		},
		{
			Name:  "watch",
			Usage: "start every sensor and print its latest reading",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:  watchFlagInterval,
					Value: time.Second,
					Usage: "time between tables",
				},
				&cli.DurationFlag{
					Name:  watchFlagDuration,
					Usage: "stop after `DURATION`; runs until interrupted when unset",
				},
				&cli.DurationFlag{
					Name:  watchFlagSettle,
					Value: time.Minute,
					Usage: "how long to wait for permission answers",
				},
			},
			Action: WatchAction,
		},
		{
			Name:  "record",
			Usage: "meter the microphone and write a recording",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:     recordFlagDuration,
					Required: true,
					Usage:    "length of the recording",
				},
			},
			Action: RecordAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
