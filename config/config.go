// Package config defines the structures to configure the sensor suite and the means to read them.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/platform"
	"go.viam.com/fittrack/resource"
)

// AuthorizationMode selects how permission requests are answered.
type AuthorizationMode string

// The supported authorization modes.
const (
	// AuthorizationPrompt asks on the terminal the first time each permission is needed.
	AuthorizationPrompt AuthorizationMode = "prompt"
	// AuthorizationGrant answers every request with granted.
	AuthorizationGrant AuthorizationMode = "grant"
	// AuthorizationDeny answers every request with denied.
	AuthorizationDeny AuthorizationMode = "deny"
)

// Validate ensures the mode is known. The empty mode means prompt.
func (m AuthorizationMode) Validate(path string) error {
	switch m {
	case "", AuthorizationPrompt, AuthorizationGrant, AuthorizationDeny:
		return nil
	default:
		return goutils.NewConfigValidationError(path, errors.Errorf("unknown authorization mode %q", m))
	}
}

// Preferences are per sensor settings that do not belong to any one driver.
type Preferences struct {
	// UseSimulatedData runs the sensor on its generator even when hardware is present. It is read
	// once, when the suite is built.
	UseSimulatedData bool `json:"use_simulated_data,omitempty"`
	// PathCapacity bounds the location trail.
	PathCapacity int `json:"path_capacity,omitempty"`
	// RecordOnStart starts a sound recording as soon as metering does. It defaults to true.
	RecordOnStart *bool `json:"record_on_start,omitempty"`
}

// Validate ensures all parts of the preferences are valid.
func (p *Preferences) Validate(path string) error {
	if p.PathCapacity < 0 {
		return goutils.NewConfigValidationError(path, errors.New("path_capacity must not be negative"))
	}
	return nil
}

// ShouldRecordOnStart resolves RecordOnStart against its default.
func (p Preferences) ShouldRecordOnStart() bool {
	return p.RecordOnStart == nil || *p.RecordOnStart
}

// Config describes the sensor suite.
type Config struct {
	ConfigFilePath string `json:"-"`

	Sensors       []resource.Config             `json:"sensors,omitempty"`
	Preferences   map[string]Preferences        `json:"preferences,omitempty"`
	Authorization AuthorizationMode             `json:"authorization,omitempty"`
	RecordingDir  string                        `json:"recording_dir,omitempty"`
	Platform      platform.Options              `json:"platform,omitempty"`
	LogConfig     []logging.LoggerPatternConfig `json:"log,omitempty"`
}

// Ensure defaults the config, converts every sensor's attributes to its driver's native type and
// validates the result.
func (c *Config) Ensure(logger logging.Logger) error {
	if err := c.Authorization.Validate("authorization"); err != nil {
		return err
	}
	if c.Authorization == "" {
		c.Authorization = AuthorizationPrompt
	}

	seen := make(map[resource.API]string, len(c.Sensors))
	for idx := range c.Sensors {
		path := fmt.Sprintf("sensors.%d", idx)
		conf := &c.Sensors[idx]
		// Validate first to default the API, then again once the attributes are converted.
		if err := conf.Validate(path); err != nil {
			return err
		}
		if other, ok := seen[conf.API]; ok {
			return goutils.NewConfigValidationError(path,
				errors.Errorf("sensor %q uses api %q already used by %q", conf.Name, conf.API, other))
		}
		seen[conf.API] = conf.Name
		if err := resource.Convert(conf); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
		if err := conf.Validate(path); err != nil {
			return err
		}
	}

	for name, prefs := range c.Preferences {
		if err := prefs.Validate(fmt.Sprintf("preferences.%s", name)); err != nil {
			return err
		}
	}

	for idx, lpc := range c.LogConfig {
		if _, err := logging.LevelFromString(lpc.Level); err != nil {
			return goutils.NewConfigValidationError(fmt.Sprintf("log.%d", idx), err)
		}
	}

	logger.Debugw("config ensured", "sensors", len(c.Sensors), "authorization", c.Authorization)
	return nil
}

// FindSensor returns the config for the sensor implementing api, if any.
func (c *Config) FindSensor(api resource.API) (resource.Config, bool) {
	for _, conf := range c.Sensors {
		if conf.API == api {
			return conf, true
		}
	}
	return resource.Config{}, false
}

// PreferencesFor returns the preferences for the named sensor, zero if unset.
func (c *Config) PreferencesFor(name string) Preferences {
	return c.Preferences[name]
}
