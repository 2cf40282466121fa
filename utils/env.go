package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"go.viam.com/fittrack/logging"
)

const (
	// EnvVarPrefix is the prefix for all fittrack environment variables.
	EnvVarPrefix = "FITTRACK_"

	// SimulatorEnvVar forces every sensor onto its synthetic generator, the way a build for a device
	// simulator would.
	SimulatorEnvVar = "FITTRACK_SIMULATOR"

	// RecordingDirEnvVar overrides where sound recordings are written.
	RecordingDirEnvVar = "FITTRACK_RECORDING_DIR"

	// DriverStartTimeoutEnvVar can be set to override DefaultDriverStartTimeout.
	DriverStartTimeoutEnvVar = "FITTRACK_DRIVER_START_TIMEOUT"

	// DefaultDriverStartTimeout bounds how long a live driver may take to open its hardware.
	DefaultDriverStartTimeout = 10 * time.Second

	// AndroidFilesDir is hardcoded because golang inits before our android code can override HOME var.
	AndroidFilesDir = "/data/user/0/com.fittrack/cache"
)

// EnvTrueValues contains strings that we interpret as boolean true in env vars.
var EnvTrueValues = []string{"true", "yes", "1", "TRUE", "YES"}

// EnvTrue reports whether the named env var holds one of EnvTrueValues.
func EnvTrue(name string) bool {
	return slices.Contains(EnvTrueValues, os.Getenv(name))
}

// GetDriverStartTimeout returns the env override if set, DefaultDriverStartTimeout otherwise.
func GetDriverStartTimeout(logger logging.Logger) time.Duration {
	return timeoutHelper(DefaultDriverStartTimeout, DriverStartTimeoutEnvVar, logger)
}

func timeoutHelper(defaultTimeout time.Duration, timeoutEnvVar string, logger logging.Logger) time.Duration {
	if timeoutVal := os.Getenv(timeoutEnvVar); timeoutVal != "" {
		timeout, err := time.ParseDuration(timeoutVal)
		if err != nil {
			logger.Warnf("Failed to parse %s env var, falling back to default %v timeout",
				timeoutEnvVar, defaultTimeout)
			return defaultTimeout
		}
		return timeout
	}
	return defaultTimeout
}

// PlatformHomeDir wraps Getenv("HOME"), except on android, where it returns the app cache directory.
func PlatformHomeDir() string {
	if runtime.GOOS == "android" {
		return AndroidFilesDir
	}
	if runtime.GOOS == "windows" {
		homedir, _ := os.UserHomeDir() //nolint:errcheck
		if homedir != "" {
			return homedir
		}
	}
	return os.Getenv("HOME")
}

// DefaultRecordingDir is the app private directory recordings go to when nothing else is set.
func DefaultRecordingDir() string {
	if dir := os.Getenv(RecordingDirEnvVar); dir != "" {
		return dir
	}
	return filepath.Join(PlatformHomeDir(), ".fittrack", "recordings")
}

// LogEnvVariables logs the fittrack environment variables in [os.Environ].
func LogEnvVariables(msg string, logger logging.Logger) {
	var env []string
	for _, v := range os.Environ() {
		if strings.HasPrefix(v, EnvVarPrefix) {
			env = append(env, v)
		}
	}
	if len(env) != 0 {
		logger.Infow(msg, "environment", env)
	}
}
