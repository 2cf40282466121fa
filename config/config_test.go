package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/fittrack/components/motion"
	_ "go.viam.com/fittrack/components/register"
	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/resource"
)

func TestFromReaderValidate(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := FromReader("somepath", strings.NewReader(""), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "EOF")

	_, err = FromReader("somepath", strings.NewReader(`{"sensors": 1}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unmarshal")

	conf, err := FromReader("somepath", strings.NewReader(`{}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf, test.ShouldResemble, &Config{
		ConfigFilePath: "somepath",
		Authorization:  AuthorizationPrompt,
	})

	_, err = FromReader("somepath", strings.NewReader(`{"sensors": [{}]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `sensors.0`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"name" is required`)

	_, err = FromReader("somepath", strings.NewReader(`{"authorization": "maybe"}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "maybe")

	_, err = FromReader("somepath", strings.NewReader(`{"log": [{"pattern": "fittrack.*", "level": "loud"}]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "log.0")

	_, err = FromReader("somepath", strings.NewReader(`{"preferences": {"location": {"path_capacity": -1}}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "preferences.location")
}

func TestSensorsConverted(t *testing.T) {
	logger := logging.NewTestLogger(t)
	conf, err := FromReader("somepath", strings.NewReader(`{
		"sensors": [
			{"name": "motion", "model": "fake", "attributes": {"interval": "20ms"}},
			{"name": "location", "model": "gps-nmea", "attributes": {"serial_path": "/dev/ttyUSB0"}}
		],
		"preferences": {"motion": {"use_simulated_data": true}, "sound": {"record_on_start": false}}
	}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(conf.Sensors), test.ShouldEqual, 2)

	motionConf, ok := conf.FindSensor(motion.API)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, motionConf.Model, test.ShouldResemble, motion.SimulatedModel)
	test.That(t, motionConf.ConvertedAttributes, test.ShouldNotBeNil)

	_, ok = conf.FindSensor(resource.NewSensorAPI("sound"))
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, conf.PreferencesFor("motion").UseSimulatedData, test.ShouldBeTrue)
	test.That(t, conf.PreferencesFor("sound").ShouldRecordOnStart(), test.ShouldBeFalse)
	test.That(t, conf.PreferencesFor("heading").ShouldRecordOnStart(), test.ShouldBeTrue)

	// Unknown attributes are rejected.
	_, err = FromReader("somepath", strings.NewReader(`{
		"sensors": [{"name": "motion", "model": "fake", "attributes": {"intervl": "20ms"}}]
	}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "intervl")

	// Driver validation runs on the converted attributes.
	_, err = FromReader("somepath", strings.NewReader(`{
		"sensors": [{"name": "location", "model": "gps-nmea"}]
	}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"serial_path" is required`)

	_, err = FromReader("somepath", strings.NewReader(`{
		"sensors": [{"name": "motion", "model": "fake"}, {"name": "motion", "model": "phone-imu"}]
	}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "already used")

	_, err = FromReader("somepath", strings.NewReader(`{
		"sensors": [{"name": "motion", "model": "warp-drive"}]
	}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no driver registered")
}

func TestReadExpandsEnv(t *testing.T) {
	t.Setenv("FITTRACK_TEST_PHONE", "10.0.0.7:9000")
	path := filepath.Join(t.TempDir(), "fittrack.json")
	test.That(t, os.WriteFile(path, []byte(`{
		"sensors": [{"name": "motion", "model": "phone-imu", "attributes": {"host": "${FITTRACK_TEST_PHONE}"}}],
		"authorization": "grant"
	}`), 0o600), test.ShouldBeNil)

	conf, err := Read(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, conf.Authorization, test.ShouldEqual, AuthorizationGrant)
	host, err := conf.Sensors[0].Attributes.String("host")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, host, test.ShouldEqual, "10.0.0.7:9000")

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
