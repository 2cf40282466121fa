package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.viam.com/test"
)

type User struct {
	Name string
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualTrimmed := strings.TrimSuffix(output, "\n")
	actualParts := strings.Split(actualTrimmed, "\t")
	expectedParts := strings.Split(expected, "\t")
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	// Log level.
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])
	// Logger name.
	test.That(t, actualParts[2], test.ShouldEqual, expectedParts[2])

	actualFilename, _, found := strings.Cut(actualParts[3], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, found := strings.Cut(expectedParts[3], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)

	// Message and fields.
	test.That(t, actualParts[4:], test.ShouldResemble, expectedParts[4:])
}

func newBufferLogger(name string, level Level) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return newImpl(name, level, true, NewWriterAppender(buf)), buf
}

func TestConsoleOutputFormat(t *testing.T) {
	logger, buf := newBufferLogger("fittrack", DEBUG)

	logger.Info("sensor", " ", "started")
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	INFO	fittrack	logging/impl_test.go:52	sensor started`)

	logger.Infof("heading %.1f", 12.5)
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	INFO	fittrack	logging/impl_test.go:56	heading 12.5`)

	logger.Infow("reading", "sensor", "motion", "count", 3)
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	INFO	fittrack	logging/impl_test.go:60	reading	{"sensor":"motion","count":3}`)

	logger.Warnw("struct", "user", User{Name: "alex"})
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	WARN	fittrack	logging/impl_test.go:64	struct	{"user":{"Name":"alex"}}`)

	logger.Errorw("unpaired", "dangling")
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	ERROR	fittrack	logging/impl_test.go:68	unpaired	{"dangling":"unpaired log key"}`)
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger("fittrack", WARN)

	logger.Debug("dropped")
	logger.Info("dropped")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.Warn("kept")
	test.That(t, buf.Len(), test.ShouldBeGreaterThan, 0)

	logger.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, ERROR)
}

func TestSublogger(t *testing.T) {
	logger, buf := newBufferLogger("fittrack", INFO)
	sub := logger.Sublogger("motion")
	test.That(t, sub.Name(), test.ShouldEqual, "fittrack.motion")

	sub.Info("hello")
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	INFO	fittrack.motion	logging/impl_test.go:95	hello`)

	// Changing the sublogger level leaves the parent untouched.
	sub.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, INFO)
}

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Warnw("driver error", "sensor", "sound")

	test.That(t, logs.FilterMessage("driver error").Len(), test.ShouldEqual, 1)
	entry := logs.All()[0]
	test.That(t, entry.ContextMap()["sensor"], test.ShouldEqual, "sound")
}

func TestLevelFromString(t *testing.T) {
	for inp, expected := range map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"Warn":    WARN,
		"warning": WARN,
		"error":   ERROR,
	} {
		level, err := LevelFromString(inp)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, expected)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLevelJSON(t *testing.T) {
	data, err := WARN.MarshalJSON()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, `"warn"`)

	var level Level
	test.That(t, level.UnmarshalJSON([]byte(`"error"`)), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ERROR)
}
