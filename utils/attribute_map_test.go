package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestAttributeMap(t *testing.T) {
	t.Setenv("FITTRACK_TEST_PORT", "/dev/ttyUSB0")
	am := AttributeMap{
		"path":   "${FITTRACK_TEST_PORT}",
		"flag":   true,
		"number": 3.0,
	}
	am.ExpandEnv()

	s, err := am.String("path")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s, test.ShouldEqual, "/dev/ttyUSB0")

	s, err = am.String("missing")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s, test.ShouldEqual, "")

	_, err = am.String("number")
	test.That(t, err, test.ShouldNotBeNil)

	b, err := am.Bool("flag", false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b, test.ShouldBeTrue)

	b, err = am.Bool("missing", true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b, test.ShouldBeTrue)

	_, err = am.Bool("path", false)
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, am.Has("flag"), test.ShouldBeTrue)
	test.That(t, am.Has("nope"), test.ShouldBeFalse)
}
