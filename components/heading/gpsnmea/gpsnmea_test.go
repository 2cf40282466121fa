package gpsnmea

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/adrianmo/go-nmea"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/fittrack/components/heading"
	"go.viam.com/fittrack/components/nmeaserial"
	"go.viam.com/fittrack/logging"
)

func TestConvert(t *testing.T) {
	s, err := nmea.Parse("$GPHDT,274.07,T*03")
	test.That(t, err, test.ShouldBeNil)
	r, ok := Convert(s)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, r.True, test.ShouldEqual, 274.07)
	test.That(t, r.TrueAvailable, test.ShouldBeTrue)

	s, err = nmea.Parse("$HCHDG,98.3,0.0,E,12.6,W*57")
	test.That(t, err, test.ShouldBeNil)
	r, ok = Convert(s)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, r.Magnetic, test.ShouldEqual, 98.3)
	test.That(t, r.TrueAvailable, test.ShouldBeFalse)

	s, err = nmea.Parse("$GPRMC,220516,A,5133.82,N,00042.24,W,173.8,231.8,130694,004.2,W*70")
	test.That(t, err, test.ShouldBeNil)
	_, ok = Convert(s)
	test.That(t, ok, test.ShouldBeFalse)
}

type sink struct {
	mu       sync.Mutex
	readings []heading.Reading
}

func (s *sink) Update(r heading.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, r)
}

func (s *sink) Fail(error) {}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.readings)
}

func TestDriverOverPipe(t *testing.T) {
	pr, pw := io.Pipe()
	open := func(*nmeaserial.Config, logging.Logger) (nmeaserial.DataReader, error) {
		return nmeaserial.NewDataReader(pr), nil
	}
	d := NewDriver(&nmeaserial.Config{SerialPath: "pipe"}, open, logging.NewTestLogger(t))
	s := &sink{}
	src, err := d.Start(context.Background(), s)
	test.That(t, err, test.ShouldBeNil)

	_, err = io.WriteString(pw, "$GPHDT,274.07,T*03\r\n$HCHDG,98.3,0.0,E,12.6,W*57\r\n")
	test.That(t, err, test.ShouldBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, s.count(), test.ShouldEqual, 2)
	})
	test.That(t, src.Close(context.Background()), test.ShouldBeNil)
}
