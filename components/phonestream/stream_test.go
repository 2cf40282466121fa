package phonestream

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/fittrack/logging"
)

type collectingSink struct {
	mu       sync.Mutex
	readings []float64
	errs     []error
}

func (s *collectingSink) Update(r float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, r)
}

func (s *collectingSink) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *collectingSink) snapshot() ([]float64, []error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.readings...), append([]error(nil), s.errs...)
}

// fakePhone accepts one connection and writes lines to it.
func fakePhone(t *testing.T, lines ...string) (string, <-chan net.Conn) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { l.Close() })

	conns := make(chan net.Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		for _, line := range lines {
			fmt.Fprintln(conn, line)
		}
		conns <- conn
	}()
	return l.Addr().String(), conns
}

func rotationX(m Measurement) (float64, bool, error) {
	if !m.Has(FieldRotationRateX) {
		return 0, false, nil
	}
	f, err := m.Float(FieldRotationRateX)
	return f, true, err
}

func TestConfigValidate(t *testing.T) {
	test.That(t, (&Config{}).Validate("sensors.0.attributes"), test.ShouldNotBeNil)
	test.That(t, (&Config{Host: "phone.local"}).Validate("p"), test.ShouldNotBeNil)
	test.That(t, (&Config{Host: "phone.local:8080"}).Validate("p"), test.ShouldBeNil)
}

func TestMeasurement(t *testing.T) {
	m := Measurement{"a": "1.5", "b": 2.0, "c": true, "d": "x"}
	f, err := m.Float("a")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f, test.ShouldEqual, 1.5)
	f, err = m.Float("b")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f, test.ShouldEqual, 2.0)
	_, err = m.Float("c")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = m.Float("d")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = m.Float("missing")
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing")

	fs, err := m.Floats("a", "b")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fs, test.ShouldResemble, []float64{1.5, 2.0})
	_, err = m.Floats("a", "d")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDriverStreams(t *testing.T) {
	logger := logging.NewTestLogger(t)
	probeHost, _ := fakePhone(t)
	test.That(t, Reachable(context.Background(), probeHost, time.Second), test.ShouldBeTrue)

	host, conns := fakePhone(t,
		`{"motionRotationRateX":"0.25"}`,
		`{"locationLatitude":"40.1"}`,
		`not json`,
		`{"motionRotationRateX":"oops"}`,
		`{"motionRotationRateX":-1}`,
	)
	sink := &collectingSink{}
	src, err := NewDriver(host, rotationX, logger).Start(context.Background(), sink)
	test.That(t, err, test.ShouldBeNil)

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		readings, errs := sink.snapshot()
		test.That(tb, readings, test.ShouldResemble, []float64{0.25, -1})
		test.That(tb, len(errs), test.ShouldEqual, 2)
	})

	// The phone hanging up is reported once.
	conn := <-conns
	conn.Close()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		_, errs := sink.snapshot()
		test.That(tb, len(errs), test.ShouldEqual, 3)
	})
	test.That(t, src.Close(context.Background()), test.ShouldBeNil)
}

func TestDriverCloseIsQuiet(t *testing.T) {
	host, _ := fakePhone(t)
	sink := &collectingSink{}
	src, err := NewDriver(host, rotationX, logging.NewTestLogger(t)).Start(context.Background(), sink)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, src.Close(context.Background()), test.ShouldBeNil)

	_, errs := sink.snapshot()
	test.That(t, errs, test.ShouldBeEmpty)
}

func TestDriverUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	test.That(t, err, test.ShouldBeNil)
	host := l.Addr().String()
	l.Close()

	test.That(t, Reachable(context.Background(), host, time.Second), test.ShouldBeFalse)
	_, err = NewDriver(host, rotationX, logging.NewTestLogger(t)).Start(context.Background(), &collectingSink{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to connect")
}
