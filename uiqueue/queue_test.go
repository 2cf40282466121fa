package uiqueue

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/fittrack/logging"
)

func TestQueueOrdering(t *testing.T) {
	q := New(logging.NewTestLogger(t))
	defer q.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		q.Dispatch(func() { got = append(got, i) })
	}
	q.Flush()

	test.That(t, len(got), test.ShouldEqual, 100)
	for i, v := range got {
		test.That(t, v, test.ShouldEqual, i)
	}
}

func TestQueueNestedDispatch(t *testing.T) {
	q := New(logging.NewTestLogger(t))
	defer q.Close()

	var order []string
	q.Sync(func() {
		order = append(order, "outer")
		q.Dispatch(func() { order = append(order, "inner") })
		order = append(order, "outer-done")
	})
	q.Flush()
	test.That(t, order, test.ShouldResemble, []string{"outer", "outer-done", "inner"})
}

func TestQueuePanicRecovered(t *testing.T) {
	q := New(logging.NewTestLogger(t))
	defer q.Close()

	ran := false
	q.Dispatch(func() { panic("boom") })
	q.Sync(func() { ran = true })
	test.That(t, ran, test.ShouldBeTrue)
}

func TestQueueClose(t *testing.T) {
	q := New(logging.NewTestLogger(t))

	count := 0
	for i := 0; i < 10; i++ {
		q.Dispatch(func() { count++ })
	}
	q.Close()
	test.That(t, count, test.ShouldEqual, 10)

	// Everything after Close is dropped and never blocks.
	q.Dispatch(func() { count++ })
	q.Flush()
	q.Close()
	test.That(t, count, test.ShouldEqual, 10)
}
