// Package metrics exports facade activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.viam.com/fittrack/facade"
)

// Collector bundles the sensor metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Readings     *prometheus.CounterVec
	DriverErrors *prometheus.CounterVec
	Lifecycle    *prometheus.GaugeVec
	Recording    prometheus.Gauge

	mu   sync.Mutex
	seen map[string]counts
}

type counts struct {
	readings uint64
	errors   uint64
}

// NewCollector registers the metrics against reg, defaulting to the global registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer, seen: map[string]counts{}}
	var err error
	if c.Readings, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fittrack_readings_total",
		Help: "Readings accepted by each sensor facade.",
	}, []string{"sensor"})); err != nil {
		return nil, err
	}
	if c.DriverErrors, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fittrack_driver_errors_total",
		Help: "Errors absorbed by each sensor facade.",
	}, []string{"sensor"})); err != nil {
		return nil, err
	}
	if c.Lifecycle, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fittrack_lifecycle_state",
		Help: "Lifecycle state of each sensor facade (0 idle, 1 starting, 2 active, 3 stopped).",
	}, []string{"sensor"})); err != nil {
		return nil, err
	}
	if c.Recording, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fittrack_sound_recording",
		Help: "1 while a sound recording is being written.",
	})); err != nil {
		return nil, err
	}
	return c, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

// Watch feeds every snapshot of f into c. The returned id unsubscribes.
func Watch[R any](c *Collector, f *facade.Facade[R]) uuid.UUID {
	return f.Subscribe(func(s facade.Snapshot[R]) {
		c.Observe(s.Name, s.State, s.Readings, s.Errors)
	})
}

// Observe records the state of one sensor. Counts are running totals; only the growth since the
// previous call is added to the counters.
func (c *Collector) Observe(sensor string, state facade.LifecycleState, readings, errs uint64) {
	c.mu.Lock()
	prev := c.seen[sensor]
	c.seen[sensor] = counts{readings: readings, errors: errs}
	c.mu.Unlock()

	if readings > prev.readings {
		c.Readings.WithLabelValues(sensor).Add(float64(readings - prev.readings))
	}
	if errs > prev.errors {
		c.DriverErrors.WithLabelValues(sensor).Add(float64(errs - prev.errors))
	}
	c.Lifecycle.WithLabelValues(sensor).Set(float64(state))
}

// SetRecording sets the recording gauge.
func (c *Collector) SetRecording(recording bool) {
	if recording {
		c.Recording.Set(1)
		return
	}
	c.Recording.Set(0)
}

// Handler serves the metrics gathered from the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
