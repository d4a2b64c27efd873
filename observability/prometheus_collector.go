package observability

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/kitties-ledger-go/eventstore"
)

// DurationBuckets are histogram buckets in seconds for in-process calls and database round trips.
var DurationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// PrometheusCollector implements eventstore.MetricsCollector with Prometheus vectors.
//
// A vector is created and registered on first use of a metric name. Its label names are the
// sorted keys of the labels of that first record; later records with other label keys are dropped.
//
//   - RecordDuration -> HistogramVec in seconds
//   - IncrementCounter -> CounterVec
//   - RecordValue -> GaugeVec
type PrometheusCollector struct {
	mu         sync.Mutex
	registerer prometheus.Registerer
	namespace  string
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

// PrometheusOption defines a functional option for configuring a PrometheusCollector.
type PrometheusOption func(*PrometheusCollector)

// WithNamespace prefixes every metric name with namespace.
func WithNamespace(namespace string) PrometheusOption {
	return func(c *PrometheusCollector) {
		c.namespace = namespace
	}
}

// NewPrometheusCollector creates a collector that registers its vectors with registerer.
func NewPrometheusCollector(registerer prometheus.Registerer, opts ...PrometheusOption) *PrometheusCollector {
	c := &PrometheusCollector{
		registerer: registerer,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RecordDuration observes duration in seconds.
func (c *PrometheusCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	histogram := c.histogramFor(metric, labels)
	if histogram == nil {
		return
	}

	observer, err := histogram.GetMetricWith(labels)
	if err != nil {
		return
	}

	observer.Observe(duration.Seconds())
}

// IncrementCounter adds one to the counter.
func (c *PrometheusCollector) IncrementCounter(metric string, labels map[string]string) {
	counter := c.counterFor(metric, labels)
	if counter == nil {
		return
	}

	child, err := counter.GetMetricWith(labels)
	if err != nil {
		return
	}

	child.Inc()
}

// RecordValue sets the gauge to value.
func (c *PrometheusCollector) RecordValue(metric string, value float64, labels map[string]string) {
	gauge := c.gaugeFor(metric, labels)
	if gauge == nil {
		return
	}

	child, err := gauge.GetMetricWith(labels)
	if err != nil {
		return
	}

	child.Set(value)
}

func (c *PrometheusCollector) histogramFor(metric string, labels map[string]string) *prometheus.HistogramVec {
	c.mu.Lock()
	defer c.mu.Unlock()

	if histogram, ok := c.histograms[metric]; ok {
		return histogram
	}

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: c.namespace,
			Name:      metric,
			Help:      "Duration of " + metric,
			Buckets:   DurationBuckets,
		},
		labelNames(labels),
	)

	histogram, ok := register(c.registerer, histogram)
	if !ok {
		return nil
	}

	c.histograms[metric] = histogram

	return histogram
}

func (c *PrometheusCollector) counterFor(metric string, labels map[string]string) *prometheus.CounterVec {
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, ok := c.counters[metric]; ok {
		return counter
	}

	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      metric,
			Help:      "Count of " + metric,
		},
		labelNames(labels),
	)

	counter, ok := register(c.registerer, counter)
	if !ok {
		return nil
	}

	c.counters[metric] = counter

	return counter
}

func (c *PrometheusCollector) gaugeFor(metric string, labels map[string]string) *prometheus.GaugeVec {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gauge, ok := c.gauges[metric]; ok {
		return gauge
	}

	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      metric,
			Help:      "Current value of " + metric,
		},
		labelNames(labels),
	)

	gauge, ok := register(c.registerer, gauge)
	if !ok {
		return nil
	}

	c.gauges[metric] = gauge

	return gauge
}

// register returns the already registered collector if an equal one exists, e.g. from a second
// PrometheusCollector on the same registry.
func register[V prometheus.Collector](registerer prometheus.Registerer, vec V) (V, bool) {
	err := registerer.Register(vec)
	if err == nil {
		return vec, true
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		if existing, ok := alreadyRegistered.ExistingCollector.(V); ok {
			return existing, true
		}
	}

	var zero V

	return zero, false
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

var _ eventstore.MetricsCollector = (*PrometheusCollector)(nil)
