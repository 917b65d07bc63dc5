package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the I/O metrics for datasets and artifacts.
// A nil *Collector is valid and records nothing.
type Collector struct {
	Operations *prometheus.CounterVec
	Bytes      *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

func NewCollector() *Collector {
	return &Collector{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "creditguard",
				Name:      "io_operations_total",
				Help:      "Total number of dataset and artifact operations",
			},
			[]string{"component", "op", "result"}, // result: ok, error
		),
		Bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "creditguard",
				Name:      "io_bytes_total",
				Help:      "Bytes read or written by dataset and artifact operations",
			},
			[]string{"component", "op"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "creditguard",
				Name:      "io_duration_seconds",
				Help:      "Duration of dataset and artifact operations",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
			[]string{"component", "op"},
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.Operations.Describe(ch)
	c.Bytes.Describe(ch)
	c.Duration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.Operations.Collect(ch)
	c.Bytes.Collect(ch)
	c.Duration.Collect(ch)
}

// Observe records one finished operation.
func (c *Collector) Observe(component, op string, bytes int64, start time.Time, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Operations.WithLabelValues(component, op, result).Inc()
	if bytes > 0 {
		c.Bytes.WithLabelValues(component, op).Add(float64(bytes))
	}
	c.Duration.WithLabelValues(component, op).Observe(time.Since(start).Seconds())
}

// WriteTextfile dumps the collector in the node-exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
