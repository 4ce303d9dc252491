// Package metrics exports transfer telemetry for uploads and archive fetches.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for object-store transfers.
type Observer interface {
	// RecordUpload tracks one whole file through the upload state machine.
	RecordUpload(kind string, duration time.Duration, sizeBytes int64, err error)
	// RecordPart tracks a single PUT, part or single-shot.
	RecordPart(duration time.Duration, sizeBytes int64, err error)
	// RecordFetch tracks one archive artifact fetch.
	RecordFetch(category string, duration time.Duration, sizeBytes int64, err error)
}

// PrometheusObserver exports transfer metrics to Prometheus.
type PrometheusObserver struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	bytes    *prometheus.CounterVec
}

// NewPrometheusObserver registers the transfer metrics with reg.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "reconkeeper"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_duration_seconds",
			Help:      "Latency of object-store transfers.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"operation", "label"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_failures_total",
			Help:      "Count of failed object-store transfers.",
		}, []string{"operation", "label"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transferred_bytes_total",
			Help:      "Cumulative payload size moved to or from the object store.",
		}, []string{"operation", "label"}),
	}

	if err := register(reg, &o.duration); err != nil {
		return nil, err
	}
	if err := register(reg, &o.failures); err != nil {
		return nil, err
	}
	if err := register(reg, &o.bytes); err != nil {
		return nil, err
	}
	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				*c = existing
				return nil
			}
		}
		return fmt.Errorf("register transfer metric: %w", err)
	}
	return nil
}

func (o *PrometheusObserver) RecordUpload(kind string, duration time.Duration, sizeBytes int64, err error) {
	o.record("upload", kind, duration, sizeBytes, err)
}

func (o *PrometheusObserver) RecordPart(duration time.Duration, sizeBytes int64, err error) {
	o.record("put", "part", duration, sizeBytes, err)
}

func (o *PrometheusObserver) RecordFetch(category string, duration time.Duration, sizeBytes int64, err error) {
	o.record("fetch", category, duration, sizeBytes, err)
}

func (o *PrometheusObserver) record(op, label string, duration time.Duration, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues(op, label).Observe(duration.Seconds())
	if err != nil {
		o.failures.WithLabelValues(op, label).Inc()
		return
	}
	o.bytes.WithLabelValues(op, label).Add(float64(sizeBytes))
}

type nopObserver struct{}

func (nopObserver) RecordUpload(string, time.Duration, int64, error) {}

func (nopObserver) RecordPart(time.Duration, int64, error) {}

func (nopObserver) RecordFetch(string, time.Duration, int64, error) {}

// Nop returns an Observer that drops everything.
func Nop() Observer { return nopObserver{} }

// WriteTextfile dumps every metric gathered by g to path in the node
// exporter textfile format. An empty path is a no-op.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
