package hub

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the hub's own operational counters (distinct from the
// samples it transports). All methods are nil-receiver safe so wiring
// instrumentation stays optional in tests.
type Metrics struct {
	ingestedTotal    prometheus.Counter
	rejectedTotal    prometheus.Counter
	storageFailures  prometheus.Counter
	deliveredTotal   prometheus.Counter
	droppedTotal     prometheus.Counter
	subscribersGauge prometheus.Gauge
}

// NewMetrics creates and registers the hub's operational metrics on the
// given registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ingestedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "samples_ingested_total",
			Help:      "Samples validated, persisted and broadcast.",
		}),
		rejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "samples_rejected_total",
			Help:      "Ingestion payloads rejected by validation.",
		}),
		storageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "storage_failures_total",
			Help:      "Append failures after the schema retry.",
		}),
		deliveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "stream_deliveries_total",
			Help:      "Per-subscriber sample deliveries.",
		}),
		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "subscribers_dropped_total",
			Help:      "Subscribers dropped for not keeping up.",
		}),
		subscribersGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "subscribers",
			Help:      "Live streaming subscribers.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ingestedTotal,
			m.rejectedTotal,
			m.storageFailures,
			m.deliveredTotal,
			m.droppedTotal,
			m.subscribersGauge,
		)
	}
	return m
}

// SampleIngested records one successfully persisted sample.
func (m *Metrics) SampleIngested() {
	if m != nil {
		m.ingestedTotal.Inc()
	}
}

// SampleRejected records one payload rejected by validation.
func (m *Metrics) SampleRejected() {
	if m != nil {
		m.rejectedTotal.Inc()
	}
}

// StorageFailure records one append failure surfaced to the caller.
func (m *Metrics) StorageFailure() {
	if m != nil {
		m.storageFailures.Inc()
	}
}

// SampleDelivered records one per-subscriber delivery.
func (m *Metrics) SampleDelivered() {
	if m != nil {
		m.deliveredTotal.Inc()
	}
}

// SubscriberDropped records one subscriber removed on failed delivery.
func (m *Metrics) SubscriberDropped() {
	if m != nil {
		m.droppedTotal.Inc()
	}
}

// SetSubscribers records the current live subscriber count.
func (m *Metrics) SetSubscribers(n int) {
	if m != nil {
		m.subscribersGauge.Set(float64(n))
	}
}
