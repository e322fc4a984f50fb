package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks cache gateway traffic.
type Metrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	corruptions prometheus.Counter
	storeErrors prometheus.Counter
}

// NewMetrics registers the gateway counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curius_feed",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache reads that returned a decodable value.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curius_feed",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache reads that found no value.",
		}),
		corruptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curius_feed",
			Subsystem: "cache",
			Name:      "corrupted_entries_total",
			Help:      "Cache entries deleted because the stored blob failed to decode.",
		}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curius_feed",
			Subsystem: "cache",
			Name:      "store_errors_total",
			Help:      "Store communication failures surfaced to callers.",
		}),
	}
	reg.MustRegister(m.hits, m.misses, m.corruptions, m.storeErrors)
	return m
}

// The gateway works without metrics wired (tests, lambda cold paths), so
// every recorder is nil-safe.

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) corruption() {
	if m != nil {
		m.corruptions.Inc()
	}
}

func (m *Metrics) storeError() {
	if m != nil {
		m.storeErrors.Inc()
	}
}
