package app

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the record store counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	persistFailures *prometheus.CounterVec
	slotWrites      *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bbt_persistence_failures_total",
			Help: "Slot loads or saves that failed and were degraded to a warning.",
		}, []string{"slot", "op"}),
		slotWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bbt_records_written_total",
			Help: "Successful write-through saves per slot.",
		}, []string{"slot"}),
	}
	if reg != nil {
		reg.MustRegister(m.persistFailures, m.slotWrites)
	}
	return m
}

func (m *Metrics) persistFailed(slot, op string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(slot, op).Inc()
}

func (m *Metrics) slotWritten(slot string) {
	if m == nil {
		return
	}
	m.slotWrites.WithLabelValues(slot).Inc()
}
