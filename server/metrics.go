package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors a Server updates as messages
// arrive, grounded on the same Jeeves-core dispatch-path pattern
// registrar.Metrics uses, applied one layer up at the message-envelope
// boundary (protocol rejects vs. per-type dispatch outcomes).
type Metrics struct {
	ProtocolRejectsTotal prometheus.Counter
	DispatchTotal        *prometheus.CounterVec
}

// NewMetrics constructs and registers a Metrics set on reg. A Server
// left with a nil Metrics field works fine; every recording call is
// nil-safe.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		ProtocolRejectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "protocol_rejects_total",
			Help:      "Count of inbound messages rejected for an unsupported protocol version.",
		}),
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "dispatch_total",
			Help:      "Count of data-message dispatch outcomes by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.ProtocolRejectsTotal, m.DispatchTotal)
	return m
}

func (m *Metrics) rejectDelta(n float64) {
	if m == nil {
		return
	}
	m.ProtocolRejectsTotal.Add(n)
}

func (m *Metrics) dispatchDelta(result string) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(result).Inc()
}
