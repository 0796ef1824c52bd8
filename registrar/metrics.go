package registrar

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors a Registrar updates as handlers
// register, dispatch, and drain. Grounded on the gauge/counter pattern
// Jeeves-core's coreengine wires into its gRPC dispatch path; CSP's
// registrar plays the same "route to a handler, count what happened"
// role muxer.go's rate counters play for ingest connections.
type Metrics struct {
	HandlersRegistered prometheus.Gauge
	DispatchTotal       *prometheus.CounterVec
	InFlight            prometheus.Gauge
}

// NewMetrics constructs and registers a Metrics set on reg. Callers that
// don't want Prometheus wiring can simply leave a Registrar's Metrics
// field nil; all recording calls are nil-safe.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		HandlersRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registrar",
			Name:      "handlers_registered",
			Help:      "Number of handles currently registered across all ids.",
		}),
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registrar",
			Name:      "dispatch_total",
			Help:      "Count of acquire outcomes by result.",
		}, []string{"result"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registrar",
			Name:      "in_flight",
			Help:      "Number of handler invocations currently acquired and not yet released.",
		}),
	}
	reg.MustRegister(m.HandlersRegistered, m.DispatchTotal, m.InFlight)
	return m
}

func (m *Metrics) recordDispatch(result string) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) handlerDelta(n float64) {
	if m == nil {
		return
	}
	m.HandlersRegistered.Add(n)
}

func (m *Metrics) inFlightDelta(n float64) {
	if m == nil {
		return
	}
	m.InFlight.Add(n)
}
