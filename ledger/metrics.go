package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	operations       *prometheus.CounterVec
	transferFailures prometheus.Counter
	beneficiaries    prometheus.Gauge
	lastSeq          prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitledger",
			Name:      "operations_total",
			Help:      "Ledger operations by kind and result code.",
		}, []string{"op", "result"}),
		transferFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "splitledger",
			Name:      "transfer_failures_total",
			Help:      "Settled withdrawals whose payout transfer failed.",
		}),
		beneficiaries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "splitledger",
			Name:      "beneficiaries",
			Help:      "Number of entries in the current beneficiary configuration.",
		}),
		lastSeq: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "splitledger",
			Name:      "event_sequence",
			Help:      "Sequence number of the newest committed event.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.transferFailures, m.beneficiaries, m.lastSeq)
	}
	return m
}

func (m *metrics) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = Code(err)
	}
	m.operations.WithLabelValues(op, result).Inc()
}
