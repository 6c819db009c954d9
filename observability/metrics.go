package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type contractMetrics struct {
	calls       *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	submessages *prometheus.CounterVec
	rollbacks   *prometheus.CounterVec
}

var (
	contractMetricsOnce sync.Once
	contractRegistry    *contractMetrics
)

// ContractMetrics returns the lazily-initialised registry recording contract
// entry-point activity on the host.
func ContractMetrics() *contractMetrics {
	contractMetricsOnce.Do(func() {
		contractRegistry = &contractMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "andromeda",
				Subsystem: "contract",
				Name:      "calls_total",
				Help:      "Total contract entry-point calls segmented by contract code, entry point, and outcome.",
			}, []string{"contract", "entry", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "andromeda",
				Subsystem: "contract",
				Name:      "call_duration_seconds",
				Help:      "Latency distribution for contract entry points.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"contract", "entry"}),
			submessages: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "andromeda",
				Name:      "submessages_total",
				Help:      "Count of dispatched sub-messages segmented by message kind.",
			}, []string{"kind"}),
			rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "andromeda",
				Subsystem: "tx",
				Name:      "rollbacks_total",
				Help:      "Count of transactions whose writes were discarded after an error.",
			}, []string{"entry"}),
		}
		prometheus.MustRegister(
			contractRegistry.calls,
			contractRegistry.latency,
			contractRegistry.submessages,
			contractRegistry.rollbacks,
		)
	})
	return contractRegistry
}

func labelOrUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "unknown"
	}
	return v
}

// Observe records a single contract entry-point call.
func (m *contractMetrics) Observe(contract, entry string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	contract = labelOrUnknown(contract)
	entry = labelOrUnknown(entry)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.calls.WithLabelValues(contract, entry, outcome).Inc()
	m.latency.WithLabelValues(contract, entry).Observe(duration.Seconds())
}

// RecordSubmessage counts a dispatched sub-message. Kinds are stable strings
// such as "wasm_execute" or "bank_send".
func (m *contractMetrics) RecordSubmessage(kind string) {
	if m == nil {
		return
	}
	m.submessages.WithLabelValues(labelOrUnknown(kind)).Inc()
}

// RecordRollback counts a discarded transaction.
func (m *contractMetrics) RecordRollback(entry string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(labelOrUnknown(entry)).Inc()
}
