package metrics

import (
	"math/big"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TroveMetrics records contract runtime activity.
type TroveMetrics struct {
	executions     *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	liquidations   prometheus.Counter
	surplusClaimed *prometheus.CounterVec
	bankFailures   prometheus.Counter
}

var (
	trovesOnce     sync.Once
	trovesRegistry *TroveMetrics
)

// Troves returns the process-wide registry, registering it on first use.
func Troves() *TroveMetrics {
	trovesOnce.Do(func() {
		trovesRegistry = &TroveMetrics{
			executions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "ultra_contract_executions_total",
				Help: "Contract invocations by contract, action and result code.",
			}, []string{"contract", "action", "result"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "ultra_contract_execution_seconds",
				Help:    "Wall time spent executing contract invocations.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			}, []string{"contract", "action"}),
			liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "ultra_troves_liquidated_total",
				Help: "Troves closed by liquidation.",
			}),
			surplusClaimed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "ultra_surplus_claimed_total",
				Help: "Collateral paid out of the surplus pool by denomination.",
			}, []string{"denom"}),
			bankFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "ultra_bank_delivery_failures_total",
				Help: "Outbound bank messages that could not be applied.",
			}),
		}
		prometheus.MustRegister(
			trovesRegistry.executions,
			trovesRegistry.latency,
			trovesRegistry.liquidations,
			trovesRegistry.surplusClaimed,
			trovesRegistry.bankFailures,
		)
	})
	return trovesRegistry
}

func labelOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func (m *TroveMetrics) ObserveExecution(contract, action, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	contract, action = labelOrUnknown(contract), labelOrUnknown(action)
	m.executions.WithLabelValues(contract, action, labelOrUnknown(result)).Inc()
	m.latency.WithLabelValues(contract, action).Observe(elapsed.Seconds())
}

func (m *TroveMetrics) ObserveLiquidation() {
	if m == nil {
		return
	}
	m.liquidations.Inc()
}

// ObserveSurplusClaimed adds amount to the claimed total. Amounts beyond
// float64 precision are recorded approximately.
func (m *TroveMetrics) ObserveSurplusClaimed(denom string, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.surplusClaimed.WithLabelValues(labelOrUnknown(denom)).Add(value)
}

func (m *TroveMetrics) ObserveBankFailure() {
	if m == nil {
		return
	}
	m.bankFailures.Inc()
}
