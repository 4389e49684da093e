package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus observability primitives for the tax bridge.
type Metrics struct {
	calculatorCalls    *prometheus.CounterVec
	calculatorDuration *prometheus.HistogramVec
	reconciledItems    prometheus.Counter
	resolutionMisses   prometheus.Counter
	profileSyncs       *prometheus.CounterVec
}

// NewMetrics registers and returns Prometheus metrics for telemetry.
func NewMetrics() *Metrics {
	calculatorCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxbridge_calculator_calls_total",
		Help: "Counts external calculator calls by calculator name and status.",
	}, []string{"calculator", "status"})

	calculatorDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taxbridge_calculator_duration_seconds",
		Help:    "External calculator call latency per calculator.",
		Buckets: prometheus.DefBuckets,
	}, []string{"calculator"})

	reconciledItems := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taxbridge_reconciled_line_items_total",
		Help: "Counts line items whose tax was replaced by a provider amount.",
	})

	resolutionMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taxbridge_resolution_misses_total",
		Help: "Counts tax rule groups skipped because no calculator resolved.",
	})

	profileSyncs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxbridge_profile_syncs_total",
		Help: "Counts customer profile sync attempts by operation and status.",
	}, []string{"operation", "status"})

	prometheus.MustRegister(
		calculatorCalls,
		calculatorDuration,
		reconciledItems,
		resolutionMisses,
		profileSyncs,
	)

	return &Metrics{
		calculatorCalls:    calculatorCalls,
		calculatorDuration: calculatorDuration,
		reconciledItems:    reconciledItems,
		resolutionMisses:   resolutionMisses,
		profileSyncs:       profileSyncs,
	}
}

func (m *Metrics) ObserveCalculatorCall(calculator, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calculatorCalls.WithLabelValues(calculator, status).Inc()
	m.calculatorDuration.WithLabelValues(calculator).Observe(elapsed.Seconds())
}

func (m *Metrics) AddReconciledItems(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconciledItems.Add(float64(n))
}

func (m *Metrics) IncResolutionMiss() {
	if m == nil {
		return
	}
	m.resolutionMisses.Inc()
}

func (m *Metrics) ObserveProfileSync(operation, status string) {
	if m == nil {
		return
	}
	m.profileSyncs.WithLabelValues(operation, status).Inc()
}
