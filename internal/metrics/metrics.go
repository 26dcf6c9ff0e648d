package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics covers proof compilation, proving and verification.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CompileLatency *prometheus.HistogramVec
	ProveLatency   *prometheus.HistogramVec
	VerifyLatency  *prometheus.HistogramVec

	// Outcomes by operation ("prove", "verify", "ledger") and result
	Outcomes *prometheus.CounterVec

	// Compile cache lookups by result ("hit", "miss")
	CacheLookups *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CompileLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idmask_circuit_compile_duration_seconds",
			Help:    "Duration of circuit compilation and key setup by circuit",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"circuit"}),

		ProveLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idmask_proof_prove_duration_seconds",
			Help:    "Duration of groth16 proving by circuit",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"circuit"}),

		VerifyLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idmask_proof_verify_duration_seconds",
			Help:    "Duration of groth16 verification by circuit",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"circuit"}),

		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idmask_proof_outcomes_total",
			Help: "Proof operation outcomes by operation, circuit and result",
		}, []string{"operation", "circuit", "result"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idmask_circuit_cache_lookups_total",
			Help: "Compiled circuit cache lookups by result",
		}, []string{"result"}),

		gatherer: reg,
	}
}

func (m *Metrics) ObserveCompile(circuit string, d time.Duration) {
	if m != nil {
		m.CompileLatency.WithLabelValues(circuit).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveProve(circuit string, d time.Duration) {
	if m != nil {
		m.ProveLatency.WithLabelValues(circuit).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveVerify(circuit string, d time.Duration) {
	if m != nil {
		m.VerifyLatency.WithLabelValues(circuit).Observe(d.Seconds())
	}
}

// IncrementOutcome records result "ok" or the failure reason code.
func (m *Metrics) IncrementOutcome(operation, circuit, result string) {
	if m != nil {
		m.Outcomes.WithLabelValues(operation, circuit, result).Inc()
	}
}

func (m *Metrics) IncrementCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
