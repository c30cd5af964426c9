package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the verification service.
type Metrics struct {
	VerificationsTotal *prometheus.CounterVec
	AuthFailuresTotal  prometheus.Counter
	JobsEnqueuedTotal  prometheus.Counter
	JobsProcessedTotal *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on a specific registerer; tests pass a fresh
// registry to avoid duplicate-registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VerificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uhakiki_verifications_total",
			Help: "Total verification requests by final decision",
		}, []string{"decision"}),
		AuthFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "uhakiki_auth_failures_total",
			Help: "Total rejected API key validations",
		}),
		JobsEnqueuedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "uhakiki_jobs_enqueued_total",
			Help: "Total async verification jobs enqueued",
		}),
		JobsProcessedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uhakiki_jobs_processed_total",
			Help: "Total async verification jobs processed by outcome",
		}, []string{"status"}),
	}
}

// ObserveVerification counts one finished verification.
func (m *Metrics) ObserveVerification(decision string) {
	m.VerificationsTotal.WithLabelValues(decision).Inc()
}
