package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the onboarding engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Mutations       prometheus.Counter
	StepTransitions *prometheus.CounterVec
	StorageFailures *prometheus.CounterVec
	Signups         prometheus.Counter
	Logins          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Mutations: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboard_state_mutations_total",
			Help: "Total number of state mutations applied through the dispatcher",
		}),
		StepTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_step_transitions_total",
			Help: "Stage transitions by origin and destination",
		}, []string{"from", "to"}),
		StorageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_storage_failures_total",
			Help: "Progress store operations that failed and were degraded to in-memory behaviour",
		}, []string{"op"}),
		Signups: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboard_signups_total",
			Help: "Total number of committed signups",
		}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementMutations() {
	if m == nil {
		return
	}
	m.Mutations.Inc()
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.StepTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveStorageFailure(op string) {
	if m == nil {
		return
	}
	m.StorageFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) IncrementSignups() {
	if m == nil {
		return
	}
	m.Signups.Inc()
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}
