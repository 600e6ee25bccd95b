// Package metrics exposes Prometheus counters for the identity workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters updated by the identity service.
type Metrics struct {
	IdentitiesRegistered  prometheus.Counter
	DeclaredFieldsDropped prometheus.Counter
	Confirmations         prometheus.Counter
	AutoLogins            prometheus.Counter
	AccessTests           *prometheus.CounterVec
	FieldComparisons      *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		IdentitiesRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "gophidentity_identities_registered_total",
			Help: "Total number of identities registered",
		}),
		DeclaredFieldsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "gophidentity_declared_fields_dropped_total",
			Help: "Declared fields discarded because their name is not in the field dictionary",
		}),
		Confirmations: f.NewCounter(prometheus.CounterOpts{
			Name: "gophidentity_confirmations_total",
			Help: "Total number of identity confirmations recorded",
		}),
		AutoLogins: f.NewCounter(prometheus.CounterOpts{
			Name: "gophidentity_confirmation_auto_logins_total",
			Help: "Confirmations that logged the caller in as the identity owner",
		}),
		AccessTests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gophidentity_access_tests_total",
			Help: "Checksum access tests by result",
		}, []string{"result"}),
		FieldComparisons: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gophidentity_field_comparisons_total",
			Help: "Declared field comparisons by status",
		}, []string{"status"}),
	}
}

// ObserveAccessTest counts an access test outcome.
func (m *Metrics) ObserveAccessTest(granted bool) {
	if m == nil {
		return
	}
	result := "denied"
	if granted {
		result = "granted"
	}
	m.AccessTests.WithLabelValues(result).Inc()
}

// ObserveFieldComparison counts a field comparison by status.
func (m *Metrics) ObserveFieldComparison(status string) {
	if m == nil {
		return
	}
	m.FieldComparisons.WithLabelValues(status).Inc()
}

// IncRegistered counts a registered identity.
func (m *Metrics) IncRegistered() {
	if m != nil {
		m.IdentitiesRegistered.Inc()
	}
}

// IncDropped counts a declared field dropped at registration.
func (m *Metrics) IncDropped() {
	if m != nil {
		m.DeclaredFieldsDropped.Inc()
	}
}

// IncConfirmations counts a recorded confirmation.
func (m *Metrics) IncConfirmations() {
	if m != nil {
		m.Confirmations.Inc()
	}
}

// IncAutoLogins counts a confirmation that logged the owner in.
func (m *Metrics) IncAutoLogins() {
	if m != nil {
		m.AutoLogins.Inc()
	}
}
