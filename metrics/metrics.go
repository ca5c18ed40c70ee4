package metrics

import (
	"net/http"

	"HibernateBot/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot's Prometheus collectors on a private registry so
// tests can construct isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	PassesTotal     *prometheus.CounterVec
	MembersExamined prometheus.Counter
	RecordsUpdated  prometheus.Counter
	LabelsGranted   prometheus.Counter
	PassErrors      prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		PassesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hibernate_passes_total",
			Help: "Reconciliation passes completed, by outcome.",
		}, []string{"outcome"}),
		MembersExamined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hibernate_members_examined_total",
			Help: "Members inspected across all reconciliation passes.",
		}),
		RecordsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hibernate_records_updated_total",
			Help: "last_seen refreshes written to the ledger.",
		}),
		LabelsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hibernate_labels_granted_total",
			Help: "Dormant roles granted.",
		}),
		PassErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hibernate_pass_errors_total",
			Help: "Members or guilds skipped due to errors during passes.",
		}),
	}

	registry.MustRegister(m.PassesTotal, m.MembersExamined, m.RecordsUpdated, m.LabelsGranted, m.PassErrors)
	return m
}

// RecordPass folds one pass result into the counters.
func (m *Metrics) RecordPass(result models.PassResult) {
	outcome := "clean"
	if result.Errors > 0 {
		outcome = "partial"
	}
	m.PassesTotal.WithLabelValues(outcome).Inc()
	m.MembersExamined.Add(float64(result.Examined))
	m.RecordsUpdated.Add(float64(result.Updated))
	m.LabelsGranted.Add(float64(result.Granted))
	m.PassErrors.Add(float64(result.Errors))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
