package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics shared across the application.
type Metrics struct {
	PatientsRegistered  prometheus.Counter
	ProvidersRegistered prometheus.Counter
	PersonsReactivated  prometheus.Counter
	DeletesBlocked      prometheus.Counter
	AppointmentsCreated prometheus.Counter
	LoginsFailed        prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		PatientsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinica_patients_registered_total",
			Help: "Total number of patient registrations accepted",
		}),
		ProvidersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinica_providers_registered_total",
			Help: "Total number of provider registrations accepted",
		}),
		PersonsReactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinica_persons_reactivated_total",
			Help: "Total number of soft-deleted persons reactivated by re-registration",
		}),
		DeletesBlocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinica_deletes_blocked_total",
			Help: "Total number of deletions rejected due to an active appointment",
		}),
		AppointmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinica_appointments_created_total",
			Help: "Total number of appointments created",
		}),
		LoginsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinica_logins_failed_total",
			Help: "Total number of rejected login attempts",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinica_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// ObserveRequest records one HTTP request duration.
func (m *Metrics) ObserveRequest(method string, d time.Duration) {
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}
