// Package metrics holds the Prometheus collectors for compliance validation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "uftp"
	subsystem = "compliance"
)

// Outcome labels.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
	OutcomeFault     = "fault"
)

// Metrics holds the validation collectors. A nil *Metrics records nothing.
type Metrics struct {
	validationsTotal   *prometheus.CounterVec
	rejectionsTotal    *prometheus.CounterVec
	faultsTotal        *prometheus.CounterVec
	duplicatesTotal    *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	saveRacesTotal     prometheus.Counter
	publishErrorsTotal prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg returns nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		validationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validations_total",
			Help:      "Validated messages by kind and outcome",
		}, []string{"kind", "outcome"}),

		rejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rejections_total",
			Help:      "Rejected messages by kind and first failing validator",
		}, []string{"kind", "validator"}),

		faultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "faults_total",
			Help:      "Internal faults raised while validating, by kind and validator",
		}, []string{"kind", "validator"}),

		duplicatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duplicate_classifications_total",
			Help:      "Duplicate classifications by kind and classification",
		}, []string{"kind", "classification"}),

		validationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating one message",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"kind"}),

		saveRacesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "save_races_total",
			Help:      "Accepted messages whose save lost to a concurrent delivery of the same id",
		}),

		publishErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "event_publish_errors_total",
			Help:      "Validation events that could not be published",
		}),
	}

	reg.MustRegister(
		m.validationsTotal,
		m.rejectionsTotal,
		m.faultsTotal,
		m.duplicatesTotal,
		m.validationDuration,
		m.saveRacesTotal,
		m.publishErrorsTotal,
	)
	return m
}

// ObserveValidation records one validation of a message of kind with its outcome and duration.
func (m *Metrics) ObserveValidation(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.validationsTotal.WithLabelValues(kind, outcome).Inc()
	m.validationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// RecordRejection counts a rejection by the validator that failed first.
func (m *Metrics) RecordRejection(kind, validator string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(kind, validator).Inc()
}

// RecordFault counts an internal fault.
func (m *Metrics) RecordFault(kind, validator string) {
	if m == nil {
		return
	}
	m.faultsTotal.WithLabelValues(kind, validator).Inc()
}

// RecordClassification counts a duplicate classification.
func (m *Metrics) RecordClassification(kind, classification string) {
	if m == nil {
		return
	}
	m.duplicatesTotal.WithLabelValues(kind, classification).Inc()
}

// RecordSaveRace counts a lost first-writer-wins save.
func (m *Metrics) RecordSaveRace() {
	if m == nil {
		return
	}
	m.saveRacesTotal.Inc()
}

// RecordPublishError counts a failed event publish.
func (m *Metrics) RecordPublishError() {
	if m == nil {
		return
	}
	m.publishErrorsTotal.Inc()
}
