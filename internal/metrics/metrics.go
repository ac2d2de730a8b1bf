// Package metrics holds the Prometheus collectors of the ontology engine.
//
// All methods are safe on a nil *Metrics, so instrumentation is optional.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ontology"

// Proposal events.
const (
	EventCreated     = "created"
	EventApproved    = "approved"
	EventRejected    = "rejected"
	EventApplied     = "applied"
	EventApplyFailed = "apply_failed"
)

// Metrics records sync, validation, proposal and publish activity.
type Metrics struct {
	syncTotal      *prometheus.CounterVec
	syncDuration   prometheus.Histogram
	syncCategories prometheus.Gauge

	validationTotal      *prometheus.CounterVec
	validationViolations prometheus.Counter
	validationDegraded   prometheus.Counter

	proposalsTotal *prometheus.CounterVec
	publishTotal   *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		syncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_total",
			Help:      "Wiki sync attempts by outcome.",
		}, []string{"status"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall time of wiki sync attempts.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		syncCategories: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_categories",
			Help:      "Categories in the cache after the last successful sync.",
		}),
		validationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_total",
			Help:      "Record validations by result (valid, invalid, degraded).",
		}, []string{"result"}),
		validationViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_violations_total",
			Help:      "Vocabulary violations reported across all validations.",
		}),
		validationDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_degraded_total",
			Help:      "Validations skipped because no vocabulary was available.",
		}),
		proposalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_total",
			Help:      "Proposal lifecycle events.",
		}, []string{"event"}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Wiki publish attempts after applying a proposal.",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{
		m.syncTotal, m.syncDuration, m.syncCategories,
		m.validationTotal, m.validationViolations, m.validationDegraded,
		m.proposalsTotal, m.publishTotal,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveSync records one sync attempt. categories is ignored on failure.
func (m *Metrics) ObserveSync(ok bool, d time.Duration, categories int) {
	if m == nil {
		return
	}
	m.syncDuration.Observe(d.Seconds())
	if !ok {
		m.syncTotal.WithLabelValues("failed").Inc()
		return
	}
	m.syncTotal.WithLabelValues("success").Inc()
	m.syncCategories.Set(float64(categories))
}

// ObserveValidation records one validation with its violation count.
func (m *Metrics) ObserveValidation(violations int) {
	if m == nil {
		return
	}
	if violations == 0 {
		m.validationTotal.WithLabelValues("valid").Inc()
		return
	}
	m.validationTotal.WithLabelValues("invalid").Inc()
	m.validationViolations.Add(float64(violations))
}

// ValidationDegraded records a fail-open validation.
func (m *Metrics) ValidationDegraded() {
	if m == nil {
		return
	}
	m.validationTotal.WithLabelValues("degraded").Inc()
	m.validationDegraded.Inc()
}

// Proposal records a proposal lifecycle event.
func (m *Metrics) Proposal(event string) {
	if m == nil {
		return
	}
	m.proposalsTotal.WithLabelValues(event).Inc()
}

// Publish records a wiki publish attempt.
func (m *Metrics) Publish(ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failed"
	}
	m.publishTotal.WithLabelValues(status).Inc()
}
