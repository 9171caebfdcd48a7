// Package metrics exposes Prometheus collectors for the moderation pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moderation"

// Metrics groups the pipeline counters.
type Metrics struct {
	gatherer      prometheus.Gatherer
	challenges    *prometheus.CounterVec
	verifications *prometheus.CounterVec
	enqueued      *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// New registers the collectors with a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m, err := NewWithRegistry(registry, registry)
	if err != nil {
		panic(err)
	}
	return m
}

// NewWithRegistry registers the collectors with reg; collectors that are
// already registered are reused.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Metrics, error) {
	m := &Metrics{
		gatherer: gatherer,
		challenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_total",
			Help:      "Verification gate outcomes for code requests.",
		}, []string{"outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Code verification attempts by result.",
		}, []string{"result"}),
		enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_enqueued_total",
			Help:      "Moderation items created by action kind.",
		}, []string{"kind"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Moderation decisions by kind and status.",
		}, []string{"kind", "status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by template and result.",
		}, []string{"template", "result"}),
	}
	collectors := []**prometheus.CounterVec{&m.challenges, &m.verifications, &m.enqueued, &m.decisions, &m.notifications}
	for _, collector := range collectors {
		if err := reg.Register(*collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, err
			}
			*collector = existing
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ChallengeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.challenges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Verification(result string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) Enqueued(kind string) {
	if m == nil {
		return
	}
	m.enqueued.WithLabelValues(kind).Inc()
}

func (m *Metrics) Decision(kind, status string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) Notification(template, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(template, result).Inc()
}
