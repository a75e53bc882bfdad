package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cart"

// Write outcomes recorded by the persistence bridge.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// PersistenceMetrics records cart persistence and hydration activity.
type PersistenceMetrics struct {
	writeDuration *prometheus.HistogramVec
	writes        *prometheus.CounterVec
	coalesced     prometheus.Counter
	hydrations    *prometheus.CounterVec
	dispatches    *prometheus.CounterVec
}

// NewPersistenceMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a recorder that drops every observation.
func NewPersistenceMetrics(reg prometheus.Registerer) *PersistenceMetrics {
	if reg == nil {
		return &PersistenceMetrics{}
	}
	writeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "persist_duration_seconds",
		Help:      "Duration of cart snapshot writes in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persist_writes_total",
		Help:      "Cart snapshot writes by operation and outcome.",
	}, []string{"op", "outcome"})
	coalesced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persist_coalesced_total",
		Help:      "Snapshots superseded before they were written.",
	})
	hydrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hydrations_total",
		Help:      "Startup hydrations by status.",
	}, []string{"status"})
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatches_total",
		Help:      "Actions dispatched to the cart store by kind.",
	}, []string{"action"})
	reg.MustRegister(writeDuration, writes, coalesced, hydrations, dispatches)
	return &PersistenceMetrics{
		writeDuration: writeDuration,
		writes:        writes,
		coalesced:     coalesced,
		hydrations:    hydrations,
		dispatches:    dispatches,
	}
}

// ObserveWrite records one snapshot write attempt.
func (p *PersistenceMetrics) ObserveWrite(op string, duration time.Duration, err error) {
	if p == nil || p.writes == nil {
		return
	}
	op = normalizeLabel(op)
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	p.writeDuration.WithLabelValues(op).Observe(duration.Seconds())
	p.writes.WithLabelValues(op, outcome).Inc()
}

// IncCoalesced counts a pending snapshot replaced by a newer one.
func (p *PersistenceMetrics) IncCoalesced() {
	if p == nil || p.coalesced == nil {
		return
	}
	p.coalesced.Inc()
}

// IncHydration counts a hydration attempt by its status.
func (p *PersistenceMetrics) IncHydration(status string) {
	if p == nil || p.hydrations == nil {
		return
	}
	p.hydrations.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncDispatch counts an action applied to the store.
func (p *PersistenceMetrics) IncDispatch(action string) {
	if p == nil || p.dispatches == nil {
		return
	}
	p.dispatches.WithLabelValues(normalizeLabel(action)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
