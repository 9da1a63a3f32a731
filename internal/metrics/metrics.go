// Package metrics exposes Prometheus collectors for ledger activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "desafiados"

// Outcome labels shared by award and redemption counters.
const (
	OutcomeGranted      = "granted"
	OutcomeDuplicate    = "duplicate"
	OutcomeRedeemed     = "redeemed"
	OutcomeInsufficient = "insufficient_balance"
	OutcomeInactive     = "reward_inactive"
	OutcomeNotFound     = "not_found"
	OutcomeTransient    = "transient"
	OutcomeRolledBack   = "rolled_back"
	OutcomeInconsistent = "inconsistent"
	OutcomeError        = "error"
)

// Ledger holds the ledger collectors on a dedicated registry. A nil *Ledger
// is valid and records nothing.
type Ledger struct {
	registry    *prometheus.Registry
	awards      *prometheus.CounterVec
	redemptions *prometheus.CounterVec
	points      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewLedger() *Ledger {
	m := &Ledger{
		registry: prometheus.NewRegistry(),
		awards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "awards_total",
			Help:      "Award attempts segmented by outcome.",
		}, []string{"outcome"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "redemptions_total",
			Help:      "Redemption attempts segmented by outcome.",
		}, []string{"outcome"}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "points_total",
			Help:      "Points moved through the ledger, by direction.",
		}, []string{"direction"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Latency of ledger mutations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	m.registry.MustRegister(
		m.awards,
		m.redemptions,
		m.points,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Ledger) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Ledger) ObserveAward(outcome string, points int) {
	if m == nil {
		return
	}
	m.awards.WithLabelValues(outcome).Inc()
	if outcome == OutcomeGranted {
		m.points.WithLabelValues("awarded").Add(float64(points))
	}
}

func (m *Ledger) ObserveRedemption(outcome string, points int) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeRedeemed {
		m.points.WithLabelValues("spent").Add(float64(points))
	}
}

func (m *Ledger) ObserveDuration(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}
