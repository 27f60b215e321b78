// Package metrics exposes Prometheus collectors for ledger activity:
// registrations and deposits per registry, accepted and rejected bids and
// commitments, operation latency and signature recovery cache efficiency.
//
// All recording methods are no-ops on a nil *Ledger so components can be
// built without metrics.
package metrics

import (
	"math/big"
	"net/http"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "preconf"

// Outcome label values.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// weiPerEther scales stake gauges to ether.
var weiPerEther = 1e18

// Ledger groups the collectors recorded by the registries and the store.
type Ledger struct {
	registry *prometheus.Registry

	registrations *prometheus.CounterVec
	deposits      *prometheus.CounterVec
	staked        *prometheus.GaugeVec
	bids          *prometheus.CounterVec
	commitments   *prometheus.CounterVec
	opDuration    *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
}

// NewLedger creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func NewLedger() *Ledger {
	m := &Ledger{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "registry",
			Name:      "registrations_total",
			Help:      "Registration attempts per registry and outcome.",
		}, []string{"registry", "outcome"}),
		deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "registry",
			Name:      "deposits_total",
			Help:      "Accepted stake top-ups per registry.",
		}, []string{"registry"}),
		staked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "registry",
			Name:      "staked_ether",
			Help:      "Total stake held by a registry, in ether.",
		}, []string{"registry"}),
		bids: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "bids_total",
			Help:      "Bid submissions by outcome and rejection reason.",
		}, []string{"outcome", "reason"}),
		commitments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "commitments_total",
			Help:      "Commitment submissions by outcome and rejection reason.",
		}, []string{"outcome", "reason"}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of ledger operations.",
			Buckets:   prometheus.ExponentialBuckets(50e-6, 2, 14),
		}, []string{"op"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "recovery_cache",
			Name:      "lookups_total",
			Help:      "Signature recovery cache lookups by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.registrations, m.deposits, m.staked,
		m.bids, m.commitments, m.opDuration, m.cacheLookups,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Ledger) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Ledger) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ---------------------------------------------------------------------------
// Registry events
// ---------------------------------------------------------------------------

// Registration records a registration attempt.
func (m *Ledger) Registration(registry string, ok bool) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(registry, outcome(ok)).Inc()
}

// Deposit records an accepted top-up.
func (m *Ledger) Deposit(registry string) {
	if m == nil {
		return
	}
	m.deposits.WithLabelValues(registry).Inc()
}

// SetStaked publishes a registry's total stake.
func (m *Ledger) SetStaked(registry string, total *uint256.Int) {
	if m == nil || total == nil {
		return
	}
	wei, _ := new(big.Float).SetInt(total.ToBig()).Float64()
	m.staked.WithLabelValues(registry).Set(wei / weiPerEther)
}

// ---------------------------------------------------------------------------
// Store events
// ---------------------------------------------------------------------------

// Bid records a bid submission. reason is empty for accepted bids.
func (m *Ledger) Bid(reason string) {
	if m == nil {
		return
	}
	m.bids.WithLabelValues(outcome(reason == ""), reason).Inc()
}

// Commitment records a commitment submission. reason is empty for accepted
// commitments.
func (m *Ledger) Commitment(reason string) {
	if m == nil {
		return
	}
	m.commitments.WithLabelValues(outcome(reason == ""), reason).Inc()
}

// ObserveOp records the latency of op measured from start.
func (m *Ledger) ObserveOp(op string, start time.Time) {
	if m == nil {
		return
	}
	m.opDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// CacheLookup records a recovery cache hit or miss.
func (m *Ledger) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

func outcome(ok bool) string {
	if ok {
		return OutcomeAccepted
	}
	return OutcomeRejected
}
