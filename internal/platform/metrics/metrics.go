// Package metrics holds the Prometheus collectors of the ledger service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EntriesPosted counts entries that reached posted status, by source.
var EntriesPosted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Name:      "entries_posted_total",
	Help:      "Total journal entries posted, by source (manual, auto_post, import, reversal, rollover).",
}, []string{"source"})

// GateRejections counts period gate denials by reason code.
var GateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Name:      "gate_rejections_total",
	Help:      "Total mutations rejected by the period gate.",
}, []string{"reason"})

// GateOverrides counts closed-period mutations allowed through an override capability.
var GateOverrides = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ledger",
	Name:      "gate_overrides_total",
	Help:      "Total sensitive actions allowed on closed periods by override.",
})

// Rollovers counts fiscal-year rollovers by result.
var Rollovers = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Name:      "rollovers_total",
	Help:      "Total fiscal year rollovers, by result.",
}, []string{"result"})

// AutoPostFailures counts failed auto-posts by stage.
var AutoPostFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Name:      "autopost_failures_total",
	Help:      "Total auto-post failures, by failing stage.",
}, []string{"stage"})

// HTTPRequestDuration observes request latency.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "ledger",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})
