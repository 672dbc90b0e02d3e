// Package metrics provides Prometheus metrics for cradle-gate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GateDecisionsTotal counts gate decisions by outcome.
	GateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cradle",
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Total number of gate decisions by outcome",
		},
		[]string{"outcome"},
	)

	// GateFailOpenTotal counts evaluations that failed and were let through.
	GateFailOpenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cradle",
			Subsystem: "gate",
			Name:      "fail_open_total",
			Help:      "Total number of gate evaluations that failed open",
		},
		[]string{"kind"},
	)

	// RoleLookupsTotal counts role store reads by caller and result.
	RoleLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cradle",
			Subsystem: "role",
			Name:      "lookups_total",
			Help:      "Total number of role store reads",
		},
		[]string{"result"},
	)

	// RoleAssignmentsTotal counts role assignment attempts by result.
	RoleAssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cradle",
			Subsystem: "role",
			Name:      "assignments_total",
			Help:      "Total number of role assignment attempts",
		},
		[]string{"result"},
	)

	// SessionCacheTotal counts session cache lookups by result.
	SessionCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cradle",
			Subsystem: "session",
			Name:      "cache_lookups_total",
			Help:      "Total number of session cache lookups",
		},
		[]string{"result"},
	)

	// GuardDenialsTotal counts route guard denials.
	GuardDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cradle",
			Subsystem: "guard",
			Name:      "denials_total",
			Help:      "Total number of route guard denials",
		},
		[]string{"reason"},
	)
)

// RecordGateDecision records a gate decision.
func RecordGateDecision(outcome string) {
	GateDecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordGateFailOpen records a failed evaluation that resolved to continue.
func RecordGateFailOpen(kind string) {
	GateFailOpenTotal.WithLabelValues(kind).Inc()
}

// RecordRoleLookup records a role store read.
func RecordRoleLookup(result string) {
	RoleLookupsTotal.WithLabelValues(result).Inc()
}

// RecordRoleAssignment records a role assignment attempt.
func RecordRoleAssignment(result string) {
	RoleAssignmentsTotal.WithLabelValues(result).Inc()
}

// RecordGuardDenial records a guard denial.
func RecordGuardDenial(reason string) {
	GuardDenialsTotal.WithLabelValues(reason).Inc()
}

// RecordSessionCache records a session cache hit or miss.
func RecordSessionCache(hit bool) {
	if hit {
		SessionCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	SessionCacheTotal.WithLabelValues("miss").Inc()
}
