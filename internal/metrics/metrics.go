// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionDuration tracks end-to-end processEvent latency.
	DecisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "amas_decision_duration_seconds",
			Help:    "Duration of processEvent calls in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// DecisionsTotal counts processed requests by outcome.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amas_decisions_total",
			Help: "Total number of processEvent outcomes",
		},
		[]string{"outcome"}, // "ok", "degraded"
	)

	// DegradationsTotal counts fallback reasons.
	DegradationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amas_degradations_total",
			Help: "Total number of degraded-path responses by reason",
		},
		[]string{"reason"}, // "anomaly", "timeout", "circuit_open", "storage", "rate_limited"
	)

	// LearnerSelections counts which learner contributed the winning action.
	LearnerSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amas_learner_selections_total",
			Help: "Total number of times each learner's action won the ensemble vote",
		},
		[]string{"learner"}, // "linucb", "thompson", "actr", "heuristic", "coldstart"
	)

	// EnsembleWeight reports the current normalized weight per learner.
	EnsembleWeight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "amas_ensemble_weight",
			Help: "Current ensemble weight per learner",
		},
		[]string{"learner"},
	)

	// ColdStartPhaseTransitions counts phase advances.
	ColdStartPhaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amas_coldstart_phase_transitions_total",
			Help: "Total number of cold-start phase transitions",
		},
		[]string{"to_phase"}, // "explore", "normal"
	)

	// ActiveUsers reports the number of user model bundles currently resident.
	ActiveUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amas_active_users",
			Help: "Current number of per-user model bundles held in memory",
		},
	)

	// UserEvictions counts LRU/TTL evictions of per-user model bundles.
	UserEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amas_user_evictions_total",
			Help: "Total number of per-user model evictions",
		},
		[]string{"reason"}, // "lru", "ttl", "reset"
	)

	// RewardObserved records the distribution of computed rewards.
	RewardObserved = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "amas_reward_observed",
			Help:    "Distribution of rewards computed per interaction",
			Buckets: []float64{-1, -0.75, -0.5, -0.25, 0, 0.25, 0.5, 0.75, 1},
		},
	)

	// CircuitBreakerState mirrors gobreaker's state for the orchestrator breaker.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "amas_circuit_breaker_state",
			Help: "Orchestrator circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts circuit breaker state changes.
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amas_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// CholeskyRedecompositions counts full Cholesky fallbacks from rank-1 updates.
	CholeskyRedecompositions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "amas_linucb_redecompositions_total",
			Help: "Total number of times the LinUCB Cholesky factor required full redecomposition",
		},
	)

	// LockWaitDuration tracks time spent waiting on the per-user serialisation lock.
	LockWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "amas_lock_wait_duration_seconds",
			Help:    "Duration spent waiting for the per-user serialisation lock",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordDecision records the outcome of a single processEvent call.
func RecordDecision(outcome string, seconds float64) {
	DecisionDuration.Observe(seconds)
	DecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordDegradation records a fallback path and its reason.
func RecordDegradation(reason string) {
	DegradationsTotal.WithLabelValues(reason).Inc()
}

// RecordLearnerSelection records which learner's action was executed.
func RecordLearnerSelection(learner string) {
	LearnerSelections.WithLabelValues(learner).Inc()
}

// SetEnsembleWeight publishes the current weight for a learner.
func SetEnsembleWeight(learner string, weight float64) {
	EnsembleWeight.WithLabelValues(learner).Set(weight)
}

// RecordColdStartTransition records a cold-start phase advance.
func RecordColdStartTransition(toPhase string) {
	ColdStartPhaseTransitions.WithLabelValues(toPhase).Inc()
}

// SetActiveUsers publishes the current per-user arena size.
func SetActiveUsers(n int) {
	ActiveUsers.Set(float64(n))
}

// RecordUserEviction records a per-user model eviction.
func RecordUserEviction(reason string) {
	UserEvictions.WithLabelValues(reason).Inc()
}

// RecordReward records an observed reward value.
func RecordReward(r float64) {
	RewardObserved.Observe(r)
}

// RecordCholeskyRedecomposition records a fallback to full Cholesky factorization.
func RecordCholeskyRedecomposition() {
	CholeskyRedecompositions.Inc()
}

// RecordLockWait records time spent waiting for a per-user lock.
func RecordLockWait(seconds float64) {
	LockWaitDuration.Observe(seconds)
}

// circuitBreakerStateFloat converts a breaker state name to its metric value.
func circuitBreakerStateFloat(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}

// RecordCircuitBreakerTransition records a circuit breaker state change.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerState.WithLabelValues(name).Set(circuitBreakerStateFloat(to))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}
