// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

/*
Package metrics provides Prometheus metrics collection and export for the
AMAS decision engine.

# Overview

The package instruments the six pipeline stages (perception, modeling,
learning, decision, evaluation, optimization) plus the orchestrator's
resilience machinery:

  - Decision latency and outcome per request
  - Per-learner selection counts and ensemble weights
  - Circuit breaker state transitions
  - Per-user arena size and eviction counts
  - Cold-start phase transitions

# Metrics Endpoint

Metrics are exposed at /metrics in Prometheus text format by the hosting
process; this package only registers collectors via promauto.

# Cardinality Management

userId is never used as a label. Labels are bounded: learner name (at
most 5 values, including "coldstart"), cold-start target phase (2 values),
degradation reason (a handful of constants).
*/
package metrics
