// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

import "errors"

// Sentinel errors, wrapped with context via fmt.Errorf("...: %w") at call
// sites, per the error taxonomy of spec.md §7.
var (
	// ErrAnomalousEvent is returned when a raw event fails sanitisation.
	ErrAnomalousEvent = errors.New("amas: anomalous event rejected")
	// ErrTimeout is returned when the decision budget or lock wait expired.
	ErrTimeout = errors.New("amas: decision timed out")
	// ErrCircuitOpen is returned when the orchestrator's breaker is open.
	ErrCircuitOpen = errors.New("amas: circuit breaker open")
	// ErrStorage wraps a StateRepo/ModelRepo failure.
	ErrStorage = errors.New("amas: storage failure")
	// ErrInconsistent marks an internal invariant violation.
	ErrInconsistent = errors.New("amas: internal inconsistency")
)
