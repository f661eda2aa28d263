// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

// Guardrail thresholds, spec.md §4.6.
const (
	HighFatigue       = 0.7
	CriticalFatigue   = 0.9
	LowMotivation     = -0.3
	CriticalMotivation = -0.7
	MinAttention      = 0.3
)

// MapActionToStrategy is the pure Action -> StrategyParams mapper.
func MapActionToStrategy(a Action) Strategy {
	return Strategy{
		IntervalScale: a.IntervalScale,
		NewRatio:      a.NewRatio,
		Difficulty:    a.Difficulty,
		BatchSize:     a.BatchSize,
		HintLevel:     a.HintLevel,
	}
}

// MapStrategyToAction snaps a (possibly guardrail-altered) strategy back
// to the nearest action in ACTION_SPACE, so training signal, persisted
// feature vector, and observed behaviour stay aligned (spec.md §4.6, §9
// "action alignment").
func MapStrategyToAction(s Strategy) Action {
	target := Action{
		IntervalScale: s.IntervalScale,
		NewRatio:      s.NewRatio,
		Difficulty:    s.Difficulty,
		BatchSize:     s.BatchSize,
		HintLevel:     s.HintLevel,
	}
	return nearestAction(target)
}

// ApplyGuardrails clamps strategy in place against the current UserState,
// in the fixed order of spec.md §4.6, each clause clamping further than
// the last.
func ApplyGuardrails(s Strategy, state UserState) Strategy {
	if state.F > HighFatigue {
		s.IntervalScale = maxF(s.IntervalScale, 1.0)
		s.NewRatio = minF(s.NewRatio, 0.2)
		s.BatchSize = minI(s.BatchSize, 8)
	}
	if state.F > CriticalFatigue {
		s.Difficulty = DifficultyEasy
		s.HintLevel = maxI(s.HintLevel, 1)
		s.NewRatio = minF(s.NewRatio, 0.1)
		s.BatchSize = minI(s.BatchSize, 5)
	}
	if state.M < LowMotivation {
		s.Difficulty = DifficultyEasy
		s.HintLevel = maxI(s.HintLevel, 1)
		s.NewRatio = minF(s.NewRatio, 0.2)
	}
	if state.M < CriticalMotivation {
		s.HintLevel = 2
		s.NewRatio = minF(s.NewRatio, 0.1)
		s.BatchSize = minI(s.BatchSize, 5)
	}
	if state.A < MinAttention {
		s.NewRatio = minF(s.NewRatio, 0.15)
		s.BatchSize = minI(s.BatchSize, 6)
		s.HintLevel = maxI(s.HintLevel, 1)
	}
	switch state.T {
	case TrendDown:
		s.NewRatio = minF(s.NewRatio, 0.1)
		s.Difficulty = DifficultyEasy
		s.IntervalScale = maxF(s.IntervalScale, 0.8)
	case TrendStuck:
		s.NewRatio = minF(s.NewRatio, 0.15)
	}

	s.ShouldBreak = state.F > HighFatigue
	return s
}

// ApplyBreakSafeCaps additionally forces the break-safe caps required when
// F > CriticalFatigue, per spec.md §4.8 step 10.
func ApplyBreakSafeCaps(s Strategy) Strategy {
	s.Difficulty = DifficultyEasy
	s.HintLevel = maxI(s.HintLevel, 2)
	s.NewRatio = minF(s.NewRatio, 0.1)
	s.BatchSize = minI(s.BatchSize, 5)
	s.ShouldBreak = true
	return s
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minI(a, b int) int {
	if a < b {
		return a
	}
	return b
}
