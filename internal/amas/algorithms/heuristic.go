// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package algorithms

// Heuristic is a deterministic rule-based scorer used as a fallback and as
// a stabilizing ensemble member. It never fails, so it is always a valid
// fallback-of-last-resort per spec.md §4.4.
type Heuristic struct {
	BaseAlgorithm
}

// NewHeuristic constructs the rule-based learner.
func NewHeuristic() *Heuristic {
	return &Heuristic{BaseAlgorithm: NewBaseAlgorithm("heuristic")}
}

// SelectAction scores each candidate by how well its attributes match the
// current state: low fatigue/high attention favor harder, larger batches;
// high fatigue/low motivation favor easier, smaller, more-hinted ones.
func (h *Heuristic) SelectAction(s StateView, candidates []ActionView) Selection {
	// Exclusive, not RLock: this call also marks the learner trained.
	h.acquireUpdateLock()
	defer h.releaseUpdateLock()

	bestIdx := 0
	bestScore := -1e18
	for i, a := range candidates {
		score := 0.0
		score += s.A * a.DifficultyNum
		score -= s.F * a.DifficultyNum
		score += (s.M + 1) / 2 * float64(a.BatchSize) / 16
		score += s.F * float64(a.HintLevel) / 2 // higher fatigue slightly favors more hints
		score += s.Mem * a.DifficultyNum
		if score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	h.markTrained()
	conf := 0.5 // deterministic rule, fixed moderate confidence
	return Selection{ActionIndex: bestIdx, Score: bestScore, Confidence: conf}
}

// Update records training-state bookkeeping; the heuristic's rules are
// fixed and do not adapt from observed rewards.
func (h *Heuristic) Update() {
	h.acquireUpdateLock()
	defer h.releaseUpdateLock()
	h.markTrained()
}
