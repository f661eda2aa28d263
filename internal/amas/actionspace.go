// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

// ActionSpace is the fixed, globally shared action set. Indices are stable
// across the lifetime of a deployment and are the preferred action key in
// traces and persisted bandit state.
var ActionSpace = buildActionSpace()

func buildActionSpace() []Action {
	actions := []Action{
		{IntervalScale: 1.0, NewRatio: 0.2, Difficulty: DifficultyMid, BatchSize: 10, HintLevel: 1},  // standard
		{IntervalScale: 1.3, NewRatio: 0.15, Difficulty: DifficultyEasy, BatchSize: 8, HintLevel: 1}, // easy/slow
		{IntervalScale: 0.8, NewRatio: 0.25, Difficulty: DifficultyMid, BatchSize: 12, HintLevel: 0}, // brisk
		{IntervalScale: 0.6, NewRatio: 0.35, Difficulty: DifficultyHard, BatchSize: 14, HintLevel: 0}, // challenge
		{IntervalScale: 1.5, NewRatio: 0.1, Difficulty: DifficultyEasy, BatchSize: 5, HintLevel: 2},  // high-load relief
		{IntervalScale: 0.5, NewRatio: 0.3, Difficulty: DifficultyHard, BatchSize: 16, HintLevel: 0}, // short-interval drill
		{IntervalScale: 1.1, NewRatio: 0.2, Difficulty: DifficultyMid, BatchSize: 10, HintLevel: 0},  // steady
		{IntervalScale: 0.9, NewRatio: 0.2, Difficulty: DifficultyEasy, BatchSize: 10, HintLevel: 1}, // gentle
	}
	for i := range actions {
		actions[i].Index = i
	}
	return actions
}

// probeSequence is the classify-phase sequence of probe actions, named per
// spec.md §4.5: easy, standard, challenge, high-load, short-interval.
func probeSequence() []Action {
	return []Action{
		ActionSpace[1], // easy
		ActionSpace[0], // standard
		ActionSpace[3], // challenge
		ActionSpace[4], // high-load
		ActionSpace[5], // short-interval
	}
}

// settledStrategyFor returns the per-type settled strategy assigned once
// classification completes.
func settledStrategyFor(t UserType) Action {
	switch t {
	case UserTypeFast:
		return ActionSpace[3] // challenge: difficulty=hard, new_ratio=0.35
	case UserTypeCautious:
		return ActionSpace[1] // easy/slow
	default: // stable
		return ActionSpace[0] // standard
	}
}

// actionDistance computes the weighted distance used by the explore phase
// to find the action closest to the settled strategy (spec.md §4.5).
func actionDistance(a, target Action) float64 {
	d := absF(a.IntervalScale - target.IntervalScale)
	d += 5 * absF(a.NewRatio-target.NewRatio)
	if a.Difficulty != target.Difficulty {
		d += 1
	}
	d += absF(float64(a.BatchSize-target.BatchSize)) / 16
	d += absF(float64(a.HintLevel-target.HintLevel)) / 2
	return d
}

func nearestAction(target Action) Action {
	best := ActionSpace[0]
	bestDist := actionDistance(best, target)
	for _, a := range ActionSpace[1:] {
		if d := actionDistance(a, target); d < bestDist {
			best, bestDist = a, d
		}
	}
	return best
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
