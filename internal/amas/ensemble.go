// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

import "math"

const ensembleLearningRate = 0.25

// memberVote is one ensemble member's selection, tagged with whether it
// participated (false for a member that errored or was disabled).
type memberVote struct {
	name       string
	ok         bool
	actionIdx  int
	score      float64
	confidence float64
}

// EnsembleResult is the outcome of a weighted vote across learners.
type EnsembleResult struct {
	ActionIndex int
	Confidence  float64
	Winner      string
}

// VoteEnsemble aggregates member votes using the current weights,
// implementing spec.md §4.4's aggregation rule: effective weight is
// renormalised over participating members; each member's contribution is
// weight * tanh(score/2) * (0.5 + conf/2); the action with the greatest
// total contribution wins.
func VoteEnsemble(weights EnsembleWeights, votes []memberVote) EnsembleResult {
	participating := 0.0
	weightOf := func(name string) float64 {
		switch name {
		case "linucb":
			return weights.LinUCB
		case "thompson":
			return weights.Thompson
		case "actr":
			return weights.ACTR
		case "heuristic":
			return weights.Heuristic
		default:
			return 0
		}
	}
	for _, v := range votes {
		if v.ok {
			participating += weightOf(v.name)
		}
	}
	if participating < 1e-9 {
		return fallbackEnsemble(votes)
	}

	contributions := make(map[int]float64)
	confSums := make(map[int]float64)
	confCounts := make(map[int]int)
	order := make([]int, 0, len(votes))

	for _, v := range votes {
		if !v.ok {
			continue
		}
		w := weightOf(v.name) / participating
		contribution := w * math.Tanh(v.score/2) * (0.5 + v.confidence/2)
		if _, seen := contributions[v.actionIdx]; !seen {
			order = append(order, v.actionIdx)
		}
		contributions[v.actionIdx] += contribution
		confSums[v.actionIdx] += v.confidence
		confCounts[v.actionIdx]++
	}

	bestIdx := order[0]
	bestContribution := contributions[bestIdx]
	for _, idx := range order[1:] {
		if contributions[idx] > bestContribution {
			bestIdx, bestContribution = idx, contributions[idx]
		}
	}

	winner := ""
	for _, v := range votes {
		if v.ok && v.actionIdx == bestIdx {
			winner = v.name
			break
		}
	}

	conf := 0.0
	if n := confCounts[bestIdx]; n > 0 {
		conf = confSums[bestIdx] / float64(n)
	}
	return EnsembleResult{ActionIndex: bestIdx, Confidence: clamp01(conf), Winner: winner}
}

// fallbackEnsemble is used when no member participated: fall back to
// LinUCB's action if present, else Thompson, else ACTR, else Heuristic.
func fallbackEnsemble(votes []memberVote) EnsembleResult {
	priority := []string{"linucb", "thompson", "actr", "heuristic"}
	byName := make(map[string]memberVote, len(votes))
	for _, v := range votes {
		byName[v.name] = v
	}
	for _, name := range priority {
		if v, ok := byName[name]; ok {
			return EnsembleResult{ActionIndex: v.actionIdx, Confidence: v.confidence, Winner: name}
		}
	}
	return EnsembleResult{ActionIndex: 0, Confidence: 0, Winner: ""}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// UpdateEnsembleWeights applies the exponential multiplicative weight
// update after observing reward r on the executed action, per spec.md
// §4.4. Absent members decay toward MinWeight; all weights are
// renormalised and floored afterward.
func UpdateEnsembleWeights(weights EnsembleWeights, votes []memberVote, executedAction int, reward float64) EnsembleWeights {
	if math.IsNaN(reward) || math.IsInf(reward, 0) {
		return weights
	}

	participating := 0.0
	weightOf := func(name string) float64 {
		switch name {
		case "linucb":
			return weights.LinUCB
		case "thompson":
			return weights.Thompson
		case "actr":
			return weights.ACTR
		case "heuristic":
			return weights.Heuristic
		default:
			return 0
		}
	}
	byName := make(map[string]memberVote, len(votes))
	for _, v := range votes {
		byName[v.name] = v
		if v.ok {
			participating += weightOf(v.name)
		}
	}
	if participating < 1e-9 {
		return DefaultEnsembleWeights()
	}

	next := weights
	updateOne := func(name string, current float64) float64 {
		v, present := byName[name]
		if !present || !v.ok {
			return math.Max(MinWeight, 0.95*current)
		}
		g := -0.5
		if v.actionIdx == executedAction {
			g = 1.0
		}
		normalizedWeight := current / participating
		grad := reward * g * (0.5 + v.confidence/2)
		updated := current * math.Exp(ensembleLearningRate*grad*normalizedWeight)
		if !isFiniteF(updated) {
			return current
		}
		return updated
	}

	next.LinUCB = updateOne("linucb", weights.LinUCB)
	next.Thompson = updateOne("thompson", weights.Thompson)
	next.ACTR = updateOne("actr", weights.ACTR)
	next.Heuristic = updateOne("heuristic", weights.Heuristic)

	return renormalize(next)
}

// renormalize scales weights to sum to 1, then lifts any member below
// MinWeight to the floor and rescales the rest proportionally.
func renormalize(w EnsembleWeights) EnsembleWeights {
	sum := w.LinUCB + w.Thompson + w.ACTR + w.Heuristic
	if sum < 1e-9 || !isFiniteF(sum) {
		return DefaultEnsembleWeights()
	}
	w.LinUCB /= sum
	w.Thompson /= sum
	w.ACTR /= sum
	w.Heuristic /= sum

	for iter := 0; iter < 4; iter++ {
		deficit := 0.0
		above := 0.0
		names := []*float64{&w.LinUCB, &w.Thompson, &w.ACTR, &w.Heuristic}
		for _, p := range names {
			if *p < MinWeight {
				deficit += MinWeight - *p
				*p = MinWeight
			} else {
				above += *p
			}
		}
		if deficit < 1e-12 {
			break
		}
		if above < 1e-9 {
			return DefaultEnsembleWeights()
		}
		for _, p := range names {
			if *p > MinWeight {
				*p -= deficit * (*p / above)
			}
		}
	}
	return w
}

func isFiniteF(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
