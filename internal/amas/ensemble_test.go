// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

import (
	"math"
	"testing"
)

func TestVoteEnsemble_SingleStrongMemberWins(t *testing.T) {
	weights := DefaultEnsembleWeights()
	votes := []memberVote{
		{name: "linucb", ok: true, actionIdx: 2, score: 3, confidence: 0.9},
		{name: "thompson", ok: true, actionIdx: 5, score: -3, confidence: 0.1},
	}
	got := VoteEnsemble(weights, votes)
	if got.ActionIndex != 2 {
		t.Errorf("ActionIndex = %d, want 2 (linucb's high-score, high-confidence pick)", got.ActionIndex)
	}
	if got.Winner != "linucb" {
		t.Errorf("Winner = %q, want linucb", got.Winner)
	}
}

func TestVoteEnsemble_NoParticipantsFallsBackToPriorityOrder(t *testing.T) {
	weights := DefaultEnsembleWeights()
	votes := []memberVote{
		{name: "heuristic", ok: false, actionIdx: 1},
		{name: "thompson", ok: false, actionIdx: 2},
	}
	got := VoteEnsemble(weights, votes)
	// Neither participated (ok=false), so VoteEnsemble should defer to
	// fallbackEnsemble's priority order; since linucb/actr are absent from
	// votes, the next in priority (thompson) is picked.
	if got.Winner != "thompson" {
		t.Errorf("Winner = %q, want thompson (priority fallback among present-but-disqualified members)", got.Winner)
	}
}

func TestFallbackEnsemble_PriorityOrder(t *testing.T) {
	votes := []memberVote{
		{name: "heuristic", actionIdx: 1, confidence: 0.5},
		{name: "actr", actionIdx: 2, confidence: 0.5},
	}
	got := fallbackEnsemble(votes)
	if got.Winner != "actr" {
		t.Errorf("Winner = %q, want actr (higher priority than heuristic)", got.Winner)
	}
}

func TestFallbackEnsemble_EmptyVotesReturnsZeroValue(t *testing.T) {
	got := fallbackEnsemble(nil)
	if got.ActionIndex != 0 || got.Confidence != 0 || got.Winner != "" {
		t.Errorf("fallbackEnsemble(nil) = %+v, want zero value", got)
	}
}

func TestUpdateEnsembleWeights_IgnoresNonFiniteReward(t *testing.T) {
	weights := DefaultEnsembleWeights()
	votes := []memberVote{{name: "linucb", ok: true, actionIdx: 0, confidence: 0.5}}
	got := UpdateEnsembleWeights(weights, votes, 0, math.NaN())
	if got != weights {
		t.Errorf("UpdateEnsembleWeights() = %+v, want unchanged %+v on NaN reward", got, weights)
	}
}

func TestUpdateEnsembleWeights_RewardsWinningMemberOnPositiveReward(t *testing.T) {
	weights := DefaultEnsembleWeights()
	votes := []memberVote{
		{name: "linucb", ok: true, actionIdx: 0, confidence: 0.8},
		{name: "thompson", ok: true, actionIdx: 1, confidence: 0.8},
		{name: "actr", ok: true, actionIdx: 1, confidence: 0.8},
		{name: "heuristic", ok: true, actionIdx: 1, confidence: 0.8},
	}
	got := UpdateEnsembleWeights(weights, votes, 0, 1.0)
	if got.LinUCB <= weights.LinUCB {
		t.Errorf("LinUCB weight = %v, want increased from %v after its action was executed with positive reward", got.LinUCB, weights.LinUCB)
	}
}

func TestUpdateEnsembleWeights_WeightsStaySumToOneAndAboveFloor(t *testing.T) {
	weights := DefaultEnsembleWeights()
	votes := []memberVote{
		{name: "linucb", ok: true, actionIdx: 0, confidence: 1.0},
		{name: "thompson", ok: false},
		{name: "actr", ok: true, actionIdx: 3, confidence: 0.2},
		{name: "heuristic", ok: true, actionIdx: 4, confidence: 0.2},
	}
	got := weights
	for i := 0; i < 20; i++ {
		got = UpdateEnsembleWeights(got, votes, 0, 1.0)
	}
	sum := got.LinUCB + got.Thompson + got.ACTR + got.Heuristic
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("sum of weights = %v, want 1", sum)
	}
	for name, w := range map[string]float64{"linucb": got.LinUCB, "thompson": got.Thompson, "actr": got.ACTR, "heuristic": got.Heuristic} {
		if w < MinWeight-1e-9 {
			t.Errorf("%s weight = %v, want >= MinWeight %v", name, w, MinWeight)
		}
	}
}

func TestUpdateEnsembleWeights_AllAbsentResetsToDefault(t *testing.T) {
	weights := EnsembleWeights{LinUCB: 0.7, Thompson: 0.1, ACTR: 0.1, Heuristic: 0.1}
	got := UpdateEnsembleWeights(weights, nil, 0, 1.0)
	if got != DefaultEnsembleWeights() {
		t.Errorf("UpdateEnsembleWeights() = %+v, want default weights when no member participated", got)
	}
}
