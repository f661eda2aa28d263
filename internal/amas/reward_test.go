// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

import "testing"

func TestComputeReward_CorrectFastLowFatigueBeatsIncorrectSlowHighFatigue(t *testing.T) {
	profile := DefaultRewardProfile()
	good := ComputeReward(profile, RawEvent{IsCorrect: true, ResponseTime: 1000}, UserState{F: 0}, 1, 1)
	bad := ComputeReward(profile, RawEvent{IsCorrect: false, ResponseTime: 10000, RetryCount: 3}, UserState{F: 0.9}, 0, 0)
	if good <= bad {
		t.Errorf("good reward %v should exceed bad reward %v", good, bad)
	}
}

func TestComputeReward_BoundedToUnitRange(t *testing.T) {
	profile := DefaultRewardProfile()
	r := ComputeReward(profile, RawEvent{IsCorrect: true, ResponseTime: 1}, UserState{F: -10}, 1, 1)
	if r < -1 || r > 1 {
		t.Errorf("ComputeReward() = %v, want in [-1,1]", r)
	}
}

func TestComputeReward_HighRetryCountTriggersFrustrationPenalty(t *testing.T) {
	profile := DefaultRewardProfile()
	noRetry := ComputeReward(profile, RawEvent{IsCorrect: true, ResponseTime: 1000, RetryCount: 0}, UserState{}, 0.5, 0.5)
	withRetry := ComputeReward(profile, RawEvent{IsCorrect: true, ResponseTime: 1000, RetryCount: 5}, UserState{}, 0.5, 0.5)
	if withRetry >= noRetry {
		t.Errorf("retry-heavy reward %v should be penalized below no-retry reward %v", withRetry, noRetry)
	}
}

func TestComputeReward_ResponseTimeFloorsAt1000ms(t *testing.T) {
	profile := DefaultRewardProfile()
	atFloor := ComputeReward(profile, RawEvent{IsCorrect: true, ResponseTime: 1000}, UserState{}, 0.5, 0.5)
	belowFloor := ComputeReward(profile, RawEvent{IsCorrect: true, ResponseTime: 1}, UserState{}, 0.5, 0.5)
	if atFloor != belowFloor {
		t.Errorf("ResponseTime below the 1000ms floor should clamp identically: atFloor=%v belowFloor=%v", atFloor, belowFloor)
	}
}

func TestDwellScore(t *testing.T) {
	tests := []struct {
		dwell float64
		want  float64
	}{
		{0, 0},
		{20000, 1},
		{40000, 1}, // clamped
	}
	for _, tt := range tests {
		if got := DwellScore(tt.dwell); got != tt.want {
			t.Errorf("DwellScore(%v) = %v, want %v", tt.dwell, got, tt.want)
		}
	}
}

func TestInteractionScore(t *testing.T) {
	tests := []struct {
		density float64
		want    float64
	}{
		{0, 0},
		{10, 1},
		{20, 1}, // clamped
	}
	for _, tt := range tests {
		if got := InteractionScore(tt.density); got != tt.want {
			t.Errorf("InteractionScore(%v) = %v, want %v", tt.density, got, tt.want)
		}
	}
}
