// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

// RewardProfile weights the components of the blended reward signal,
// spec.md §4.7.
type RewardProfile struct {
	WCorrect     float64
	WFatigue     float64
	WSpeed       float64
	WFrustration float64
	WEngagement  float64
	ReferenceRT  float64
}

// DefaultRewardProfile matches the unweighted blend implied by spec.md's
// formula (all coefficients 1, REF_RT 2000ms).
func DefaultRewardProfile() RewardProfile {
	return RewardProfile{WCorrect: 1, WFatigue: 1, WSpeed: 1, WFrustration: 1, WEngagement: 1, ReferenceRT: 2000}
}

// ComputeReward blends correctness, fatigue, speed, frustration and
// engagement into a single reward in [-1,1].
func ComputeReward(profile RewardProfile, e RawEvent, state UserState, dwellScore, interactionScore float64) float64 {
	correctValue := -1.0
	if e.IsCorrect {
		correctValue = 1.0
	}

	rt := e.ResponseTime
	if rt < 1000 {
		rt = 1000
	}
	speedGain := clamp(profile.ReferenceRT/rt-1, -1, 1)

	frustration := 0.0
	if e.RetryCount > 1 || state.M < 0 {
		frustration = 1.0
	}

	engagement := (dwellScore + interactionScore) / 2

	raw := profile.WCorrect*correctValue -
		profile.WFatigue*state.F +
		profile.WSpeed*speedGain -
		profile.WFrustration*frustration +
		profile.WEngagement*engagement

	return clamp(raw/2, -1, 1)
}

// DwellScore and InteractionScore translate raw event fields into
// engagement sub-signals in [0,1], used as ComputeReward inputs.
func DwellScore(dwellTime float64) float64 {
	return clamp01(dwellTime / 20000)
}

func InteractionScore(density float64) float64 {
	return clamp01(density / 10)
}
