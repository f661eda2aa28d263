// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

// userParamsEMA is the smoothing coefficient applied to each PerformanceTracker field.
const userParamsEMA = 0.1

// UpdateUserParams folds one interaction's outcome into tracker's EMAs and
// re-derives params from them, per spec.md §3's PerUserParams: alpha,
// fatigueK and motivationRho drift opposite the learner's recent accuracy
// and fatigue/motivation trend; optimalDifficulty tracks the difficulty
// scalar of the executed action. All outputs stay within the bounded
// ranges spec.md §3 declares for UserParams.
func UpdateUserParams(tracker PerformanceTracker, params UserParams, isCorrect bool, state UserState, reward float64, executedDifficulty float64) (UserParams, PerformanceTracker) {
	accSignal := 0.0
	if isCorrect {
		accSignal = 1.0
	}
	tracker.AccuracyEMA += userParamsEMA * (accSignal - tracker.AccuracyEMA)
	tracker.FatigueSlopeEMA += userParamsEMA * (state.F - tracker.FatigueSlopeEMA)
	tracker.MotivationTrendEMA += userParamsEMA * (state.M - tracker.MotivationTrendEMA)
	tracker.RewardEMA += userParamsEMA * (reward - tracker.RewardEMA)

	// A confidently accurate, low-fatigue learner needs less exploration;
	// a struggling one needs more.
	alpha := 1.2 - 0.8*tracker.AccuracyEMA + 0.6*tracker.FatigueSlopeEMA
	params.Alpha = clamp(alpha, 0.3, 2.0)

	// Faster recovery (higher fatigueK) for learners whose fatigue trend
	// is already easing off.
	fatigueK := 0.08 + 0.12*(0.5-tracker.FatigueSlopeEMA)
	params.FatigueK = clamp(fatigueK, 0.02, 0.2)

	// Higher motivation memory (stickier M) for learners trending positive.
	rho := 0.8 + 0.15*tracker.MotivationTrendEMA
	params.MotivationRho = clamp(rho, 0.6, 0.95)

	optimal := params.OptimalDifficulty + userParamsEMA*(executedDifficulty-params.OptimalDifficulty)
	params.OptimalDifficulty = clamp(optimal, 0.2, 0.8)

	return params, tracker
}
