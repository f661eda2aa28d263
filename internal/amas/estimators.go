// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

import "math"

// attentionWeights is the 8-dim weight vector applied to the base feature
// vector's first 8 components by AttentionMonitor.
var attentionWeights = []float64{0.3, 0.2, 0.15, 0.2, 0.15, 0.1, 0.2, 0.25}

const attentionBeta = 0.7

// AttentionMonitor updates UserState.A from the perception feature vector.
// A_t = beta*A_{t-1} + (1-beta)*sigmoid(-w.f); result clamped to [0,1]. The
// dot product runs over the first len(attentionWeights) positional
// features; if the feature vector is narrower than that, the previous A is
// returned unchanged.
func AttentionMonitor(prevA float64, f FeatureVector) float64 {
	if len(f.Values) < len(attentionWeights) {
		return prevA
	}
	dot := 0.0
	for i, w := range attentionWeights {
		dot += w * f.Values[i]
	}
	a := attentionBeta*prevA + (1-attentionBeta)*sigmoid(-dot)
	return clamp(a, 0, 1)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// FatigueEstimator produces F in [0,1] from error-rate trend, RT-increase
// rate, and repeat errors, smoothed via EMA with per-user recovery rate k.
func FatigueEstimator(prevF float64, f FeatureVector, isCorrect bool, fatigueK float64) float64 {
	if len(f.Values) < 9 {
		return prevF
	}
	errorSignal := 0.0
	if !isCorrect {
		errorSignal = 1.0
	}
	rtPressure := clamp(f.Values[0], -3, 3) / 3 // z_rt_mean, normalized to roughly [-1,1]
	retrySignal := f.Values[8]                  // retry_norm in [0,1]

	target := clamp(0.5*errorSignal+0.3*math.Max(0, rtPressure)+0.2*retrySignal, 0, 1)
	k := fatigueK
	if k <= 0 {
		k = 0.08
	}
	// EMA toward the instantaneous target; recovery (decay toward 0) happens
	// naturally when target < prevF, modulated by k.
	f0 := prevF + k*(target-prevF)
	return clamp(f0, 0, 1)
}

// CognitiveProfiler maintains mem/speed/stability in [0,1] via
// Bayesian-style updates using accuracy, average RT, and error variance
// p(1-p).
func CognitiveProfiler(prev CognitiveProfile, f FeatureVector, isCorrect bool) CognitiveProfile {
	if len(f.Values) < 10 {
		return prev
	}
	const rate = 0.1

	accSignal := 0.0
	if isCorrect {
		accSignal = 1.0
	}
	mem := clamp(prev.Mem+rate*(accSignal-prev.Mem), 0, 1)

	// Faster (lower z_rt_mean) raises speed; invert and squash.
	speedTarget := sigmoid(-f.Values[0])
	speed := clamp(prev.Speed+rate*(speedTarget-prev.Speed), 0, 1)

	p := mem
	variance := p * (1 - p) // max 0.25 at p=0.5
	stabilityTarget := clamp(1-4*variance, 0, 1)
	stability := clamp(prev.Stability+rate*(stabilityTarget-prev.Stability), 0, 1)

	return CognitiveProfile{Mem: mem, Speed: speed, Stability: stability}
}

// MotivationTracker updates M in [-1,1] using success/failure/quit counts
// from the feature vector, with memory coefficient motivationRho.
func MotivationTracker(prevM float64, isCorrect bool, retryCount int, rho float64) float64 {
	if rho <= 0 || rho >= 1 {
		rho = 0.8
	}
	signal := 1.0
	if !isCorrect {
		signal = -1.0
	}
	if retryCount > 2 {
		signal -= 0.3
	}
	m := rho*prevM + (1-rho)*signal
	return clamp(m, -1, 1)
}

// abilitySeries combines mem and stability into a single scalar used by
// TrendAnalyzer, per spec.md §4.2.
func abilitySeries(c CognitiveProfile) float64 {
	return 0.7*c.Mem + 0.3*c.Stability
}

// TrendAnalyzer classifies the ability series into {up,flat,stuck,down} by
// comparing the mean of a recent window against an earlier one.
func TrendAnalyzer(recent, earlier []float64) Trend {
	if len(recent) == 0 || len(earlier) == 0 {
		return TrendFlat
	}
	recentMean, _ := meanStd(recent)
	earlierMean, _ := meanStd(earlier)
	if math.Abs(earlierMean) < 1e-9 {
		return TrendFlat
	}
	delta := (recentMean - earlierMean) / math.Abs(earlierMean)
	switch {
	case delta >= 0.10:
		return TrendUp
	case delta <= -0.10:
		return TrendDown
	case math.Abs(delta) <= 0.05:
		return TrendFlat
	default:
		return TrendStuck
	}
}

// UpdateState runs all five estimators against the current state and
// perception feature vector, returning the new UserState. UserState.Conf
// advances monotonically by 0.01 per update, capped at 1.
func UpdateState(prev UserState, f FeatureVector, e RawEvent, params UserParams, abilityHistory []float64) UserState {
	next := UserState{}
	next.A = AttentionMonitor(prev.A, f)
	next.F = FatigueEstimator(prev.F, f, e.IsCorrect, params.FatigueK)
	next.C = CognitiveProfiler(prev.C, f, e.IsCorrect)
	next.M = MotivationTracker(prev.M, e.IsCorrect, e.RetryCount, params.MotivationRho)

	split := len(abilityHistory) / 2
	if split == 0 {
		next.T = TrendFlat
	} else {
		next.T = TrendAnalyzer(abilityHistory[split:], abilityHistory[:split])
	}

	next.Conf = clamp(prev.Conf+0.01, 0, 1)
	next.Ts = e.Timestamp

	for _, v := range []float64{next.A, next.F, next.M, next.C.Mem, next.C.Speed, next.C.Stability, next.Conf} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return prev
		}
	}
	return next
}
