// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

const (
	ClassifyThreshold = 15
	ExploreThreshold  = 50
)

// ColdStartSelection is the outcome of the cold-start controller's action
// selection, alongside its progress/confidence scalars (spec.md §4.5).
type ColdStartSelection struct {
	Action     Action
	Progress   float64 // [0,1]
	Confidence float64
}

// NextColdStartAction advances cs in place and returns the action to run.
// Call sites are expected to hold the owning user's lock.
func NextColdStartAction(cs *ColdStartState) ColdStartSelection {
	switch cs.Phase {
	case PhaseClassify:
		return classifyPhaseAction(cs)
	case PhaseExplore:
		return explorePhaseAction(cs)
	default:
		return ColdStartSelection{Progress: 1, Confidence: 1}
	}
}

func classifyPhaseAction(cs *ColdStartState) ColdStartSelection {
	probes := probeSequence()
	idx := cs.ProbeIndex
	if idx >= len(probes) {
		idx = len(probes) - 1
	}
	progress := float64(cs.ProbeIndex) / float64(len(probes))
	return ColdStartSelection{Action: probes[idx], Progress: clamp(progress, 0, 1), Confidence: 0.2}
}

func explorePhaseAction(cs *ColdStartState) ColdStartSelection {
	target := ActionSpace[0]
	if cs.SettledStrategy != nil {
		target = *cs.SettledStrategy
	}
	action := nearestAction(target)
	progress := clamp(float64(cs.UpdateCount)/float64(ExploreThreshold), 0, 1)
	return ColdStartSelection{Action: action, Progress: progress, Confidence: 0.4 + 0.3*progress}
}

// RecordColdStartOutcome folds one probe/explore outcome into cs,
// advancing phase transitions per spec.md §4.5. The recorded ErrorRate is
// 1 for an incorrect answer and 0 for a correct one; classify averages it
// over the last five probes.
func RecordColdStartOutcome(cs *ColdStartState, action Action, reward float64, isCorrect bool, responseTime float64) {
	errorRate := 0.0
	if !isCorrect {
		errorRate = 1.0
	}
	cs.RecordProbe(ProbeResult{Action: action, Reward: reward, IsCorrect: isCorrect, ResponseTime: responseTime, ErrorRate: errorRate})
	cs.UpdateCount++

	switch cs.Phase {
	case PhaseClassify:
		cs.ProbeIndex++
		if cs.ProbeIndex >= 5 {
			classify(cs)
			cs.Phase = PhaseExplore
		}
	case PhaseExplore:
		if cs.UpdateCount >= ExploreThreshold && cs.ProbeIndex >= 5 && cs.SettledStrategy != nil {
			cs.Phase = PhaseNormal
		}
	}
}

// classify computes (accuracy, avgRT, avgErrorRate) over the last 5 probe
// results and assigns UserType + SettledStrategy per spec.md §4.5.
func classify(cs *ColdStartState) {
	n := len(cs.Results)
	if n == 0 {
		return
	}
	start := n - 5
	if start < 0 {
		start = 0
	}
	recent := cs.Results[start:]

	var correct, rtSum, errSum float64
	for _, r := range recent {
		if r.IsCorrect {
			correct++
		}
		rtSum += r.ResponseTime
		errSum += r.ErrorRate
	}
	count := float64(len(recent))
	accuracy := correct / count
	avgRT := rtSum / count
	avgErrorRate := errSum / count

	var userType UserType
	switch {
	case accuracy >= 0.8 && avgRT <= 1500 && avgErrorRate <= 0.2:
		userType = UserTypeFast
	case accuracy >= 0.6 && avgRT <= 3000 && avgErrorRate <= 0.35:
		userType = UserTypeStable
	default:
		userType = UserTypeCautious
	}

	cs.UserType = userType
	settled := settledStrategyFor(userType)
	cs.SettledStrategy = &settled
}
