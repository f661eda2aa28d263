// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

// Package amas implements the Adaptive Multi-Arm Strategy decision engine:
// the per-user online learning core that maps a raw behavioural event to a
// pedagogical strategy through perception, modeling, learning, decision,
// evaluation, and optimization stages.
package amas

import "time"

// FeatureVersion identifies the wire format of a persisted FeatureVector.
const FeatureVersion = "ucb-context-v1"

// BaseFeatureDim is the width of the perception-stage feature vector.
const BaseFeatureDim = 10

// ContextFeatureDim is the width of the LinUCB decision context vector.
const ContextFeatureDim = 22

// Trend classifies an ability series over a rolling window.
type Trend string

const (
	TrendUp    Trend = "up"
	TrendFlat  Trend = "flat"
	TrendStuck Trend = "stuck"
	TrendDown  Trend = "down"
)

// ColdStartPhase is the phase of the three-stage cold-start controller.
type ColdStartPhase string

const (
	PhaseClassify ColdStartPhase = "classify"
	PhaseExplore  ColdStartPhase = "explore"
	PhaseNormal   ColdStartPhase = "normal"
)

// UserType is the behavioural class assigned after the classify phase.
type UserType string

const (
	UserTypeFast     UserType = "fast"
	UserTypeStable   UserType = "stable"
	UserTypeCautious UserType = "cautious"
	UserTypeUnknown  UserType = ""
)

// Difficulty is the discrete difficulty attribute of an Action.
type Difficulty string

const (
	DifficultyEasy Difficulty = "easy"
	DifficultyMid  Difficulty = "mid"
	DifficultyHard Difficulty = "hard"
)

// difficultyScalar maps a Difficulty to the scalar used in context vectors.
func difficultyScalar(d Difficulty) float64 {
	switch d {
	case DifficultyEasy:
		return 0.2
	case DifficultyHard:
		return 0.8
	default:
		return 0.5
	}
}

// RawEvent is a single per-interaction behavioural observation as received
// from the caller, before sanitisation.
type RawEvent struct {
	WordID             string  `json:"wordId" validate:"required"`
	IsCorrect          bool    `json:"isCorrect"`
	ResponseTime       float64 `json:"responseTime" validate:"required,gte=1,lte=120000"`
	DwellTime          float64 `json:"dwellTime" validate:"gte=0,lte=120000"`
	Timestamp          int64   `json:"timestamp"`
	PauseCount         int     `json:"pauseCount" validate:"gte=0,lte=20"`
	SwitchCount        int     `json:"switchCount" validate:"gte=0,lte=20"`
	RetryCount         int     `json:"retryCount" validate:"gte=0,lte=100"`
	FocusLossDuration  float64 `json:"focusLossDuration" validate:"gte=0,lte=600000"`
	InteractionDensity float64 `json:"interactionDensity" validate:"gte=0,lte=10"`
}

// FeatureVector is a fixed-width, z-scored numeric vector emitted by the
// perception stage (BaseFeatureDim) or built as a LinUCB decision context
// (ContextFeatureDim).
type FeatureVector struct {
	Values []float64 `json:"values"`
	Labels []string  `json:"labels"`
	Ts     int64     `json:"ts"`
	// NormMethod records how Values was derived, e.g. "ucb-context".
	NormMethod string `json:"normMethod"`
	Version    string `json:"version"`
}

// CognitiveProfile holds the three sub-dimensions tracked by CognitiveProfiler.
type CognitiveProfile struct {
	Mem       float64 `json:"mem"`
	Speed     float64 `json:"speed"`
	Stability float64 `json:"stability"`
}

// UserState is the learner's current estimated cognitive/affective state.
type UserState struct {
	A    float64          `json:"a"` // attention, [0,1]
	F    float64          `json:"f"` // fatigue, [0,1]
	M    float64          `json:"m"` // motivation, [-1,1]
	C    CognitiveProfile `json:"c"`
	T    Trend            `json:"t"`
	Conf float64          `json:"conf"` // [0,1], monotone non-decreasing
	Ts   int64            `json:"ts"`
}

// Action is one element of the fixed, globally shared ACTION_SPACE.
type Action struct {
	Index         int        `json:"index"`
	IntervalScale float64    `json:"intervalScale"` // [0.5, 1.5]
	NewRatio      float64    `json:"newRatio"`      // [0.1, 0.4]
	Difficulty    Difficulty `json:"difficulty"`
	BatchSize     int        `json:"batchSize"` // [5, 16]
	HintLevel     int        `json:"hintLevel"` // {0,1,2}
}

// Strategy is the user-visible recommendation derived from an Action and
// then guardrailed.
type Strategy struct {
	IntervalScale float64    `json:"intervalScale"`
	NewRatio      float64    `json:"newRatio"`
	Difficulty    Difficulty `json:"difficulty"`
	BatchSize     int        `json:"batchSize"`
	HintLevel     int        `json:"hintLevel"`
	ShouldBreak   bool       `json:"shouldBreak"`
}

// EnsembleWeights maps each learner member to its current vote weight.
// Invariant: sum == 1 (within 1e-6), each >= MinWeight.
type EnsembleWeights struct {
	Thompson float64 `json:"thompson"`
	LinUCB   float64 `json:"linucb"`
	ACTR     float64 `json:"actr"`
	Heuristic float64 `json:"heuristic"`
}

// MinWeight is the floor enforced on every ensemble member's weight.
const MinWeight = 0.05

// DefaultEnsembleWeights returns the uniform starting weight distribution.
func DefaultEnsembleWeights() EnsembleWeights {
	return EnsembleWeights{Thompson: 0.25, LinUCB: 0.25, ACTR: 0.25, Heuristic: 0.25}
}

// ProbeResult is one recorded classify-phase probe outcome.
type ProbeResult struct {
	Action       Action  `json:"action"`
	Reward       float64 `json:"reward"`
	IsCorrect    bool    `json:"isCorrect"`
	ResponseTime float64 `json:"responseTime"`
	ErrorRate    float64 `json:"errorRate"`
}

// ColdStartState tracks the three-phase classify/explore/normal controller.
type ColdStartState struct {
	Phase           ColdStartPhase `json:"phase"`
	UserType        UserType       `json:"userType"`
	ProbeIndex      int            `json:"probeIndex"`
	Results         []ProbeResult  `json:"results"` // ring buffer, cap 20
	SettledStrategy *Action        `json:"settledStrategy,omitempty"`
	UpdateCount     uint64         `json:"updateCount"`
}

// maxColdStartResults bounds the ColdStartState.Results ring buffer.
const maxColdStartResults = 20

// RecordProbe appends a probe result, evicting the oldest on overflow.
func (c *ColdStartState) RecordProbe(r ProbeResult) {
	c.Results = append(c.Results, r)
	if len(c.Results) > maxColdStartResults {
		c.Results = c.Results[len(c.Results)-maxColdStartResults:]
	}
}

// UserParams are the per-user adapted hyperparameters.
type UserParams struct {
	Alpha              float64 `json:"alpha"`              // [0.3, 2.0]
	FatigueK           float64 `json:"fatigueK"`           // [0.02, 0.2]
	MotivationRho      float64 `json:"motivationRho"`      // [0.6, 0.95]
	OptimalDifficulty  float64 `json:"optimalDifficulty"`  // [0.2, 0.8]
}

// DefaultUserParams returns the mid-range starting hyperparameters.
func DefaultUserParams() UserParams {
	return UserParams{Alpha: 1.0, FatigueK: 0.08, MotivationRho: 0.8, OptimalDifficulty: 0.5}
}

// PerformanceTracker holds exponential moving averages used to adapt
// UserParams over time.
type PerformanceTracker struct {
	AccuracyEMA        float64 `json:"accuracyEMA"`
	FatigueSlopeEMA    float64 `json:"fatigueSlopeEMA"`
	MotivationTrendEMA float64 `json:"motivationTrendEMA"`
	RewardEMA          float64 `json:"rewardEMA"`
}

// ProcessOptions carries caller-supplied request context; unknown fields
// are ignored by design.
type ProcessOptions struct {
	CurrentParams      *UserParams       `json:"currentParams,omitempty"`
	InteractionCount    int              `json:"interactionCount,omitempty"`
	RecentAccuracy       float64         `json:"recentAccuracy,omitempty"`
	SkipUpdate            bool           `json:"skipUpdate,omitempty"`
	AnswerRecordID        string         `json:"answerRecordId,omitempty"`
	SessionID             string         `json:"sessionId,omitempty"`
	LearningObjectives    []string       `json:"learningObjectives,omitempty"`
	SessionStats          map[string]any `json:"sessionStats,omitempty"`
	WordReviewHistory     []ProbeResult  `json:"wordReviewHistory,omitempty"`
}

// ProcessResult is the response of processEvent.
type ProcessResult struct {
	Strategy               Strategy       `json:"strategy"`
	Action                 Action         `json:"action"`
	Explanation            string         `json:"explanation"`
	State                  UserState      `json:"state"`
	Reward                 float64        `json:"reward"`
	Suggestion             string         `json:"suggestion,omitempty"`
	ShouldBreak            bool           `json:"shouldBreak"`
	FeatureVector          *FeatureVector `json:"featureVector,omitempty"`
	ObjectiveEvaluation    map[string]any `json:"objectiveEvaluation,omitempty"`
	MultiObjectiveAdjusted bool           `json:"multiObjectiveAdjusted,omitempty"`
}

// nowMillis returns the current time as Unix milliseconds. Exists so call
// sites read like the wire format they stamp (ms epoch), not time.Time.
func nowMillis(t time.Time) int64 {
	return t.UnixMilli()
}
