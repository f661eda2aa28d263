// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

// Package algorithms implements the learners composed by the AMAS ensemble:
// LinUCB (contextual bandit), a Thompson-sampling baseline, an ACT-R-style
// memory-decay scorer, and a deterministic rule-based heuristic. Each
// implements the Learner trait so the ensemble can hold them as a static
// composition rather than dispatching on type.
package algorithms

import (
	"sync"
	"time"
)

// Context is the decision-time context a Learner scores actions against.
// It intentionally exposes only the fields learners need, independent of
// the caller's richer UserState/ProcessOptions types.
type Context struct {
	State           StateView
	Action          ActionView
	RecentErrorRate float64
	RTNorm          float64
	TimestampMillis int64
}

// StateView is the subset of UserState a learner needs.
type StateView struct {
	A, F, M           float64
	Mem, Speed, Stability float64
}

// ActionView is the subset of Action a learner scores or emits.
type ActionView struct {
	Index         int
	IntervalScale float64
	NewRatio      float64
	DifficultyNum float64 // 0.2/0.5/0.8
	BatchSize     int
	HintLevel     int
}

// Selection is the outcome of a learner's action selection.
type Selection struct {
	ActionIndex int
	Score       float64
	Confidence  float64
	Meta        map[string]any
}

// BaseAlgorithm provides the common trained/version bookkeeping shared by
// every Learner, guarded by one RWMutex: training paths take it
// exclusively, prediction paths share it.
type BaseAlgorithm struct {
	name          string
	trained       bool
	version       int
	lastTrainedAt time.Time
	mu            sync.RWMutex
}

// NewBaseAlgorithm creates a base with the given name.
func NewBaseAlgorithm(name string) BaseAlgorithm {
	return BaseAlgorithm{name: name}
}

// Name returns the learner identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// IsTrained reports whether the learner has observed at least one update.
func (b *BaseAlgorithm) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// Version returns the learner's update-count-derived version.
func (b *BaseAlgorithm) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// LastTrainedAt returns when the learner last observed an update.
func (b *BaseAlgorithm) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

func (b *BaseAlgorithm) markTrained() {
	b.trained = true
	b.version++
	b.lastTrainedAt = time.Now()
}

func (b *BaseAlgorithm) acquireUpdateLock()  { b.mu.Lock() }
func (b *BaseAlgorithm) releaseUpdateLock()  { b.mu.Unlock() }
func (b *BaseAlgorithm) acquireSelectLock()  { b.mu.RLock() }
func (b *BaseAlgorithm) releaseSelectLock()  { b.mu.RUnlock() }
