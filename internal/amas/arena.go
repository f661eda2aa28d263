// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/amas-engine/internal/amas/algorithms"
	"github.com/tomtom215/amas-engine/internal/cache"
	"github.com/tomtom215/amas-engine/internal/metrics"
)

// ErrLockTimeout is returned when a per-user lock could not be acquired
// within the configured timeout.
var ErrLockTimeout = errors.New("amas: per-user lock acquisition timed out")

// DefaultMaxUsers bounds the number of distinct users held resident.
const DefaultMaxUsers = 10000

// DefaultUserTTL expires an idle user's bundle after this long.
const DefaultUserTTL = 7 * 24 * time.Hour

// DefaultLockTimeout is the hard cap on a single per-user lock wait.
const DefaultLockTimeout = 30 * time.Second

// PerUserModels is the composite per-user state: five estimators fold into
// UserState directly; the decision model, its extension learners, the
// ensemble weights, and cold-start/param bookkeeping are held here.
type PerUserModels struct {
	State       UserState
	Params      UserParams
	Tracker     PerformanceTracker
	ColdStart   ColdStartState
	Weights     EnsembleWeights
	LinUCB      *algorithms.LinUCB
	Thompson    *algorithms.ThompsonSampler
	ACTR        *algorithms.ACTRMemory
	Heuristic   *algorithms.Heuristic
	LastSeen    time.Time

	// Hydrated reports whether this process has already loaded userID's
	// state/model from the repositories (load happens at most once per
	// resident bundle, per spec.md §4.8 step 5).
	Hydrated bool

	// AbilityHistory is a bounded recent history of abilitySeries(C),
	// fed to TrendAnalyzer as the recent/earlier window split.
	AbilityHistory []float64

	// InteractionCount is the total number of non-skipped updates folded
	// into this bundle, used by LinUCB's exploration-alpha schedule.
	InteractionCount int
}

// maxAbilityHistory bounds PerUserModels.AbilityHistory.
const maxAbilityHistory = 20

// pushAbility appends the current ability scalar, evicting the oldest on
// overflow.
func (p *PerUserModels) pushAbility(v float64) {
	p.AbilityHistory = append(p.AbilityHistory, v)
	if len(p.AbilityHistory) > maxAbilityHistory {
		p.AbilityHistory = p.AbilityHistory[len(p.AbilityHistory)-maxAbilityHistory:]
	}
}

// newPerUserModels returns a freshly initialized bundle, the "created
// lazily on first use" path of spec.md §3.
func newPerUserModels() *PerUserModels {
	return &PerUserModels{
		Params:    DefaultUserParams(),
		Weights:   DefaultEnsembleWeights(),
		ColdStart: ColdStartState{Phase: PhaseClassify},
		LinUCB:    algorithms.NewLinUCB(algorithms.ContextDim, 1e-3),
		Thompson:  algorithms.NewThompsonSampler(len(ActionSpace), time.Now().UnixNano()),
		ACTR:      algorithms.NewACTRMemory(),
		Heuristic: algorithms.NewHeuristic(),
		LastSeen:  time.Now(),
	}
}

// IsolationManager owns the per-user model arena and enforces single-
// writer access per user via promise-chaining-style serialisation,
// implemented here as a per-user mutex held in a concurrent map with a
// reaper (spec.md §5, §9 "per-user locking via promise chaining").
type IsolationManager struct {
	bundles *cache.LRUCache[*PerUserModels]

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	lockTimeout time.Duration
}

// NewIsolationManager constructs an arena bounded at maxUsers entries,
// each expiring after userTTL of inactivity.
func NewIsolationManager(maxUsers int, userTTL, lockTimeout time.Duration) *IsolationManager {
	if maxUsers <= 0 {
		maxUsers = DefaultMaxUsers
	}
	if userTTL <= 0 {
		userTTL = DefaultUserTTL
	}
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	im := &IsolationManager{
		bundles:     cache.NewLRUCache[*PerUserModels](maxUsers, userTTL),
		locks:       make(map[string]*sync.Mutex),
		lockTimeout: lockTimeout,
	}
	im.bundles.OnEvict(func(userID string, _ *PerUserModels) {
		metrics.RecordUserEviction("lru")
		im.locksMu.Lock()
		delete(im.locks, userID)
		im.locksMu.Unlock()
	})
	return im
}

func (im *IsolationManager) lockFor(userID string) *sync.Mutex {
	im.locksMu.Lock()
	defer im.locksMu.Unlock()
	l, ok := im.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		im.locks[userID] = l
	}
	return l
}

// WithUser acquires userID's exclusive lock (bounded by the arena's lock
// timeout and ctx), then runs fn with that user's bundle. The bundle is
// created lazily on first use. Returns ErrLockTimeout if the lock could
// not be acquired in time.
func (im *IsolationManager) WithUser(ctx context.Context, userID string, fn func(*PerUserModels) error) error {
	l := im.lockFor(userID)

	start := time.Now()
	acquired := make(chan struct{})
	go func() {
		l.Lock()
		close(acquired)
	}()

	timer := time.NewTimer(im.lockTimeout)
	defer timer.Stop()

	select {
	case <-acquired:
	case <-ctx.Done():
		go func() { <-acquired; l.Unlock() }()
		return ctx.Err()
	case <-timer.C:
		go func() { <-acquired; l.Unlock() }()
		return ErrLockTimeout
	}
	metrics.RecordLockWait(time.Since(start).Seconds())
	defer l.Unlock()

	bundle := im.bundles.GetOrCreate(userID, newPerUserModels)
	bundle.LastSeen = time.Now()
	metrics.SetActiveUsers(im.bundles.Len())
	return fn(bundle)
}

// Reset evicts userID's bundle and lock entirely (spec.md §6 resetUser).
func (im *IsolationManager) Reset(userID string) {
	im.bundles.Remove(userID)
	im.locksMu.Lock()
	delete(im.locks, userID)
	im.locksMu.Unlock()
	metrics.RecordUserEviction("reset")
}

// Peek returns userID's bundle without acquiring the lock, for read-only
// inspection (spec.md §6 getState/getColdStartPhase). Returns nil, false
// if no bundle exists yet.
func (im *IsolationManager) Peek(userID string) (*PerUserModels, bool) {
	return im.bundles.Get(userID)
}

// Sweep evicts expired bundles, invoking the eviction callback for each.
func (im *IsolationManager) Sweep() int {
	n := im.bundles.SweepExpired()
	metrics.SetActiveUsers(im.bundles.Len())
	return n
}
