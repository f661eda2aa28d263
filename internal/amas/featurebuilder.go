// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

import (
	"math"
	"sync"
	"time"
)

// perceptionConfig holds the global (non-per-user) means/std used to
// z-score position features, per spec.md §4.1.
type perceptionConfig struct {
	rtMean, rtStd             float64
	pauseMean, pauseStd       float64
	switchMean, switchStd     float64
	driftMean, driftStd       float64
	interactionMean, interactionStd float64
	focusLossMean, focusLossStd     float64
}

func defaultPerceptionConfig() perceptionConfig {
	return perceptionConfig{
		rtMean: 3000, rtStd: 2000,
		pauseMean: 1.5, pauseStd: 2,
		switchMean: 1.5, switchStd: 2,
		driftMean: 0, driftStd: 1,
		interactionMean: 2, interactionStd: 2,
		focusLossMean: 2000, focusLossStd: 5000,
	}
}

// windowSize is the default per-user rolling window length.
const windowSize = 10

// windowTTL is how long an idle user's rolling window survives before the
// periodic sweep reclaims it.
const windowTTL = 24 * time.Hour

// rollingWindow is a fixed-capacity circular buffer of recent raw values,
// used to compute coefficient-of-variation features from a user's own
// history rather than a global baseline.
type rollingWindow struct {
	values     []float64
	cap        int
	pos        int
	filled     bool
	lastTouch  time.Time
}

func newRollingWindow(capacity int) *rollingWindow {
	return &rollingWindow{values: make([]float64, capacity), cap: capacity}
}

func (w *rollingWindow) push(v float64) {
	w.values[w.pos] = v
	w.pos = (w.pos + 1) % w.cap
	if w.pos == 0 {
		w.filled = true
	}
	w.lastTouch = time.Now()
}

func (w *rollingWindow) snapshot() []float64 {
	if w.filled {
		return append([]float64(nil), w.values...)
	}
	return append([]float64(nil), w.values[:w.pos]...)
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	std = math.Sqrt(ss / float64(len(xs)))
	return mean, std
}

func coefficientOfVariation(xs []float64) float64 {
	mean, std := meanStd(xs)
	if math.Abs(mean) < 1e-9 {
		return 0
	}
	return std / math.Abs(mean)
}

// userWindows bundles the per-user rolling windows maintained by
// FeatureBuilder.
type userWindows struct {
	rt, pause, switchC, dwell, focusLoss, interaction *rollingWindow
	mu sync.Mutex
}

func newUserWindows() *userWindows {
	return &userWindows{
		rt:          newRollingWindow(windowSize),
		pause:       newRollingWindow(windowSize),
		switchC:     newRollingWindow(windowSize),
		dwell:       newRollingWindow(windowSize),
		focusLoss:   newRollingWindow(windowSize),
		interaction: newRollingWindow(windowSize),
	}
}

// FeatureBuilder sanitises raw events and emits fixed-width perception
// vectors, maintaining one rollingWindow set per user.
type FeatureBuilder struct {
	mu       sync.Mutex
	windows  map[string]*userWindows
	cfg      perceptionConfig
}

// NewFeatureBuilder constructs a FeatureBuilder with the default global
// perception baseline.
func NewFeatureBuilder() *FeatureBuilder {
	return &FeatureBuilder{
		windows: make(map[string]*userWindows),
		cfg:     defaultPerceptionConfig(),
	}
}

// FeatureLabels is the stable, ordered list of base feature names.
var FeatureLabels = []string{
	"z_rt_mean", "z_rt_cv", "z_pace_cv", "z_pause", "z_switch",
	"z_drift", "z_interaction", "z_focus_loss", "retry_norm", "correctness",
}

// Sanitize clamps each numeric field of e to its declared range.
func (fb *FeatureBuilder) Sanitize(e RawEvent) RawEvent {
	e.ResponseTime = clamp(e.ResponseTime, 1, 120000)
	e.DwellTime = clamp(e.DwellTime, 0, 120000)
	e.PauseCount = int(clamp(float64(e.PauseCount), 0, 20))
	e.SwitchCount = int(clamp(float64(e.SwitchCount), 0, 20))
	e.RetryCount = int(clamp(float64(e.RetryCount), 0, 100))
	e.FocusLossDuration = clamp(e.FocusLossDuration, 0, 600000)
	e.InteractionDensity = clamp(e.InteractionDensity, 0, 10)
	return e
}

// IsAnomalous reports whether e must be rejected at the boundary: any
// non-finite numeric field, non-positive response time, or a value beyond
// its declared cap.
func (fb *FeatureBuilder) IsAnomalous(e RawEvent) bool {
	fields := []float64{
		e.ResponseTime, e.DwellTime, float64(e.PauseCount), float64(e.SwitchCount),
		float64(e.RetryCount), e.FocusLossDuration, e.InteractionDensity,
	}
	for _, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	if e.ResponseTime <= 0 || e.ResponseTime > 120000 {
		return true
	}
	if e.DwellTime < 0 || e.DwellTime > 120000 {
		return true
	}
	if e.PauseCount < 0 || e.PauseCount > 20 {
		return true
	}
	if e.SwitchCount < 0 || e.SwitchCount > 20 {
		return true
	}
	if e.RetryCount < 0 || e.RetryCount > 100 {
		return true
	}
	if e.FocusLossDuration < 0 || e.FocusLossDuration > 600000 {
		return true
	}
	return false
}

func (fb *FeatureBuilder) windowsFor(userID string) *userWindows {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	w, ok := fb.windows[userID]
	if !ok {
		w = newUserWindows()
		fb.windows[userID] = w
	}
	return w
}

// BuildFeatureVector sanitises e, updates the user's rolling windows, and
// returns the 10-dim perception vector. Any non-finite intermediate value
// is replaced with 0 so the returned vector is always fully finite.
func (fb *FeatureBuilder) BuildFeatureVector(e RawEvent, userID string) FeatureVector {
	e = fb.Sanitize(e)
	w := fb.windowsFor(userID)

	w.mu.Lock()
	w.rt.push(e.ResponseTime)
	w.pause.push(float64(e.PauseCount))
	w.switchC.push(float64(e.SwitchCount))
	w.dwell.push(e.DwellTime)
	w.focusLoss.push(e.FocusLossDuration)
	w.interaction.push(e.InteractionDensity)

	rtHist := w.rt.snapshot()
	pauseHist := w.pause.snapshot()
	switchHist := w.switchC.snapshot()
	dwellHist := w.dwell.snapshot()
	focusHist := w.focusLoss.snapshot()
	interactionHist := w.interaction.snapshot()
	w.mu.Unlock()

	zRTMean := zScore(e.ResponseTime, fb.cfg.rtMean, fb.cfg.rtStd)
	zRTCV := safeFinite(coefficientOfVariation(rtHist))
	zPaceCV := safeFinite(coefficientOfVariation(dwellHist))
	zPause := zScore(float64(e.PauseCount), fb.cfg.pauseMean, fb.cfg.pauseStd)
	zSwitch := zScore(float64(e.SwitchCount), fb.cfg.switchMean, fb.cfg.switchStd)
	zDrift := zScore(driftOf(switchHist, pauseHist), fb.cfg.driftMean, fb.cfg.driftStd)
	zInteraction := zScore(e.InteractionDensity, fb.cfg.interactionMean, fb.cfg.interactionStd)
	zFocusLoss := zScore(e.FocusLossDuration, fb.cfg.focusLossMean, fb.cfg.focusLossStd)
	retryNorm := clamp(float64(e.RetryCount)/3, 0, 1)
	correctness := -1.0
	if e.IsCorrect {
		correctness = 1.0
	}

	values := []float64{
		safeFinite(zRTMean), zRTCV, zPaceCV, safeFinite(zPause), safeFinite(zSwitch),
		safeFinite(zDrift), safeFinite(zInteraction), safeFinite(zFocusLoss), retryNorm, correctness,
	}
	_ = interactionHist // retained for future drift refinements; not itself consumed

	return FeatureVector{
		Values:     values,
		Labels:     FeatureLabels,
		Ts:         e.Timestamp,
		NormMethod: "perception",
		Version:    FeatureVersion,
	}
}

// ResetWindows clears the rolling window state for userID, or for every
// user when userID is empty.
func (fb *FeatureBuilder) ResetWindows(userID string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if userID == "" {
		fb.windows = make(map[string]*userWindows)
		return
	}
	delete(fb.windows, userID)
}

// SweepExpired evicts any per-user window set untouched for longer than
// windowTTL. Intended to be invoked periodically by the orchestrator's
// reaper alongside the arena sweep.
func (fb *FeatureBuilder) SweepExpired(now time.Time) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	evicted := 0
	for id, w := range fb.windows {
		w.mu.Lock()
		last := w.rt.lastTouch
		w.mu.Unlock()
		if last.IsZero() {
			continue
		}
		if now.Sub(last) > windowTTL {
			delete(fb.windows, id)
			evicted++
		}
	}
	return evicted
}

func zScore(x, mean, std float64) float64 {
	if std < 1e-9 {
		return 0
	}
	return (x - mean) / std
}

func driftOf(switchHist, pauseHist []float64) float64 {
	sMean, _ := meanStd(switchHist)
	pMean, _ := meanStd(pauseHist)
	return sMean - pMean
}

func safeFinite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
