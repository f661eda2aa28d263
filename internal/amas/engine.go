// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/amas-engine/internal/amas/algorithms"
	"github.com/tomtom215/amas-engine/internal/amas/storage"
	"github.com/tomtom215/amas-engine/internal/logging"
	"github.com/tomtom215/amas-engine/internal/metrics"
)

// Flags toggles which ensemble members and optional subsystems participate,
// per spec.md §6's configuration flags.
type Flags struct {
	EnableEnsemble          bool
	EnableColdStartManager  bool
	EnableThompsonSampling  bool
	EnableACTRMemory        bool
	EnableHeuristicBaseline bool
	EnableTrendAnalyzer     bool
	EnableUserParamsManager bool
}

// DefaultFlags enables every optional subsystem.
func DefaultFlags() Flags {
	return Flags{
		EnableEnsemble:          true,
		EnableColdStartManager:  true,
		EnableThompsonSampling:  true,
		EnableACTRMemory:        true,
		EnableHeuristicBaseline: true,
		EnableTrendAnalyzer:     true,
		EnableUserParamsManager: true,
	}
}

// OrchestratorConfig bundles the tunables NewOrchestrator needs; the
// internal/config package's Load() result maps onto this shape.
type OrchestratorConfig struct {
	DecisionTimeout time.Duration
	LockTimeout     time.Duration
	MaxUsers        int
	UserTTL         time.Duration
	LinUCBLambda    float64

	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
	BreakerMinRequests uint32
	BreakerFailRatio   float64

	RateLimit rate.Limit
	RateBurst int

	Flags         Flags
	RewardProfile RewardProfile
}

// DefaultOrchestratorConfig mirrors internal/config's DefaultConfig values.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		DecisionTimeout:     100 * time.Millisecond,
		LockTimeout:         30 * time.Second,
		MaxUsers:            DefaultMaxUsers,
		UserTTL:             DefaultUserTTL,
		LinUCBLambda:        1e-3,
		BreakerMaxRequests:  3,
		BreakerInterval:     time.Minute,
		BreakerTimeout:      2 * time.Minute,
		BreakerMinRequests:  10,
		BreakerFailRatio:    0.6,
		RateLimit:           rate.Limit(500),
		RateBurst:           100,
		Flags:               DefaultFlags(),
		RewardProfile:       DefaultRewardProfile(),
	}
}

// Orchestrator composes the perception/modeling/learning/decision/
// evaluation/optimization stages under per-user isolation, a decision
// timeout, and a circuit breaker, per spec.md §4.8.
type Orchestrator struct {
	arena    *IsolationManager
	features *FeatureBuilder

	stateRepo storage.StateRepo
	modelRepo storage.ModelRepo

	breaker  *gobreaker.CircuitBreaker[ProcessResult]
	limiter  *rate.Limiter
	validate *validator.Validate

	cfg OrchestratorConfig
}

// NewOrchestrator wires the arena, feature builder, repositories, rate
// limiter, and circuit breaker into a ready-to-use Orchestrator.
func NewOrchestrator(cfg OrchestratorConfig, stateRepo storage.StateRepo, modelRepo storage.ModelRepo) *Orchestrator {
	if cfg.DecisionTimeout <= 0 {
		cfg.DecisionTimeout = 100 * time.Millisecond
	}
	cbName := "amas-orchestrator"
	metrics.RecordCircuitBreakerTransition(cbName, "", "closed")

	breaker := gobreaker.NewCircuitBreaker[ProcessResult](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.BreakerFailRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, breakerStateString(from), breakerStateString(to))
		},
	})

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = rate.Limit(500)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 100
	}

	return &Orchestrator{
		arena:     NewIsolationManager(cfg.MaxUsers, cfg.UserTTL, cfg.LockTimeout),
		features:  NewFeatureBuilder(),
		stateRepo: stateRepo,
		modelRepo: modelRepo,
		breaker:   breaker,
		limiter:   rate.NewLimiter(limit, burst),
		validate:  validator.New(),
		cfg:       cfg,
	}
}

func breakerStateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// ProcessEvent is the external processEvent(userId, RawEvent, ProcessOptions)
// operation of spec.md §6, implementing the 14-step pipeline of §4.8. The
// returned ProcessResult is always a usable, guardrail-satisfying strategy;
// a non-nil error additionally signals why the result is a degraded
// fallback rather than a learned decision.
func (o *Orchestrator) ProcessEvent(ctx context.Context, userID string, raw RawEvent, opts ProcessOptions) (ProcessResult, error) {
	start := time.Now()

	if !o.limiter.Allow() {
		metrics.RecordDegradation("rate_limited")
		metrics.RecordDecision("degraded", time.Since(start).Seconds())
		return o.fallbackResult(raw, "rate_limited"), fmt.Errorf("%w: admission rate limit exceeded", ErrTimeout)
	}

	decCtx, cancel := context.WithTimeout(ctx, o.cfg.DecisionTimeout)
	defer cancel()

	out, breakerErr := o.breaker.Execute(func() (ProcessResult, error) {
		var res ProcessResult
		lockErr := o.arena.WithUser(decCtx, userID, func(bundle *PerUserModels) error {
			r, err := o.runPipeline(decCtx, userID, raw, opts, bundle)
			res = r
			return err
		})
		if lockErr != nil {
			return ProcessResult{}, lockErr
		}
		return res, nil
	})

	elapsed := time.Since(start).Seconds()

	switch {
	case breakerErr == nil:
		metrics.RecordDecision("ok", elapsed)
		return out, nil
	case errors.Is(breakerErr, gobreaker.ErrOpenState), errors.Is(breakerErr, gobreaker.ErrTooManyRequests):
		metrics.RecordDegradation("circuit_open")
		metrics.RecordDecision("degraded", elapsed)
		return o.fallbackResult(raw, "circuit_open"), fmt.Errorf("%w: %v", ErrCircuitOpen, breakerErr)
	case errors.Is(breakerErr, context.DeadlineExceeded), errors.Is(breakerErr, ErrLockTimeout):
		metrics.RecordDegradation("timeout")
		metrics.RecordDecision("degraded", elapsed)
		return o.fallbackResult(raw, "timeout"), fmt.Errorf("%w: %v", ErrTimeout, breakerErr)
	case errors.Is(breakerErr, ErrAnomalousEvent):
		metrics.RecordDegradation("anomaly")
		metrics.RecordDecision("degraded", elapsed)
		return o.fallbackResult(raw, "degraded_state"), breakerErr
	default:
		metrics.RecordDegradation("storage")
		metrics.RecordDecision("degraded", elapsed)
		return o.fallbackResult(raw, "storage"), fmt.Errorf("%w: %v", ErrStorage, breakerErr)
	}
}

// runPipeline executes steps 4-14 of spec.md §4.8 while the caller holds
// userID's lock. The context deadline set by ProcessEvent is checked at the
// three persistence boundaries spec.md §5 names (stages 7, 11, 12).
func (o *Orchestrator) runPipeline(ctx context.Context, userID string, raw RawEvent, opts ProcessOptions, bundle *PerUserModels) (ProcessResult, error) {
	// Step 4: anomaly detection.
	if err := o.validate.Struct(raw); err != nil {
		return ProcessResult{}, fmt.Errorf("%w: %v", ErrAnomalousEvent, err)
	}
	if o.features.IsAnomalous(raw) {
		return ProcessResult{}, ErrAnomalousEvent
	}

	// Step 5: load state + model, applying returning-user decay.
	if err := o.hydrate(ctx, userID, bundle); err != nil {
		return ProcessResult{}, err
	}

	// Step 6: build feature vector; update the five estimators.
	fv := o.features.BuildFeatureVector(raw, userID)
	prevState := bundle.State
	newState := UpdateState(prevState, fv, raw, bundle.Params, bundle.AbilityHistory)
	if o.cfg.Flags.EnableTrendAnalyzer {
		bundle.pushAbility(abilitySeries(newState.C))
	} else {
		newState.T = TrendFlat
	}
	bundle.State = newState

	// Step 7: decision context (time bucket) + cancellation check.
	tsMillis := raw.Timestamp
	if tsMillis == 0 {
		tsMillis = nowMillis(time.Now())
	}
	if ctx.Err() != nil {
		return ProcessResult{}, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}

	// Step 8: cold-start phase + per-user alpha.
	phase := bundle.ColdStart.Phase
	recentErrorRate := clamp01(1 - bundle.Tracker.AccuracyEMA)
	rtNorm := clamp(raw.ResponseTime/3000, 0, 3)
	alpha := algorithms.ExplorationAlpha(bundle.InteractionCount, opts.RecentAccuracy, newState.F) * bundle.Params.Alpha

	sv := stateView(newState)

	// Step 9: select action.
	var chosenAction Action
	var explanation string
	var votes []memberVote
	useColdStart := o.cfg.Flags.EnableColdStartManager && phase != PhaseNormal
	if useColdStart {
		cs := NextColdStartAction(&bundle.ColdStart)
		chosenAction = cs.Action
		explanation = fmt.Sprintf("coldstart:%s", phase)
		metrics.RecordLearnerSelection("coldstart")
	} else {
		votes = o.collectVotes(sv, recentErrorRate, rtNorm, tsMillis, alpha, bundle, opts)
		ens := VoteEnsemble(bundle.Weights, votes)
		chosenAction = ActionSpace[ens.ActionIndex]
		explanation = fmt.Sprintf("ensemble:%s", ens.Winner)
		if ens.Winner != "" {
			metrics.RecordLearnerSelection(ens.Winner)
		}
	}

	// Step 10: map to strategy, apply guardrails (and break-safe caps).
	strategy := MapActionToStrategy(chosenAction)
	strategy = ApplyGuardrails(strategy, newState)
	if newState.F > CriticalFatigue {
		strategy = ApplyBreakSafeCaps(strategy)
	}

	// Step 11: realign the action against the post-guardrail strategy.
	alignedAction := MapStrategyToAction(strategy)
	contextVec := algorithms.BuildContextVector(sv, actionView(alignedAction), recentErrorRate, rtNorm, tsMillis)
	if ctx.Err() != nil {
		return ProcessResult{}, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}

	// Step 12: compute reward; update learners with the aligned action.
	dwellScore := DwellScore(raw.DwellTime)
	interactionScore := InteractionScore(raw.InteractionDensity)
	reward := ComputeReward(o.cfg.RewardProfile, raw, newState, dwellScore, interactionScore)
	metrics.RecordReward(reward)

	if !opts.SkipUpdate {
		if useColdStart {
			prevPhase := bundle.ColdStart.Phase
			RecordColdStartOutcome(&bundle.ColdStart, alignedAction, reward, raw.IsCorrect, raw.ResponseTime)
			if bundle.ColdStart.Phase != prevPhase {
				metrics.RecordColdStartTransition(string(bundle.ColdStart.Phase))
			}
		} else {
			o.updateLearners(bundle, contextVec, alignedAction, reward, votes)
		}
		if o.cfg.Flags.EnableUserParamsManager {
			bundle.Params, bundle.Tracker = UpdateUserParams(bundle.Tracker, bundle.Params, raw.IsCorrect, newState, reward, difficultyScalar(alignedAction.Difficulty))
		}
		bundle.InteractionCount++
	}

	// Step 13: cancellation check before persistence.
	if ctx.Err() != nil {
		return ProcessResult{}, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
	if err := o.persist(ctx, userID, bundle); err != nil {
		logging.Warn().Err(err).Str("user", userID).Msg("[AMAS] state persistence failed, serving in-memory result")
	}

	result := ProcessResult{
		Strategy:      strategy,
		Action:        alignedAction,
		Explanation:   explanation,
		State:         newState,
		Reward:        reward,
		ShouldBreak:   strategy.ShouldBreak,
		FeatureVector: &fv,
	}

	// Step 14: emit a decision trace asynchronously (best effort).
	go o.emitTrace(userID, raw, opts, result)

	return result, nil
}

// collectVotes runs every enabled ensemble member's SelectAction against
// the full action space and returns one memberVote per member, in the
// fixed linucb/thompson/actr/heuristic order spec.md §4.4 describes.
func (o *Orchestrator) collectVotes(sv algorithms.StateView, recentErrorRate, rtNorm float64, tsMillis int64, alpha float64, bundle *PerUserModels, opts ProcessOptions) []memberVote {
	candidates := make([][]float64, len(ActionSpace))
	actionViews := make([]algorithms.ActionView, len(ActionSpace))
	intervalScales := make([]float64, len(ActionSpace))
	for i, a := range ActionSpace {
		av := actionView(a)
		actionViews[i] = av
		intervalScales[i] = a.IntervalScale
		candidates[i] = algorithms.BuildContextVector(sv, av, recentErrorRate, rtNorm, tsMillis)
	}

	votes := make([]memberVote, 0, 4)

	linSel := bundle.LinUCB.SelectAction(candidates, alpha)
	votes = append(votes, memberVote{name: "linucb", ok: true, actionIdx: linSel.ActionIndex, score: linSel.Score, confidence: linSel.Confidence})

	if o.cfg.Flags.EnableThompsonSampling {
		thSel := bundle.Thompson.SelectAction()
		votes = append(votes, memberVote{name: "thompson", ok: true, actionIdx: thSel.ActionIndex, score: thSel.Score, confidence: thSel.Confidence})
	}

	if o.cfg.Flags.EnableACTRMemory {
		trace := reviewTraceFrom(opts.WordReviewHistory)
		actrSel := bundle.ACTR.SelectAction(trace, intervalScales)
		votes = append(votes, memberVote{name: "actr", ok: true, actionIdx: actrSel.ActionIndex, score: actrSel.Score, confidence: actrSel.Confidence})
	}

	if o.cfg.Flags.EnableHeuristicBaseline {
		heurSel := bundle.Heuristic.SelectAction(sv, actionViews)
		votes = append(votes, memberVote{name: "heuristic", ok: true, actionIdx: heurSel.ActionIndex, score: heurSel.Score, confidence: heurSel.Confidence})
	}

	return votes
}

// reviewTraceFrom adapts the caller-supplied word review history into
// ACT-R review events. wordReviewHistory carries no explicit recency
// timestamp, so entries are treated as most-recent-last and assigned an
// approximate 24h spacing; this is a documented approximation, not a
// recovered original recency signal.
func reviewTraceFrom(history []ProbeResult) []algorithms.ReviewEvent {
	if len(history) == 0 {
		return nil
	}
	trace := make([]algorithms.ReviewEvent, len(history))
	n := len(history)
	for i, r := range history {
		trace[i] = algorithms.ReviewEvent{HoursAgo: float64(n-i) * 24, Success: r.IsCorrect}
	}
	return trace
}

// updateLearners applies the (context, reward) observation to LinUCB and
// the arm-indexed Thompson sampler, then updates the ensemble weights.
func (o *Orchestrator) updateLearners(bundle *PerUserModels, contextVec []float64, executed Action, reward float64, votes []memberVote) {
	bundle.LinUCB.Update(contextVec, reward)
	if o.cfg.Flags.EnableThompsonSampling {
		bundle.Thompson.Update(executed.Index, reward)
	}
	bundle.ACTR.Update()
	bundle.Heuristic.Update()

	if o.cfg.Flags.EnableEnsemble {
		bundle.Weights = UpdateEnsembleWeights(bundle.Weights, votes, executed.Index, reward)
		metrics.SetEnsembleWeight("linucb", bundle.Weights.LinUCB)
		metrics.SetEnsembleWeight("thompson", bundle.Weights.Thompson)
		metrics.SetEnsembleWeight("actr", bundle.Weights.ACTR)
		metrics.SetEnsembleWeight("heuristic", bundle.Weights.Heuristic)
	}
}

// returningUserDecay is the per-day widening applied to A and F toward
// their neutral midpoint (0.5) after an offline gap, per SPEC_FULL.md §C's
// resolution of the "returning-user decay" open question. Capped at 7 days
// of accumulated drift.
const (
	returningUserDecayPerDay = 0.10
	returningUserDecayCapDays = 7
)

// hydrate loads userID's persisted state/model into bundle exactly once
// per resident bundle lifetime (spec.md §4.8 step 5). A not-found record is
// not an error: the bundle's already-initialized defaults stand.
func (o *Orchestrator) hydrate(ctx context.Context, userID string, bundle *PerUserModels) error {
	if bundle.Hydrated {
		return nil
	}
	bundle.Hydrated = true

	if o.stateRepo != nil {
		rec, err := o.stateRepo.Load(ctx, userID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// fresh user, defaults already in place.
		case err != nil:
			return fmt.Errorf("%w: load state: %v", ErrStorage, err)
		default:
			bundle.State = applyReturningUserDecay(fromWireState(rec.State), time.Now())
			bundle.ColdStart = fromWireColdStart(rec.ColdStart)
		}
	}

	if o.modelRepo != nil {
		model, err := o.modelRepo.Load(ctx, userID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// fresh user, the freshly constructed model stands.
		case err != nil:
			return fmt.Errorf("%w: load model: %v", ErrStorage, err)
		default:
			bundle.LinUCB.SetModel(model, algorithms.ContextDim)
		}
	}
	return nil
}

// applyReturningUserDecay widens A and F toward 0.5 by
// returningUserDecayPerDay per day offline, capped at
// returningUserDecayCapDays of accumulated drift, when the user has been
// away at least a day.
func applyReturningUserDecay(s UserState, now time.Time) UserState {
	if s.Ts <= 0 {
		return s
	}
	lastSeen := time.UnixMilli(s.Ts)
	daysOffline := now.Sub(lastSeen).Hours() / 24
	if daysOffline < 1 {
		return s
	}
	if daysOffline > returningUserDecayCapDays {
		daysOffline = returningUserDecayCapDays
	}
	shift := clamp(daysOffline*returningUserDecayPerDay, 0, 1)
	s.A = s.A + shift*(0.5-s.A)
	s.F = s.F + shift*(0.5-s.F)
	return s
}

// persist writes bundle's state and model atomically per repository
// (spec.md §4.8 step 13); a model-save failure after a successful
// state-save is still surfaced, never silently dropped.
func (o *Orchestrator) persist(ctx context.Context, userID string, bundle *PerUserModels) error {
	if o.stateRepo != nil {
		rec := &storage.UserStateRecord{State: toWireState(bundle.State), ColdStart: toWireColdStart(bundle.ColdStart)}
		if err := o.stateRepo.Save(ctx, userID, rec); err != nil {
			return fmt.Errorf("%w: save state: %v", ErrStorage, err)
		}
	}
	if o.modelRepo != nil {
		if err := o.modelRepo.Save(ctx, userID, bundle.LinUCB.GetModel()); err != nil {
			return fmt.Errorf("%w: save model: %v", ErrStorage, err)
		}
	}
	return nil
}

// emitTrace logs one structured decision-trace event, best effort. It runs
// off the request path (spec.md §4.8 step 14) and never blocks or fails
// the caller's result.
func (o *Orchestrator) emitTrace(userID string, raw RawEvent, opts ProcessOptions, result ProcessResult) {
	correlationID := opts.AnswerRecordID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logging.Info().
		Str("user", userID).
		Str("correlationId", correlationID).
		Str("wordId", raw.WordID).
		Bool("isCorrect", raw.IsCorrect).
		Str("explanation", result.Explanation).
		Float64("reward", result.Reward).
		Bool("shouldBreak", result.ShouldBreak).
		Str("difficulty", string(result.Strategy.Difficulty)).
		Msg("[AMAS] decision trace")
}

// fallbackResult returns the degraded-path result: the fixed easy/slow
// action ActionSpace[1], guardrailed against a neutral assumed state and
// tagged with the degradation reason. The result is the same for every
// call; the event's timestamp and the user's stored state are not used.
func (o *Orchestrator) fallbackResult(raw RawEvent, reason string) ProcessResult {
	neutral := UserState{A: 0.5, F: 0.5, M: 0, C: CognitiveProfile{Mem: 0.5, Speed: 0.5, Stability: 0.5}, T: TrendFlat, Conf: 0}
	action := ActionSpace[1] // easy/slow: the conservative default under degradation
	strategy := ApplyGuardrails(MapActionToStrategy(action), neutral)
	return ProcessResult{
		Strategy:    strategy,
		Action:      action,
		Explanation: "fallback",
		State:       neutral,
		Reward:      0,
		Suggestion:  reason,
		ShouldBreak: strategy.ShouldBreak,
	}
}

// Sweep evicts idle per-user bundles and feature windows past their TTL,
// intended to be called periodically off the request path (spec.md §5
// "periodic sweep").
func (o *Orchestrator) Sweep() {
	o.arena.Sweep()
	o.features.SweepExpired(time.Now())
}

// GetState is the external getState(userId) operation. Returns ok=false if
// no bundle is resident for userID.
func (o *Orchestrator) GetState(userID string) (UserState, bool) {
	bundle, ok := o.arena.Peek(userID)
	if !ok {
		return UserState{}, false
	}
	return bundle.State, true
}

// GetColdStartPhase is the external getColdStartPhase(userId) operation.
func (o *Orchestrator) GetColdStartPhase(userID string) (ColdStartPhase, bool) {
	bundle, ok := o.arena.Peek(userID)
	if !ok {
		return "", false
	}
	return bundle.ColdStart.Phase, true
}

// ResetUser is the external resetUser(userId) operation: evicts the
// in-memory bundle and best-effort deletes the persisted records.
func (o *Orchestrator) ResetUser(ctx context.Context, userID string) {
	o.arena.Reset(userID)
	o.features.ResetWindows(userID)
	if o.stateRepo != nil {
		if err := o.stateRepo.Delete(ctx, userID); err != nil {
			logging.Warn().Err(err).Str("user", userID).Msg("[AMAS] resetUser: state delete failed")
		}
	}
	if o.modelRepo != nil {
		if err := o.modelRepo.Delete(ctx, userID); err != nil {
			logging.Warn().Err(err).Str("user", userID).Msg("[AMAS] resetUser: model delete failed")
		}
	}
}

// maxBatchEvents bounds batchProcessEvents per spec.md §6.
const maxBatchEvents = 100

// BatchProcessEvents is the external batchProcessEvents(userId, events)
// operation: sequential application, each event's ProcessOptions fixed at
// the caller-supplied opts.
func (o *Orchestrator) BatchProcessEvents(ctx context.Context, userID string, events []RawEvent, opts ProcessOptions) ([]ProcessResult, error) {
	if len(events) > maxBatchEvents {
		events = events[:maxBatchEvents]
	}
	results := make([]ProcessResult, 0, len(events))
	for _, e := range events {
		r, err := o.ProcessEvent(ctx, userID, e, opts)
		results = append(results, r)
		if err != nil && errors.Is(err, ErrInconsistent) {
			return results, err
		}
	}
	return results, nil
}

// ApplyDelayedRewardUpdate is the external applyDelayedRewardUpdate
// operation: folds a previously-computed feature vector and reward into
// userID's LinUCB model, zero-padding or truncating to the model's current
// dimension on a version skew (spec.md §6, §8 scenario 4).
func (o *Orchestrator) ApplyDelayedRewardUpdate(ctx context.Context, userID string, featureVector []float64, reward float64) (bool, error) {
	var updateErr error
	lockErr := o.arena.WithUser(ctx, userID, func(bundle *PerUserModels) error {
		if err := o.hydrate(ctx, userID, bundle); err != nil {
			updateErr = err
			return err
		}
		x := alignDimension(featureVector, algorithms.ContextDim)
		bundle.LinUCB.Update(x, reward)
		return o.persist(ctx, userID, bundle)
	})
	if lockErr != nil {
		return false, lockErr
	}
	if updateErr != nil {
		return false, updateErr
	}
	return true, nil
}

// alignDimension zero-pads or truncates x to length d, logging when it
// must, per spec.md §6/§7's dimension-mismatch handling.
func alignDimension(x []float64, d int) []float64 {
	if len(x) == d {
		return x
	}
	out := make([]float64, d)
	n := len(x)
	if n > d {
		n = d
	}
	copy(out, x[:n])
	logging.Warn().Int("got", len(x)).Int("want", d).Msg("[AMAS] delayed reward feature vector dimension mismatch, zero-padded/truncated")
	return out
}

func stateView(s UserState) algorithms.StateView {
	return algorithms.StateView{A: s.A, F: s.F, M: s.M, Mem: s.C.Mem, Speed: s.C.Speed, Stability: s.C.Stability}
}

func actionView(a Action) algorithms.ActionView {
	return algorithms.ActionView{
		Index:         a.Index,
		IntervalScale: a.IntervalScale,
		NewRatio:      a.NewRatio,
		DifficultyNum: difficultyScalar(a.Difficulty),
		BatchSize:     a.BatchSize,
		HintLevel:     a.HintLevel,
	}
}
