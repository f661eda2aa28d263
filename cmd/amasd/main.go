// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

// Package main is the entry point for amasd, the AMAS decision engine
// service. It loads configuration, opens the BadgerDB-backed state/model
// repositories, wires the Orchestrator, and serves the request surface of
// spec.md §6 over a minimal JSON/HTTP binding (the transport itself is
// opaque to the engine; HTTP is this process's chosen host).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/time/rate"

	"github.com/tomtom215/amas-engine/internal/amas"
	"github.com/tomtom215/amas-engine/internal/amas/storage"
	"github.com/tomtom215/amas-engine/internal/config"
	"github.com/tomtom215/amas-engine/internal/logging"
)

// Exit codes per spec.md §6: 0 success, 1 validation/setup error,
// 2 timeout/circuit-open, 3 internal inconsistency. exitTimeoutOrOpen
// describes per-request semantics; as an HTTP-hosted process those surface
// in the response body (see writeDecisionResult), not the process exit
// code, so it is declared for the contract but has no call site here.
const (
	exitOK            = 0
	exitValidation    = 1
	exitTimeoutOrOpen = 2
	exitInconsistent  = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not yet configured; the default logger writes to
		// stderr at info level, which is sufficient for a startup failure.
		logging.Error().Err(err).Msg("failed to load configuration")
		return exitValidation
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.Info().Msg("starting amasd")

	db, err := badger.Open(badger.DefaultOptions(cfg.Storage.BadgerDir))
	if err != nil {
		logging.Error().Err(err).Str("dir", cfg.Storage.BadgerDir).Msg("failed to open badger store")
		return exitValidation
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing badger store")
		}
	}()

	orch := amas.NewOrchestrator(
		orchestratorConfigFrom(cfg),
		storage.NewBadgerStateRepo(db),
		storage.NewBadgerModelRepo(db, cfg.LinUCB.Lambda),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweepEvery := cfg.Arena.SweepEvery
	if sweepEvery <= 0 {
		sweepEvery = 10 * time.Minute
	}
	go runSweeper(ctx, orch, sweepEvery)

	server := &http.Server{
		Addr:         addrFromEnv(),
		Handler:      newServeMux(orch),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serveErrCh := make(chan error, 1)
	go func() { serveErrCh <- server.ListenAndServe() }()
	logging.Info().Str("addr", server.Addr).Msg("amasd listening")

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-serveErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("http server error")
			return exitInconsistent
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("graceful shutdown did not complete in time")
	}

	logging.Info().Msg("amasd stopped")
	return exitOK
}

func addrFromEnv() string {
	if addr := os.Getenv("AMAS_HTTP_ADDR"); addr != "" {
		return addr
	}
	return ":8085"
}

func orchestratorConfigFrom(cfg *config.Config) amas.OrchestratorConfig {
	return amas.OrchestratorConfig{
		DecisionTimeout:    cfg.Orchestrator.DecisionTimeout,
		LockTimeout:        cfg.Orchestrator.LockTimeout,
		MaxUsers:           cfg.Arena.MaxUsers,
		UserTTL:            cfg.Arena.UserTTL,
		LinUCBLambda:       cfg.LinUCB.Lambda,
		BreakerMaxRequests: cfg.Orchestrator.BreakerMaxRequests,
		BreakerInterval:    cfg.Orchestrator.BreakerInterval,
		BreakerTimeout:     cfg.Orchestrator.BreakerTimeout,
		BreakerMinRequests: cfg.Orchestrator.BreakerMinRequests,
		BreakerFailRatio:   cfg.Orchestrator.BreakerFailRatio,
		RateLimit:          rate.Limit(cfg.Orchestrator.RateLimitPerSecond),
		RateBurst:          cfg.Orchestrator.RateBurst,
		Flags: amas.Flags{
			EnableEnsemble:          cfg.Learners.EnableEnsemble,
			EnableColdStartManager:  cfg.Learners.EnableColdStartManager,
			EnableThompsonSampling:  cfg.Learners.EnableThompsonSampling,
			EnableACTRMemory:        cfg.Learners.EnableACTRMemory,
			EnableHeuristicBaseline: cfg.Learners.EnableHeuristicBaseline,
			EnableTrendAnalyzer:     cfg.Learners.EnableTrendAnalyzer,
			EnableUserParamsManager: cfg.Learners.EnableUserParamsManager,
		},
		RewardProfile: amas.DefaultRewardProfile(),
	}
}

func runSweeper(ctx context.Context, orch *amas.Orchestrator, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			orch.Sweep()
		}
	}
}

// newServeMux binds spec.md §6's request surface onto stdlib net/http; the
// transport is intentionally minimal since routing/auth are out of scope.
func newServeMux(orch *amas.Orchestrator) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		userID, action, ok := splitUserPath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		switch {
		case action == "events" && r.Method == http.MethodPost:
			handleProcessEvent(orch, w, r, userID)
		case action == "batch" && r.Method == http.MethodPost:
			handleBatchProcessEvents(orch, w, r, userID)
		case action == "state" && r.Method == http.MethodGet:
			handleGetState(orch, w, userID)
		case action == "coldstart" && r.Method == http.MethodGet:
			handleGetColdStartPhase(orch, w, userID)
		case action == "reset" && r.Method == http.MethodPost:
			orch.ResetUser(r.Context(), userID)
			w.WriteHeader(http.StatusNoContent)
		case action == "delayed-reward" && r.Method == http.MethodPost:
			handleDelayedReward(orch, w, r, userID)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// splitUserPath parses "/v1/users/{id}/{action}" into its components.
func splitUserPath(path string) (userID, action string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/v1/users/")
	if trimmed == path {
		return "", "", false
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

type processEventRequest struct {
	Event   amas.RawEvent       `json:"event"`
	Options amas.ProcessOptions `json:"options"`
}

func handleProcessEvent(orch *amas.Orchestrator, w http.ResponseWriter, r *http.Request, userID string) {
	var req processEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := orch.ProcessEvent(r.Context(), userID, req.Event, req.Options)
	writeDecisionResult(w, result, err)
}

type batchProcessEventsRequest struct {
	Events  []amas.RawEvent     `json:"events"`
	Options amas.ProcessOptions `json:"options"`
}

func handleBatchProcessEvents(orch *amas.Orchestrator, w http.ResponseWriter, r *http.Request, userID string) {
	var req batchProcessEventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	results, err := orch.BatchProcessEvents(r.Context(), userID, req.Events, req.Options)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func handleGetState(orch *amas.Orchestrator, w http.ResponseWriter, userID string) {
	state, ok := orch.GetState(userID)
	if !ok {
		http.NotFound(w, nil)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func handleGetColdStartPhase(orch *amas.Orchestrator, w http.ResponseWriter, userID string) {
	phase, ok := orch.GetColdStartPhase(userID)
	if !ok {
		http.NotFound(w, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"phase": string(phase)})
}

type delayedRewardRequest struct {
	FeatureVector []float64 `json:"featureVector"`
	Reward        float64   `json:"reward"`
}

func handleDelayedReward(orch *amas.Orchestrator, w http.ResponseWriter, r *http.Request, userID string) {
	var req delayedRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ok, err := orch.ApplyDelayedRewardUpdate(r.Context(), userID, req.FeatureVector, req.Reward)
	resp := map[string]any{"success": ok}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeDecisionResult always returns 200 with the (possibly degraded)
// ProcessResult, per spec.md §7: every error path still produces a usable
// strategy, so the HTTP layer never surfaces a processing error as a
// non-2xx status beyond malformed input.
func writeDecisionResult(w http.ResponseWriter, result amas.ProcessResult, err error) {
	resp := struct {
		amas.ProcessResult
		Error string `json:"error,omitempty"`
	}{ProcessResult: result}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
