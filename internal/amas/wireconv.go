// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package amas

import "github.com/tomtom215/amas-engine/internal/amas/storage"

// toWireState/fromWireState and their ColdStart counterparts translate
// between the domain types used by the pipeline and storage's wire-format
// mirrors, keeping the storage package free of a dependency on this one
// (it is a leaf persistence layer).

func toWireState(s UserState) storage.State {
	return storage.State{
		A: s.A, F: s.F, M: s.M,
		C:    storage.CognitiveProfile{Mem: s.C.Mem, Speed: s.C.Speed, Stability: s.C.Stability},
		T:    string(s.T),
		Conf: s.Conf,
		Ts:   s.Ts,
	}
}

func fromWireState(w storage.State) UserState {
	return UserState{
		A: w.A, F: w.F, M: w.M,
		C:    CognitiveProfile{Mem: w.C.Mem, Speed: w.C.Speed, Stability: w.C.Stability},
		T:    Trend(w.T),
		Conf: w.Conf,
		Ts:   w.Ts,
	}
}

func toWireAction(a Action) storage.Action {
	return storage.Action{
		Index: a.Index, IntervalScale: a.IntervalScale, NewRatio: a.NewRatio,
		Difficulty: string(a.Difficulty), BatchSize: a.BatchSize, HintLevel: a.HintLevel,
	}
}

func fromWireAction(w storage.Action) Action {
	return Action{
		Index: w.Index, IntervalScale: w.IntervalScale, NewRatio: w.NewRatio,
		Difficulty: Difficulty(w.Difficulty), BatchSize: w.BatchSize, HintLevel: w.HintLevel,
	}
}

func toWireColdStart(cs ColdStartState) storage.ColdStartState {
	results := make([]storage.ProbeResult, len(cs.Results))
	for i, r := range cs.Results {
		results[i] = storage.ProbeResult{
			Action: toWireAction(r.Action), Reward: r.Reward, IsCorrect: r.IsCorrect,
			ResponseTime: r.ResponseTime, ErrorRate: r.ErrorRate,
		}
	}
	var settled *storage.Action
	if cs.SettledStrategy != nil {
		w := toWireAction(*cs.SettledStrategy)
		settled = &w
	}
	return storage.ColdStartState{
		Phase: string(cs.Phase), UserType: string(cs.UserType), ProbeIndex: cs.ProbeIndex,
		Results: results, SettledStrategy: settled, UpdateCount: cs.UpdateCount,
	}
}

func fromWireColdStart(w storage.ColdStartState) ColdStartState {
	results := make([]ProbeResult, len(w.Results))
	for i, r := range w.Results {
		results[i] = ProbeResult{
			Action: fromWireAction(r.Action), Reward: r.Reward, IsCorrect: r.IsCorrect,
			ResponseTime: r.ResponseTime, ErrorRate: r.ErrorRate,
		}
	}
	var settled *Action
	if w.SettledStrategy != nil {
		a := fromWireAction(*w.SettledStrategy)
		settled = &a
	}
	return ColdStartState{
		Phase: ColdStartPhase(w.Phase), UserType: UserType(w.UserType), ProbeIndex: w.ProbeIndex,
		Results: results, SettledStrategy: settled, UpdateCount: w.UpdateCount,
	}
}
