// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

// Package storage defines the two key-value repository contracts the
// orchestrator treats as external collaborators — StateRepo and
// ModelRepo — plus a BadgerDB-backed implementation of each.
package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"math"

	"github.com/tomtom215/amas-engine/internal/amas/algorithms"
)

// ErrNotFound is returned by both repos when no record exists for a user.
var ErrNotFound = errors.New("storage: not found")

// This package intentionally does not import internal/amas: StateRepo is a
// leaf persistence layer, and the domain package depends on it (not the
// reverse). State/ColdStart/Action/ProbeResult below are the wire-format
// mirrors of their internal/amas counterparts; callers convert at the
// boundary.

// CognitiveProfile mirrors amas.CognitiveProfile for wire persistence.
type CognitiveProfile struct {
	Mem       float64 `json:"mem"`
	Speed     float64 `json:"speed"`
	Stability float64 `json:"stability"`
}

// State mirrors amas.UserState for wire persistence.
type State struct {
	A    float64          `json:"a"`
	F    float64          `json:"f"`
	M    float64          `json:"m"`
	C    CognitiveProfile `json:"c"`
	T    string           `json:"t"`
	Conf float64          `json:"conf"`
	Ts   int64            `json:"ts"`
}

// Action mirrors amas.Action for wire persistence.
type Action struct {
	Index         int     `json:"index"`
	IntervalScale float64 `json:"intervalScale"`
	NewRatio      float64 `json:"newRatio"`
	Difficulty    string  `json:"difficulty"`
	BatchSize     int     `json:"batchSize"`
	HintLevel     int     `json:"hintLevel"`
}

// ProbeResult mirrors amas.ProbeResult for wire persistence.
type ProbeResult struct {
	Action       Action  `json:"action"`
	Reward       float64 `json:"reward"`
	IsCorrect    bool    `json:"isCorrect"`
	ResponseTime float64 `json:"responseTime"`
	ErrorRate    float64 `json:"errorRate"`
}

// ColdStartState mirrors amas.ColdStartState for wire persistence.
type ColdStartState struct {
	Phase           string        `json:"phase"`
	UserType        string        `json:"userType"`
	ProbeIndex      int           `json:"probeIndex"`
	Results         []ProbeResult `json:"results"`
	SettledStrategy *Action       `json:"settledStrategy,omitempty"`
	UpdateCount     uint64        `json:"updateCount"`
}

// UserStateRecord is the persisted unit managed by StateRepo: the user's
// estimated state plus its cold-start sub-record.
type UserStateRecord struct {
	State     State
	ColdStart ColdStartState
}

// StateRepo persists per-user UserState (plus cold-start sub-record).
type StateRepo interface {
	Load(ctx context.Context, userID string) (*UserStateRecord, error)
	Save(ctx context.Context, userID string, rec *UserStateRecord) error
	Delete(ctx context.Context, userID string) error
}

// ModelRepo persists per-user bandit model state.
type ModelRepo interface {
	Load(ctx context.Context, userID string) (*algorithms.LinUCBModel, error)
	Save(ctx context.Context, userID string, model *algorithms.LinUCBModel) error
	Delete(ctx context.Context, userID string) error
}

// EncodeModel serialises a LinUCBModel's A, b, L as little-endian IEEE-754
// float32 sequences of length d^2, d, d^2 respectively, per spec.md §6.
func EncodeModel(m *algorithms.LinUCBModel) []byte {
	d := m.D
	buf := make([]byte, 4+8+(d*d+d+d*d)*4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(d))
	binary.LittleEndian.PutUint64(buf[4:12], m.UpdateCount)
	off := 12
	off = writeMatrix(buf, off, m.A)
	off = writeVector(buf, off, m.B)
	writeMatrix(buf, off, m.L)
	return buf
}

func writeMatrix(buf []byte, off int, mat [][]float64) int {
	for _, row := range mat {
		off = writeVector(buf, off, row)
	}
	return off
}

func writeVector(buf []byte, off int, vec []float64) int {
	for _, v := range vec {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(float32(v)))
		off += 4
	}
	return off
}

// DecodeModel is the inverse of EncodeModel. lambda is not stored in the
// wire format and must be supplied by the caller (it is a configuration
// constant, not per-user state).
func DecodeModel(data []byte, lambda float64) (*algorithms.LinUCBModel, error) {
	if len(data) < 12 {
		return nil, errors.New("storage: model record too short")
	}
	d := int(binary.LittleEndian.Uint32(data[0:4]))
	updateCount := binary.LittleEndian.Uint64(data[4:12])
	want := 12 + (d*d+d+d*d)*4
	if len(data) != want {
		return nil, errors.New("storage: model record length mismatch")
	}

	off := 12
	a, off := readMatrix(data, off, d)
	b, off := readVector(data, off, d)
	l, _ := readMatrix(data, off, d)

	return &algorithms.LinUCBModel{D: d, Lambda: lambda, A: a, B: b, L: l, UpdateCount: updateCount}, nil
}

func readMatrix(data []byte, off, d int) ([][]float64, int) {
	mat := make([][]float64, d)
	for i := range mat {
		var row []float64
		row, off = readVector(data, off, d)
		mat[i] = row
	}
	return mat, off
}

func readVector(data []byte, off, n int) ([]float64, int) {
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(data[off : off+4])
		vec[i] = float64(math.Float32frombits(bits))
		off += 4
	}
	return vec, off
}
