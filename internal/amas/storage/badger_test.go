// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/amas-engine/internal/amas/algorithms"
)

func createTestBadgerDB(t *testing.T) *badger.DB {
	t.Helper()
	dir, err := os.MkdirTemp("", "amas-badger-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp() error = %v", err)
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatalf("badger.Open() error = %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(dir)
	})
	return db
}

func TestBadgerStateRepo_SaveLoadRoundTrip(t *testing.T) {
	db := createTestBadgerDB(t)
	repo := NewBadgerStateRepo(db)
	ctx := context.Background()

	rec := &UserStateRecord{
		State: State{A: 0.6, F: 0.2, M: 0.1, T: "up", Conf: 0.5, Ts: 123},
	}
	if err := repo.Save(ctx, "user-1", rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.State != rec.State {
		t.Errorf("Load() = %+v, want %+v", got.State, rec.State)
	}
}

func TestBadgerStateRepo_LoadMissingReturnsErrNotFound(t *testing.T) {
	db := createTestBadgerDB(t)
	repo := NewBadgerStateRepo(db)

	_, err := repo.Load(context.Background(), "missing-user")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestBadgerStateRepo_Delete(t *testing.T) {
	db := createTestBadgerDB(t)
	repo := NewBadgerStateRepo(db)
	ctx := context.Background()

	_ = repo.Save(ctx, "user-1", &UserStateRecord{})
	if err := repo.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Load(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after Delete() error = %v, want ErrNotFound", err)
	}
}

func TestBadgerStateRepo_DeleteMissingIsNoOp(t *testing.T) {
	db := createTestBadgerDB(t)
	repo := NewBadgerStateRepo(db)
	if err := repo.Delete(context.Background(), "never-existed"); err != nil {
		t.Errorf("Delete() on absent key error = %v, want nil", err)
	}
}

func TestBadgerModelRepo_SaveLoadRoundTrip(t *testing.T) {
	db := createTestBadgerDB(t)
	repo := NewBadgerModelRepo(db, 1e-3)
	ctx := context.Background()

	model := algorithms.NewLinUCBModel(3, 1e-3)
	model.B[0] = 2.5
	model.UpdateCount = 7

	if err := repo.Save(ctx, "user-1", model); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.UpdateCount != model.UpdateCount {
		t.Errorf("UpdateCount = %d, want %d", got.UpdateCount, model.UpdateCount)
	}
	if got.B[0] != model.B[0] {
		t.Errorf("B[0] = %v, want %v", got.B[0], model.B[0])
	}
}

func TestBadgerModelRepo_LoadMissingReturnsErrNotFound(t *testing.T) {
	db := createTestBadgerDB(t)
	repo := NewBadgerModelRepo(db, 1e-3)

	_, err := repo.Load(context.Background(), "missing-user")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestBadgerModelRepo_Delete(t *testing.T) {
	db := createTestBadgerDB(t)
	repo := NewBadgerModelRepo(db, 1e-3)
	ctx := context.Background()

	model := algorithms.NewLinUCBModel(2, 1e-3)
	_ = repo.Save(ctx, "user-1", model)
	if err := repo.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Load(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after Delete() error = %v, want ErrNotFound", err)
	}
}
