// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/amas-engine/internal/amas/algorithms"
)

const (
	stateKeyPrefix = "amas:state:"
	modelKeyPrefix = "amas:model:"
)

// BadgerStateRepo implements StateRepo over a shared BadgerDB handle.
type BadgerStateRepo struct {
	db *badger.DB
}

// NewBadgerStateRepo wraps an open BadgerDB handle as a StateRepo.
func NewBadgerStateRepo(db *badger.DB) *BadgerStateRepo {
	return &BadgerStateRepo{db: db}
}

// Load returns ErrNotFound if no record exists for userID.
func (r *BadgerStateRepo) Load(ctx context.Context, userID string) (*UserStateRecord, error) {
	var rec UserStateRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(stateKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get state: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save writes rec for userID, overwriting any existing record.
func (r *BadgerStateRepo) Save(ctx context.Context, userID string, rec *UserStateRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(stateKeyPrefix+userID), data)
	})
}

// Delete removes userID's state record, if present.
func (r *BadgerStateRepo) Delete(ctx context.Context, userID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(stateKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// BadgerModelRepo implements ModelRepo over a shared BadgerDB handle,
// using the little-endian float32 wire format of EncodeModel/DecodeModel.
type BadgerModelRepo struct {
	db     *badger.DB
	lambda float64
}

// NewBadgerModelRepo wraps an open BadgerDB handle as a ModelRepo. lambda
// is the ridge constant applied to any model decoded from storage (it is
// not itself persisted, per spec.md §6).
func NewBadgerModelRepo(db *badger.DB, lambda float64) *BadgerModelRepo {
	return &BadgerModelRepo{db: db, lambda: lambda}
}

// Load returns ErrNotFound if no model exists for userID.
func (r *BadgerModelRepo) Load(ctx context.Context, userID string) (*algorithms.LinUCBModel, error) {
	var model *algorithms.LinUCBModel
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(modelKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get model: %w", err)
		}
		return item.Value(func(val []byte) error {
			decoded, decodeErr := DecodeModel(val, r.lambda)
			if decodeErr != nil {
				return decodeErr
			}
			model = decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Save writes model for userID in the binary wire format.
func (r *BadgerModelRepo) Save(ctx context.Context, userID string, model *algorithms.LinUCBModel) error {
	data := EncodeModel(model)
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(modelKeyPrefix+userID), data)
	})
}

// Delete removes userID's model record, if present.
func (r *BadgerModelRepo) Delete(ctx context.Context, userID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(modelKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
