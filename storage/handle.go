// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/datacapsuled/crypto"
)

// PoolHandle - one logical table. Rows are keyed
// table_prefix || datacapsule_id || table_key, so both "every
// Datacapsule's rows in this table" and "this Datacapsule's rows in
// this table" are contiguous leveldb ranges.
type PoolHandle struct {
	prefix byte
}

// Element - a decoded key/value pair, prefix and capsule id stripped
type Element struct {
	Key   []byte
	Value []byte
}

func (p *PoolHandle) rowKey(capsuleID crypto.Digest, key []byte) []byte {
	row := make([]byte, 0, 1+crypto.DigestLength+len(key))
	row = append(row, p.prefix)
	row = append(row, capsuleID[:]...)
	row = append(row, key...)
	return row
}

// StagePut - add a row to batch and make it visible to Get/Has
// immediately, before batch is ever written to the database
func (p *PoolHandle) StagePut(batch *Batch, capsuleID crypto.Digest, key []byte, value []byte) {
	rk := p.rowKey(capsuleID, key)
	batch.lb.Put(rk, value)
	poolData.RLock()
	poolData.cache.Set(dbPut, string(rk), value)
	poolData.RUnlock()
}

// StageDelete - add a row deletion to batch, visible immediately
func (p *PoolHandle) StageDelete(batch *Batch, capsuleID crypto.Digest, key []byte) {
	rk := p.rowKey(capsuleID, key)
	batch.lb.Delete(rk)
	poolData.RLock()
	poolData.cache.Set(dbDelete, string(rk), nil)
	poolData.RUnlock()
}

// Get - read a value, consulting the read-your-own-writes cache
// before falling back to the database
func (p *PoolHandle) Get(capsuleID crypto.Digest, key []byte) ([]byte, error) {
	poolData.RLock()
	defer poolData.RUnlock()
	rk := p.rowKey(capsuleID, key)
	if value, found := poolData.cache.Get(string(rk)); found {
		return value, nil
	}
	value, err := poolData.db.Get(rk, nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	}
	return value, err
}

// Has - true if key has a value, staged or committed
func (p *PoolHandle) Has(capsuleID crypto.Digest, key []byte) (bool, error) {
	value, err := p.Get(capsuleID, key)
	return nil != value, err
}

func bump(prefix []byte) []byte {
	limit := make([]byte, len(prefix))
	copy(limit, prefix)
	limit[len(limit)-1] += 1
	return limit
}

// Iterator - a range over this table's rows within one Datacapsule's
// key space
func (p *PoolHandle) Iterator(capsuleID crypto.Digest) iteratorRange {
	start := p.rowKey(capsuleID, nil)
	return iteratorRange{rng: ldb_util.Range{Start: start, Limit: bump(start)}, stripLen: len(start)}
}

// AllCapsules - a range over every row of this table regardless of
// Datacapsule, used by the startup recovery scan to discover which
// Datacapsules exist.
func (p *PoolHandle) AllCapsules() iteratorRange {
	start := []byte{p.prefix}
	return iteratorRange{rng: ldb_util.Range{Start: start, Limit: bump(start)}, stripLen: 1}
}

type iteratorRange struct {
	rng      ldb_util.Range
	stripLen int
}

// Fetch - decode every row in the range, with stripLen leading bytes
// (the prefix, and the capsule id if the range was capsule-scoped)
// removed from each returned key
func (r iteratorRange) Fetch() []Element {
	poolData.RLock()
	defer poolData.RUnlock()

	iter := poolData.db.NewIterator(&r.rng, nil)
	defer iter.Release()

	results := make([]Element, 0)
	for iter.Next() {
		key := iter.Key()
		value := iter.Value()
		dataKey := make([]byte, len(key)-r.stripLen)
		copy(dataKey, key[r.stripLen:])
		dataValue := make([]byte, len(value))
		copy(dataValue, value)
		results = append(results, Element{Key: dataKey, Value: dataValue})
	}
	return results
}
