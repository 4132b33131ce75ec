// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
)

// Batch - one atomic group of writes across any number of tables.
// A Creator's metadata insert (capsule_meta plus the initial latest
// row) and a Writer's whole commit
// (spec.md §4.6's ordered seven steps) are both a single Batch: the
// caller stages rows with StagePut/StageDelete in order, then calls
// Write once.
//
// Staged rows are visible to PoolHandle.Get/Has the moment they are
// staged, which is what lets a commit's later steps (parent-link
// updates) read back rows a commit's earlier steps just staged.
type Batch struct {
	lb *leveldb.Batch
}

// NewBatch - an empty batch ready for staging
func NewBatch() *Batch {
	return &Batch{lb: new(leveldb.Batch)}
}

// Write - apply every staged row to the database atomically
func (b *Batch) Write() error {
	poolData.RLock()
	defer poolData.RUnlock()
	return poolData.db.Write(b.lb, nil)
}

// Len - number of staged operations, for metrics/logging
func (b *Batch) Len() int {
	return b.lb.Len()
}
