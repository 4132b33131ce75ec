// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage is the single goleveldb-backed key space for every
// Datacapsule: one database, struct-tag-declared prefixed pools, and
// a batch that stages the seven-step commit write path as one atomic
// leveldb.Batch.Write.
//
// Keys are table_prefix || datacapsule_id || table_key so one table's
// rows sort together, and one Datacapsule's rows within a table form a
// contiguous range for a capsule-scoped iterator.
package storage
