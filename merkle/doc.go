// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package merkle - Merkle tree builder and proof verifier
//
// Builds a configurable-fanout Merkle tree over an ordered batch of
// leaf hashes and verifies a proof stream against a client/server
// hash cache. Building is deterministic: identical inputs always
// produce byte-identical HashBlocks and the same root, because the
// root is what gets signed.
//
// This package is pure - it never touches storage. Walking the
// persisted tree graph's parent links across commits is
// storage.ChainToRoot, and assembling a proof stream from that walk is
// done by session.ReaderSession; both need the table access this
// package intentionally does not have.
package merkle
