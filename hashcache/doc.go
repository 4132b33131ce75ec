// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package hashcache - a deterministic, fixed-capacity set of
// "already proven" hashes
//
// Client and server must stay bit-identical: eviction is a pure
// function of the sequence of Insert calls and the capacity alone,
// with no randomness and no timing dependence. The reference design
// is a direct-mapped table, not an LRU - unlike bitmarkd's
// limitedset.LimitedSet (which reorders on re-insertion and serves
// bitmarkd as a recently-seen filter), membership here must not depend
// on access order, only on index.
package hashcache
