// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"github.com/bitmark-inc/datacapsuled/crypto"
)

// HashBlock - an interior Merkle node: an ordered tuple of child
// hashes. A child slot may be the Null Hash. Its name is the hash of
// the concatenation of its children, in order.
type HashBlock struct {
	Children []crypto.Digest
}

// NewHashBlock - allocate a HashBlock of the given fanout, all
// children initialised to the Null Hash
func NewHashBlock(fanout int) *HashBlock {
	hb := &HashBlock{
		Children: make([]crypto.Digest, fanout),
	}
	return hb
}

// Name - the content-addressed name of this HashBlock
func (hb *HashBlock) Name() crypto.Digest {
	buffer := make([]byte, 0, len(hb.Children)*crypto.DigestLength)
	for _, c := range hb.Children {
		buffer = append(buffer, c[:]...)
	}
	return crypto.Hash(buffer)
}

// Contains - true if t is one of this block's children
func (hb *HashBlock) Contains(t crypto.Digest) bool {
	for _, c := range hb.Children {
		if c == t {
			return true
		}
	}
	return false
}

// Equal - structural equality, used by tests and by cache-parity checks
func (hb *HashBlock) Equal(other *HashBlock) bool {
	if nil == hb || nil == other {
		return hb == other
	}
	if len(hb.Children) != len(other.Children) {
		return false
	}
	for i, c := range hb.Children {
		if c != other.Children[i] {
			return false
		}
	}
	return true
}
