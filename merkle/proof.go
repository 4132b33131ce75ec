// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"github.com/bitmark-inc/datacapsuled/crypto"
	"github.com/bitmark-inc/datacapsuled/fault"
	"github.com/bitmark-inc/datacapsuled/hashcache"
)

// ProofElement - one item of a proof stream: either a SignedHash
// naming a committed root, or a HashBlock. Exactly one field is set.
type ProofElement struct {
	SignedRoot *crypto.SignedHash
	Block      *HashBlock
}

// Proof - an ordered proof stream as described by the bandwidth
// optimisation in the design: a SignedHash is included only when
// needed, followed by the HashBlocks that chain down to the target.
type Proof []ProofElement

// Session - the per-Reader-session companion state kept alongside
// the hash cache: the last proven hash block and the last accepted
// signed root, both mutated in lockstep by client and server as the
// proof stream is processed.
type Session struct {
	Cache          *hashcache.Cache
	LastProven     *HashBlock
	LastSignedRoot crypto.Digest
}

// NewSession - a fresh session: last proven block is all Null Hash
// children, last signed root is the Null Hash, per the design.
func NewSession(cacheCapacity int, fanout int) *Session {
	return &Session{
		Cache:          hashcache.New(cacheCapacity),
		LastProven:     NewHashBlock(fanout),
		LastSignedRoot: crypto.NullHash,
	}
}

// Verify - process a proof stream against the session's cache and
// companion state, mutating both exactly as the design requires, and
// report whether the target is provably reachable from a signed
// root. This runs identically on the client (to decide ok/invalid)
// and on the server (for testing cache parity): both sides must
// reach the same state after the same stream.
func (s *Session) Verify(proof Proof, target crypto.Digest, writerPub crypto.PublicKey) (bool, error) {
	for _, elem := range proof {
		switch {
		case nil != elem.SignedRoot:
			sr := elem.SignedRoot
			if !sr.Verify(writerPub) {
				return false, fault.ErrInvalidSignature
			}
			s.Cache.Insert(s.LastSignedRoot)
			s.LastSignedRoot = sr.Hash

		case nil != elem.Block:
			hb := elem.Block
			name := hb.Name()
			valid := name == s.LastSignedRoot ||
				s.Cache.Contains(name) ||
				s.LastProven.Contains(name)
			if !valid {
				return false, fault.ErrInvalidProof
			}
			s.Cache.Insert(s.LastProven.Name())
			s.LastProven = hb

		default:
			return false, fault.ErrMalformedFrame
		}
	}

	ok := target == s.LastSignedRoot ||
		s.Cache.Contains(target) ||
		s.LastProven.Contains(target)
	return ok, nil
}
