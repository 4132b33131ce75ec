// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/bitmark-inc/datacapsuled/crypto"
)

// MetaRecord - the capsule_meta row: spec.md §4.6, one per Datacapsule
type MetaRecord struct {
	CreatorPubkey crypto.PublicKey
	CreatorSig    crypto.Signature
	WriterPubkey  crypto.PublicKey
	Description   []byte
}

// LatestRecord - the latest row: the tip of the committed chain.
// PreviousSeq/PreviousRoot name the prior commit's tip, null for a
// Datacapsule's first commit; the startup recovery scan uses them to
// roll Latest back one step when Root's sigblocks row is missing.
type LatestRecord struct {
	Seq          uint64
	Root         crypto.Digest
	SignedRoot   crypto.Signature
	PreviousSeq  uint64
	PreviousRoot crypto.Digest
}

// RecordBlockRecord - the recordblocks row: where a record's bytes
// sit in the tree and in the sequence index
type RecordBlockRecord struct {
	ParentTreeHash crypto.Digest
	Seq            uint64
}

// TreeBlockRecord - the treeblocks row: one interior HashBlock plus
// its parent link and root flag
type TreeBlockRecord struct {
	ParentName   crypto.Digest
	IsSignedRoot bool
	Children     []crypto.Digest
}

func encode(v interface{}) []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); nil != err {
		panic(err)
	}
	return buf.Bytes()
}

func decode(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func seqFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}

// recordBlockKey - hash||seq, so a commit that stages the same record
// bytes twice (spec.md §8 scenario S6) still gets one row per
// occurrence instead of the second silently overwriting the first
func recordBlockKey(hash crypto.Digest, seq uint64) []byte {
	key := make([]byte, crypto.DigestLength+8)
	copy(key, hash[:])
	binary.BigEndian.PutUint64(key[crypto.DigestLength:], seq)
	return key
}
