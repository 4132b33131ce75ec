// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"bytes"

	"github.com/bitmark-inc/datacapsuled/crypto"
)

// ReadBinData - the stored ciphertext for a record hash
func ReadBinData(capsuleID crypto.Digest, hash crypto.Digest) ([]byte, bool, error) {
	value, err := Pool.BinData.Get(capsuleID, hash[:])
	if nil != err {
		return nil, false, err
	}
	return value, nil != value, nil
}

// FindRecordBlock - the recordblocks row for a record hash,
// regardless of which sequence number it was staged under. Any one
// occurrence suffices: spec.md §8 scenario S6 requires proofs for
// every occurrence to succeed, not that the lookup recover a
// specific one.
func FindRecordBlock(capsuleID crypto.Digest, hash crypto.Digest) (RecordBlockRecord, bool, error) {
	var rb RecordBlockRecord
	elements := Pool.RecordBlocks.Iterator(capsuleID).Fetch()
	for _, e := range elements {
		if len(e.Key) < crypto.DigestLength {
			continue
		}
		if bytes.Equal(e.Key[:crypto.DigestLength], hash[:]) {
			return rb, true, decode(e.Value, &rb)
		}
	}
	return rb, false, nil
}

// ReadTreeBlock - one interior HashBlock's stored row by its name
func ReadTreeBlock(capsuleID crypto.Digest, name crypto.Digest) (TreeBlockRecord, bool, error) {
	var tb TreeBlockRecord
	raw, err := Pool.TreeBlocks.Get(capsuleID, name[:])
	if nil != err || nil == raw {
		return tb, false, err
	}
	return tb, true, decode(raw, &tb)
}

// ReadSignature - the signature stored for a signed root
func ReadSignature(capsuleID crypto.Digest, rootName crypto.Digest) (crypto.Signature, bool, error) {
	raw, err := Pool.SigBlocks.Get(capsuleID, rootName[:])
	if nil != err {
		return nil, false, err
	}
	return crypto.Signature(raw), nil != raw, nil
}

// NameFromNum - the record hash committed at sequence number seq
func NameFromNum(capsuleID crypto.Digest, seq uint64) (crypto.Digest, bool, error) {
	var hash crypto.Digest
	raw, err := Pool.SeqBlocks.Get(capsuleID, seqKey(seq))
	if nil != err || nil == raw {
		return hash, false, err
	}
	return hash, true, crypto.DigestFromBytes(&hash, raw)
}

// NumFromName - the sequence number(s) a record hash was committed
// under; spec.md §8's round-trip property only requires recovering
// one such seq, so the first match is returned
func NumFromName(capsuleID crypto.Digest, hash crypto.Digest) (uint64, bool, error) {
	elements := Pool.SeqBlocks.Iterator(capsuleID).Fetch()
	for _, e := range elements {
		if bytes.Equal(e.Value, hash[:]) {
			return seqFromKey(e.Key), true, nil
		}
	}
	return 0, false, nil
}

// TreeBlockEntry - one node of a persisted parent-pointer chain, as
// returned by ChainToRoot
type TreeBlockEntry struct {
	Name crypto.Digest
	TreeBlockRecord
}

// ChainToRoot - walk the persisted treeblocks parent-pointer graph
// from startName all the way up to the current tip, following
// TreeBlockRecord.ParentName across commit boundaries (a root's
// ParentName is null until some later commit chains it in as an
// extra leaf, at which point it points into that commit's tree, and
// so on). The walk ends at the node whose ParentName is still null -
// the Datacapsule's latest committed root. Every node the walk
// passes through that commit's own root is flagged IsSignedRoot, so
// the caller can pick any of them as a proof's starting signed hash.
//
// This is the part of proof assembly merkle.Tree cannot do alone,
// since a tree only knows about the nodes of the one commit it was
// built from.
func ChainToRoot(capsuleID crypto.Digest, startName crypto.Digest) ([]TreeBlockEntry, error) {
	chain := make([]TreeBlockEntry, 0)
	name := startName
	for {
		tb, found, err := ReadTreeBlock(capsuleID, name)
		if nil != err {
			return nil, err
		}
		if !found {
			return chain, nil
		}
		chain = append(chain, TreeBlockEntry{Name: name, TreeBlockRecord: tb})
		if tb.ParentName.IsNull() {
			return chain, nil
		}
		name = tb.ParentName
	}
}
