// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/bitmark-inc/datacapsuled/crypto"
	"github.com/bitmark-inc/datacapsuled/fault"
	"github.com/bitmark-inc/datacapsuled/merkle"
)

// CreateCapsule - the Creator role's one atomic write: the
// capsule_meta row plus an initial empty latest row. Returns
// fault.ErrDatacapsuleExists if the identifier is taken.
func CreateCapsule(capsuleID crypto.Digest, meta MetaRecord) error {
	exists, err := Pool.CapsuleMeta.Has(capsuleID, nil)
	if nil != err {
		return err
	}
	if exists {
		return fault.ErrDatacapsuleExists
	}

	batch := NewBatch()
	Pool.CapsuleMeta.StagePut(batch, capsuleID, nil, encode(meta))
	Pool.Latest.StagePut(batch, capsuleID, nil, encode(LatestRecord{
		Seq:  0,
		Root: crypto.NullHash,
	}))
	return batch.Write()
}

// ReadMeta - the capsule_meta row
func ReadMeta(capsuleID crypto.Digest) (MetaRecord, bool, error) {
	var meta MetaRecord
	raw, err := Pool.CapsuleMeta.Get(capsuleID, nil)
	if nil != err || nil == raw {
		return meta, false, err
	}
	return meta, true, decode(raw, &meta)
}

// ReadLatest - the latest row
func ReadLatest(capsuleID crypto.Digest) (LatestRecord, error) {
	var latest LatestRecord
	raw, err := Pool.Latest.Get(capsuleID, nil)
	if nil != err {
		return latest, err
	}
	if nil == raw {
		return LatestRecord{Root: crypto.NullHash}, nil
	}
	return latest, decode(raw, &latest)
}

// ListCapsules - every Datacapsule identifier known to the database,
// for the startup recovery scan
func ListCapsules() ([]crypto.Digest, error) {
	elements := Pool.CapsuleMeta.AllCapsules().Fetch()
	ids := make([]crypto.Digest, 0, len(elements))
	for _, e := range elements {
		var id crypto.Digest
		if err := crypto.DigestFromBytes(&id, e.Key); nil != err {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// StagedRecord - one record of a Writer session's uncommitted batch
type StagedRecord struct {
	Hash  crypto.Digest
	Bytes []byte
}

// CommitWrite - the seven-step ordered write path described in
// spec.md §4.6. previousRoot is the chained prior commit's root
// block name, or nil when this commit does not chain a previous root.
func CommitWrite(
	capsuleID crypto.Digest,
	records []StagedRecord,
	seqStart uint64,
	tree *merkle.Tree,
	root crypto.Digest,
	signedRoot crypto.Signature,
	previousRoot *crypto.Digest,
) error {
	batch := NewBatch()

	// 1. bindata rows
	for _, r := range records {
		Pool.BinData.StagePut(batch, capsuleID, r.Hash[:], r.Bytes)
	}

	// 2. recordblocks rows: each record's direct parent is the bottom
	// level HashBlock containing it. Keyed by (hash, seq), not hash
	// alone, so a commit with duplicate record bytes still gets one
	// row per occurrence.
	for i, r := range records {
		path := tree.PathAtIndex(i)
		if nil == path {
			return fault.ErrRootHashMismatch
		}
		seq := seqStart + uint64(i)
		rb := RecordBlockRecord{ParentTreeHash: path[0].Name(), Seq: seq}
		Pool.RecordBlocks.StagePut(batch, capsuleID, recordBlockKey(r.Hash, seq), encode(rb))
	}

	// 3. treeblocks rows for every interior node of the new commit
	rootName := tree.Root()
	for _, block := range tree.AllBlocks() {
		name := block.Name()
		parent := parentOf(tree, name)
		tb := TreeBlockRecord{
			IsSignedRoot: name == rootName,
			Children:     block.Children,
		}
		if nil != parent {
			tb.ParentName = *parent
		}
		Pool.TreeBlocks.StagePut(batch, capsuleID, name[:], encode(tb))
	}

	// 4. parent-link update on the chained previous commit's root
	if nil != previousRoot {
		raw, err := Pool.TreeBlocks.Get(capsuleID, (*previousRoot)[:])
		if nil != err {
			return err
		}
		if nil != raw {
			var prev TreeBlockRecord
			if err := decode(raw, &prev); nil != err {
				return err
			}
			prev.ParentName = rootName
			Pool.TreeBlocks.StagePut(batch, capsuleID, (*previousRoot)[:], encode(prev))
		}
	}

	// 5. sigblocks row for the new root
	Pool.SigBlocks.StagePut(batch, capsuleID, rootName[:], []byte(signedRoot))

	// 6. seqblocks rows for the new records
	for i, r := range records {
		Pool.SeqBlocks.StagePut(batch, capsuleID, seqKey(seqStart+uint64(i)), r.Hash[:])
	}

	// 7. latest - the commit point
	previous := LatestRecord{}
	if nil != previousRoot {
		prevLatest, err := ReadLatest(capsuleID)
		if nil != err {
			return err
		}
		previous = prevLatest
	}
	Pool.Latest.StagePut(batch, capsuleID, nil, encode(LatestRecord{
		Seq:          seqStart + uint64(len(records)) - 1,
		Root:         rootName,
		SignedRoot:   signedRoot,
		PreviousSeq:  previous.Seq,
		PreviousRoot: previous.Root,
	}))

	return batch.Write()
}

// parentOf - the name of the HashBlock one level up that contains
// name as a child, or nil if name is the tree's own root
func parentOf(tree *merkle.Tree, name crypto.Digest) *crypto.Digest {
	for level := 0; level < len(tree.Levels)-1; level += 1 {
		for _, upper := range tree.Levels[level+1] {
			if upper.Contains(name) {
				n := upper.Name()
				return &n
			}
		}
	}
	return nil
}
