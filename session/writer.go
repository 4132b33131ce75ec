// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"github.com/bitmark-inc/datacapsuled/capstate"
	"github.com/bitmark-inc/datacapsuled/crypto"
	"github.com/bitmark-inc/datacapsuled/fault"
	"github.com/bitmark-inc/datacapsuled/merkle"
	"github.com/bitmark-inc/datacapsuled/storage"
	"github.com/bitmark-inc/datacapsuled/wire"
)

// WriterSession - the Writer role of spec.md §4.4.2: a per-connection
// uncommitted list U, staged under an exclusive per-Datacapsule lock
// held for the session's lifetime.
type WriterSession struct {
	capsule *capstate.Capsule
	cfg     Config

	U          []storage.StagedRecord
	stagedSize int
	seqStart   uint64
}

// NewWriterSession - acquires the Datacapsule's writer lock; the
// caller must call Close exactly once to release it, whether or not
// any write ever succeeds
func NewWriterSession(capsule *capstate.Capsule, cfg Config) (*WriterSession, error) {
	if err := capsule.AcquireWriter(); nil != err {
		return nil, err
	}
	seq, root := capsule.Latest()
	start := uint64(0)
	if !root.IsNull() {
		start = seq + 1
	}
	return &WriterSession{capsule: capsule, cfg: cfg, seqStart: start}, nil
}

// Handle - dispatches a WriteRequest or CommitRequest
func (s *WriterSession) Handle(req *wire.Message) (*wire.Message, error) {
	switch {
	case nil != req.WriteRequest:
		return s.write(req.WriteRequest)
	case nil != req.CommitRequest:
		return s.commit(req.CommitRequest)
	default:
		return nil, fault.ErrUnknownOpcode
	}
}

// write - stage one record; the seq check is `seq == seqStart + |U|`,
// where seqStart is latest_seq + 1 (0 before the first commit), i.e.
// the next slot after everything already staged this session
func (s *WriterSession) write(req *wire.WriteRequest) (*wire.Message, error) {
	expected := s.seqStart + uint64(len(s.U))
	if req.Seq != expected {
		return &wire.Message{WriteAck: &wire.WriteAck{OK: false}}, nil
	}
	if s.stagedSize+len(req.EncryptedBytes) > s.cfg.MaxStagedBytes {
		return &wire.Message{WriteAck: &wire.WriteAck{OK: false}}, nil
	}
	if nil != s.cfg.WriteLimiter {
		if err := rateLimitN(s.cfg.WriteLimiter, len(req.EncryptedBytes), s.cfg.MaxStagedBytes); nil != err {
			return &wire.Message{WriteAck: &wire.WriteAck{OK: false}}, nil
		}
	}

	hash := crypto.Hash(req.EncryptedBytes)
	s.U = append(s.U, storage.StagedRecord{Hash: hash, Bytes: req.EncryptedBytes})
	s.stagedSize += len(req.EncryptedBytes)
	return &wire.Message{WriteAck: &wire.WriteAck{OK: true}}, nil
}

// commit - build the tree over U, verify the client's root and
// signature, persist, advance the capsule's tip and wake subscribers.
// Any failure clears U and returns the deliberately coarse empty
// CommitResponse of spec.md §7, scenario S4.
func (s *WriterSession) commit(req *wire.CommitRequest) (*wire.Message, error) {
	defer s.clear()

	if 0 == len(s.U) {
		return &wire.Message{CommitResponse: &wire.CommitResponse{OK: false}}, nil
	}

	leaves := make([]crypto.Digest, len(s.U))
	for i, r := range s.U {
		leaves[i] = r.Hash
	}

	var chained *crypto.Digest
	var previousRoot *crypto.Digest
	if req.IncludePrevRoot {
		_, root := s.capsule.Latest()
		if !root.IsNull() {
			r := root
			chained = &r
			previousRoot = &r
		}
	}

	tree := merkle.Build(leaves, s.cfg.Fanout, chained)
	root := tree.Root()

	if root != req.ClientRoot {
		return &wire.Message{CommitResponse: &wire.CommitResponse{OK: false}}, nil
	}
	if !crypto.Verify(s.capsule.WriterPubkey, root[:], req.ClientSignedRoot) {
		return &wire.Message{CommitResponse: &wire.CommitResponse{OK: false}}, nil
	}

	if err := storage.CommitWrite(s.capsule.ID, s.U, s.seqStart, tree, root, req.ClientSignedRoot, previousRoot); nil != err {
		return &wire.Message{CommitResponse: &wire.CommitResponse{OK: false}}, nil
	}

	newSeq := s.seqStart + uint64(len(s.U)) - 1
	s.capsule.AdvanceLatest(newSeq, root)
	s.seqStart = newSeq + 1

	return &wire.Message{CommitResponse: &wire.CommitResponse{
		OK:               true,
		Root:             root,
		ServerSignedRoot: req.ClientSignedRoot,
	}}, nil
}

func (s *WriterSession) clear() {
	s.U = nil
	s.stagedSize = 0
}

// Close - discard any uncommitted records and release the writer lock
func (s *WriterSession) Close() {
	s.clear()
	s.capsule.ReleaseWriter()
}
