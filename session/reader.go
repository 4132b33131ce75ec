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

// ReaderSession - the Reader role of spec.md §4.4.3. Holds a
// per-connection merkle.Session: the hash cache and last-proven-block
// are never shared with any other connection.
type ReaderSession struct {
	capsule *capstate.Capsule
	cfg     Config
	sess    *merkle.Session
}

// NewReaderSession - a fresh session cache, initialised identically
// to a newly-connected client's per spec.md §4.4.3
func NewReaderSession(capsule *capstate.Capsule, cfg Config) *ReaderSession {
	return &ReaderSession{
		capsule: capsule,
		cfg:     cfg,
		sess:    merkle.NewSession(cfg.HashCacheCapacity, cfg.Fanout),
	}
}

// Handle - dispatches read/prove/startCache
func (s *ReaderSession) Handle(req *wire.Message) (*wire.Message, error) {
	switch {
	case nil != req.ReadRequest:
		return s.read(req.ReadRequest)
	case nil != req.ProveRequest:
		return s.prove(req.ProveRequest)
	case nil != req.StartCacheRequest:
		return s.startCache(req.StartCacheRequest)
	default:
		return nil, fault.ErrUnknownOpcode
	}
}

// Close - nothing to release; the session cache dies with the
// connection
func (s *ReaderSession) Close() {}

func (s *ReaderSession) read(req *wire.ReadRequest) (*wire.Message, error) {
	bytes, found, err := storage.ReadBinData(s.capsule.ID, req.Hash)
	if nil != err {
		return nil, err
	}
	return &wire.Message{ReadResponse: &wire.ReadResponse{Found: found, Bytes: bytes}}, nil
}

// prove - assemble the proof stream of spec.md §4.2: elide the
// SignedHash of the nearest covering root when a farther, still
// cheaply-reachable root is already anchored in this session's cache,
// per sig_avoid_max_extra_hashes; otherwise fall back to signing the
// nearest root explicitly. The server then replays its own assembled
// stream through the same merkle.Session.Verify used by clients, so
// its cache stays in lockstep with whatever the client is expected to
// derive (testable property 5).
func (s *ReaderSession) prove(req *wire.ProveRequest) (*wire.Message, error) {
	rb, found, err := storage.FindRecordBlock(s.capsule.ID, req.Hash)
	if nil != err {
		return nil, err
	}
	if !found {
		return &wire.Message{ProveResponse: &wire.ProveResponse{}}, nil
	}

	chain, err := storage.ChainToRoot(s.capsule.ID, rb.ParentTreeHash)
	if nil != err {
		return nil, err
	}
	if 0 == len(chain) {
		return &wire.Message{ProveResponse: &wire.ProveResponse{}}, nil
	}

	// the tip (the last entry of chain) is always itself a signed root,
	// per ChainToRoot's stop condition; that is the default covering
	// root absent any cache hit, per spec.md §4.2's "most recent root"
	// rule
	nearest := len(chain) - 1
	if !chain[nearest].IsSignedRoot {
		return &wire.Message{ProveResponse: &wire.ProveResponse{}}, nil
	}

	start := nearest
	for i := nearest; i >= 0 && i >= nearest-s.cfg.SigAvoidMaxExtra; i -= 1 {
		if !chain[i].IsSignedRoot {
			continue
		}
		if s.anchored(chain[i].Name) {
			start = i
		}
	}

	proof := make(merkle.Proof, 0, start+2)
	if !s.anchored(chain[start].Name) {
		sig, found, err := storage.ReadSignature(s.capsule.ID, chain[start].Name)
		if nil != err {
			return nil, err
		}
		if !found {
			return &wire.Message{ProveResponse: &wire.ProveResponse{}}, nil
		}
		proof = append(proof, merkle.ProofElement{SignedRoot: &crypto.SignedHash{
			Hash:      chain[start].Name,
			Signature: sig,
		}})
	}
	for i := start; i >= 0; i -= 1 {
		proof = append(proof, merkle.ProofElement{Block: &merkle.HashBlock{Children: chain[i].Children}})
	}

	ok, err := s.sess.Verify(proof, req.Hash, s.capsule.WriterPubkey)
	if nil != err || !ok {
		return &wire.Message{ProveResponse: &wire.ProveResponse{}}, nil
	}

	wireProof := make([]wire.ProofElement, len(proof))
	for i, e := range proof {
		wireProof[i] = wire.ProofElement{SignedRoot: e.SignedRoot, Block: e.Block}
	}
	return &wire.Message{ProveResponse: &wire.ProveResponse{Proof: wireProof}}, nil
}

// anchored - true if name is already reachable without re-sending
// its signature: it is the session's last accepted signed root, or it
// sits in the hash cache from an earlier proof in this connection
func (s *ReaderSession) anchored(name crypto.Digest) bool {
	return name == s.sess.LastSignedRoot || s.sess.Cache.Contains(name)
}

// startCache - replay a client-supplied snapshot so this session's
// cache matches a persisted client cache from a prior connection,
// spec.md §4.4.3
func (s *ReaderSession) startCache(req *wire.StartCacheRequest) (*wire.Message, error) {
	s.sess.Cache.Clear()
	s.sess.Cache.Replay(req.Hashes)
	return &wire.Message{StartCacheResponse: &wire.StartCacheResponse{OK: true}}, nil
}
