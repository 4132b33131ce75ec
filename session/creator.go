// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"github.com/bitmark-inc/datacapsuled/capstate"
	"github.com/bitmark-inc/datacapsuled/crypto"
	"github.com/bitmark-inc/datacapsuled/fault"
	"github.com/bitmark-inc/datacapsuled/storage"
	"github.com/bitmark-inc/datacapsuled/wire"
)

// CreatorSession - the one-shot createDatacapsule role of spec.md
// §4.4.1. No operation after the first is accepted on this
// connection.
type CreatorSession struct {
	done bool
}

// NewCreatorSession - a session ready for its single CreateRequest
func NewCreatorSession() *CreatorSession {
	return &CreatorSession{}
}

// Handle - accepts exactly one CreateRequest
func (s *CreatorSession) Handle(req *wire.Message) (*wire.Message, error) {
	if s.done {
		return nil, fault.ErrWrongRoleForOperation
	}
	if nil == req.CreateRequest {
		return nil, fault.ErrUnknownOpcode
	}
	s.done = true

	cr := req.CreateRequest
	capsuleID := DatacapsuleID(cr.CreatorPub, cr.WriterPubkey, cr.Description)

	if !crypto.Verify(cr.CreatorPub, capsuleID[:], cr.CreatorSig) {
		return &wire.Message{CreateResponse: &wire.CreateResponse{OK: false}}, nil
	}

	meta := storage.MetaRecord{
		CreatorPubkey: cr.CreatorPub,
		CreatorSig:    cr.CreatorSig,
		WriterPubkey:  cr.WriterPubkey,
		Description:   cr.Description,
	}
	if err := storage.CreateCapsule(capsuleID, meta); nil != err {
		return &wire.Message{CreateResponse: &wire.CreateResponse{OK: false}}, nil
	}

	capstate.Register(capsuleID, cr.CreatorPub, cr.CreatorSig, cr.WriterPubkey, cr.Description)
	return &wire.Message{CreateResponse: &wire.CreateResponse{OK: true}}, nil
}

// Close - no resources held by a Creator session
func (s *CreatorSession) Close() {}

// DatacapsuleID - the deterministic identifier derivation of
// SPEC_FULL.md §4: H(creator_pubkey || writer_pubkey || H(description))
func DatacapsuleID(creatorPub, writerPub crypto.PublicKey, description []byte) crypto.Digest {
	descHash := crypto.Hash(description)
	buf := make([]byte, 0, len(creatorPub)+len(writerPub)+crypto.DigestLength)
	buf = append(buf, creatorPub...)
	buf = append(buf, writerPub...)
	buf = append(buf, descHash[:]...)
	return crypto.Hash(buf)
}
