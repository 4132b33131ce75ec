// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"context"

	"github.com/bitmark-inc/datacapsuled/capstate"
	"github.com/bitmark-inc/datacapsuled/fault"
	"github.com/bitmark-inc/datacapsuled/storage"
	"github.com/bitmark-inc/datacapsuled/wire"
)

// SubscriberSession - the Subscriber role of spec.md §4.4.4: four
// lookups, the last of which blocks on the capsule's notify hub.
type SubscriberSession struct {
	capsule *capstate.Capsule
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewSubscriberSession - ctx should be cancelled by the dispatcher
// when the underlying connection closes, so a pending wait_after is
// released without a response per spec.md §4.4.4's cancellation rule
func NewSubscriberSession(ctx context.Context, capsule *capstate.Capsule) *SubscriberSession {
	ctx, cancel := context.WithCancel(ctx)
	return &SubscriberSession{capsule: capsule, ctx: ctx, cancel: cancel}
}

// Handle - dispatches one of the four subscriber operations
func (s *SubscriberSession) Handle(req *wire.Message) (*wire.Message, error) {
	switch {
	case nil != req.GetLastNumRequest:
		seq, _ := s.capsule.Latest()
		return &wire.Message{GetLastNumResponse: &wire.GetLastNumResponse{Seq: seq}}, nil

	case nil != req.NameFromNumRequest:
		hash, found, err := storage.NameFromNum(s.capsule.ID, req.NameFromNumRequest.Seq)
		if nil != err {
			return nil, err
		}
		return &wire.Message{NameFromNumResponse: &wire.NameFromNumResponse{Found: found, Hash: hash}}, nil

	case nil != req.NumFromNameRequest:
		seq, found, err := storage.NumFromName(s.capsule.ID, req.NumFromNameRequest.Hash)
		if nil != err {
			return nil, err
		}
		return &wire.Message{NumFromNameResponse: &wire.NumFromNameResponse{Found: found, Seq: seq}}, nil

	case nil != req.WaitAfterRequest:
		newSeq, err := s.capsule.Notify.Wait(s.ctx, req.WaitAfterRequest.Seq)
		if nil != err {
			// context cancelled by connection close: no response, per
			// spec.md §4.4.4's cancellation rule
			return nil, err
		}
		return &wire.Message{WaitAfterResponse: &wire.WaitAfterResponse{NewSeq: newSeq}}, nil

	default:
		return nil, fault.ErrUnknownOpcode
	}
}

// Close - release waiters blocked on this session's wait_after
func (s *SubscriberSession) Close() {
	s.cancel()
}
