// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package capstate

import (
	"sync"

	"github.com/bitmark-inc/datacapsuled/crypto"
	"github.com/bitmark-inc/datacapsuled/fault"
	"github.com/bitmark-inc/datacapsuled/notifyhub"
	"github.com/bitmark-inc/datacapsuled/storage"
)

// Capsule - one Datacapsule's in-memory state
type Capsule struct {
	ID            crypto.Digest
	CreatorPubkey crypto.PublicKey
	CreatorSig    crypto.Signature
	WriterPubkey  crypto.PublicKey
	Description   []byte

	mutex      sync.Mutex
	latestSeq  uint64
	latestRoot crypto.Digest

	writerLock sync.Mutex
	contended  bool

	Notify *notifyhub.Topic
}

var globalData struct {
	sync.RWMutex
	capsules    map[crypto.Digest]*Capsule
	initialised bool
}

// Initialise - populate the registry from storage's capsule_meta and
// latest tables; must run after storage.Initialise
func Initialise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.ErrAlreadyInitialised
	}

	ids, err := storage.ListCapsules()
	if nil != err {
		return err
	}

	capsules := make(map[crypto.Digest]*Capsule, len(ids))
	for _, id := range ids {
		if err := storage.VerifyAndRecover(id); nil != err {
			return err
		}

		meta, found, err := storage.ReadMeta(id)
		if nil != err {
			return err
		}
		if !found {
			continue
		}
		latest, err := storage.ReadLatest(id)
		if nil != err {
			return err
		}
		capsules[id] = &Capsule{
			ID:            id,
			CreatorPubkey: meta.CreatorPubkey,
			CreatorSig:    meta.CreatorSig,
			WriterPubkey:  meta.WriterPubkey,
			Description:   meta.Description,
			latestSeq:     latest.Seq,
			latestRoot:    latest.Root,
			Notify:        notifyhub.NewTopic(latest.Seq),
		}
	}

	globalData.capsules = capsules
	globalData.initialised = true
	return nil
}

// Finalise - drop the registry, for tests and clean shutdown
func Finalise() {
	globalData.Lock()
	defer globalData.Unlock()
	globalData.capsules = nil
	globalData.initialised = false
}

// Register - add a freshly-created Datacapsule to the registry,
// called by the Creator role right after storage.CreateCapsule
// succeeds
func Register(id crypto.Digest, creatorPub crypto.PublicKey, creatorSig crypto.Signature, writerPub crypto.PublicKey, description []byte) *Capsule {
	globalData.Lock()
	defer globalData.Unlock()
	c := &Capsule{
		ID:            id,
		CreatorPubkey: creatorPub,
		CreatorSig:    creatorSig,
		WriterPubkey:  writerPub,
		Description:   description,
		Notify:        notifyhub.NewTopic(0),
	}
	globalData.capsules[id] = c
	return c
}

// Lookup - the in-memory state for a Datacapsule, or nil if unknown
func Lookup(id crypto.Digest) *Capsule {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.capsules[id]
}

// Exists - true if id names a known Datacapsule
func Exists(id crypto.Digest) bool {
	return nil != Lookup(id)
}

// Latest - the capsule's current sequence number and root, taken
// under its own mutex
func (c *Capsule) Latest() (uint64, crypto.Digest) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.latestSeq, c.latestRoot
}

// AdvanceLatest - record a successful commit's new tip and wake any
// wait_after subscribers
func (c *Capsule) AdvanceLatest(seq uint64, root crypto.Digest) {
	c.mutex.Lock()
	c.latestSeq = seq
	c.latestRoot = root
	c.mutex.Unlock()
	c.Notify.Bump(seq)
}

// AcquireWriter - enforce spec.md §5's single-writer rule: at most
// one Writer session may hold staged records for this Datacapsule at
// a time
func (c *Capsule) AcquireWriter() error {
	c.writerLock.Lock()
	defer c.writerLock.Unlock()
	if c.contended {
		return fault.ErrWriterAlreadyOpen
	}
	c.contended = true
	return nil
}

// ReleaseWriter - give up the single-writer slot; WriterSession calls
// it only from Close, so the slot is held for the whole session
// across any number of commits
func (c *Capsule) ReleaseWriter() {
	c.writerLock.Lock()
	c.contended = false
	c.writerLock.Unlock()
}
