// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/datacapsuled/capstate"
	"github.com/bitmark-inc/datacapsuled/crypto"
	"github.com/bitmark-inc/datacapsuled/merkle"
	"github.com/bitmark-inc/datacapsuled/session"
	"github.com/bitmark-inc/datacapsuled/storage"
	"github.com/bitmark-inc/datacapsuled/wire"
)

func fakeRoot(t *testing.T, leaves []crypto.Digest, fanout int) crypto.Digest {
	t.Helper()
	return merkle.Build(leaves, fanout, nil).Root()
}

const databaseDirectory = "test.leveldb"

func testConfig() session.Config {
	return session.Config{
		Fanout:            2,
		HashCacheCapacity: 16,
		SigAvoidMaxExtra:  4,
		MaxStagedBytes:    1 << 20,
	}
}

func setup(t *testing.T) {
	os.RemoveAll(databaseDirectory)
	assert.NoError(t, storage.Initialise(databaseDirectory, storage.ReadWrite))
	assert.NoError(t, capstate.Initialise())
}

func teardown(t *testing.T) {
	capstate.Finalise()
	storage.Finalise()
	os.RemoveAll(databaseDirectory)
}

func createCapsule(t *testing.T) (crypto.Digest, crypto.PublicKey, crypto.PrivateKey) {
	creatorPub, creatorPriv, err := crypto.GenerateKeyPair()
	assert.NoError(t, err)
	writerPub, writerPriv, err := crypto.GenerateKeyPair()
	assert.NoError(t, err)

	description := []byte("d")
	id := session.DatacapsuleID(creatorPub, writerPub, description)
	sig := crypto.Sign(creatorPriv, id[:])

	creator := session.NewCreatorSession()
	resp, err := creator.Handle(&wire.Message{CreateRequest: &wire.CreateRequest{
		WriterPubkey: writerPub,
		Description:  description,
		CreatorSig:   sig,
		CreatorPub:   creatorPub,
	}})
	assert.NoError(t, err)
	assert.True(t, resp.CreateResponse.OK)
	_ = writerPriv

	return id, writerPub, writerPriv
}

// S1 - create and single-record commit, then read and prove it back.
func TestScenarioS1CreateWriteReadProve(t *testing.T) {
	setup(t)
	defer teardown(t)

	id, _, writerPriv := createCapsule(t)
	capsule := capstate.Lookup(id)
	assert.NotNil(t, capsule)

	cfg := testConfig()
	writer, err := session.NewWriterSession(capsule, cfg)
	assert.NoError(t, err)
	defer writer.Close()

	encrypted := []byte("hello")
	hash := crypto.Hash(encrypted)
	ack, err := writer.Handle(&wire.Message{WriteRequest: &wire.WriteRequest{EncryptedBytes: encrypted, Seq: 0}})
	assert.NoError(t, err)
	assert.True(t, ack.WriteAck.OK)

	leaves := []crypto.Digest{hash}
	root := fakeRoot(t, leaves, cfg.Fanout)
	sig := crypto.Sign(writerPriv, root[:])

	commitResp, err := writer.Handle(&wire.Message{CommitRequest: &wire.CommitRequest{
		ClientRoot:       root,
		ClientSignedRoot: sig,
	}})
	assert.NoError(t, err)
	assert.True(t, commitResp.CommitResponse.OK)

	reader := session.NewReaderSession(capsule, cfg)
	defer reader.Close()

	readResp, err := reader.Handle(&wire.Message{ReadRequest: &wire.ReadRequest{Hash: hash}})
	assert.NoError(t, err)
	assert.True(t, readResp.ReadResponse.Found)
	assert.Equal(t, encrypted, readResp.ReadResponse.Bytes)

	proveResp, err := reader.Handle(&wire.Message{ProveRequest: &wire.ProveRequest{Hash: hash}})
	assert.NoError(t, err)
	assert.Len(t, proveResp.ProveResponse.Proof, 2)
	assert.NotNil(t, proveResp.ProveResponse.Proof[0].SignedRoot)
	assert.NotNil(t, proveResp.ProveResponse.Proof[1].Block)
}

// S2 - a proof crossing a commit boundary names the tip's signed
// root, not an earlier commit's, even though the target's own commit
// signed an older root first.
func TestScenarioS2CrossCommitChainedProof(t *testing.T) {
	setup(t)
	defer teardown(t)

	id, _, writerPriv := createCapsule(t)
	capsule := capstate.Lookup(id)
	cfg := testConfig()

	writer, err := session.NewWriterSession(capsule, cfg)
	assert.NoError(t, err)
	defer writer.Close()

	r1 := []byte("r1")
	h1 := crypto.Hash(r1)
	_, err = writer.Handle(&wire.Message{WriteRequest: &wire.WriteRequest{EncryptedBytes: r1, Seq: 0}})
	assert.NoError(t, err)
	rootA := fakeRoot(t, []crypto.Digest{h1}, cfg.Fanout)
	sigA := crypto.Sign(writerPriv, rootA[:])
	commitA, err := writer.Handle(&wire.Message{CommitRequest: &wire.CommitRequest{ClientRoot: rootA, ClientSignedRoot: sigA}})
	assert.NoError(t, err)
	assert.True(t, commitA.CommitResponse.OK)

	r2 := []byte("r2")
	h2 := crypto.Hash(r2)
	_, err = writer.Handle(&wire.Message{WriteRequest: &wire.WriteRequest{EncryptedBytes: r2, Seq: 1}})
	assert.NoError(t, err)
	rootB := merkle.Build([]crypto.Digest{h2}, cfg.Fanout, &rootA).Root()
	sigB := crypto.Sign(writerPriv, rootB[:])
	commitB, err := writer.Handle(&wire.Message{CommitRequest: &wire.CommitRequest{
		ClientRoot:       rootB,
		ClientSignedRoot: sigB,
		IncludePrevRoot:  true,
	}})
	assert.NoError(t, err)
	assert.True(t, commitB.CommitResponse.OK)

	reader := session.NewReaderSession(capsule, cfg)
	defer reader.Close()

	proveResp, err := reader.Handle(&wire.Message{ProveRequest: &wire.ProveRequest{Hash: h1}})
	assert.NoError(t, err)
	proof := proveResp.ProveResponse.Proof
	assert.Len(t, proof, 3)
	assert.NotNil(t, proof[0].SignedRoot)
	assert.Equal(t, rootB, proof[0].SignedRoot.Hash)
	assert.NotNil(t, proof[1].Block)
	assert.NotNil(t, proof[2].Block)
}

// S3 - once a client's prior-session signed root is replayed back in
// via StartCache, proving a record still covered by that root omits
// the SignedHash entirely rather than re-sending it.
func TestScenarioS3SignatureAvoidanceViaStartCache(t *testing.T) {
	setup(t)
	defer teardown(t)

	id, _, writerPriv := createCapsule(t)
	capsule := capstate.Lookup(id)
	cfg := testConfig()

	writer, err := session.NewWriterSession(capsule, cfg)
	assert.NoError(t, err)
	defer writer.Close()

	r1 := []byte("r1")
	h1 := crypto.Hash(r1)
	_, err = writer.Handle(&wire.Message{WriteRequest: &wire.WriteRequest{EncryptedBytes: r1, Seq: 0}})
	assert.NoError(t, err)
	rootA := fakeRoot(t, []crypto.Digest{h1}, cfg.Fanout)
	sigA := crypto.Sign(writerPriv, rootA[:])
	commitA, err := writer.Handle(&wire.Message{CommitRequest: &wire.CommitRequest{ClientRoot: rootA, ClientSignedRoot: sigA}})
	assert.NoError(t, err)
	assert.True(t, commitA.CommitResponse.OK)

	r2 := []byte("r2")
	h2 := crypto.Hash(r2)
	_, err = writer.Handle(&wire.Message{WriteRequest: &wire.WriteRequest{EncryptedBytes: r2, Seq: 1}})
	assert.NoError(t, err)
	rootB := merkle.Build([]crypto.Digest{h2}, cfg.Fanout, &rootA).Root()
	sigB := crypto.Sign(writerPriv, rootB[:])
	commitB, err := writer.Handle(&wire.Message{CommitRequest: &wire.CommitRequest{
		ClientRoot:       rootB,
		ClientSignedRoot: sigB,
		IncludePrevRoot:  true,
	}})
	assert.NoError(t, err)
	assert.True(t, commitB.CommitResponse.OK)

	reader := session.NewReaderSession(capsule, cfg)
	defer reader.Close()

	startResp, err := reader.Handle(&wire.Message{StartCacheRequest: &wire.StartCacheRequest{Hashes: []crypto.Digest{rootA}}})
	assert.NoError(t, err)
	assert.True(t, startResp.StartCacheResponse.OK)

	proveResp, err := reader.Handle(&wire.Message{ProveRequest: &wire.ProveRequest{Hash: h1}})
	assert.NoError(t, err)
	proof := proveResp.ProveResponse.Proof
	assert.Len(t, proof, 1)
	assert.Nil(t, proof[0].SignedRoot)
	assert.NotNil(t, proof[0].Block)
}

// S4 - a rejected commit clears U; the next write/commit only contains
// the record staged afterwards.
func TestScenarioS4RejectedCommitClearsU(t *testing.T) {
	setup(t)
	defer teardown(t)

	id, _, writerPriv := createCapsule(t)
	capsule := capstate.Lookup(id)

	cfg := testConfig()
	writer, err := session.NewWriterSession(capsule, cfg)
	assert.NoError(t, err)
	defer writer.Close()

	_, err = writer.Handle(&wire.Message{WriteRequest: &wire.WriteRequest{EncryptedBytes: []byte("r1"), Seq: 0}})
	assert.NoError(t, err)
	_, err = writer.Handle(&wire.Message{WriteRequest: &wire.WriteRequest{EncryptedBytes: []byte("r2"), Seq: 1}})
	assert.NoError(t, err)

	badResp, err := writer.Handle(&wire.Message{CommitRequest: &wire.CommitRequest{
		ClientRoot:       crypto.Hash([]byte("wrong")),
		ClientSignedRoot: crypto.Sign(writerPriv, []byte("wrong")),
	}})
	assert.NoError(t, err)
	assert.False(t, badResp.CommitResponse.OK)

	r3 := []byte("r3")
	h3 := crypto.Hash(r3)
	ack, err := writer.Handle(&wire.Message{WriteRequest: &wire.WriteRequest{EncryptedBytes: r3, Seq: 0}})
	assert.NoError(t, err)
	assert.True(t, ack.WriteAck.OK)

	root := fakeRoot(t, []crypto.Digest{h3}, cfg.Fanout)
	sig := crypto.Sign(writerPriv, root[:])
	resp, err := writer.Handle(&wire.Message{CommitRequest: &wire.CommitRequest{ClientRoot: root, ClientSignedRoot: sig}})
	assert.NoError(t, err)
	assert.True(t, resp.CommitResponse.OK)

	latestSeq, _ := capsule.Latest()
	assert.Equal(t, uint64(0), latestSeq)

	name, found, err := storage.NameFromNum(id, 0)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, h3, name)
}

// S5 - a subscriber's wait_after is released by a commit, and by
// connection close when cancelled mid-wait.
func TestScenarioS5SubscriberWakeupAndCancellation(t *testing.T) {
	setup(t)
	defer teardown(t)

	id, _, writerPriv := createCapsule(t)
	capsule := capstate.Lookup(id)
	cfg := testConfig()

	sub := session.NewSubscriberSession(context.Background(), capsule)
	defer sub.Close()

	resultCh := make(chan *wire.Message, 1)
	go func() {
		resp, err := sub.Handle(&wire.Message{WaitAfterRequest: &wire.WaitAfterRequest{Seq: 0}})
		assert.NoError(t, err)
		resultCh <- resp
	}()

	writer, err := session.NewWriterSession(capsule, cfg)
	assert.NoError(t, err)
	defer writer.Close()

	encrypted := []byte("woken")
	hash := crypto.Hash(encrypted)
	_, err = writer.Handle(&wire.Message{WriteRequest: &wire.WriteRequest{EncryptedBytes: encrypted, Seq: 0}})
	assert.NoError(t, err)
	root := fakeRoot(t, []crypto.Digest{hash}, cfg.Fanout)
	sig := crypto.Sign(writerPriv, root[:])
	_, err = writer.Handle(&wire.Message{CommitRequest: &wire.CommitRequest{ClientRoot: root, ClientSignedRoot: sig}})
	assert.NoError(t, err)

	resp := <-resultCh
	assert.Equal(t, uint64(1), resp.WaitAfterResponse.NewSeq)

	cancelledCtx, cancel := context.WithCancel(context.Background())
	sub2 := session.NewSubscriberSession(cancelledCtx, capsule)
	defer sub2.Close()
	cancel()
	_, err = sub2.Handle(&wire.Message{WaitAfterRequest: &wire.WaitAfterRequest{Seq: 1}})
	assert.Error(t, err)
}

// S6 - duplicate record bytes in one commit both read and prove back
// successfully.
func TestScenarioS6DuplicateRecordBytes(t *testing.T) {
	setup(t)
	defer teardown(t)

	id, _, writerPriv := createCapsule(t)
	capsule := capstate.Lookup(id)
	cfg := testConfig()

	writer, err := session.NewWriterSession(capsule, cfg)
	assert.NoError(t, err)
	defer writer.Close()

	same := []byte("same-ciphertext")
	h := crypto.Hash(same)
	_, err = writer.Handle(&wire.Message{WriteRequest: &wire.WriteRequest{EncryptedBytes: same, Seq: 0}})
	assert.NoError(t, err)
	_, err = writer.Handle(&wire.Message{WriteRequest: &wire.WriteRequest{EncryptedBytes: same, Seq: 1}})
	assert.NoError(t, err)

	root := fakeRoot(t, []crypto.Digest{h, h}, cfg.Fanout)
	sig := crypto.Sign(writerPriv, root[:])
	resp, err := writer.Handle(&wire.Message{CommitRequest: &wire.CommitRequest{ClientRoot: root, ClientSignedRoot: sig}})
	assert.NoError(t, err)
	assert.True(t, resp.CommitResponse.OK)

	reader := session.NewReaderSession(capsule, cfg)
	defer reader.Close()

	readResp, err := reader.Handle(&wire.Message{ReadRequest: &wire.ReadRequest{Hash: h}})
	assert.NoError(t, err)
	assert.True(t, readResp.ReadResponse.Found)

	proveResp, err := reader.Handle(&wire.Message{ProveRequest: &wire.ProveRequest{Hash: h}})
	assert.NoError(t, err)
	assert.NotEmpty(t, proveResp.ProveResponse.Proof)
}
